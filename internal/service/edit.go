package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kainan-app/api/internal/enum"
	"github.com/kainan-app/api/internal/store"
	"github.com/shopspring/decimal"
)

var ErrOrderNotEditable = errors.New("order can no longer be edited")

// EditLineRequest is one entry in the replacement item list. Entries that
// name an existing order item keep its captured price and composition and
// only take the new quantity; entries without one are resolved and priced
// from the current menu like a fresh line.
type EditLineRequest struct {
	OrderItemID string // existing line to keep, "" for a new line
	Quantity    int32

	// New lines only.
	MenuItemID      string
	VariantID       string
	SelectedChoices map[string]string
}

// EditOrderItemsRequest replaces an order's item list wholesale.
type EditOrderItemsRequest struct {
	OrderID uuid.UUID
	Items   []EditLineRequest
	Actor   Actor
}

// itemSnapshot is the ledger payload for item edits: a compact view of each
// line before and after.
type itemSnapshot struct {
	DisplayName string `json:"display_name"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int32  `json:"quantity"`
	LineTotal   string `json:"line_total"`
}

func snapshotItems(items []store.OrderItem) []itemSnapshot {
	out := make([]itemSnapshot, len(items))
	for i, it := range items {
		out[i] = itemSnapshot{
			DisplayName: it.DisplayName,
			UnitPrice:   numericToDecimal(it.UnitPrice).StringFixed(2),
			Quantity:    it.Quantity,
			LineTotal:   numericToDecimal(it.LineTotal).StringFixed(2),
		}
	}
	return out
}

// EditOrderItems atomically replaces the order's lines and reprices it.
// Kept lines retain their original captured unit price even if the menu has
// changed since; fees are carried over unchanged and the applied discount is
// carried but re-capped at the new subtotal. The edit lands in the ledger as
// a single entry with full before/after snapshots.
func (s *OrderService) EditOrderItems(ctx context.Context, req EditOrderItemsRequest) (*CreateOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	st := s.newStore(tx)

	order, err := st.GetOrderForUpdate(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if IsTerminalStatus(order.Status) || order.Status == enum.OrderStatusDenied {
		return nil, fmt.Errorf("%w: status is %s", ErrOrderNotEditable, order.Status)
	}

	existing, err := st.ListOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	existingByID := make(map[uuid.UUID]store.OrderItem, len(existing))
	for _, it := range existing {
		existingByID[it.ID] = it
	}

	var newParams []store.CreateOrderItemParams
	for i, e := range req.Items {
		if e.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		if e.OrderItemID != "" {
			id, err := uuid.Parse(e.OrderItemID)
			if err != nil {
				return nil, fmt.Errorf("items[%d]: invalid order_item_id", i)
			}
			prev, ok := existingByID[id]
			if !ok {
				return nil, fmt.Errorf("items[%d]: order item not found", i)
			}
			unit := numericToDecimal(prev.UnitPrice)
			newParams = append(newParams, store.CreateOrderItemParams{
				OrderID:         order.ID,
				MenuItemID:      prev.MenuItemID,
				DisplayName:     prev.DisplayName,
				UnitPrice:       prev.UnitPrice,
				Quantity:        e.Quantity,
				LineTotal:       decimalToNumeric(unit.Mul(decimal.NewFromInt32(e.Quantity))),
				VariantID:       prev.VariantID,
				VariantName:     prev.VariantName,
				SelectedChoices: prev.SelectedChoices,
				BundleItems:     prev.BundleItems,
				SortOrder:       int32(i),
			})
			continue
		}

		line, err := s.resolveRequestLine(ctx, st, LineRequest{
			MenuItemID:      e.MenuItemID,
			VariantID:       e.VariantID,
			Quantity:        e.Quantity,
			SelectedChoices: e.SelectedChoices,
		})
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		params, err := lineToItemParams(order.ID, line, int32(i))
		if err != nil {
			return nil, err
		}
		newParams = append(newParams, params)
	}

	if err := st.DeleteOrderItems(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("delete order items: %w", err)
	}

	var items []store.OrderItem
	var priced []PricedLine
	for _, p := range newParams {
		item, err := st.CreateOrderItem(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
		priced = append(priced, PricedLine{
			UnitPrice: numericToDecimal(item.UnitPrice),
			Quantity:  item.Quantity,
		})
	}

	totals := ComputeTotals(priced,
		numericToDecimal(order.PlatformFee),
		numericToDecimal(order.DeliveryFee),
		numericToDecimal(order.Discount))

	updated, err := st.UpdateOrderTotals(ctx, store.UpdateOrderTotalsParams{
		ID:       order.ID,
		Subtotal: decimalToNumeric(totals.Subtotal),
		Discount: decimalToNumeric(totals.Discount),
		Total:    decimalToNumeric(totals.Total),
	})
	if err != nil {
		return nil, fmt.Errorf("update totals: %w", err)
	}

	if err := s.recordItemEdit(ctx, st, order.ID, existing, items, req.Actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &CreateOrderResult{Order: updated, Items: items}, nil
}

func (s *OrderService) recordItemEdit(ctx context.Context, st OrderStore, orderID uuid.UUID, before, after []store.OrderItem, actor Actor) error {
	prev, err := json.Marshal(snapshotItems(before))
	if err != nil {
		return fmt.Errorf("encode previous items: %w", err)
	}
	next, err := json.Marshal(snapshotItems(after))
	if err != nil {
		return fmt.Errorf("encode new items: %w", err)
	}
	_, err = st.CreateOrderModification(ctx, store.CreateOrderModificationParams{
		OrderID:          orderID,
		ActorID:          actor.ID,
		ActorName:        actor.Name,
		ModificationType: enum.ModificationOrderEdited,
		PreviousValue:    prev,
		NewValue:         next,
		ItemDetails:      fmt.Sprintf("Modified %d items", len(after)),
	})
	if err != nil {
		return fmt.Errorf("record item edit: %w", err)
	}
	return nil
}

// GetOrderModifications returns the full audit trail for an order, oldest
// first.
func (s *OrderService) GetOrderModifications(ctx context.Context, db store.DBTX, orderID uuid.UUID) ([]store.OrderModification, error) {
	return s.newStore(db).ListOrderModifications(ctx, orderID)
}
