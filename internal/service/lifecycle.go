package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kainan-app/api/internal/enum"
	"github.com/kainan-app/api/internal/store"
)

// statusSnapshot is the ledger before/after payload for status changes.
type statusSnapshot struct {
	Status       string `json:"status"`
	DenialReason string `json:"denial_reason,omitempty"`
}

func marshalStatusSnapshot(status, denialReason string) []byte {
	b, _ := json.Marshal(statusSnapshot{Status: status, DenialReason: denialReason})
	return b
}

// TransitionStatusRequest moves an order along its lifecycle path.
type TransitionStatusRequest struct {
	OrderID              uuid.UUID
	NextStatus           string
	EstimatedPrepMinutes int32 // optional, only meaningful when accepting
	Actor                Actor
}

// TransitionStatus applies a regular status transition. The order row is
// locked for the duration so racing actors serialize; the losing writer sees
// the winner's status and fails validation instead of clobbering it.
func (s *OrderService) TransitionStatus(ctx context.Context, req TransitionStatusRequest) (*store.Order, error) {
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

	if err := ValidateTransition(order.OrderType, order.FulfillmentMethod.String, order.Status, req.NextStatus); err != nil {
		return nil, err
	}

	prep := order.EstimatedPrepMinutes
	if req.NextStatus == enum.OrderStatusAccepted && req.EstimatedPrepMinutes > 0 {
		prep = pgtype.Int4{Int32: req.EstimatedPrepMinutes, Valid: true}
	}

	updated, err := st.UpdateOrderStatus(ctx, store.UpdateOrderStatusParams{
		ID:                   order.ID,
		Status:               req.NextStatus,
		DenialReason:         pgtype.Text{}, // cleared on any regular transition
		EstimatedPrepMinutes: prep,
	})
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	if err := s.recordStatusChange(ctx, st, order, updated, req.Actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &updated, nil
}

// DenyOrderRequest denies an order with a mandatory reason.
type DenyOrderRequest struct {
	OrderID uuid.UUID
	Reason  string
	Actor   Actor
}

// DenyOrder moves an order to DENIED. The reason is required and is also
// persisted to the reusable preset list for one-tap reuse.
func (s *OrderService) DenyOrder(ctx context.Context, req DenyOrderRequest) (*store.Order, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, ErrDenialReasonRequired
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

	if err := ValidateDenial(order.Status); err != nil {
		return nil, err
	}

	updated, err := st.UpdateOrderStatus(ctx, store.UpdateOrderStatusParams{
		ID:                   order.ID,
		Status:               enum.OrderStatusDenied,
		DenialReason:         pgtype.Text{String: reason, Valid: true},
		EstimatedPrepMinutes: order.EstimatedPrepMinutes,
	})
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	if err := st.SaveDenialReason(ctx, reason); err != nil {
		return nil, fmt.Errorf("save denial reason: %w", err)
	}

	if err := s.recordStatusChange(ctx, st, order, updated, req.Actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &updated, nil
}

// OverrideDeniedRequest restores a denied order into the active lifecycle.
type OverrideDeniedRequest struct {
	OrderID    uuid.UUID
	NextStatus string
	Actor      Actor
}

// OverrideDenied is the owner's escape hatch for a mistaken denial. It only
// works from DENIED and only into a non-terminal status; the denial reason is
// cleared.
func (s *OrderService) OverrideDenied(ctx context.Context, req OverrideDeniedRequest) (*store.Order, error) {
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

	if err := ValidateDenialOverride(order.Status, req.NextStatus); err != nil {
		return nil, err
	}

	updated, err := st.UpdateOrderStatus(ctx, store.UpdateOrderStatusParams{
		ID:                   order.ID,
		Status:               req.NextStatus,
		DenialReason:         pgtype.Text{},
		EstimatedPrepMinutes: order.EstimatedPrepMinutes,
	})
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	if err := s.recordStatusChange(ctx, st, order, updated, req.Actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &updated, nil
}

func (s *OrderService) recordStatusChange(ctx context.Context, st OrderStore, before, after store.Order, actor Actor) error {
	_, err := st.CreateOrderModification(ctx, store.CreateOrderModificationParams{
		OrderID:          before.ID,
		ActorID:          actor.ID,
		ActorName:        actor.Name,
		ModificationType: enum.ModificationStatusChanged,
		PreviousValue:    marshalStatusSnapshot(before.Status, before.DenialReason.String),
		NewValue:         marshalStatusSnapshot(after.Status, after.DenialReason.String),
		ItemDetails:      fmt.Sprintf("%s -> %s", before.Status, after.Status),
	})
	if err != nil {
		return fmt.Errorf("record status change: %w", err)
	}
	return nil
}

// AttachPaymentProofRequest attaches an uploaded proof image to an order.
// Exactly one of the two URLs should be set per call; the other is preserved.
type AttachPaymentProofRequest struct {
	OrderID             uuid.UUID
	DownPaymentProofURL string
	FullPaymentProofURL string
}

var ErrNoProofProvided = errors.New("a payment proof URL is required")

// AttachPaymentProof records a payment proof upload. Terminal orders are
// still writable here: a customer can settle after delivery.
func (s *OrderService) AttachPaymentProof(ctx context.Context, req AttachPaymentProofRequest) (*store.Order, error) {
	if req.DownPaymentProofURL == "" && req.FullPaymentProofURL == "" {
		return nil, ErrNoProofProvided
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	st := s.newStore(tx)

	if _, err := st.GetOrderForUpdate(ctx, req.OrderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	updated, err := st.SetPaymentProof(ctx, store.SetPaymentProofParams{
		ID:                  req.OrderID,
		DownPaymentProofURL: textOrNull(req.DownPaymentProofURL),
		FullPaymentProofURL: textOrNull(req.FullPaymentProofURL),
	})
	if err != nil {
		return nil, fmt.Errorf("set payment proof: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &updated, nil
}

// DerivePaymentStatus computes the payment state from attached proofs. It is
// never stored; the proof URLs are the source of truth.
func DerivePaymentStatus(o store.Order) string {
	switch {
	case o.FullPaymentProofURL.Valid:
		return enum.PaymentStatusFullyPaid
	case o.DownPaymentProofURL.Valid:
		return enum.PaymentStatusPartiallyPaid
	default:
		return enum.PaymentStatusUnpaid
	}
}
