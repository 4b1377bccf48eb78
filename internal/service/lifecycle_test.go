package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kainan-app/api/internal/enum"
	"github.com/kainan-app/api/internal/store"
)

func lockedOrder(id uuid.UUID, status string) store.Order {
	return store.Order{
		ID:        id,
		OrderType: enum.OrderTypeTakeaway,
		Status:    status,
	}
}

func testActor() Actor {
	return Actor{ID: uuid.New(), Name: "Aling Nena"}
}

func TestTransitionStatus_Accept(t *testing.T) {
	orderID := uuid.New()
	st := defaultStore(uuid.New(), uuid.New())
	st.getOrderForUpdateFn = func(ctx context.Context, id uuid.UUID) (store.Order, error) {
		return lockedOrder(orderID, enum.OrderStatusPending), nil
	}

	var captured store.UpdateOrderStatusParams
	base := st.updateOrderStatusFn
	st.updateOrderStatusFn = func(ctx context.Context, arg store.UpdateOrderStatusParams) (store.Order, error) {
		captured = arg
		return base(ctx, arg)
	}
	var mod store.CreateOrderModificationParams
	baseMod := st.createOrderModificationFn
	st.createOrderModificationFn = func(ctx context.Context, arg store.CreateOrderModificationParams) (store.OrderModification, error) {
		mod = arg
		return baseMod(ctx, arg)
	}

	svc, _ := newTestService(st)
	updated, err := svc.TransitionStatus(context.Background(), TransitionStatusRequest{
		OrderID:              orderID,
		NextStatus:           enum.OrderStatusAccepted,
		EstimatedPrepMinutes: 25,
		Actor:                testActor(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enum.OrderStatusAccepted {
		t.Errorf("status: got %v, want ACCEPTED", updated.Status)
	}
	if !captured.EstimatedPrepMinutes.Valid || captured.EstimatedPrepMinutes.Int32 != 25 {
		t.Errorf("prep minutes: got %+v, want 25", captured.EstimatedPrepMinutes)
	}
	if mod.ModificationType != enum.ModificationStatusChanged {
		t.Errorf("ledger type: got %v, want STATUS_CHANGED", mod.ModificationType)
	}

	var before, after statusSnapshot
	if err := json.Unmarshal(mod.PreviousValue, &before); err != nil {
		t.Fatalf("previous snapshot: %v", err)
	}
	if err := json.Unmarshal(mod.NewValue, &after); err != nil {
		t.Fatalf("new snapshot: %v", err)
	}
	if before.Status != enum.OrderStatusPending || after.Status != enum.OrderStatusAccepted {
		t.Errorf("snapshots: %v -> %v, want PENDING -> ACCEPTED", before.Status, after.Status)
	}
}

func TestTransitionStatus_InvalidRejected(t *testing.T) {
	orderID := uuid.New()
	st := defaultStore(uuid.New(), uuid.New())
	st.getOrderForUpdateFn = func(ctx context.Context, id uuid.UUID) (store.Order, error) {
		return lockedOrder(orderID, enum.OrderStatusCompleted), nil
	}
	updateCalls := 0
	base := st.updateOrderStatusFn
	st.updateOrderStatusFn = func(ctx context.Context, arg store.UpdateOrderStatusParams) (store.Order, error) {
		updateCalls++
		return base(ctx, arg)
	}

	svc, _ := newTestService(st)
	_, err := svc.TransitionStatus(context.Background(), TransitionStatusRequest{
		OrderID:    orderID,
		NextStatus: enum.OrderStatusPending,
		Actor:      testActor(),
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
	if updateCalls != 0 {
		t.Error("no write should happen for a rejected transition")
	}
}

func TestTransitionStatus_OrderNotFound(t *testing.T) {
	st := defaultStore(uuid.New(), uuid.New())
	svc, _ := newTestService(st)

	_, err := svc.TransitionStatus(context.Background(), TransitionStatusRequest{
		OrderID:    uuid.New(),
		NextStatus: enum.OrderStatusAccepted,
		Actor:      testActor(),
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestDenyOrder(t *testing.T) {
	orderID := uuid.New()
	st := defaultStore(uuid.New(), uuid.New())
	st.getOrderForUpdateFn = func(ctx context.Context, id uuid.UUID) (store.Order, error) {
		return lockedOrder(orderID, enum.OrderStatusPending), nil
	}

	var captured store.UpdateOrderStatusParams
	base := st.updateOrderStatusFn
	st.updateOrderStatusFn = func(ctx context.Context, arg store.UpdateOrderStatusParams) (store.Order, error) {
		captured = arg
		return base(ctx, arg)
	}
	var savedReason string
	st.saveDenialReasonFn = func(ctx context.Context, reason string) error {
		savedReason = reason
		return nil
	}

	svc, _ := newTestService(st)
	updated, err := svc.DenyOrder(context.Background(), DenyOrderRequest{
		OrderID: orderID,
		Reason:  "Out of stock",
		Actor:   testActor(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enum.OrderStatusDenied {
		t.Errorf("status: got %v, want DENIED", updated.Status)
	}
	if !captured.DenialReason.Valid || captured.DenialReason.String != "Out of stock" {
		t.Errorf("denial reason: got %+v", captured.DenialReason)
	}
	if savedReason != "Out of stock" {
		t.Errorf("preset list: got %q, want the reason persisted for reuse", savedReason)
	}
}

func TestDenyOrder_ReasonRequired(t *testing.T) {
	st := defaultStore(uuid.New(), uuid.New())
	svc, _ := newTestService(st)

	_, err := svc.DenyOrder(context.Background(), DenyOrderRequest{
		OrderID: uuid.New(),
		Reason:  "   ",
		Actor:   testActor(),
	})
	if !errors.Is(err, ErrDenialReasonRequired) {
		t.Fatalf("expected ErrDenialReasonRequired, got: %v", err)
	}
}

func TestDenyOrder_TerminalRejected(t *testing.T) {
	orderID := uuid.New()
	st := defaultStore(uuid.New(), uuid.New())
	st.getOrderForUpdateFn = func(ctx context.Context, id uuid.UUID) (store.Order, error) {
		return lockedOrder(orderID, enum.OrderStatusDelivered), nil
	}

	svc, _ := newTestService(st)
	_, err := svc.DenyOrder(context.Background(), DenyOrderRequest{
		OrderID: orderID,
		Reason:  "Too late",
		Actor:   testActor(),
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestOverrideDenied(t *testing.T) {
	orderID := uuid.New()
	st := defaultStore(uuid.New(), uuid.New())
	denied := lockedOrder(orderID, enum.OrderStatusDenied)
	denied.DenialReason = pgtype.Text{String: "Out of stock", Valid: true}
	st.getOrderForUpdateFn = func(ctx context.Context, id uuid.UUID) (store.Order, error) {
		return denied, nil
	}

	var captured store.UpdateOrderStatusParams
	base := st.updateOrderStatusFn
	st.updateOrderStatusFn = func(ctx context.Context, arg store.UpdateOrderStatusParams) (store.Order, error) {
		captured = arg
		return base(ctx, arg)
	}

	svc, _ := newTestService(st)
	updated, err := svc.OverrideDenied(context.Background(), OverrideDeniedRequest{
		OrderID:    orderID,
		NextStatus: enum.OrderStatusPending,
		Actor:      testActor(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enum.OrderStatusPending {
		t.Errorf("status: got %v, want PENDING", updated.Status)
	}
	if captured.DenialReason.Valid {
		t.Error("denial reason should be cleared on override")
	}
}

func TestOverrideDenied_OnlyFromDenied(t *testing.T) {
	orderID := uuid.New()
	st := defaultStore(uuid.New(), uuid.New())
	st.getOrderForUpdateFn = func(ctx context.Context, id uuid.UUID) (store.Order, error) {
		return lockedOrder(orderID, enum.OrderStatusPending), nil
	}

	svc, _ := newTestService(st)
	_, err := svc.OverrideDenied(context.Background(), OverrideDeniedRequest{
		OrderID:    orderID,
		NextStatus: enum.OrderStatusAccepted,
		Actor:      testActor(),
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestAttachPaymentProof(t *testing.T) {
	orderID := uuid.New()
	st := defaultStore(uuid.New(), uuid.New())
	st.getOrderForUpdateFn = func(ctx context.Context, id uuid.UUID) (store.Order, error) {
		return lockedOrder(orderID, enum.OrderStatusAccepted), nil
	}

	var captured store.SetPaymentProofParams
	base := st.setPaymentProofFn
	st.setPaymentProofFn = func(ctx context.Context, arg store.SetPaymentProofParams) (store.Order, error) {
		captured = arg
		return base(ctx, arg)
	}

	svc, _ := newTestService(st)
	_, err := svc.AttachPaymentProof(context.Background(), AttachPaymentProofRequest{
		OrderID:             orderID,
		DownPaymentProofURL: "https://cdn.example.com/gcash-123.jpg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !captured.DownPaymentProofURL.Valid {
		t.Error("down payment proof should be set")
	}
	if captured.FullPaymentProofURL.Valid {
		t.Error("full payment proof should stay null so COALESCE preserves it")
	}
}

func TestAttachPaymentProof_Empty(t *testing.T) {
	st := defaultStore(uuid.New(), uuid.New())
	svc, _ := newTestService(st)

	_, err := svc.AttachPaymentProof(context.Background(), AttachPaymentProofRequest{OrderID: uuid.New()})
	if !errors.Is(err, ErrNoProofProvided) {
		t.Fatalf("expected ErrNoProofProvided, got: %v", err)
	}
}

func TestDerivePaymentStatus(t *testing.T) {
	var o store.Order
	if got := DerivePaymentStatus(o); got != enum.PaymentStatusUnpaid {
		t.Errorf("no proofs: got %v, want UNPAID", got)
	}

	o.DownPaymentProofURL = pgtype.Text{String: "https://cdn.example.com/dp.jpg", Valid: true}
	if got := DerivePaymentStatus(o); got != enum.PaymentStatusPartiallyPaid {
		t.Errorf("down payment only: got %v, want PARTIALLY_PAID", got)
	}

	o.FullPaymentProofURL = pgtype.Text{String: "https://cdn.example.com/full.jpg", Valid: true}
	if got := DerivePaymentStatus(o); got != enum.PaymentStatusFullyPaid {
		t.Errorf("full proof: got %v, want FULLY_PAID", got)
	}
}
