package service

import (
	"errors"
	"fmt"

	"github.com/kainan-app/api/internal/enum"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// terminalStatuses are fully frozen: no transition leaves them.
var terminalStatuses = map[string]bool{
	enum.OrderStatusCompleted: true,
	enum.OrderStatusCancelled: true,
	enum.OrderStatusDelivered: true,
}

// IsTerminalStatus reports whether a status permits no further transitions.
func IsTerminalStatus(status string) bool {
	return terminalStatuses[status]
}

func isValidStatus(s string) bool {
	switch s {
	case enum.OrderStatusPreOrderPending, enum.OrderStatusPending, enum.OrderStatusAccepted,
		enum.OrderStatusReady, enum.OrderStatusInTransit, enum.OrderStatusDelivered,
		enum.OrderStatusCompleted, enum.OrderStatusDenied, enum.OrderStatusCancelled:
		return true
	}
	return false
}

// deliversToCustomer reports whether the order follows the delivery path
// (ACCEPTED -> IN_TRANSIT -> DELIVERED) rather than the pickup path
// (ACCEPTED -> READY -> COMPLETED). Pre-orders follow the path of their
// fulfillment method.
func deliversToCustomer(orderType, fulfillment string) bool {
	if orderType == enum.OrderTypeDelivery {
		return true
	}
	return orderType == enum.OrderTypePreOrder && fulfillment == enum.FulfillmentDelivery
}

// pickupTransitions and deliveryTransitions map current status to the set of
// statuses it can move to. DENIED is intentionally absent as a key: leaving
// DENIED requires the explicit owner override, not a regular transition.
var pickupTransitions = map[string][]string{
	enum.OrderStatusPreOrderPending: {enum.OrderStatusPending, enum.OrderStatusCancelled},
	enum.OrderStatusPending:         {enum.OrderStatusAccepted, enum.OrderStatusCancelled},
	enum.OrderStatusAccepted:        {enum.OrderStatusReady, enum.OrderStatusCancelled},
	enum.OrderStatusReady:           {enum.OrderStatusCompleted},
}

var deliveryTransitions = map[string][]string{
	enum.OrderStatusPreOrderPending: {enum.OrderStatusPending, enum.OrderStatusCancelled},
	enum.OrderStatusPending:         {enum.OrderStatusAccepted, enum.OrderStatusCancelled},
	enum.OrderStatusAccepted:        {enum.OrderStatusInTransit, enum.OrderStatusCancelled},
	enum.OrderStatusInTransit:       {enum.OrderStatusDelivered},
}

// ValidateTransition checks whether an order of the given type may move from
// current to next. Denial is handled separately (any non-terminal state may
// be denied through the deny operation, which carries a mandatory reason).
func ValidateTransition(orderType, fulfillment, current, next string) error {
	if !isValidStatus(next) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	if IsTerminalStatus(current) {
		return fmt.Errorf("%w: order is finalized (%s)", ErrInvalidTransition, current)
	}

	table := pickupTransitions
	if deliversToCustomer(orderType, fulfillment) {
		table = deliveryTransitions
	}

	allowed, ok := table[current]
	if !ok {
		return fmt.Errorf("%w: cannot transition from %s", ErrInvalidTransition, current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, current, next)
}

// ValidateDenial checks that an order may be denied from its current status.
func ValidateDenial(current string) error {
	if IsTerminalStatus(current) {
		return fmt.Errorf("%w: order is finalized (%s)", ErrInvalidTransition, current)
	}
	if current == enum.OrderStatusDenied {
		return fmt.Errorf("%w: order is already denied", ErrInvalidTransition)
	}
	return nil
}

// ValidateDenialOverride checks the explicit owner escape hatch: a DENIED
// order may be put back into any valid non-terminal status.
func ValidateDenialOverride(current, next string) error {
	if current != enum.OrderStatusDenied {
		return fmt.Errorf("%w: order is not denied", ErrInvalidTransition)
	}
	if !isValidStatus(next) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	if IsTerminalStatus(next) || next == enum.OrderStatusDenied {
		return fmt.Errorf("%w: denied orders can only be restored to a non-terminal status", ErrInvalidTransition)
	}
	return nil
}
