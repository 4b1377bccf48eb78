package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusPreOrderPending = "PRE_ORDER_PENDING"
	OrderStatusPending         = "PENDING"
	OrderStatusAccepted        = "ACCEPTED"
	OrderStatusReady           = "READY"
	OrderStatusInTransit       = "IN_TRANSIT"
	OrderStatusDelivered       = "DELIVERED"
	OrderStatusCompleted       = "COMPLETED"
	OrderStatusDenied          = "DENIED"
	OrderStatusCancelled       = "CANCELLED"
)

const (
	ModificationItemAdded       = "ITEM_ADDED"
	ModificationItemRemoved     = "ITEM_REMOVED"
	ModificationQuantityChanged = "QUANTITY_CHANGED"
	ModificationPriceChanged    = "PRICE_CHANGED"
	ModificationOrderEdited     = "ORDER_EDITED"
	ModificationStatusChanged   = "STATUS_CHANGED"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	UserRoleOwner    = "OWNER"
	UserRoleCustomer = "CUSTOMER"
)

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeTakeaway = "TAKEAWAY"
	OrderTypeDelivery = "DELIVERY"
	OrderTypePreOrder = "PRE_ORDER"
)

const (
	FulfillmentPickup   = "PICKUP"
	FulfillmentDelivery = "DELIVERY"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	VoucherTypePercentage = "PERCENTAGE"
	VoucherTypeFixed      = "FIXED_AMOUNT"
)

const (
	DeliveryFeeModeBarangay = "BARANGAY"
	DeliveryFeeModeDistance = "DISTANCE"
)

// Payment status is derived from which proof-of-payment URLs are present on
// an order; it is never persisted.
const (
	PaymentStatusUnpaid        = "UNPAID"
	PaymentStatusPartiallyPaid = "PARTIALLY_PAID"
	PaymentStatusFullyPaid     = "FULLY_PAID"
)
