package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID           uuid.UUID
	FullName     string
	Email        string
	Phone        pgtype.Text
	PasswordHash string
	Role         string
	Address      pgtype.Text
	Barangay     pgtype.Text
	CreatedAt    time.Time
}

type MenuItem struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	BasePrice   pgtype.Numeric
	Category    string
	IsAvailable bool
	IsBundle    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BundleConstituent is one declared member of a bundle menu item.
// Constituents not referenced by any choice group are "fixed" and always
// included when the bundle is ordered.
type BundleConstituent struct {
	ID         uuid.UUID
	BundleID   uuid.UUID
	MenuItemID uuid.UUID
	SortOrder  int32
}

type MenuItemVariant struct {
	ID          uuid.UUID
	MenuItemID  uuid.UUID
	Name        string
	Price       pgtype.Numeric
	IsAvailable bool
	Sku         pgtype.Text
	SortOrder   int32
}

// ChoiceOption is one selectable option inside a choice group. Options are
// embedded in the group row as ordered JSONB, mirroring how the dashboard
// edits them as a single unit.
type ChoiceOption struct {
	Name        string     `json:"name"`
	Price       string     `json:"price"`
	IsAvailable bool       `json:"is_available"`
	SortOrder   int32      `json:"sort_order"`
	MenuItemID  *uuid.UUID `json:"menu_item_id,omitempty"`
	VariantID   *uuid.UUID `json:"variant_id,omitempty"`
}

type ChoiceGroup struct {
	ID         uuid.UUID
	BundleID   uuid.UUID
	Name       string
	IsRequired bool
	SortOrder  int32
	Choices    []ChoiceOption
}

type Voucher struct {
	ID             uuid.UUID
	Code           string
	DiscountType   string
	Value          pgtype.Numeric
	MinOrderAmount pgtype.Numeric
	MaxDiscount    pgtype.Numeric
	ExpiresAt      time.Time
	UsageLimit     int32
	UsageCount     int32
	IsActive       bool
	CreatedAt      time.Time
}

type DeliveryFee struct {
	ID       uuid.UUID
	Barangay string
	Fee      pgtype.Numeric
}

// PreorderWindow is one allowed pre-order slot. Times are stored as minutes
// since midnight; at most one window exists per date.
type PreorderWindow struct {
	ID           uuid.UUID
	Date         time.Time
	StartMinutes int32
	EndMinutes   int32
}

// Settings is the single restaurant-level configuration row.
type Settings struct {
	ID                          uuid.UUID
	PlatformFeeEnabled          bool
	PlatformFeeAmount           pgtype.Numeric
	DeliveryFeeMode             string
	DeliveryBaseFee             pgtype.Numeric
	DeliveryPerKmRate           pgtype.Numeric
	AvgDeliveryMinutes          int32
	PreorderRestrictionsEnabled bool
	UpdatedAt                   time.Time
}

type DenialReason struct {
	ID        uuid.UUID
	Reason    string
	CreatedAt time.Time
}

type Order struct {
	ID                   uuid.UUID
	OrderNumber          string
	CustomerID           uuid.UUID
	CustomerName         string
	CustomerPhone        pgtype.Text
	CustomerAddress      pgtype.Text
	CustomerBarangay     pgtype.Text
	OrderType            string
	Status               string
	FulfillmentMethod    pgtype.Text
	ScheduledAt          pgtype.Timestamptz
	DeliveryDistanceKm   pgtype.Numeric
	Subtotal             pgtype.Numeric
	PlatformFee          pgtype.Numeric
	DeliveryFee          pgtype.Numeric
	Discount             pgtype.Numeric
	Total                pgtype.Numeric
	VoucherCode          pgtype.Text
	EstimatedPrepMinutes pgtype.Int4
	DenialReason         pgtype.Text
	DownPaymentProofURL  pgtype.Text
	FullPaymentProofURL  pgtype.Text
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type OrderItem struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	MenuItemID      uuid.UUID
	DisplayName     string
	UnitPrice       pgtype.Numeric
	Quantity        int32
	LineTotal       pgtype.Numeric
	VariantID       pgtype.UUID
	VariantName     pgtype.Text
	SelectedChoices []byte
	BundleItems     []byte
	SortOrder       int32
}

type OrderModification struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	ActorID          uuid.UUID
	ActorName        string
	ModificationType string
	PreviousValue    []byte
	NewValue         []byte
	ItemDetails      string
	CreatedAt        time.Time
}
