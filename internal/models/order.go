package models

import "time"

// Order statuses, kept in storefront Portuguese to match the checkout flows.
const (
	// OrderStatusPending means payment has not been confirmed yet.
	OrderStatusPending = "pendente"
	// OrderStatusPaid is the terminal paid status the reconciliation
	// watcher resolves on.
	OrderStatusPaid = "pago"
	// OrderStatusShipped means the order left the warehouse.
	OrderStatusShipped = "enviado"
	// OrderStatusDelivered means the order reached the customer.
	OrderStatusDelivered = "entregue"
	// OrderStatusCancelled means the order was cancelled.
	OrderStatusCancelled = "cancelado"
)

// Order is the canonical order record both checkout paths converge into.
//
// Catalog checkouts create the row directly. Live-event checkouts write a
// LiveCart first; a sync step creates the order later and links it through
// LiveCartID, which is why lookups by live cart id can trail the payment.
type Order struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // UUID primary key.

	CustomerID   *uint64 `gorm:"index"`              // Owning customer, if signed in.
	CustomerName string  `gorm:"type:text;not null"` // Name captured at checkout.

	Status string `gorm:"type:varchar(16);not null;default:'pendente'"` // Order lifecycle status.

	Total       float64 `gorm:"type:decimal(12,2);not null"`           // Order total including shipping.
	ShippingFee float64 `gorm:"type:decimal(12,2);not null;default:0"` // Shipping portion of the total.

	CheckoutURL string  `gorm:"type:text"`              // Payment-provider checkout link for retries.
	LiveCartID  *string `gorm:"type:varchar(36);index"` // Originating live cart, for the live flow.

	PaidAt *time.Time `gorm:"index"` // Payment confirmation time.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`       // Last update timestamp.
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OrderID string `gorm:"type:varchar(36);not null;index"` // Owning order.

	ProductID string  `gorm:"type:varchar(36);not null"`   // Purchased product.
	Name      string  `gorm:"type:text;not null"`          // Product name snapshot.
	Qty       int     `gorm:"not null;default:1"`          // Units purchased.
	UnitPrice float64 `gorm:"type:decimal(12,2);not null"` // Price per unit at purchase time.

	IsGift bool `gorm:"not null;default:false"` // Promotional gift line flag.
}
