package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the backend-owned record; number and total always come from the server.
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          string          `json:"userId"`
	TableID         string          `json:"tableId,omitempty"`
	DeliveryAddress string          `json:"deliveryAddress,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Status          OrderStatus     `json:"status"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	Total           decimal.Decimal `json:"total"`
	Items           []OrderItem     `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func (o *Order) Cancellable() bool {
	return o.Status.CanMoveTo(OrderCancelled)
}
