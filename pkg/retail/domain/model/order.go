package model

import (
	"time"

	"github.com/pkg/errors"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type Order struct {
	OrderID    string      `json:"orderId"`
	CustomerID string      `json:"customerId"`
	ProductID  string      `json:"productId"`
	Quantity   int         `json:"quantity"`
	TotalCents int64       `json:"totalCents"`
	Status     OrderStatus `json:"status"`
	OrderedAt  time.Time   `json:"orderedAt"`
}

func (*Order) Kind() Kind { return KindOrder }

// OrderPatch lists the order attributes an update wants to set.
// A nil field is left untouched by Apply.
type OrderPatch struct {
	OrderID    *string
	CustomerID *string
	ProductID  *string
	Quantity   *int
	TotalCents *int64
	Status     *OrderStatus
	OrderedAt  *time.Time
}

func (OrderPatch) Kind() Kind { return KindOrder }

func (p OrderPatch) IsEmpty() bool {
	return p.OrderID == nil && p.CustomerID == nil && p.ProductID == nil &&
		p.Quantity == nil && p.TotalCents == nil && p.Status == nil && p.OrderedAt == nil
}

func (p OrderPatch) Validate() error {
	switch {
	case p.Status != nil && !p.Status.Valid():
		return errors.Errorf("unknown order status %q", *p.Status)
	case p.Quantity != nil && *p.Quantity < 0:
		return errors.New("quantity cannot be negative")
	case p.TotalCents != nil && *p.TotalCents < 0:
		return errors.New("total cannot be negative")
	}
	return nil
}

func (p OrderPatch) Apply(e Entity) (Entity, error) {
	current, ok := e.(*Order)
	if !ok {
		return nil, errors.Errorf("order patch applied to %s", e.Kind())
	}
	order := *current
	setIf(&order.OrderID, p.OrderID)
	setIf(&order.CustomerID, p.CustomerID)
	setIf(&order.ProductID, p.ProductID)
	setIf(&order.Quantity, p.Quantity)
	setIf(&order.TotalCents, p.TotalCents)
	setIf(&order.Status, p.Status)
	setIf(&order.OrderedAt, p.OrderedAt)
	return &order, nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
