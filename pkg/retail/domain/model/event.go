package model

type Event interface {
	Type() string
}

type OrderPlaced struct {
	Identity   Identity
	OrderID    string
	CustomerID string
	Version    Version
}

func (e OrderPlaced) Type() string { return "OrderPlaced" }

// OrderUpdated follows a placement message for an order that already existed.
type OrderUpdated struct {
	Identity Identity
	OrderID  string
	Version  Version
}

func (e OrderUpdated) Type() string { return "OrderUpdated" }

type OrderStatusChanged struct {
	Identity  Identity
	OrderID   string
	OldStatus OrderStatus
	NewStatus OrderStatus
	Version   Version
}

func (e OrderStatusChanged) Type() string { return "OrderStatusChanged" }

type ProductStockChanged struct {
	Identity    Identity
	OldQuantity int
	NewQuantity int
	Version     Version
}

func (e ProductStockChanged) Type() string { return "ProductStockChanged" }

type CustomerRegistered struct {
	Identity Identity
	Name     string
	Email    string
	Version  Version
}

func (e CustomerRegistered) Type() string { return "CustomerRegistered" }

type CustomerUpdated struct {
	Identity Identity
	Email    string
	Version  Version
}

func (e CustomerUpdated) Type() string { return "CustomerUpdated" }

// ChangeEvent describes an applied update. before is nil when the update created the record.
func ChangeEvent(intent Intent, before Entity, after *Record) Event {
	switch intent {
	case OrderPlacement:
		order := after.Entity.(*Order)
		if before != nil {
			return OrderUpdated{Identity: after.Identity, OrderID: order.OrderID, Version: after.Version}
		}
		return OrderPlaced{Identity: after.Identity, OrderID: order.OrderID, CustomerID: order.CustomerID, Version: after.Version}
	case OrderStatusChange:
		order := after.Entity.(*Order)
		e := OrderStatusChanged{Identity: after.Identity, OrderID: order.OrderID, NewStatus: order.Status, Version: after.Version}
		if old, ok := before.(*Order); ok {
			e.OldStatus = old.Status
		}
		return e
	case StockCorrection:
		product := after.Entity.(*Product)
		e := ProductStockChanged{Identity: after.Identity, NewQuantity: product.StockAvailable, Version: after.Version}
		if old, ok := before.(*Product); ok {
			e.OldQuantity = old.StockAvailable
		}
		return e
	case CustomerRegistration:
		customer := after.Entity.(*Customer)
		if before != nil {
			return CustomerUpdated{Identity: after.Identity, Email: customer.Email, Version: after.Version}
		}
		return CustomerRegistered{Identity: after.Identity, Name: customer.Name, Email: customer.Email, Version: after.Version}
	default:
		return nil
	}
}
