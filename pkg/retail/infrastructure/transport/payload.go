package transport

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"retailservice/pkg/retail/domain/model"
)

// Payloads mirror the stored entities with every attribute optional so that
// "not mentioned" stays distinct from "set to the zero value". Key matching is
// case-insensitive (encoding/json semantics).
type orderPayload struct {
	PartitionKey string             `json:"partitionKey"`
	RowKey       string             `json:"rowKey"`
	OrderID      *string            `json:"orderId"`
	CustomerID   *string            `json:"customerId"`
	ProductID    *string            `json:"productId"`
	Quantity     *int               `json:"quantity"`
	TotalCents   *int64             `json:"totalCents"`
	Status       *model.OrderStatus `json:"status"`
	OrderedAt    *time.Time         `json:"orderedAt"`
}

type productPayload struct {
	PartitionKey   string  `json:"partitionKey"`
	RowKey         string  `json:"rowKey"`
	ProductName    *string `json:"productName"`
	Description    *string `json:"description"`
	PriceCents     *int64  `json:"priceCents"`
	StockAvailable *int    `json:"stockAvailable"`
	ImageURL       *string `json:"imageUrl"`
}

type customerPayload struct {
	PartitionKey    string  `json:"partitionKey"`
	RowKey          string  `json:"rowKey"`
	Name            *string `json:"name"`
	Surname         *string `json:"surname"`
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	ShippingAddress *string `json:"shippingAddress"`
}

// decodeUpdate turns a raw body into a validated update for intent. Every
// failure wraps model.ErrMalformedUpdate.
func decodeUpdate(intent model.Intent, body []byte) (model.ProposedUpdate, error) {
	update := model.ProposedUpdate{Intent: intent}

	switch intent {
	case model.OrderPlacement, model.OrderStatusChange:
		var p *orderPayload
		if err := unmarshal(body, &p); err != nil {
			return update, err
		}
		update.Identity = model.Identity{PartitionKey: p.PartitionKey, RowKey: p.RowKey}
		if intent == model.OrderStatusChange {
			update.Patch = model.OrderPatch{Status: p.Status}
			break
		}
		if update.Identity.RowKey == "" && p.OrderID != nil {
			update.Identity.RowKey = *p.OrderID
		}
		update.Patch = model.OrderPatch{
			OrderID:    p.OrderID,
			CustomerID: p.CustomerID,
			ProductID:  p.ProductID,
			Quantity:   p.Quantity,
			TotalCents: p.TotalCents,
			Status:     p.Status,
			OrderedAt:  p.OrderedAt,
		}
	case model.StockCorrection:
		var p *productPayload
		if err := unmarshal(body, &p); err != nil {
			return update, err
		}
		update.Identity = model.Identity{PartitionKey: p.PartitionKey, RowKey: p.RowKey}
		update.Patch = model.ProductPatch{StockAvailable: p.StockAvailable}
	case model.CustomerRegistration:
		var p *customerPayload
		if err := unmarshal(body, &p); err != nil {
			return update, err
		}
		update.Identity = model.Identity{PartitionKey: p.PartitionKey, RowKey: p.RowKey}
		update.Patch = model.CustomerPatch{
			Name:            p.Name,
			Surname:         p.Surname,
			Username:        p.Username,
			Email:           p.Email,
			ShippingAddress: p.ShippingAddress,
		}
	}

	if err := update.Validate(); err != nil {
		return update, err
	}
	return update, nil
}

func unmarshal[T any](body []byte, dst **T) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.Wrap(model.ErrMalformedUpdate, err.Error())
	}
	if *dst == nil {
		return errors.Wrap(model.ErrMalformedUpdate, "empty payload")
	}
	return nil
}
