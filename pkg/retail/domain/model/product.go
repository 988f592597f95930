package model

import "github.com/pkg/errors"

type Product struct {
	ProductName    string `json:"productName"`
	Description    string `json:"description"`
	PriceCents     int64  `json:"priceCents"`
	StockAvailable int    `json:"stockAvailable"`
	ImageURL       string `json:"imageUrl"`
}

func (*Product) Kind() Kind { return KindProduct }

type ProductPatch struct {
	ProductName    *string
	Description    *string
	PriceCents     *int64
	StockAvailable *int
	ImageURL       *string
}

func (ProductPatch) Kind() Kind { return KindProduct }

func (p ProductPatch) IsEmpty() bool {
	return p.ProductName == nil && p.Description == nil && p.PriceCents == nil &&
		p.StockAvailable == nil && p.ImageURL == nil
}

func (p ProductPatch) Validate() error {
	if (p.PriceCents != nil && *p.PriceCents < 0) || (p.StockAvailable != nil && *p.StockAvailable < 0) {
		return errors.New("price and stock cannot be negative")
	}
	return nil
}

func (p ProductPatch) Apply(e Entity) (Entity, error) {
	current, ok := e.(*Product)
	if !ok {
		return nil, errors.Errorf("product patch applied to %s", e.Kind())
	}
	product := *current
	setIf(&product.ProductName, p.ProductName)
	setIf(&product.Description, p.Description)
	setIf(&product.PriceCents, p.PriceCents)
	setIf(&product.StockAvailable, p.StockAvailable)
	setIf(&product.ImageURL, p.ImageURL)
	return &product, nil
}
