package model

import "github.com/pkg/errors"

type Customer struct {
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	ShippingAddress string `json:"shippingAddress"`
}

func (*Customer) Kind() Kind { return KindCustomer }

type CustomerPatch struct {
	Name            *string
	Surname         *string
	Username        *string
	Email           *string
	ShippingAddress *string
}

func (CustomerPatch) Kind() Kind { return KindCustomer }

func (p CustomerPatch) IsEmpty() bool {
	return p.Name == nil && p.Surname == nil && p.Username == nil &&
		p.Email == nil && p.ShippingAddress == nil
}

func (CustomerPatch) Validate() error { return nil }

func (p CustomerPatch) Apply(e Entity) (Entity, error) {
	current, ok := e.(*Customer)
	if !ok {
		return nil, errors.Errorf("customer patch applied to %s", e.Kind())
	}
	customer := *current
	setIf(&customer.Name, p.Name)
	setIf(&customer.Surname, p.Surname)
	setIf(&customer.Username, p.Username)
	setIf(&customer.Email, p.Email)
	setIf(&customer.ShippingAddress, p.ShippingAddress)
	return &customer, nil
}
