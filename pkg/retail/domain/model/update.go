package model

import "github.com/pkg/errors"

type Patch interface {
	Kind() Kind
	IsEmpty() bool
	// Validate rejects values no entity may hold, such as negative stock.
	Validate() error
	// Apply returns a merged copy of e; e itself is not modified.
	Apply(e Entity) (Entity, error)
}

type Policy int

const (
	UpdateOnly Policy = iota
	CreateOrUpdate
)

// Intent names the business operation behind an update and fixes its policy
// towards records that do not exist yet.
type Intent string

const (
	OrderPlacement       Intent = "OrderPlacement"
	OrderStatusChange    Intent = "OrderStatusChange"
	StockCorrection      Intent = "StockCorrection"
	CustomerRegistration Intent = "CustomerRegistration"
)

func (i Intent) Kind() Kind {
	switch i {
	case OrderPlacement, OrderStatusChange:
		return KindOrder
	case StockCorrection:
		return KindProduct
	case CustomerRegistration:
		return KindCustomer
	default:
		return ""
	}
}

func (i Intent) Policy() Policy {
	switch i {
	case OrderPlacement, CustomerRegistration:
		return CreateOrUpdate
	default:
		return UpdateOnly
	}
}

// ProposedUpdate carries no version token: the applier reads the current
// version itself right before writing.
type ProposedUpdate struct {
	Intent   Intent
	Identity Identity
	Patch    Patch
}

func (u ProposedUpdate) Kind() Kind {
	return u.Intent.Kind()
}

func (u ProposedUpdate) Validate() error {
	kind := u.Intent.Kind()
	switch {
	case kind == "":
		return errors.Wrapf(ErrMalformedUpdate, "unknown intent %q", u.Intent)
	case u.Identity.RowKey == "":
		return errors.Wrap(ErrMalformedUpdate, "row key is required")
	case u.Patch == nil:
		return errors.Wrap(ErrMalformedUpdate, "no patch")
	case u.Patch.Kind() != kind:
		return errors.Wrapf(ErrMalformedUpdate, "%s patch for %s intent", u.Patch.Kind(), u.Intent)
	}
	if err := u.Patch.Validate(); err != nil {
		return errors.Wrap(ErrMalformedUpdate, err.Error())
	}
	return nil
}

// Target is the identity the update addresses, with the partition key
// defaulting to the kind name.
func (u ProposedUpdate) Target() Identity {
	id := u.Identity
	if id.PartitionKey == "" {
		id.PartitionKey = string(u.Intent.Kind())
	}
	return id
}
