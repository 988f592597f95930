package model

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrRecordExists    = errors.New("record already exists")
	ErrVersionMismatch = errors.New("record has been modified by another writer")
	ErrMalformedUpdate = errors.New("malformed update")
	ErrUnknownKind     = errors.New("unknown record kind")
)

type Kind string

const (
	KindOrder    Kind = "Order"
	KindProduct  Kind = "Product"
	KindCustomer Kind = "Customer"
)

// ParseKind accepts a kind name case-insensitively, singular or plural.
func ParseKind(s string) (Kind, error) {
	name := strings.TrimSuffix(s, "s")
	for _, k := range []Kind{KindOrder, KindProduct, KindCustomer} {
		if strings.EqualFold(string(k), name) {
			return k, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownKind, "%q", s)
}

// Identity addresses a record inside the store. It never changes after creation.
type Identity struct {
	PartitionKey string `json:"partitionKey"`
	RowKey       string `json:"rowKey"`
}

// IdentityOf returns the identity of rowKey inside the default partition of kind.
func IdentityOf(kind Kind, rowKey string) Identity {
	return Identity{PartitionKey: string(kind), RowKey: rowKey}
}

func (id Identity) String() string {
	return id.PartitionKey + "/" + id.RowKey
}

// Version is the store-assigned token; it grows by one on every successful write.
type Version int64

const InitialVersion Version = 1

type Entity interface {
	Kind() Kind
}

type Record struct {
	Identity Identity
	Version  Version
	Entity   Entity
}

func (r *Record) Kind() Kind {
	return r.Entity.Kind()
}

// RecordStore is the only shared mutable resource of the pipeline.
// ConditionalUpdate must be atomic with respect to the version check.
type RecordStore interface {
	Get(ctx context.Context, kind Kind, id Identity) (*Record, error)
	Create(ctx context.Context, kind Kind, record *Record) (Version, error)
	ConditionalUpdate(ctx context.Context, kind Kind, record *Record, expected Version) (Version, error)
}

func NewEntity(kind Kind) (Entity, error) {
	switch kind {
	case KindOrder:
		return &Order{}, nil
	case KindProduct:
		return &Product{}, nil
	case KindCustomer:
		return &Customer{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "%q", kind)
	}
}

func EncodeEntity(e Entity) ([]byte, error) {
	data, err := json.Marshal(e)
	return data, errors.Wrapf(err, "encode %s", e.Kind())
}

func DecodeEntity(kind Kind, data []byte) (Entity, error) {
	e, err := NewEntity(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, errors.Wrapf(err, "decode %s", kind)
	}
	return e, nil
}

// CloneEntity returns a deep copy of e; entities hold only value fields.
func CloneEntity(e Entity) Entity {
	switch v := e.(type) {
	case *Order:
		c := *v
		return &c
	case *Product:
		c := *v
		return &c
	case *Customer:
		c := *v
		return &c
	default:
		return e
	}
}
