package transport_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"retailservice/pkg/retail/domain/model"
	"retailservice/pkg/retail/infrastructure/store"
)

// spyStore counts every call that reaches the store and can inject a
// concurrent writer or an infrastructure failure.
type spyStore struct {
	*store.MemoryStore
	calls        int32
	beforeUpdate func()
	err          error
}

func newSpyStore() *spyStore {
	return &spyStore{MemoryStore: store.NewMemoryStore()}
}

func (s *spyStore) Get(ctx context.Context, kind model.Kind, id model.Identity) (*model.Record, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.MemoryStore.Get(ctx, kind, id)
}

func (s *spyStore) Create(ctx context.Context, kind model.Kind, record *model.Record) (model.Version, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.MemoryStore.Create(ctx, kind, record)
}

func (s *spyStore) ConditionalUpdate(ctx context.Context, kind model.Kind, record *model.Record, expected model.Version) (model.Version, error) {
	atomic.AddInt32(&s.calls, 1)
	if hook := s.beforeUpdate; hook != nil {
		s.beforeUpdate = nil
		hook()
	}
	return s.MemoryStore.ConditionalUpdate(ctx, kind, record, expected)
}

func (s *spyStore) seed(t *testing.T, kind model.Kind, rowKey string, entity model.Entity) {
	_, err := s.MemoryStore.Create(context.Background(), kind, &model.Record{
		Identity: model.IdentityOf(kind, rowKey),
		Entity:   entity,
	})
	require.NoError(t, err)
}

func (s *spyStore) load(t *testing.T, kind model.Kind, rowKey string) *model.Record {
	record, err := s.MemoryStore.Get(context.Background(), kind, model.IdentityOf(kind, rowKey))
	require.NoError(t, err)
	return record
}
