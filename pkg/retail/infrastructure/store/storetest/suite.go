// Package storetest holds the contract every model.RecordStore must satisfy.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailservice/pkg/retail/domain/model"
)

func SuiteRecordStore(t *testing.T, s model.RecordStore) {
	ctx := context.Background()
	id := model.IdentityOf(model.KindProduct, "7")

	t.Run("Get missing", func(t *testing.T) {
		_, err := s.Get(ctx, model.KindProduct, id)
		assert.ErrorIs(t, err, model.ErrRecordNotFound)
	})

	t.Run("Create", func(t *testing.T) {
		version, err := s.Create(ctx, model.KindProduct, &model.Record{
			Identity: id,
			Entity:   &model.Product{ProductName: "Kettle", StockAvailable: 4},
		})
		require.NoError(t, err)
		assert.Equal(t, model.InitialVersion, version)
	})

	t.Run("Create twice", func(t *testing.T) {
		_, err := s.Create(ctx, model.KindProduct, &model.Record{Identity: id, Entity: &model.Product{}})
		assert.ErrorIs(t, err, model.ErrRecordExists)
	})

	t.Run("Get returns a copy", func(t *testing.T) {
		record, err := s.Get(ctx, model.KindProduct, id)
		require.NoError(t, err)
		assert.Equal(t, id, record.Identity)
		assert.Equal(t, model.InitialVersion, record.Version)
		assert.Equal(t, &model.Product{ProductName: "Kettle", StockAvailable: 4}, record.Entity)

		record.Entity.(*model.Product).StockAvailable = 100

		again, err := s.Get(ctx, model.KindProduct, id)
		require.NoError(t, err)
		assert.Equal(t, 4, again.Entity.(*model.Product).StockAvailable)
	})

	t.Run("Kinds do not share identities", func(t *testing.T) {
		_, err := s.Get(ctx, model.KindOrder, id)
		assert.ErrorIs(t, err, model.ErrRecordNotFound)
	})

	t.Run("Conditional update", func(t *testing.T) {
		version, err := s.ConditionalUpdate(ctx, model.KindProduct, &model.Record{
			Identity: id,
			Entity:   &model.Product{ProductName: "Kettle", StockAvailable: 5},
		}, model.InitialVersion)
		require.NoError(t, err)
		assert.Equal(t, model.Version(2), version)

		record, err := s.Get(ctx, model.KindProduct, id)
		require.NoError(t, err)
		assert.Equal(t, model.Version(2), record.Version)
		assert.Equal(t, 5, record.Entity.(*model.Product).StockAvailable)
	})

	t.Run("Conditional update with stale version", func(t *testing.T) {
		_, err := s.ConditionalUpdate(ctx, model.KindProduct, &model.Record{
			Identity: id,
			Entity:   &model.Product{StockAvailable: 9},
		}, model.InitialVersion)
		assert.ErrorIs(t, err, model.ErrVersionMismatch)

		record, err := s.Get(ctx, model.KindProduct, id)
		require.NoError(t, err)
		assert.Equal(t, 5, record.Entity.(*model.Product).StockAvailable)
	})

	t.Run("Conditional update of missing record", func(t *testing.T) {
		_, err := s.ConditionalUpdate(ctx, model.KindProduct, &model.Record{
			Identity: model.IdentityOf(model.KindProduct, "missing"),
			Entity:   &model.Product{},
		}, model.InitialVersion)
		assert.ErrorIs(t, err, model.ErrRecordNotFound)
	})
}

// SuiteOptimisticLocking races many writers that all observed the same
// version; exactly one of them may commit.
func SuiteOptimisticLocking(t *testing.T, s model.RecordStore) {
	ctx := context.Background()
	id := model.IdentityOf(model.KindOrder, "contended")

	_, err := s.Create(ctx, model.KindOrder, &model.Record{Identity: id, Entity: &model.Order{OrderID: "contended"}})
	require.NoError(t, err)

	observed, err := s.Get(ctx, model.KindOrder, id)
	require.NoError(t, err)

	const writers = 50
	var (
		wg         sync.WaitGroup
		committed  int32
		collisions int32
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := model.OrderStatus(fmt.Sprintf("status-%d", i))
			_, err := s.ConditionalUpdate(ctx, model.KindOrder, &model.Record{
				Identity: id,
				Entity:   &model.Order{OrderID: "contended", Status: status},
			}, observed.Version)
			switch {
			case err == nil:
				atomic.AddInt32(&committed, 1)
			case assert.ErrorIs(t, err, model.ErrVersionMismatch):
				atomic.AddInt32(&collisions, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), committed)
	assert.Equal(t, int32(writers-1), collisions)

	final, err := s.Get(ctx, model.KindOrder, id)
	require.NoError(t, err)
	assert.Equal(t, observed.Version+1, final.Version)
}
