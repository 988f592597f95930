package main

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailservice/pkg/retail/domain/model"
	"retailservice/pkg/retail/infrastructure/store"
)

func TestParseEnvDefaults(t *testing.T) {
	cnf, err := parseEnv()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cnf.ServeRESTAddress)
	assert.Equal(t, storeDriverMySQL, cnf.StoreDriver)
	assert.Equal(t, "order-notifications", cnf.OrderQueue)
	assert.Equal(t, "stock-updates", cnf.StockQueue)
	assert.Equal(t, 4, cnf.WorkerConcurrency)
	assert.Equal(t, 15*time.Second, cnf.HealthCheckInterval)
	assert.Empty(t, cnf.EventsExchange)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("RETAIL_STORE_DRIVER", "memory")
	t.Setenv("RETAIL_STOCK_QUEUE", "stock")
	t.Setenv("RETAIL_WORKER_CONCURRENCY", "16")
	t.Setenv("RETAIL_HEALTH_CHECK_INTERVAL", "1m")

	cnf, err := parseEnv()

	require.NoError(t, err)
	assert.Equal(t, storeDriverMemory, cnf.StoreDriver)
	assert.Equal(t, "stock", cnf.StockQueue)
	assert.Equal(t, 16, cnf.WorkerConcurrency)
	assert.Equal(t, time.Minute, cnf.HealthCheckInterval)
}

func TestParseEnvRejectsUnknownDriver(t *testing.T) {
	t.Setenv("RETAIL_STORE_DRIVER", "postgres")

	_, err := parseEnv()

	assert.Error(t, err)
}

func TestParseEnvRejectsSharedQueue(t *testing.T) {
	t.Setenv("RETAIL_ORDER_QUEUE", "retail")
	t.Setenv("RETAIL_STOCK_QUEUE", "retail")

	_, err := parseEnv()

	assert.Error(t, err)
}

func TestOpenMemoryStore(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cnf := &config{StoreDriver: storeDriverMemory}

	records, closeStore, err := openStore(context.Background(), cnf, logger)
	require.NoError(t, err)
	defer closeStore()

	assert.IsType(t, &store.MemoryStore{}, records)
	_, err = records.Get(context.Background(), model.KindOrder, model.IdentityOf(model.KindOrder, "1"))
	assert.ErrorIs(t, err, model.ErrRecordNotFound)
}

func TestDispatcherWithoutExchangeOnlyLogs(t *testing.T) {
	logger, hook := test.NewNullLogger()

	dispatcher, closeDispatcher, err := newDispatcher(context.Background(), &config{}, logger)
	require.NoError(t, err)
	defer closeDispatcher()

	require.NoError(t, dispatcher.Dispatch(model.CustomerRegistered{Name: "Ada"}))
	assert.Len(t, hook.AllEntries(), 1)
}
