package store_test

import (
	"context"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailservice/pkg/retail/domain/model"
	"retailservice/pkg/retail/infrastructure/store"
	"retailservice/pkg/retail/infrastructure/store/storetest"
)

// SQLite stands in for MySQL; the schema mirrors migrations/000001.
const sqliteSchema = `
CREATE TABLE records (
    kind          TEXT    NOT NULL,
    partition_key TEXT    NOT NULL,
    row_key       TEXT    NOT NULL,
    version       INTEGER NOT NULL,
    payload       BLOB    NOT NULL,
    PRIMARY KEY (kind, partition_key, row_key)
)`

func openSQLite(t *testing.T) *sqlx.DB {
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(sqliteSchema)
	require.NoError(t, err)
	return db
}

func TestSQLStore(t *testing.T) {
	storetest.SuiteRecordStore(t, store.NewSQLStore(openSQLite(t)))
	storetest.SuiteOptimisticLocking(t, store.NewSQLStore(openSQLite(t)))
}

func TestSQLStorePing(t *testing.T) {
	s := store.NewSQLStore(openSQLite(t))
	assert.NoError(t, s.Ping(context.Background()))
}

func TestSQLStoreUnavailable(t *testing.T) {
	db := openSQLite(t)
	s := store.NewSQLStore(db)
	require.NoError(t, db.Close())

	_, err := s.Get(context.Background(), model.KindOrder, model.IdentityOf(model.KindOrder, "1"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrRecordNotFound)
}

func TestMySQLDSN(t *testing.T) {
	cfg, err := mysql.ParseDSN(store.MySQLDSN("retail", "secret", "db:3306", "retail"))
	require.NoError(t, err)

	assert.Equal(t, "retail", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "retail", cfg.DBName)
	assert.True(t, cfg.ParseTime)
}
