package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"retailservice/pkg/retail/domain/model"
)

const mysqlDuplicateEntry = 1062

// SQLStore keeps every record in a single "records" table keyed by
// (kind, partition_key, row_key). Queries use "?" placeholders only and run on
// MySQL in production.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func MySQLDSN(user, password, host, name string) string {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = host
	cfg.DBName = name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func OpenMySQL(ctx context.Context, dsn string, maxConnections int) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect to mysql")
	}
	db.SetMaxOpenConns(maxConnections)
	db.SetMaxIdleConns(maxConnections)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

type recordRow struct {
	Version int64  `db:"version"`
	Payload []byte `db:"payload"`
}

func (s *SQLStore) Get(ctx context.Context, kind model.Kind, id model.Identity) (*model.Record, error) {
	var row recordRow
	err := s.db.GetContext(ctx, &row, `
		SELECT version, payload FROM records
		WHERE kind = ? AND partition_key = ? AND row_key = ?
	`, string(kind), id.PartitionKey, id.RowKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "select %s %s", kind, id)
	}

	entity, err := model.DecodeEntity(kind, row.Payload)
	if err != nil {
		return nil, err
	}
	return &model.Record{Identity: id, Version: model.Version(row.Version), Entity: entity}, nil
}

func (s *SQLStore) Create(ctx context.Context, kind model.Kind, record *model.Record) (model.Version, error) {
	payload, err := model.EncodeEntity(record.Entity)
	if err != nil {
		return 0, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (kind, partition_key, row_key, version, payload)
		VALUES (?, ?, ?, ?, ?)
	`, string(kind), record.Identity.PartitionKey, record.Identity.RowKey, int64(model.InitialVersion), payload)
	if err != nil {
		if isDuplicateEntry(err) {
			return 0, model.ErrRecordExists
		}
		// other engines report the primary key violation differently
		if exists, probeErr := s.exists(ctx, kind, record.Identity); probeErr == nil && exists {
			return 0, model.ErrRecordExists
		}
		return 0, errors.Wrapf(err, "insert %s %s", kind, record.Identity)
	}
	return model.InitialVersion, nil
}

func (s *SQLStore) ConditionalUpdate(ctx context.Context, kind model.Kind, record *model.Record, expected model.Version) (model.Version, error) {
	payload, err := model.EncodeEntity(record.Entity)
	if err != nil {
		return 0, err
	}

	next := expected + 1
	result, err := s.db.ExecContext(ctx, `
		UPDATE records SET version = ?, payload = ?
		WHERE kind = ? AND partition_key = ? AND row_key = ? AND version = ?
	`, int64(next), payload, string(kind), record.Identity.PartitionKey, record.Identity.RowKey, int64(expected))
	if err != nil {
		return 0, errors.Wrapf(err, "update %s %s", kind, record.Identity)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	if n == 1 {
		return next, nil
	}

	exists, err := s.exists(ctx, kind, record.Identity)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, model.ErrRecordNotFound
	}
	return 0, model.ErrVersionMismatch
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) exists(ctx context.Context, kind model.Kind, id model.Identity) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM records
		WHERE kind = ? AND partition_key = ? AND row_key = ?
	`, string(kind), id.PartitionKey, id.RowKey)
	if err != nil {
		return false, errors.Wrapf(err, "probe %s %s", kind, id)
	}
	return count > 0, nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
