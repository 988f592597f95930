package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"retailservice/pkg/retail/infrastructure/store"
)

func runMigrate(ctx context.Context, cnf *config, logger *logrus.Logger) error {
	if cnf.StoreDriver == storeDriverMemory {
		logger.Info("memory store needs no migrations")
		return nil
	}

	dsn := store.MySQLDSN(cnf.DBUser, cnf.DBPassword, cnf.DBHost, cnf.DBName)
	db, err := store.OpenMySQL(ctx, dsn, 1)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(db.DB); err != nil {
		return err
	}
	logger.Info("database is up to date")
	return nil
}
