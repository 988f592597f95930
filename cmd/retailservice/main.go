package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const appID = "retail"

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cnf, err := parseEnv()
	if err != nil {
		logger.WithError(err).Fatal("failed to load config")
	}
	if level, err := logrus.ParseLevel(cnf.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("level", cnf.LogLevel).Warn("unknown log level, keeping info")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	killSignalChan := getKillSignalChan()
	go func() {
		waitForKillSignalChan(killSignalChan, logger)
		cancel()
	}()

	app := &cli.App{
		Name:  "retailservice",
		Usage: "applies order, stock and customer updates with optimistic concurrency",
		Commands: []*cli.Command{
			{
				Name:  "service",
				Usage: "serve the HTTP API and the gRPC health endpoint",
				Action: func(c *cli.Context) error {
					return runService(c.Context, cnf, logger)
				},
			},
			{
				Name:  "worker",
				Usage: "consume order and stock queues",
				Action: func(c *cli.Context) error {
					return runWorker(c.Context, cnf, logger)
				},
			},
			{
				Name:  "migrate",
				Usage: "apply database migrations",
				Action: func(c *cli.Context) error {
					return runMigrate(c.Context, cnf, logger)
				},
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.WithError(err).Fatal("retailservice stopped")
	}
}

func getKillSignalChan() chan os.Signal {
	osKillSignalChan := make(chan os.Signal, 1)
	signal.Notify(osKillSignalChan, os.Interrupt, syscall.SIGTERM)
	return osKillSignalChan
}

func waitForKillSignalChan(killSignalChan <-chan os.Signal, logger logrus.FieldLogger) {
	killSignal := <-killSignalChan
	switch killSignal {
	case os.Interrupt:
		logger.Info("got SIGINT...")
	case syscall.SIGTERM:
		logger.Info("got SIGTERM...")
	}
}
