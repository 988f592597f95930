package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/health"

	"retailservice/pkg/retail/domain/service"
	"retailservice/pkg/retail/infrastructure/blob"
	"retailservice/pkg/retail/infrastructure/transport"
)

const shutdownTimeout = 15 * time.Second

func runService(ctx context.Context, cnf *config, logger *logrus.Logger) error {
	records, closeStore, err := openStore(ctx, cnf, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	dispatcher, closeDispatcher, err := newDispatcher(ctx, cnf, logger)
	if err != nil {
		return err
	}
	defer closeDispatcher()

	applier := service.NewApplier(records, dispatcher)
	blobs := blob.NewFileStore(cnf.ContentRoot, cnf.ContentBaseURL)

	httpServer := &http.Server{
		Addr:              cnf.ServeRESTAddress,
		Handler:           transport.Router(applier, records, blobs, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	healthServer := health.NewServer()
	grpcServer := transport.NewGRPCServer(healthServer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("address", cnf.ServeRESTAddress).Info("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve http")
		}
		return nil
	})
	g.Go(func() error {
		listener, err := net.Listen("tcp", cnf.ServeGRPCAddress)
		if err != nil {
			return errors.Wrap(err, "listen grpc")
		}
		logger.WithField("address", cnf.ServeGRPCAddress).Info("starting gRPC health server")
		return errors.Wrap(grpcServer.Serve(listener), "serve grpc")
	})
	g.Go(func() error {
		transport.MonitorHealth(gctx, healthServer, records, cnf.HealthCheckInterval, logger)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		grpcServer.GracefulStop()
		return errors.Wrap(httpServer.Shutdown(shutdownCtx), "shutdown http")
	})

	return g.Wait()
}
