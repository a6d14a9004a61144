package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docrouter/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC and HTTP servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	lis, err := net.Listen("tcp", a.cfg.Server.GRPCAddr)
	if err != nil {
		a.logger.Error("failed to listen on address", "addr", a.cfg.Server.GRPCAddr, "error", err)
		return err
	}

	grpcServer := server.NewGRPCServer(server.NewRouterService(a.remote, a.store, a.logger), a.logger)
	handler := server.NewHTTPHandler(server.HTTPConfig{
		Processor: a.remote,
		Store:     a.store,
		Exporter:  a.exporter,
		Gatherer:  a.registry,
		Logger:    a.logger,
	})
	httpServer := &http.Server{Addr: a.cfg.Server.HTTPAddr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("docrouter grpc listening", "addr", a.cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		a.logger.Info("docrouter http listening", "addr", a.cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
	case serveErr = <-errCh:
		a.logger.Error("server error", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	a.logger.Info("docrouter stopped")
	return serveErr
}
