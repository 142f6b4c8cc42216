package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kokukuma/dcql-wallet/internal/config"
	"github.com/kokukuma/dcql-wallet/internal/server"
	"github.com/kokukuma/dcql-wallet/internal/wallet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := cfg.Logger()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	srv := server.NewServer(wallet.New(logger.Named("wallet")), logger.Named("server"))
	httpServer := &http.Server{
		Addr:              cfg.Address,
		Handler:           srv.Handler(cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting dcql wallet server", zap.String("address", cfg.Address))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
