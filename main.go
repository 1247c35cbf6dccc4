package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/apiclient"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/configs"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/provider"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/repository"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/routes"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/services"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := configs.LoadConfig()
	log := configs.SetupLogger(cfg)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *configs.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := configs.SetupTracing(cfg)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	// local state
	var stores repository.StoreFactory
	switch cfg.StoreDriver {
	case "redis":
		rdb, err := configs.ConnectRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer rdb.Close()
		stores = repository.NewRedisStoreFactory(rdb, cfg.StoreTTL)
	case "sqlite":
		if err := configs.ConnectionDB(cfg); err != nil {
			return err
		}
		if err := configs.SetupDatabase(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		stores = repository.NewGormStoreFactory(configs.DB())
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	points, err := configs.LoadDeliveryPoints(cfg.DeliveryPointsFile)
	if err != nil {
		return err
	}

	api := apiclient.New(cfg.BackendURL, apiclient.Options{Timeout: cfg.BackendTimeout})
	verifier := provider.NewVerifier(cfg.ProviderSecret, cfg.ProviderIssuer)

	hub := ws.NewHub(cfg.CORSOrigins)
	go hub.Run()
	defer hub.Stop()

	reg := services.NewRegistry(services.RegistryDeps{
		Stores:            stores,
		API:               api,
		NewProvider:       func() provider.Provider { return provider.NewTokenProvider(verifier) },
		Notifier:          hub,
		DeliveryPoints:    points,
		SettleDelay:       cfg.SettleDelay,
		ConfirmResetDelay: cfg.ConfirmResetDelay,
		IdleTTL:           cfg.ClientIdleTTL,
	})
	regCtx, stopRegistry := context.WithCancel(context.Background())
	defer stopRegistry()
	go reg.Run(regCtx)

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery())
	routes.RegisterRoutes(r, cfg, reg, hub, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", "addr", srv.Addr, "backend", cfg.BackendURL, "store", cfg.StoreDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
