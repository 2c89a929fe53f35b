package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"inventory-service/config"
	"inventory-service/consumers"
	"inventory-service/controllers"
	"inventory-service/routes"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the order event consumer and the stock alert scanner.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, config.LoadConfig())
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.rmq != nil {
		if err := consumers.StartOrderConsumer(a.rmq.Channel, cfg, a.alerts); err != nil {
			return err
		}
	} else {
		log.Printf("RABBITMQ_URL not set, order events disabled")
	}
	if cfg.AlertScanInterval > 0 {
		go a.alerts.Run(ctx, cfg.AlertScanInterval)
	}

	r := routes.NewRouter(gin.Default(), routes.Options{
		JWTSecret:       cfg.JWTSecret,
		TrustUserHeader: cfg.TrustUserHeader,
		Store:           a.db,
		Orders:          controllers.NewOrderController(a.orders),
		Products:        controllers.NewProductController(a.products),
		Alerts:          controllers.NewAlertController(a.alerts),
	})
	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Inventory service starting on port %s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
