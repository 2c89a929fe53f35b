package routes

import (
	"context"
	"net/http"
	"time"

	"inventory-service/controllers"
	"inventory-service/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	JWTSecret       string
	TrustUserHeader bool
	Store           Pinger
	Orders          *controllers.OrderController
	Products        *controllers.ProductController
	Alerts          *controllers.AlertController
}

// NewRouter wires the public endpoints and the authenticated /api group.
func NewRouter(r *gin.Engine, opts Options) *gin.Engine {
	r.Use(middlewares.RequestID(), middlewares.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		if opts.Store != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Store.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware(opts.JWTSecret, opts.TrustUserHeader))
	{
		api.POST("/orders", opts.Orders.CreateOrder)
		api.GET("/orders", opts.Orders.ListOrders)
		api.GET("/orders/:id", opts.Orders.GetOrder)
		api.PUT("/orders/:id", opts.Orders.UpdateOrder)
		api.DELETE("/orders/:id", opts.Orders.DeleteOrder)

		api.GET("/products", opts.Products.ListProducts)
		api.POST("/products", opts.Products.CreateProduct)
		api.GET("/products/:id", opts.Products.GetProduct)
		api.PUT("/products/:id", opts.Products.UpdateProduct)
		api.DELETE("/products/:id", opts.Products.DeleteProduct)
		api.GET("/products/:id/history", opts.Products.ListProductHistory)

		api.GET("/alerts", opts.Alerts.ListAlerts)
		api.POST("/alerts", opts.Alerts.CreateAlert)
		api.PUT("/alerts/:id", opts.Alerts.UpdateAlert)
		api.DELETE("/alerts/:id", opts.Alerts.DeleteAlert)
	}
	return r
}
