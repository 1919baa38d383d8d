package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/krishsoni15/procureflow/internal/config"
)

// Handlers bundles the route handlers the server mounts.
type Handlers struct {
	Requests        *RequestHandler
	CostComparisons *CostComparisonHandler
	PurchaseOrders  *PurchaseOrderHandler
	Deliveries      *DeliveryHandler
	Reference       *ReferenceHandler
	Notes           *NoteHandler
}

// Server wraps the HTTP server with its router and graceful shutdown.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer builds the router and binds every route.
func NewServer(cfg config.ServerConfig, jwtSecret string, h Handlers, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggingMiddleware(logger))
	router.Use(MetricsMiddleware())
	router.Use(CORSMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "procureflow",
			"time":    time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(AuthMiddleware(jwtSecret))
	{
		api.POST("/requests", h.Requests.Create)
		api.GET("/requests", h.Requests.List)
		api.GET("/requests/:number", h.Requests.Get)
		api.PUT("/requests/:number", h.Requests.UpdateDraft)
		api.DELETE("/requests/:number", h.Requests.DeleteDraft)
		api.POST("/requests/:number/send", h.Requests.Send)
		api.POST("/requests/:number/approve", h.Requests.Approve)
		api.POST("/requests/:number/reject", h.Requests.Reject)
		api.POST("/requests/:number/recheck", h.Requests.Recheck)
		api.POST("/requests/:number/resend", h.Requests.Resend)
		api.GET("/requests/:number/notes", h.Notes.ForRequest)

		api.GET("/items/:id/cost-comparison", h.CostComparisons.Get)
		api.PUT("/items/:id/cost-comparison", h.CostComparisons.Upsert)
		api.POST("/items/:id/cost-comparison/submit", h.CostComparisons.Submit)
		api.POST("/items/:id/cost-comparison/approve", h.CostComparisons.Approve)
		api.POST("/items/:id/cost-comparison/reject", h.CostComparisons.Reject)
		api.POST("/items/:id/cost-comparison/resubmit", h.CostComparisons.Resubmit)

		api.POST("/purchase-orders", h.PurchaseOrders.Issue)
		api.GET("/purchase-orders", h.PurchaseOrders.List)
		api.GET("/purchase-orders/:id", h.PurchaseOrders.Get)
		api.POST("/purchase-orders/:id/ordered", h.PurchaseOrders.MarkOrdered)
		api.POST("/purchase-orders/:id/dispatch", h.PurchaseOrders.MarkOutForDelivery)
		api.POST("/purchase-orders/:id/reject", h.PurchaseOrders.Reject)

		api.POST("/items/:id/delivery", h.Deliveries.Confirm)
		api.GET("/items/:id/deliveries", h.Deliveries.History)

		api.POST("/sites", h.Reference.CreateSite)
		api.GET("/sites", h.Reference.ListSites)
		api.PUT("/sites/:id", h.Reference.UpdateSite)
		api.POST("/sites/:id/deactivate", h.Reference.DeactivateSite)
		api.DELETE("/sites/:id", h.Reference.DeleteSite)

		api.POST("/vendors", h.Reference.CreateVendor)
		api.GET("/vendors", h.Reference.ListVendors)
		api.PUT("/vendors/:id", h.Reference.UpdateVendor)
		api.DELETE("/vendors/:id", h.Reference.DeleteVendor)

		api.POST("/inventory", h.Reference.CreateInventoryItem)
		api.GET("/inventory", h.Reference.ListInventory)
		api.PUT("/inventory/:id", h.Reference.UpdateInventoryItem)
		api.DELETE("/inventory/:id", h.Reference.DeleteInventoryItem)

		api.GET("/grn", h.Notes.GRNLog)
		api.GET("/grn/export", h.Notes.ExportGRN)

		api.GET("/dashboard/status-counts", h.Requests.StatusCounts)
		api.GET("/dashboard/top-sites", h.Requests.TopSites)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{srv: srv, logger: logger}
}

// Start begins serving. Blocks until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
