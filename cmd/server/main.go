package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/krishsoni15/procureflow/internal/application/dispatcher"
	"github.com/krishsoni15/procureflow/internal/application/notification"
	"github.com/krishsoni15/procureflow/internal/application/service"
	"github.com/krishsoni15/procureflow/internal/config"
	"github.com/krishsoni15/procureflow/internal/infrastructure/persistence/repository"
	"github.com/krishsoni15/procureflow/internal/infrastructure/persistence/sqlite"
	httpiface "github.com/krishsoni15/procureflow/internal/interfaces/http"
	"github.com/krishsoni15/procureflow/pkg/database"
	"github.com/krishsoni15/procureflow/pkg/utils"
)

func main() {
	// Optional .env for local development
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting procurement workflow service",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		BusyTimeout:     cfg.Database.BusyTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	txManager := sqlite.NewDB(db.DB, logger)

	requestRepo := repository.NewRequestRepository(db.DB, logger)
	ccRepo := repository.NewCostComparisonRepository(db.DB, logger)
	poRepo := repository.NewPurchaseOrderRepository(db.DB, logger)
	deliveryRepo := repository.NewDeliveryRepository(db.DB, logger)
	noteRepo := repository.NewNoteRepository(db.DB, logger)
	siteRepo := repository.NewSiteRepository(db.DB, logger)
	vendorRepo := repository.NewVendorRepository(db.DB, logger)
	inventoryRepo := repository.NewInventoryRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)

	svcLogger := utils.NewSugarAdapter(logger)

	events := dispatcher.NewDispatcher(svcLogger)
	defer events.Close()
	notification.NewNotifier(noteRepo, svcLogger).Register(events)

	requestSvc := service.NewRequestService(requestRepo, siteRepo, noteRepo, txManager, events, svcLogger)
	ccSvc := service.NewCostComparisonService(requestRepo, ccRepo, vendorRepo, noteRepo, txManager, events, svcLogger)
	poSvc := service.NewPurchaseOrderService(requestRepo, ccRepo, poRepo, vendorRepo, noteRepo, txManager, events, svcLogger)
	deliverySvc := service.NewDeliveryService(requestRepo, deliveryRepo, poRepo, inventoryRepo, noteRepo, txManager, events, svcLogger)
	referenceSvc := service.NewReferenceService(siteRepo, vendorRepo, inventoryRepo, userRepo, requestRepo, txManager, svcLogger)
	noteSvc := service.NewNoteService(noteRepo, requestRepo, svcLogger)

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	server := httpiface.NewServer(cfg.Server, cfg.Auth.JWTSecret, httpiface.Handlers{
		Requests:        httpiface.NewRequestHandler(requestSvc),
		CostComparisons: httpiface.NewCostComparisonHandler(ccSvc),
		PurchaseOrders:  httpiface.NewPurchaseOrderHandler(poSvc),
		Deliveries:      httpiface.NewDeliveryHandler(deliverySvc),
		Reference:       httpiface.NewReferenceHandler(referenceSvc),
		Notes:           httpiface.NewNoteHandler(noteSvc),
	}, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
