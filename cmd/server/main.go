package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/dlemaitre/billingcore/internal/application/port"
	"github.com/dlemaitre/billingcore/internal/application/service"
	"github.com/dlemaitre/billingcore/internal/config"
	"github.com/dlemaitre/billingcore/internal/infrastructure/persistence/repository"
	"github.com/dlemaitre/billingcore/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/dlemaitre/billingcore/internal/interfaces/http"
	"github.com/dlemaitre/billingcore/pkg/database"
	"github.com/dlemaitre/billingcore/pkg/utils"
)

func main() {
	// Load .env if present; real environment variables take precedence
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

	logger.Info("Starting billing core",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer sqlDB.Close()

	migrator := database.NewMigrator(sqlDB, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	db := sqlite.NewDB(sqlDB, logger)

	invoiceRepo := repository.NewInvoiceRepository(db, logger)
	lineItemRepo := repository.NewLineItemRepository(db, logger)
	contractRepo := repository.NewContractRepository(db, logger)
	signatureRepo := repository.NewSignatureRepository(db, logger)

	clock := port.SystemClock()
	kvLogger := utils.NewKVLogger(logger)

	invoiceService := service.NewInvoiceService(invoiceRepo, lineItemRepo, db, clock, kvLogger)
	contractService := service.NewContractService(contractRepo, signatureRepo, db, clock, kvLogger)
	exportService := service.NewExportService(invoiceRepo, kvLogger)

	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		invoiceService,
		contractService,
		exportService,
		kvLogger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}
