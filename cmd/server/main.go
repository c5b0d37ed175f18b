package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/service"
	"github.com/SpudMar/Lotus-PM-sub001/internal/config"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/token"
	"github.com/SpudMar/Lotus-PM-sub001/internal/export"
	"github.com/SpudMar/Lotus-PM-sub001/internal/extraction"
	"github.com/SpudMar/Lotus-PM-sub001/internal/infrastructure/events"
	"github.com/SpudMar/Lotus-PM-sub001/internal/infrastructure/notify"
	"github.com/SpudMar/Lotus-PM-sub001/internal/infrastructure/persistence/repository"
	dbsqlite "github.com/SpudMar/Lotus-PM-sub001/internal/infrastructure/persistence/sqlite"
	"github.com/SpudMar/Lotus-PM-sub001/internal/infrastructure/storage"
	"github.com/SpudMar/Lotus-PM-sub001/internal/infrastructure/worker"
	httpserver "github.com/SpudMar/Lotus-PM-sub001/internal/interfaces/http"
	"github.com/SpudMar/Lotus-PM-sub001/internal/ocr"
	"github.com/SpudMar/Lotus-PM-sub001/pkg/database"
	"github.com/SpudMar/Lotus-PM-sub001/pkg/utils"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

func main() {
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

	logger.Info("Starting plan management service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	for _, dir := range []string{
		cfg.Intake.MailboxDir,
		cfg.Intake.HoldingDir,
		cfg.Intake.DocumentDir,
		cfg.Claims.ExportDir,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	// Repositories
	invoiceRepo := repository.NewInvoiceRepository(db, logger)
	claimRepo := repository.NewClaimRepository(db, logger)
	batchRepo := repository.NewClaimBatchRepository(db, logger)
	quarantineRepo := repository.NewQuarantineRepository(db, logger)
	participantRepo := repository.NewParticipantRepository(db, logger)
	providerRepo := repository.NewProviderRepository(db, logger)
	budgetRepo := repository.NewBudgetLineRepository(db, logger)
	agreementRepo := repository.NewServiceAgreementRepository(db, logger)
	auditRepo := repository.NewAuditRepository(db, logger)
	outboxRepo := repository.NewOutboxRepository(db, logger)
	ocrJobRepo := repository.NewOCRJobRepository(db, logger)

	txManager := dbsqlite.NewDB(db, logger)
	emitter := events.NewOutboxEmitter(outboxRepo, logger)

	// Outbox relay, only when a broker is configured
	relayCtx, relayCancel := context.WithCancel(context.Background())
	defer relayCancel()
	var natsConn *nats.Conn
	if cfg.Events.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.Events.NATSURL, nats.Name("lotus-pm"))
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		relay := events.NewRelay(outboxRepo, natsConn, cfg.Events.SubjectPrefix, cfg.Events.RelayInterval, logger)
		go relay.Run(relayCtx)
	} else {
		logger.Warn("No broker configured, outbox events will accumulate unpublished")
	}

	// Recognition engine and extractors
	engine := ocr.NewEngine(ocrJobRepo, cfg.OCR.MaxWorkers, logger)
	extractor := extraction.NewHeuristicExtractor()

	var assisted service.AssistedExtractor
	if cfg.Extraction.OpenAIAPIKey != "" {
		assisted = extraction.NewAIExtractor(cfg.Extraction.OpenAIAPIKey, cfg.Extraction.OpenAIModel, logger)
		logger.Info("Assisted extraction enabled", zap.String("model", cfg.Extraction.OpenAIModel))
	}

	// Storage and outbound adapters
	documents := storage.NewLocalDocumentStorage(cfg.Intake.DocumentDir, logger)
	mailbox := storage.NewLocalMailboxStore(cfg.Intake.MailboxDir, cfg.Intake.HoldingDir, logger)
	notifier := notify.NewLogSender(logger)
	exporter := export.NewExcelExporter(cfg.Claims.ExportDir, logger)
	codec := token.NewCodec([]byte(cfg.Approval.TokenSecret), cfg.Approval.TokenTTL)

	kv := utils.NewKVLogger(logger)

	// Services
	claimService := service.NewClaimService(
		claimRepo, batchRepo, invoiceRepo, auditRepo, txManager, emitter, exporter, kv)
	invoiceService := service.NewInvoiceService(
		invoiceRepo, auditRepo, txManager, emitter, claimService, kv)
	approvalService := service.NewApprovalService(
		invoiceRepo, participantRepo, providerRepo, auditRepo, txManager, emitter,
		notifier, codec, cfg.Approval.BaseURL, kv)
	quarantineService := service.NewQuarantineService(
		quarantineRepo, budgetRepo, agreementRepo, auditRepo, txManager, emitter, kv)
	intakeService := service.NewIntakeService(
		invoiceRepo, auditRepo, txManager, emitter, mailbox, documents, engine,
		extractor, assisted, cfg.Extraction.AIThreshold, kv)

	// Background workers
	extractionWorker := worker.NewExtractionWorker(invoiceRepo, intakeService, logger)
	engine.OnComplete(extractionWorker.Enqueue)

	manager := worker.NewManager(logger)
	manager.Register(extractionWorker)
	manager.Register(worker.NewSweepWorker(invoiceService, cfg.Approval.SweepInterval, logger))

	if err := manager.StartAll(context.Background()); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IntakeSecret: cfg.Intake.Secret,
	}, intakeService, invoiceService, approvalService, quarantineService, claimService, kv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server failed", zap.Error(err))
	}

	logger.Info("Shutting down")

	if err := manager.StopAll(); err != nil {
		logger.Error("Worker shutdown incomplete", zap.Error(err))
	}
	engine.Close()
	relayCancel()
	if natsConn != nil {
		if err := natsConn.Drain(); err != nil {
			logger.Error("NATS drain failed", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
