package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/pdf_extract/internal/config"
	"github.com/Vovarama1992/pdf_extract/internal/delivery"
	"github.com/Vovarama1992/pdf_extract/internal/domain"
	"github.com/Vovarama1992/pdf_extract/internal/error_notificator"
	"github.com/Vovarama1992/pdf_extract/internal/infra"
	"github.com/Vovarama1992/pdf_extract/internal/pdf"
	"github.com/Vovarama1992/pdf_extract/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {

	// =========================================================================
	// ENV / LOGGER
	// =========================================================================

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// ERROR NOTIFICATION
	// =========================================================================

	var bot *tgbotapi.BotAPI
	if cfg.Telegram.Enabled() {
		bot, err = tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			log.Fatalf("failed to init telegram bot: %v", err)
		}
	}
	errInfra := error_notificator.NewInfra(bot, cfg.Telegram.AdminChatID, baseLogger.Named("notificator"))
	errService := error_notificator.NewService(errInfra)

	// =========================================================================
	// OPTIONAL INFRASTRUCTURE (audit log, archive)
	// =========================================================================

	var extractionRepo ports.ExtractionRepo
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer db.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			log.Fatalf("db ping failed: %v", err)
		}
		cancel()

		extractionRepo = infra.NewExtractionRepo(db)
		if err := extractionRepo.EnsureSchema(ctx); err != nil {
			log.Fatalf("db schema: %v", err)
		}
	}

	var archive ports.S3Service
	if cfg.S3.Enabled() {
		s3Client, err := infra.NewS3Client(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("failed to init s3: %v", err)
		}
		archive = domain.NewS3Service(s3Client)
	}

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	pdfCfg := cfg.PDF()
	pdfCfg.Logger = baseLogger.Named("pdf")
	pdfService := pdf.NewPDFService(pdf.NewLibLoader(), pdfCfg)

	extractionService := domain.NewExtractionService(
		pdfService,
		archive,
		extractionRepo,
		errService,
		baseLogger.Named("extraction"),
	)

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	delivery.RegisterRoutes(
		r,
		delivery.NewExtractHandler(extractionService, zl, cfg.MaxUploadBytes),
		delivery.NewExtractionsHandler(extractionService, zl),
		delivery.RouteOptions{
			APIToken:      cfg.APIToken,
			RatePerMinute: cfg.RatePerMinute,
		},
	)

	// =========================================================================
	// START SERVER
	// =========================================================================

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "listening at " + srv.Addr,
		Service: "pdf_extract",
	})

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
