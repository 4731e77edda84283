package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beyondborders/donation-service/internal"
	"github.com/beyondborders/donation-service/internal/core/events"
	"github.com/beyondborders/donation-service/internal/donation"
	donationpg "github.com/beyondborders/donation-service/internal/donation/postgres"
	"github.com/beyondborders/donation-service/internal/notification"
	"github.com/beyondborders/donation-service/internal/paymentgateway"
	"github.com/beyondborders/donation-service/internal/transport"
	"github.com/beyondborders/donation-service/internal/transport/rest"
	"github.com/beyondborders/donation-service/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle donation intake and payment provider webhooks`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config          *internal.Config
	DB              *sqlx.DB
	Router          *chi.Mux
	DonationHandler *donation.Handler
	WebhookHandler  *donation.WebhookHandler
	EventBus        *events.EventBus
	Logger          *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		deps.Config.Server.AllowedOrigins,
		deps.DonationHandler,
		deps.WebhookHandler,
		deps.Logger,
	)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	appLogger := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm shares the sqlx pool so there is a single set of connections
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	eventBus := events.NewEventBus(appLogger)

	gateway := paymentgateway.NewClient(config.Stripe, appLogger)
	repo := donationpg.NewDonationRepository(gormDB, appLogger)
	validator := donation.NewValidator(config.Donation)
	service := donation.NewService(repo, gateway, validator, eventBus, appLogger)

	baseHandler := transport.NewBaseHandler(appLogger)
	donationHandler := donation.NewHandler(baseHandler, service, appLogger)
	webhookHandler := donation.NewWebhookHandler(baseHandler, service, gateway, appLogger)

	dispatcher := notification.NewDispatcher(repo, buildMailer(config.Notification, appLogger), config.Notification, appLogger)
	dispatcher.RegisterEventHandlers(eventBus)

	return &Dependencies{
		Config:          config,
		Logger:          appLogger,
		DB:              db,
		Router:          chi.NewRouter(),
		DonationHandler: donationHandler,
		WebhookHandler:  webhookHandler,
		EventBus:        eventBus,
	}, nil
}

// buildMailer falls back to log-only delivery when SMTP is not configured,
// which keeps local development working without a mail relay.
func buildMailer(cfg internal.NotificationConfig, appLogger *slog.Logger) notification.Mailer {
	if cfg.SMTPHost == "" {
		return notification.NewLogMailer(appLogger)
	}
	return notification.NewSMTPMailer(cfg)
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
