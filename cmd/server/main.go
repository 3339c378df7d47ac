package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/potlucky/potluck-api/internal/config"
	"github.com/potlucky/potluck-api/internal/handlers"
	"github.com/potlucky/potluck-api/internal/middleware"
	"github.com/potlucky/potluck-api/internal/migration"
	"github.com/potlucky/potluck-api/internal/notification"
	"github.com/potlucky/potluck-api/internal/repository"
	"github.com/potlucky/potluck-api/internal/routes"
	"github.com/potlucky/potluck-api/internal/temporal"
	"github.com/potlucky/potluck-api/internal/temporal/activities"
	"github.com/potlucky/potluck-api/internal/temporal/workflows"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	_ "github.com/lib/pq" // PostgreSQL driver
	tc "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

type application struct {
	config         *config.Config
	db             *sql.DB
	temporalClient tc.Client
	logger         zerolog.Logger
	notifications  notification.Service
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	gooseAdapter := migration.NewGooseAdapter(logger)
	goose.SetLogger(gooseAdapter)

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	// Initialize notification service.
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	var notifiers []notification.Notifier
	if cfg.Email.SMTPHost != "" {
		emailNotifier, err := notification.NewEmailNotifier(cfg.Email, userRepo, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure email notifier")
		}
		notifiers = append(notifiers, emailNotifier)
	}
	notificationService := notification.NewService(notificationRepo, logger, notifiers...)

	// Initialize Temporal client for party reminders.
	var temporalClient tc.Client
	if cfg.Reminder.Enabled {
		temporalClient, err = tc.Dial(tc.Options{
			Logger: temporal.NewZerologAdapter(logger),
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Unable to create Temporal client")
		}
		defer temporalClient.Close()
	}

	// Create the application instance.
	app := &application{
		config:         cfg,
		db:             db,
		temporalClient: temporalClient,
		logger:         logger,
		notifications:  notificationService,
	}

	// Start the Temporal worker in a separate goroutine.
	var temporalWorker worker.Worker
	if cfg.Reminder.Enabled {
		temporalWorker = app.startTemporalWorker(logger)
	}

	// Initialize the HTTP router and middleware.
	router := app.initRouter(logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{"http://localhost:3000"}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, temporalWorker, logger)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(logger zerolog.Logger) http.Handler {
	// Repositories
	userRepo := repository.NewUserRepository(app.db)
	partyRepo := repository.NewPartyRepository(app.db)
	participantRepo := repository.NewParticipantRepository(app.db)
	requestRepo := repository.NewJoinRequestRepository(app.db)
	invitationRepo := repository.NewInvitationRepository(app.db)
	dishRepo := repository.NewDishRepository(app.db)
	contributionRepo := repository.NewContributionRepository(app.db)

	// Mailer for invitation emails. Optional; invitations still work as
	// plain links when SMTP is not configured.
	var inviteMailer notification.InviteMailer
	if app.config.Email.SMTPHost != "" {
		mailer, err := notification.NewSMTPInviteMailer(app.config.Email)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure invite mailer")
		}
		inviteMailer = mailer
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(app.db, app.config, logger)
	partyHandler := handlers.NewPartyHandler(partyRepo, participantRepo, requestRepo, invitationRepo, dishRepo, app.temporalClient, app.config.Reminder.LeadTime, logger)
	participantHandler := handlers.NewParticipantHandler(partyRepo, participantRepo, requestRepo, invitationRepo, userRepo, app.notifications, logger)
	requestHandler := handlers.NewJoinRequestHandler(partyRepo, requestRepo, userRepo, app.notifications, logger)
	invitationHandler := handlers.NewInvitationHandler(partyRepo, invitationRepo, userRepo, app.notifications, inviteMailer, app.config.Email.InviteURLTemplate, logger)
	dishHandler := handlers.NewDishHandler(partyRepo, participantRepo, dishRepo, logger)
	contributionHandler := handlers.NewContributionHandler(partyRepo, participantRepo, dishRepo, contributionRepo, logger)
	notificationHandler := handlers.NewNotificationHandler(app.notifications, logger)

	return routes.NewRouter(authHandler, partyHandler, participantHandler, requestHandler, invitationHandler, dishHandler, contributionHandler, notificationHandler)
}

func (app *application) startTemporalWorker(logger zerolog.Logger) worker.Worker {
	activityImpl := &activities.Activities{
		PartyRepo:       repository.NewPartyRepository(app.db),
		ParticipantRepo: repository.NewParticipantRepository(app.db),
		Notifications:   app.notifications,
	}

	w := worker.New(app.temporalClient, temporal.TaskQueueName, worker.Options{})

	w.RegisterWorkflow(workflows.PartyReminderWorkflow)
	w.RegisterActivity(activityImpl)

	// Start the worker in a goroutine so it doesn't block.
	go func() {
		logger.Info().Msg("Starting Temporal worker...")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("Unable to start worker")
		}
	}()

	return w
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, temporalWorker worker.Worker, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}

	if temporalWorker != nil {
		logger.Info().Msg("Stopping Temporal worker...")
		temporalWorker.Stop()
		logger.Info().Msg("Temporal worker stopped.")
	}
}
