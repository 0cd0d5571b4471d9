package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"github.com/veridex-ai/veridex/internal/api/handlers"
	"github.com/veridex-ai/veridex/internal/config"
	"github.com/veridex-ai/veridex/internal/database"
	"github.com/veridex-ai/veridex/internal/jobs"
	"github.com/veridex-ai/veridex/internal/openai"
	"github.com/veridex-ai/veridex/internal/repository"
	"github.com/veridex-ai/veridex/internal/server"
	"github.com/veridex-ai/veridex/internal/service"
	"github.com/veridex-ai/veridex/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the veridex API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.HasSentry() {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.SentryEnvironment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	applyPortOverride(cmd, cfg)

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	insightRepo := repository.NewInsightRepository(pool)
	validationRepo := repository.NewValidationRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	trustJobRepo := repository.NewTrustJobRepository(pool)

	var embeddingClient service.EmbeddingClientInterface
	if cfg.HasOpenAI() {
		embeddingClient = openai.NewClient(cfg.OpenAIAPIKey)
	} else {
		log.Println("OPENAI_API_KEY not set: insight writes and vector search are disabled")
		embeddingClient = &noOpEmbeddingClient{}
	}

	insightSvc := service.NewInsightService(insightRepo, agentRepo, embeddingClient)
	searchSvc := service.NewSearchService(insightRepo, validationRepo, agentRepo, embeddingClient)
	validationSvc := service.NewValidationService(insightRepo, validationRepo, trustJobRepo)
	agentSvc := service.NewAgentService(agentRepo)
	trustSvc := service.NewTrustServiceWithConfig(insightRepo, validationRepo, agentRepo, service.TrustConfig{
		ExemptAgents: cfg.TrustExemptAgents,
	})

	trustProcessor := jobs.NewTrustWorker(trustJobRepo, trustSvc)
	trustWorker := jobs.NewWorker(trustProcessor, time.Duration(cfg.TrustWorkerInterval)*time.Second)
	go trustWorker.Start(ctx)
	log.Println("trust worker started")

	routerCfg := server.RouterConfig{
		AgentResolver:     agentSvc,
		InsightHandler:    handlers.NewInsightHandler(insightSvc, trustSvc),
		SearchHandler:     handlers.NewSearchHandler(searchSvc),
		ValidationHandler: handlers.NewValidationHandler(validationSvc),
		AgentHandler:      handlers.NewAgentHandler(agentSvc, trustSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	trustWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// applyPortOverride lets an explicitly passed --port win over the PORT
// environment value, including when the flag equals its default.
func applyPortOverride(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetString("port")
	}
}

type noOpEmbeddingClient struct{}

var errEmbeddingNotConfigured = errors.New("embedding client not configured: OPENAI_API_KEY required")

func (c *noOpEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, errEmbeddingNotConfigured
}

func (c *noOpEmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errEmbeddingNotConfigured
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
