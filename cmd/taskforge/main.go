// Taskforge Core - Task & Project Management Platform
//
// This is the main entry point for the Taskforge Core application.
// Taskforge Core provides:
//   - Cookie-based JWT authentication with role-gated authorization
//   - Project and task workflows with per-assignee notifications
//   - Real-time event delivery over WebSocket, optionally bridged to MQTT
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/taskforge/taskforge-core/migrations"

	"github.com/taskforge/taskforge-core/internal/api"
	"github.com/taskforge/taskforge-core/internal/audit"
	"github.com/taskforge/taskforge-core/internal/auth"
	"github.com/taskforge/taskforge-core/internal/infrastructure/config"
	"github.com/taskforge/taskforge-core/internal/infrastructure/database"
	"github.com/taskforge/taskforge-core/internal/infrastructure/logging"
	"github.com/taskforge/taskforge-core/internal/infrastructure/mqtt"
	"github.com/taskforge/taskforge-core/internal/notification"
	"github.com/taskforge/taskforge-core/internal/project"
	"github.com/taskforge/taskforge-core/internal/task"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Taskforge Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Generate the token signing key pair. Keys live for the process
	// lifetime: a restart invalidates every outstanding session.
	keys, err := auth.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("generating signing keys: %w", err)
	}
	log.Info("signing key pair generated")

	// Repositories
	users := auth.NewUserRepository(db.DB)
	projects := project.NewSQLiteRepository(db.DB)
	notifications := notification.NewSQLiteRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)
	taskRepo := task.NewSQLiteRepository(db.DB)

	// The WebSocket hub is created up front so it can sit in the task
	// service's publisher chain before the server starts.
	hub := api.NewHub(log)
	publishers := task.Publishers{hub}

	// Connect the MQTT event bridge (optional)
	var mqttClient *mqtt.Client
	if cfg.Events.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.Events.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.Events.MQTT.Host, cfg.Events.MQTT.Port),
			"client_id", cfg.Events.MQTT.ClientID,
		)

		publishers = append(publishers, mqtt.NewEventPublisher(mqttClient, byte(cfg.Events.MQTT.QoS), log))
	} else {
		log.Info("MQTT event bridge disabled")
	}

	tasks := task.NewService(taskRepo, users, notifications, publishers, log)

	// Create and start the API server
	server, err := api.New(api.Deps{
		Config:        cfg.Server,
		Security:      cfg.Security,
		Logger:        log,
		Keys:          keys,
		Users:         users,
		Tasks:         tasks,
		Projects:      projects,
		Notifications: notifications,
		Audit:         auditRepo,
		ExternalHub:   hub,
		Version:       version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, server, mqttClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. MQTT (if enabled)
	// 3. Database

	log.Info("Taskforge Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses TASKFORGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TASKFORGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - server: API server to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, server *api.Server, mqttClient *mqtt.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	return nil
}
