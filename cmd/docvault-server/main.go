package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/docvault/internal/api"
	"github.com/hashicorp-forge/docvault/internal/config"
	"github.com/hashicorp-forge/docvault/internal/server"
	"github.com/hashicorp-forge/docvault/pkg/database"
	"github.com/hashicorp-forge/docvault/pkg/events"
	"github.com/hashicorp-forge/docvault/pkg/models"
	"github.com/hashicorp-forge/docvault/pkg/registry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configFile := flag.String("config", "", "Path to HCL configuration file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -config=config.hcl\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Docvault document registry server.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "Missing required -config flag")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "docvault",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log hclog.Logger) error {
	db, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(models.ModelsToAutoMigrate()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := []registry.Option{
		registry.WithAdmins(cfg.Registry.Admins),
	}
	if cfg.Kafka != nil {
		publisher, err := events.NewPublisher(events.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, log.Named("events"))
		if err != nil {
			return fmt.Errorf("failed to create audit publisher: %w", err)
		}
		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer flushCancel()
			if err := publisher.Close(flushCtx); err != nil {
				log.Warn("failed to flush audit publisher", "error", err)
			}
		}()
		opts = append(opts, registry.WithAuditPublisher(publisher))
	}

	reg := registry.New(db, log.Named("registry"), opts...)
	if cfg.Registry.MaxDocumentSize > 0 {
		if err := initMaxDocumentSize(db, cfg.Registry.MaxDocumentSize); err != nil {
			return fmt.Errorf("failed to apply configured size cap: %w", err)
		}
	}

	srv := server.Server{
		Config:   cfg,
		DB:       db,
		Registry: reg,
		Logger:   log,
	}

	mux := http.NewServeMux()
	api.RegisterRoutes(srv, mux)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutdown signal received, draining connections")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	return nil
}

func openDatabase(cfg *config.Config, log hclog.Logger) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return database.Connect(database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}, log)
	case "sqlite":
		return database.OpenSQLite(cfg.Database.Path, log)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

// initMaxDocumentSize seeds the configured size cap into the registry state
// row. Later runtime changes through the admin API win over the config file
// only until the next restart.
func initMaxDocumentSize(db *gorm.DB, bytes int64) error {
	state, err := models.GetRegistryState(db)
	if err != nil {
		return err
	}
	state.MaxDocumentSize = bytes
	return state.Save(db)
}
