package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lessonpath-backend-go/internal/config"
	"lessonpath-backend-go/internal/db"
	httpapi "lessonpath-backend-go/internal/http"
	"lessonpath-backend-go/internal/logging"
	"lessonpath-backend-go/internal/migrations"
	"lessonpath-backend-go/internal/services"
	"lessonpath-backend-go/internal/store"
	"lessonpath-backend-go/internal/store/memory"
	"lessonpath-backend-go/internal/store/mongodb"
	"lessonpath-backend-go/internal/store/postgres"

	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	os.Exit(serve(cfg, os.Stdout, run))
}

// serve sets up log output, runs the server and returns the process exit
// code. The log file is closed before serve returns.
func serve(cfg config.Config, stdout io.Writer, runServer func(config.Config, *slog.Logger) error) int {
	out := stdout
	logFile, err := logging.OpenDailyFile(cfg.LogDir, cfg.LogRetentionDays)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log files disabled: %v\n", err)
	} else {
		defer logFile.Close()
		out = io.MultiWriter(stdout, logFile)
	}
	logger := logging.New(logging.Config{
		Service: "lessonpath",
		Version: version,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	}, out)

	if err := runServer(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		return 1
	}
	return 0
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	server := httpapi.NewServer(st, cfg, services.NewMetricsHub(), logger)
	created, err := server.Identity.EnsureAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword, cfg.BootstrapAdminName)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		logger.Info("bootstrap admin created", "email", cfg.BootstrapAdminEmail)
	}

	go server.MetricsHub.Run(ctx)
	go server.MetricsHub.RunSampler(ctx, time.Duration(cfg.MetricsSampleSeconds)*time.Second, cfg.MetricsDiskPath)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", httpServer.Addr, "store", cfg.StoreDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		database, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db: %w", err)
		}
		if err := migrations.Apply(ctx, database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		return postgres.New(database), nil
	case config.DriverMongo:
		client, err := db.OpenMongo(ctx, cfg.MongoURL, cfg.MongoConnectTimeout)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		st := mongodb.New(client, cfg.MongoDatabase)
		if err := st.EnsureIndexes(ctx); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return st, nil
	default:
		logger.Warn("using the in-memory store; data is lost on restart")
		return memory.New(), nil
	}
}
