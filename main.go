package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/expovote/cliparse"
	"github.com/danielhkuo/expovote/db"
	"github.com/danielhkuo/expovote/logging"
	"github.com/danielhkuo/expovote/middleware"
	"github.com/danielhkuo/expovote/router"
)

func main() {
	var err error

	// Optional subcommand; serving is the default
	args := os.Args[1:]
	mode := "serve"
	if len(args) > 0 && (args[0] == "serve" || args[0] == "display") {
		mode, args = args[0], args[1:]
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(args)
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	if err := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		slog.Error("logging setup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialect, err := db.ParseDialect(cfg.DatabaseType)
	if err != nil {
		slog.Error("invalid database type", "error", err)
		os.Exit(1)
	}

	// Connect and create schema
	store, err := db.Open(ctx, dialect, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database setup failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Database schema ready", "dialect", dialect)

	if mode == "display" {
		err = runDisplay(ctx, os.Stdout, store, cfg)
	} else {
		err = serve(ctx, store, cfg)
	}
	if err != nil {
		slog.Error("exiting", "mode", mode, "error", err)
		store.Close()
		os.Exit(1)
	}
}

func serve(ctx context.Context, store *db.Store, cfg cliparse.Config) error {
	mux, err := router.NewRouter(store, cfg)
	if err != nil {
		return err
	}

	server := http.Server{
		Handler:           middleware.CORS(middleware.Metrics(mux)),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C or SIGTERM
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("Listening", "port", cfg.Port, "base_url", cfg.BaseURL, "voter_identity", cfg.VoterIdentity)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("Server closed")
	return nil
}
