package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/formvault/pdf-stamper/internal/analyze"
	"github.com/formvault/pdf-stamper/internal/config"
	"github.com/formvault/pdf-stamper/internal/fill"
	"github.com/formvault/pdf-stamper/internal/profile"
	"github.com/formvault/pdf-stamper/internal/server"
	"github.com/formvault/pdf-stamper/internal/template"
	"github.com/formvault/pdf-stamper/internal/vault"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger builds the process logger from the configured level.
func newLogger(cfg *config.Config) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "pdf-stamper",
	})
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// runServer runs the HTTP server until a shutdown signal arrives.
func runServer(ctx context.Context, logger *log.Logger, srv *server.Server) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	select {
	case sig := <-signalCh:
		logger.Info("shutting down", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "err", err)
			os.Exit(1)
		}
		<-serverErrCh

	case err := <-serverErrCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if version != "dev" {
		cfg.Version = version
	}

	logger := newLogger(cfg)
	if cfg.IsDebug() {
		logger.Debug("starting", "config", cfg.String())
	}

	p, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		logger.Fatal("failed to load company profile", "path", cfg.ProfilePath, "err", err)
	}

	store, err := template.NewStore(cfg.TemplateDSN())
	if err != nil {
		logger.Fatal("failed to open template store", "err", err)
	}
	defer store.Close()

	v, err := vault.New(cfg.VaultDSN(), cfg.VaultDirectory(), cfg.SigningSecret, cfg.VaultTTL, logger)
	if err != nil {
		logger.Fatal("failed to open vault", "err", err)
	}
	defer v.Close()

	var analyzer *analyze.Client
	if cfg.AnalyzerEnabled() {
		analyzer = analyze.NewClient(cfg.AnalyzerEndpoint, logger)
	} else {
		logger.Warn("no analyzer endpoint configured, document analysis disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v.StartCleanup(ctx, cfg.SweepInterval)

	service := fill.NewService(cfg, logger, p, store, v, analyzer)
	srv := server.New(cfg, logger, service)

	runServer(ctx, logger, srv)
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("PDF Stamper\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
