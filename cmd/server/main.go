package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvrules/internal/catalog"
	"github.com/JonMunkholm/csvrules/internal/config"
	"github.com/JonMunkholm/csvrules/internal/logging"
	_ "github.com/JonMunkholm/csvrules/internal/parsers" // Register built-in parsers
	"github.com/JonMunkholm/csvrules/internal/ruleset"
	"github.com/JonMunkholm/csvrules/internal/service"
	"github.com/JonMunkholm/csvrules/internal/web"
)

func main() {
	// Values already in the environment win over .env
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	if cfg.Rules.Path != "" {
		entries, err := ruleset.Apply(cfg.Rules.Path)
		if err != nil {
			slog.Error("failed to load ruleset", "path", cfg.Rules.Path, "error", err, "code", service.MapError(err).Code)
			os.Exit(1)
		}
		slog.Info("ruleset loaded", "path", cfg.Rules.Path, "parsers", len(entries))
	}

	var watcher io.Closer
	if cfg.Rules.Watch {
		watcher, err = ruleset.Watch(cfg.Rules.Path, cfg.Rules.Debounce, nil)
		if err != nil {
			slog.Error("failed to watch ruleset", "path", cfg.Rules.Path, "error", err)
			os.Exit(1)
		}
	}

	slog.Info("parsers registered",
		"count", catalog.Count(),
		"groups", len(catalog.Groups()),
	)
	for _, group := range catalog.Groups() {
		slog.Debug("parser group", "group", group, "parsers", len(catalog.ByGroup(group)))
	}

	svc := service.NewFromConfig(cfg)
	server := web.NewServer(svc, cfg)

	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		if watcher != nil {
			if err := watcher.Close(); err != nil {
				slog.Warn("ruleset watcher close error", "error", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if st := svc.Limiter().Status(); st.Active > 0 {
			slog.Info("waiting for parses to complete", "active", st.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
