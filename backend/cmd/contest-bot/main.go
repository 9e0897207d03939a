package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itchan-dev/contestbot/backend/internal/setup"
	"github.com/itchan-dev/contestbot/shared/config"
	"github.com/itchan-dev/contestbot/shared/logger"
)

const (
	readTimeout     = 5 * time.Second
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	started := time.Now()

	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.Log.Level, cfg.Public.Log.JSON)
	log := logger.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.SetupDependencies(ctx, cfg, started)
	if err != nil {
		log.Error("failed to set up dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Cleanup()

	if err := deps.Session.Open(); err != nil {
		log.Error("failed to open discord session", "error", err)
		os.Exit(1)
	}
	defer deps.Session.Close()

	deps.Countdown.StartBackgroundCountdown(ctx, cfg.Public.CountdownInterval)

	var server *http.Server
	if cfg.Public.Http.Addr != "" {
		server = &http.Server{
			Addr:         cfg.Public.Http.Addr,
			Handler:      deps.Router,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		}
		go func() {
			log.Info("starting ops server", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("ops server failed", "error", err)
				stop()
			}
		}()
	}

	log.Info("bot is running", "storage", cfg.Public.Storage.Backend)
	<-ctx.Done()
	log.Info("shutting down")

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("ops server shutdown failed", "error", err)
		}
	}
	<-deps.Countdown.Done()
}
