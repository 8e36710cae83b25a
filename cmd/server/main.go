// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/skygrid/internal/auth"
	"github.com/jason-s-yu/skygrid/internal/config"
	"github.com/jason-s-yu/skygrid/internal/game"
	"github.com/jason-s-yu/skygrid/internal/handlers"
	"github.com/jason-s-yu/skygrid/internal/store"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	configureLogger(logger, cfg)

	if err := auth.Init(cfg.SessionKeySeed, cfg.TokenTTL); err != nil {
		logger.Fatalf("failed to initialize session keys: %v", err)
	}
	if cfg.SessionKeySeed == "" {
		logger.Warn("SESSION_KEY_SEED not set, session tokens only work on this process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.StoreURL, logger)
	if err != nil {
		logger.Fatalf("failed to open room store: %v", err)
	}
	defer st.Close()

	gs := handlers.NewGameServer(st, game.NewEngine(cfg.Rules), logger)
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: handlers.NewMux(logger, gs),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return gs.Hub.Run(gctx) })
	g.Go(func() error { return st.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("server exited: %v", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func configureLogger(logger *logrus.Logger, cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
