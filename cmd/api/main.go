package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habits/internal/config"
	"github.com/comitanigiacomo/kanso-habits/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Critical: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Critical: invalid configuration: %v", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		logrus.Fatalf("Critical: %v", err)
	}
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Critical: failed to start: %v", err)
	}
	if err := a.start(ctx); err != nil {
		logrus.Fatalf("Critical: %v", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logrus.Infof("Kanso habits API running on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Stop signal received. Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	a.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("forced shutdown")
	}

	cancel()
	a.close()

	logrus.Info("Server stopped gracefully.")
}
