package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/novado-app/novado-server/internal/container"
	"github.com/novado-app/novado-server/internal/router"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	c := container.New()

	handler := router.New(router.RouterConfig{
		UserHandler:     c.UserContainer.Handler,
		CalendarHandler: c.CalendarHandler,
		ReminderHandler: c.ReminderContainer.Handler,
	})

	addr := ":" + os.Getenv("PORT")
	if addr == ":" {
		addr = ":8000"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c.Scheduler.Start(ctx)

	go func() {
		logrus.Infof("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
	c.Scheduler.Stop()
}
