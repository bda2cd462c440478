package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"geo-reminders/internal/config"
	"geo-reminders/internal/geocode"
	"geo-reminders/internal/geofence"
	"geo-reminders/internal/handler"
	"geo-reminders/internal/model"
	"geo-reminders/internal/notify"
	"geo-reminders/internal/repository"
	"geo-reminders/internal/service"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg := config.Load()

	// общий контекст с сигналами
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// init storage (sqlite)
	store, err := repository.NewStore(cfg.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize storage")
	}

	if err := store.CreateTables(ctx); err != nil {
		logger.WithError(err).Fatal("failed to create tables")
	}

	// init notification queue (redis)
	queue, err := notify.NewQueue(ctx, cfg.Redis)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}

	geocoder := geocode.NewClient(cfg.GeocodeURL, cfg.GeocodeTimeout)

	// notification permission is established once at process start;
	// denial disables dispatch but nothing else
	dispatcher := notify.NewDispatcher(queue, cfg.NotifyURL, logger)
	if err := dispatcher.Initialize(ctx); err != nil {
		if errors.Is(err, model.ErrPermissionDenied) {
			logger.Warn("notification permission denied, notifications disabled")
		} else {
			logger.WithError(err).Warn("notification permission request failed, notifications disabled")
		}
	}

	monitor := geofence.NewMonitor(cfg.RegionLimit, cfg.LocationPermission, logger)
	pipeline := geofence.NewPipeline(store, dispatcher, monitor, queue, logger)
	monitor.SetEnterHandler(func(regionID string) {
		// enter events may arrive detached from any request lifecycle
		pipeline.OnRegionEnter(context.Background(), regionID)
	})

	// init service
	reminderService := service.NewReminderService(store, geocoder, pipeline, monitor, queue, logger)

	if err := reminderService.Resync(ctx); err != nil {
		logger.WithError(err).Warn("initial region synchronization failed")
	}

	// init handler
	h := handler.NewHandler(logger, reminderService, cfg.StatsWindowMinutes)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/reminders", h.RemindersHandler)
	mux.HandleFunc("/api/v1/reminders/stats", h.StatsHandler)
	mux.HandleFunc("/api/v1/reminders/", h.ReminderByIDHandler)
	mux.HandleFunc("/api/v1/location", h.LocationHandler)
	mux.HandleFunc("/api/v1/system/health", h.HealthHandler)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server ListenAndServe error")
		}
	}()

	logger.WithField("addr", cfg.HTTPAddr).Info("Server started")

	worker := notify.NewDeliveryWorker(queue, logger, cfg.NotifyURL)
	go worker.Run(ctx)

	// ждём сигнал
	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("server forced to shutdown")
	} else {
		logger.Info("Server stopped gracefully")
	}

	if err := store.Close(); err != nil {
		logger.WithError(err).Warn("storage close error")
	}
	if err := queue.Close(); err != nil {
		logger.WithError(err).Warn("redis close error")
	} else {
		logger.Info("Storage closed")
	}
}
