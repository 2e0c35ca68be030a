package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"

	"zone_scheduler/internal/config"
	"zone_scheduler/internal/handlers"
	"zone_scheduler/internal/logger"
	"zone_scheduler/internal/metrics"
	"zone_scheduler/internal/notifier"
	"zone_scheduler/internal/repository"
	"zone_scheduler/internal/server"
	"zone_scheduler/internal/service"
)

// app holds the wired dependencies and the resources to release on exit.
type app struct {
	log      *logger.Logger
	db       *sql.DB
	redis    *redis.Client
	services *service.Service
	closers  []func()
}

// newApp opens storage, wires the services and loads the persisted
// schedules. extra receives every event after the log and change log
// notifiers.
func newApp(ctx context.Context, cfg config.Config, log *logger.Logger, extra notifier.Notifiers) (*app, error) {
	a := &app{log: log}

	db, err := repository.InitDB(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to init sqlite: %w", err)
	}
	a.db = db

	var docs repository.DocumentStore
	if cfg.Store.Backend == config.BackendRedis {
		client, err := repository.NewRedisClient(ctx, cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB)
		if err != nil {
			a.close()
			return nil, err
		}
		a.redis = client
		docs = repository.NewDocumentRedis(client, cfg.Store.Redis.Prefix)
	}
	repos := repository.NewRepository(db, docs)

	notifiers := notifier.Notifiers{
		notifier.LogNotifier{Logger: log},
		&notifier.ChangeLogNotifier{ChangeLog: repos.ChangeLog, Logger: log},
	}
	notifiers = append(notifiers, extra...)

	if cfg.Auth.SigningKey == "" {
		log.Warnw("auth.signing_key not set; tokens will not survive a restart")
	}

	a.services = service.NewService(repos, service.Config{
		StoreKey:        cfg.Store.Key,
		NextHorizonDays: cfg.Schedule.NextHorizonDays,
		Safety:          service.SafetyLimits{Min: cfg.Safety.MinTemp, Max: cfg.Safety.MaxTemp},
		SigningKey:      cfg.Auth.SigningKey,
		TokenTTL:        cfg.Auth.TokenTTL,
	}, notifiers, log)

	if err := a.services.Engine.Load(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("load schedules: %w", err)
	}
	log.Infow("schedules_loaded", "backend", cfg.Store.Backend, "key", cfg.Store.Key, "zones", len(a.services.Setpoints.Zones()))
	return a, nil
}

// close waits for pending saves and releases storage and broker handles.
func (a *app) close() {
	if a.services != nil {
		a.services.Engine.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Errorw("failed to close redis", "err", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Errorw("failed to close sqlite", "err", err)
		}
	}
}

// serve runs the evaluator loop and the HTTP server until ctx is cancelled,
// then shuts both down.
func serve(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	hub := handlers.NewEventHub(log)
	extra := notifier.Notifiers{hub}

	var (
		m              *metrics.Metrics
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		m = metrics.New()
		extra = append(extra, m)
		metricsHandler = m.Handler()
	}

	var mqttClient *notifier.MQTTClient
	if cfg.MQTT.Enabled {
		client, err := notifier.NewMQTTClient(notifier.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Timeout:  cfg.MQTT.Timeout,
		})
		if err != nil {
			return err
		}
		mqttClient = client
		extra = append(extra, &notifier.MQTTNotifier{
			Publisher: client,
			Prefix:    cfg.MQTT.TopicPrefix,
			QoS:       byte(cfg.MQTT.QoS),
			Logger:    log,
		})
		log.Infow("mqtt_connected", "broker", cfg.MQTT.Broker, "prefix", cfg.MQTT.TopicPrefix)
	}

	a, err := newApp(ctx, cfg, log, extra)
	if err != nil {
		if mqttClient != nil {
			mqttClient.Disconnect()
		}
		return err
	}
	if mqttClient != nil {
		a.closers = append(a.closers, mqttClient.Disconnect)
	}
	defer a.close()

	if m != nil {
		for _, zone := range a.services.Setpoints.Zones() {
			m.ObserveZone(a.services.Setpoints.Snapshot(zone))
		}
	}

	apiHandler := handlers.NewHandler(a.services, hub, metricsHandler, log)
	srv := server.New(server.Options{
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.services.Evaluator.Run(gctx, cfg.Schedule.EvaluateInterval)
		return nil
	})

	g.Go(func() error {
		log.Infow("http_listening", "port", cfg.Port)
		if err := srv.Run(cfg.Port, apiHandler.InitRoutes()); err != nil {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down server...")

		// allow in-flight requests to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
