package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"soilmon/internal/config"
	httpapi "soilmon/internal/httpapi"
	"soilmon/internal/metrics"
	soil "soilmon/internal/modules/soil"
	"soilmon/internal/modules/soil/service"
	"soilmon/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"storeBackend", cfg.StoreBackend,
		"influxURL", cfg.InfluxURL,
		"influxOrg", cfg.InfluxOrg,
		"influxBucket", cfg.InfluxBucket,
		"sqlitePath", cfg.SQLitePath,
		"mqttEnabled", cfg.MQTTEnabled,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
		"changeThreshold", cfg.ChangeThreshold,
	)

	store, closeStore, err := OpenStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("store close", "error", err)
		}
	}()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	err = store.Ping(pingCtx)
	pingCancel()
	if err != nil {
		// /healthz reports 503 until the store comes up.
		logger.Warn("store not reachable at startup", "backend", cfg.StoreBackend, "error", err)
	} else {
		logger.Info("store connection successful", "backend", cfg.StoreBackend)
	}

	m := metrics.New()
	mux := httpapi.NewMux(store, m)

	// The handler must be set before Connect: the broker may deliver right
	// after CONNACK.
	var (
		subscriber *mqtt.Subscriber
		bus        service.MessageSubscriber
	)
	if cfg.MQTTEnabled {
		subscriber = mqtt.NewSubscriber(cfg, logger, m)
		bus = subscriber
	}
	soil.RegisterFeature(mux, store, bus, soil.Options{
		ChangeThreshold: cfg.ChangeThreshold,
		Metrics:         m,
		Logger:          logger,
	})

	if subscriber != nil {
		// Paho keeps retrying in the background; HTTP must not wait for it.
		go func() {
			err := subscriber.Connect(ctx)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, mqtt.ErrStopped) {
				logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
			}
		}()
	}

	srv := httpapi.NewServer(cfg, mux, m, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if subscriber != nil {
			subscriber.Disconnect()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if subscriber != nil {
		logger.Info("mqtt disconnecting")
		subscriber.Disconnect()
	}

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
