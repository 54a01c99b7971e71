package main

import (
	"go.uber.org/zap"

	"diagetl/internal/config"
	"diagetl/internal/metrics"
	"diagetl/internal/metrics/datadog"
	"diagetl/internal/metrics/prompush"
)

// setupMetrics installs the configured metrics backend and returns the
// function that flushes it at shutdown.
func setupMetrics(cfg config.Config, log *zap.Logger) (func(), error) {
	m := cfg.Metrics
	switch m.Backend {
	case "pushgateway":
		b, err := prompush.NewBackend(cfg.Job, m.PushgatewayURL)
		if err != nil {
			return nil, err
		}
		metrics.SetBackend(b)
		log.Info("metrics enabled",
			zap.String("backend", m.Backend),
			zap.String("url", m.PushgatewayURL),
			zap.String("job", cfg.Job))
		return func() {
			if err := metrics.Flush(); err != nil {
				log.Warn("metrics flush failed", zap.Error(err))
			}
		}, nil

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			Namespace:  m.Namespace,
			GlobalTags: append([]string{"job:" + cfg.Job}, m.Tags...),
		})
		if err != nil {
			return nil, err
		}
		metrics.SetBackend(b)
		log.Info("metrics enabled",
			zap.String("backend", m.Backend),
			zap.String("addr", m.DatadogAddr))
		return func() {
			if err := metrics.Flush(); err != nil {
				log.Warn("metrics flush failed", zap.Error(err))
			}
			if err := b.Close(); err != nil {
				log.Warn("metrics close failed", zap.Error(err))
			}
		}, nil

	default:
		log.Debug("metrics disabled", zap.String("backend", m.Backend))
		return func() {}, nil
	}
}
