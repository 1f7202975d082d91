// Package app собирает процесс: хранилище, сервер метрик и health, pixel relay.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/momentouslyfe-web/DigitalCart/internal/health"
	"github.com/momentouslyfe-web/DigitalCart/internal/messaging/kafka"
	"github.com/momentouslyfe-web/DigitalCart/internal/metrics"
	"github.com/momentouslyfe-web/DigitalCart/internal/service/pixel"
	"github.com/momentouslyfe-web/DigitalCart/internal/version"
)

const defaultShutdownTimeout = 5 * time.Second

// Run запускает приложение и блокируется до отмены ctx или падения сервера метрик.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	storageMetrics := metrics.NewStorageMetricsWithRegisterer(prometheus.DefaultRegisterer)
	storage, err := initStorage(ctx, cfg, logger, storageMetrics)
	if err != nil {
		return err
	}
	defer closeStorage(storage, logger)

	deps := NewDependencies(storage, logger)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", healthcheck.NewPingChecker("storage", deps.Storage))

	lis, err := net.Listen("tcp", cfg.MetricsAddr)
	if err != nil {
		return err
	}
	metricsSrv := newMetricsServer(healthHandler)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", lis.Addr())
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", lis.Addr(), lis.Addr(), lis.Addr())
		errCh <- metricsSrv.Serve(lis)
	}()

	producer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without pixel relay")
	}
	relayCancel, relayDone := startPixelRelay(ctx, cfg, deps, producer, logger)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем сервисы")
		runErr = ctx.Err()
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownPixelRelay(relayCancel, relayDone, cfg.ShutdownTimeout, logger)
	shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)
	closeKafka(producer, logger)
	return runErr
}

// startPixelRelay запускает relay в отдельной горутине. Без producer-а relay не запускается.
func startPixelRelay(
	ctx context.Context,
	cfg Config,
	deps *Dependencies,
	producer *kafka.Producer,
	logger *log.Entry,
) (context.CancelFunc, <-chan struct{}) {
	if producer == nil {
		logger.Info("kafka brokers are not configured, pixel relay is disabled")
		return nil, nil
	}

	relay := pixel.NewRelay(
		deps.Storage,
		kafka.NewPixelPublisher(producer, cfg.PixelTopic),
		pixel.WithLogger(logger.WithField("component", "pixel-relay")),
		pixel.WithMetrics(metrics.NewRelayMetricsWithRegisterer(prometheus.DefaultRegisterer)),
		pixel.WithPollInterval(cfg.PixelPollInterval),
		pixel.WithBatchSize(cfg.PixelBatchSize),
		pixel.WithMaxAttempts(cfg.PixelMaxAttempts),
		pixel.WithRetryBaseDelay(cfg.PixelRetryDelay),
	)

	relayCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.Run(relayCtx)
	}()
	return cancel, done
}

// shutdownPixelRelay останавливает relay и ждёт завершения текущего цикла не дольше timeout.
func shutdownPixelRelay(cancel context.CancelFunc, done <-chan struct{}, timeout time.Duration, logger *log.Entry) {
	if cancel == nil {
		return
	}
	cancel()
	if done == nil {
		return
	}

	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("pixel relay did not stop within shutdown timeout")
	}
}

// newMetricsServer собирает HTTP-обработчик /metrics и health-эндпоинтов.
func newMetricsServer(healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	healthHandler.Routes(mux)

	return &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
