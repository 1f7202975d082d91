// Package pixel переправляет сохранённые pixel-события во внешний приёмник аналитики.
package pixel

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

const (
	defaultPollInterval   = 5 * time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
)

// EventSource — часть хранилища, которую использует relay.
type EventSource interface {
	ListUnsentPixelEvents(ctx context.Context, limit int) ([]domain.PixelEvent, error)
	UpdatePixelEvent(ctx context.Context, id string, patch domain.PixelEventPatch) (*domain.PixelEvent, error)
}

// Publisher отправляет событие в брокер.
type Publisher interface {
	Publish(ctx context.Context, event domain.PixelEvent) error
}

// Recorder получает метрики relay.
type Recorder interface {
	RecordPublished()
	RecordPublishFailed()
	RecordStatusUpdateFailed()
	RecordBatch(size int, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordPublished()               {}
func (noopRecorder) RecordPublishFailed()           {}
func (noopRecorder) RecordStatusUpdateFailed()      {}
func (noopRecorder) RecordBatch(int, time.Duration) {}

// RelayOptions задаёт параметры relay.
type RelayOptions struct {
	Logger         *log.Entry
	Metrics        Recorder
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// Option настраивает Relay.
type Option func(*RelayOptions)

// WithLogger задаёт logger для relay.
func WithLogger(logger *log.Entry) Option {
	return func(opts *RelayOptions) {
		opts.Logger = logger
	}
}

// WithMetrics подключает метрики.
func WithMetrics(metrics Recorder) Option {
	return func(opts *RelayOptions) {
		opts.Metrics = metrics
	}
}

// WithPollInterval задаёт частоту опроса хранилища.
func WithPollInterval(interval time.Duration) Option {
	return func(opts *RelayOptions) {
		opts.PollInterval = interval
	}
}

// WithBatchSize задаёт число событий за один цикл.
func WithBatchSize(batchSize int) Option {
	return func(opts *RelayOptions) {
		opts.BatchSize = batchSize
	}
}

// WithMaxAttempts задаёт число попыток публикации одного события за цикл.
func WithMaxAttempts(maxAttempts int) Option {
	return func(opts *RelayOptions) {
		opts.MaxAttempts = maxAttempts
	}
}

// WithRetryBaseDelay задаёт базовый delay для exponential backoff.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(opts *RelayOptions) {
		opts.RetryBaseDelay = delay
	}
}

// BatchResult — итог одного цикла.
type BatchResult struct {
	Fetched   int
	Published int
	Failed    int
}

// Relay публикует неотправленные события и помечает их sent.
// Событие, не опубликованное за MaxAttempts попыток, помечается failed и больше
// не выбирается, чтобы не блокировать очередь за ним.
type Relay struct {
	source         EventSource
	publisher      Publisher
	logger         *log.Entry
	metrics        Recorder
	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	retryBaseDelay time.Duration
}

// NewRelay создаёт relay.
func NewRelay(source EventSource, publisher Publisher, options ...Option) *Relay {
	opts := RelayOptions{
		PollInterval:   defaultPollInterval,
		BatchSize:      defaultBatchSize,
		MaxAttempts:    defaultMaxAttempts,
		RetryBaseDelay: defaultRetryBaseDelay,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "pixel-relay")
	}
	var metrics Recorder = noopRecorder{}
	if opts.Metrics != nil {
		metrics = opts.Metrics
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryBaseDelay < 0 {
		opts.RetryBaseDelay = 0
	}

	return &Relay{
		source:         source,
		publisher:      publisher,
		logger:         logger,
		metrics:        metrics,
		pollInterval:   opts.PollInterval,
		batchSize:      opts.BatchSize,
		maxAttempts:    opts.MaxAttempts,
		retryBaseDelay: opts.RetryBaseDelay,
	}
}

// Run запускает периодический опрос до отмены ctx.
func (r *Relay) Run(ctx context.Context) {
	if r.source == nil || r.publisher == nil {
		r.logger.Warn("pixel relay is disabled: source or publisher is nil")
		return
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	r.logger.WithFields(log.Fields{
		"poll_interval": r.pollInterval.String(),
		"batch_size":    r.batchSize,
	}).Info("pixel relay started")

	r.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("pixel relay stopped")
			return
		case <-ticker.C:
			r.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce выполняет один цикл: выборка, публикация, отметка sent.
func (r *Relay) ProcessOnce(ctx context.Context) BatchResult {
	var result BatchResult
	if ctx.Err() != nil {
		return result
	}

	started := time.Now()
	events, err := r.source.ListUnsentPixelEvents(ctx, r.batchSize)
	if err != nil {
		r.logger.WithError(err).Warn("failed to list unsent pixel events")
		return result
	}
	result.Fetched = len(events)
	defer func() {
		r.metrics.RecordBatch(result.Fetched, time.Since(started))
	}()

	for _, event := range events {
		if ctx.Err() != nil {
			return result
		}

		if err := r.publishWithRetry(ctx, event); err != nil {
			result.Failed++
			r.metrics.RecordPublishFailed()
			r.logger.WithError(err).WithFields(log.Fields{
				"pixel_event_id": event.ID,
				"event_id":       event.EventID,
				"event_name":     event.EventName,
			}).Error("pixel event publish failed after retries")

			// Прерванная публикация не считается исчерпанием попыток.
			if ctx.Err() != nil {
				return result
			}
			if markErr := r.mark(ctx, event, domain.PixelEventPatch{Failed: domain.Ptr(true)}); markErr != nil {
				r.metrics.RecordStatusUpdateFailed()
				r.logger.WithError(markErr).WithField("pixel_event_id", event.ID).Warn("failed to mark pixel event as failed")
			}
			continue
		}
		result.Published++
		r.metrics.RecordPublished()

		if err := r.mark(ctx, event, domain.PixelEventPatch{Sent: domain.Ptr(true)}); err != nil {
			r.metrics.RecordStatusUpdateFailed()
			r.logger.WithError(err).WithField("pixel_event_id", event.ID).Warn("failed to mark pixel event as sent")
		}
	}

	if result.Fetched > 0 {
		r.logger.WithFields(log.Fields{
			"fetched":   result.Fetched,
			"published": result.Published,
			"failed":    result.Failed,
		}).Debug("pixel relay batch processed")
	}
	return result
}

func (r *Relay) mark(ctx context.Context, event domain.PixelEvent, patch domain.PixelEventPatch) error {
	updated, err := r.source.UpdatePixelEvent(ctx, event.ID, patch)
	if err != nil {
		return err
	}
	if updated == nil {
		r.logger.WithField("pixel_event_id", event.ID).Debug("pixel event disappeared before its status was updated")
	}
	return nil
}

func (r *Relay) publishWithRetry(ctx context.Context, event domain.PixelEvent) error {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := r.publisher.Publish(ctx, event)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= r.maxAttempts {
			break
		}

		delay := r.retryBackoff(attempt)
		if delay <= 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("publish failed after %d attempts: %w", r.maxAttempts, lastErr)
}

func (r *Relay) retryBackoff(attempt int) time.Duration {
	if r.retryBaseDelay <= 0 {
		return 0
	}
	if attempt <= 1 {
		return r.retryBaseDelay
	}

	const maxDuration = time.Duration(1<<63 - 1)
	delay := r.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > maxDuration/2 {
			return maxDuration
		}
		delay *= 2
	}
	return delay
}
