package pixel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/docstore"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/document"
)

func TestRelay_ProcessOnce_MarksSent(t *testing.T) {
	t.Parallel()

	source := &stubSource{pending: []domain.PixelEvent{
		{ID: "pe-1", EventID: "order-1", EventName: "Purchase"},
		{ID: "pe-2", EventID: "order-2", EventName: "Purchase"},
	}}
	publisher := &stubPublisher{}
	metrics := &stubRecorder{}

	relay := NewRelay(source, publisher, WithMetrics(metrics), WithRetryBaseDelay(0))
	result := relay.ProcessOnce(context.Background())

	require.Equal(t, BatchResult{Fetched: 2, Published: 2}, result)
	require.Equal(t, []string{"pe-1", "pe-2"}, source.sentIDs)
	require.Equal(t, []string{"order-1", "order-2"}, publisher.published)
	require.Equal(t, 2, metrics.published)
	require.Equal(t, []int{2}, metrics.batches)
}

func TestRelay_ProcessOnce_MarksFailedAfterRetries(t *testing.T) {
	t.Parallel()

	source := &stubSource{pending: []domain.PixelEvent{{ID: "pe-1", EventID: "order-1"}}}
	publisher := &stubPublisher{err: errors.New("broker unavailable")}
	metrics := &stubRecorder{}

	relay := NewRelay(source, publisher, WithMetrics(metrics), WithMaxAttempts(3), WithRetryBaseDelay(0))
	result := relay.ProcessOnce(context.Background())

	require.Equal(t, BatchResult{Fetched: 1, Failed: 1}, result)
	require.Equal(t, 3, publisher.calls())
	require.Empty(t, source.sentIDs)
	require.Equal(t, []string{"pe-1"}, source.failedIDs)
	require.Equal(t, 1, metrics.failed)

	// Помеченное failed событие больше не выбирается.
	require.Equal(t, BatchResult{}, relay.ProcessOnce(context.Background()))
	require.Equal(t, 3, publisher.calls())
}

func TestRelay_ProcessOnce_MarkFailedFailure(t *testing.T) {
	t.Parallel()

	source := &stubSource{
		pending: []domain.PixelEvent{{ID: "pe-1", EventID: "order-1"}},
		markErr: errors.New("write failed"),
	}
	metrics := &stubRecorder{}

	relay := NewRelay(source, &stubPublisher{err: errors.New("rejected")}, WithMetrics(metrics), WithMaxAttempts(1))
	result := relay.ProcessOnce(context.Background())

	require.Equal(t, 1, result.Failed)
	require.Equal(t, 1, metrics.failed)
	require.Equal(t, 1, metrics.statusFailed)
}

func TestRelay_ProcessOnce_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	source := &stubSource{pending: []domain.PixelEvent{{ID: "pe-3", EventID: "order-3"}}}
	publisher := &stubPublisher{sequenceErrors: []error{errors.New("attempt 1"), errors.New("attempt 2"), nil}}

	relay := NewRelay(source, publisher, WithMaxAttempts(3), WithRetryBaseDelay(time.Millisecond))
	result := relay.ProcessOnce(context.Background())

	require.Equal(t, 1, result.Published)
	require.Equal(t, 3, publisher.calls())
	require.Equal(t, []string{"pe-3"}, source.sentIDs)
}

func TestRelay_ProcessOnce_ListError(t *testing.T) {
	t.Parallel()

	source := &stubSource{listErr: errors.New("store down")}
	publisher := &stubPublisher{}
	metrics := &stubRecorder{}

	result := NewRelay(source, publisher, WithMetrics(metrics)).ProcessOnce(context.Background())

	require.Equal(t, BatchResult{}, result)
	require.Zero(t, publisher.calls())
	require.Empty(t, metrics.batches)
}

func TestRelay_ProcessOnce_MarkSentFailure(t *testing.T) {
	t.Parallel()

	source := &stubSource{
		pending: []domain.PixelEvent{{ID: "pe-1", EventID: "order-1"}},
		markErr: errors.New("write failed"),
	}
	metrics := &stubRecorder{}

	result := NewRelay(source, &stubPublisher{}, WithMetrics(metrics)).ProcessOnce(context.Background())

	require.Equal(t, 1, result.Published)
	require.Equal(t, 1, metrics.statusFailed)
}

func TestRelay_ProcessOnce_PassesBatchSize(t *testing.T) {
	t.Parallel()

	source := &stubSource{}
	NewRelay(source, &stubPublisher{}, WithBatchSize(25)).ProcessOnce(context.Background())
	require.Equal(t, 25, source.lastLimit)

	source = &stubSource{}
	NewRelay(source, &stubPublisher{}, WithBatchSize(-1)).ProcessOnce(context.Background())
	require.Equal(t, defaultBatchSize, source.lastLimit)
}

func TestRelay_ProcessOnce_CanceledContext(t *testing.T) {
	t.Parallel()

	source := &stubSource{pending: []domain.PixelEvent{{ID: "pe-1"}}}
	publisher := &stubPublisher{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Equal(t, BatchResult{}, NewRelay(source, publisher).ProcessOnce(ctx))
	require.Zero(t, publisher.calls())
}

func TestRelay_RetryBackoff(t *testing.T) {
	t.Parallel()

	relay := NewRelay(&stubSource{}, &stubPublisher{}, WithRetryBaseDelay(10*time.Millisecond))
	require.Equal(t, 10*time.Millisecond, relay.retryBackoff(1))
	require.Equal(t, 20*time.Millisecond, relay.retryBackoff(2))
	require.Equal(t, 40*time.Millisecond, relay.retryBackoff(3))

	relay = NewRelay(&stubSource{}, &stubPublisher{}, WithRetryBaseDelay(time.Duration(1<<62)))
	require.Equal(t, time.Duration(1<<63-1), relay.retryBackoff(4))

	relay = NewRelay(&stubSource{}, &stubPublisher{}, WithRetryBaseDelay(-time.Second))
	require.Zero(t, relay.retryBackoff(2))
}

func TestRelay_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	relay := NewRelay(&stubSource{}, &stubPublisher{}, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop on context cancel")
	}
}

func TestRelay_Run_DisabledWithoutPublisher(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		NewRelay(&stubSource{}, nil).Run(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay without publisher should return immediately")
	}
}

func TestRelay_DocumentBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := document.New(docstore.NewMemoryStore())
	t.Cleanup(func() { _ = backend.Close() })

	owner, err := backend.CreateUser(ctx, domain.NewUser{Email: "seller@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	for _, eventID := range []string{"order-1", "order-2"} {
		_, err := backend.CreatePixelEvent(ctx, domain.NewPixelEvent{
			UserID:    owner.ID,
			EventName: "Purchase",
			EventID:   eventID,
		})
		require.NoError(t, err)
	}

	publisher := &stubPublisher{}
	result := NewRelay(backend, publisher, WithRetryBaseDelay(0)).ProcessOnce(ctx)
	require.Equal(t, 2, result.Published)
	require.ElementsMatch(t, []string{"order-1", "order-2"}, publisher.published)

	unsent, err := backend.ListUnsentPixelEvents(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, unsent)

	result = NewRelay(backend, publisher).ProcessOnce(ctx)
	require.Equal(t, BatchResult{}, result)
}

func TestRelay_DocumentBackend_FailingEventDoesNotBlockQueue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	backend := document.New(docstore.NewMemoryStore(), document.WithClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}))
	t.Cleanup(func() { _ = backend.Close() })

	owner, err := backend.CreateUser(ctx, domain.NewUser{Email: "seller@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	for _, eventID := range []string{"broken", "order-1"} {
		_, err := backend.CreatePixelEvent(ctx, domain.NewPixelEvent{
			UserID:    owner.ID,
			EventName: "Purchase",
			EventID:   eventID,
		})
		require.NoError(t, err)
	}

	publisher := &rejectingPublisher{rejectEventID: "broken"}
	relay := NewRelay(backend, publisher, WithBatchSize(1), WithMaxAttempts(2), WithRetryBaseDelay(0))

	first := relay.ProcessOnce(ctx)
	require.Equal(t, BatchResult{Fetched: 1, Failed: 1}, first)

	second := relay.ProcessOnce(ctx)
	require.Equal(t, BatchResult{Fetched: 1, Published: 1}, second)
	require.Equal(t, []string{"order-1"}, publisher.published)

	unsent, err := backend.ListUnsentPixelEvents(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, unsent)

	events, err := backend.GetPixelEvents(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, event := range events {
		if event.EventID == "broken" {
			require.True(t, event.Failed)
			require.False(t, event.Sent)
		} else {
			require.True(t, event.Sent)
		}
	}
}

type stubSource struct {
	mu        sync.Mutex
	pending   []domain.PixelEvent
	listErr   error
	markErr   error
	sentIDs   []string
	failedIDs []string
	lastLimit int
}

func (s *stubSource) ListUnsentPixelEvents(_ context.Context, limit int) ([]domain.PixelEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastLimit = limit
	if s.listErr != nil {
		return nil, s.listErr
	}
	var unsent []domain.PixelEvent
	for _, event := range s.pending {
		if event.Sent || event.Failed {
			continue
		}
		unsent = append(unsent, event)
	}
	if limit > 0 && len(unsent) > limit {
		unsent = unsent[:limit]
	}
	return unsent, nil
}

func (s *stubSource) UpdatePixelEvent(_ context.Context, id string, patch domain.PixelEventPatch) (*domain.PixelEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.markErr != nil {
		return nil, s.markErr
	}
	for i := range s.pending {
		if s.pending[i].ID != id {
			continue
		}
		patch.Apply(&s.pending[i])
		if patch.Sent != nil && *patch.Sent {
			s.sentIDs = append(s.sentIDs, id)
		}
		if patch.Failed != nil && *patch.Failed {
			s.failedIDs = append(s.failedIDs, id)
		}
		event := s.pending[i]
		return &event, nil
	}
	return nil, nil
}

type stubPublisher struct {
	mu             sync.Mutex
	err            error
	sequenceErrors []error
	callCount      int
	published      []string
}

func (s *stubPublisher) Publish(_ context.Context, event domain.PixelEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++
	err := s.err
	if len(s.sequenceErrors) > 0 {
		err = s.sequenceErrors[0]
		s.sequenceErrors = s.sequenceErrors[1:]
	}
	if err == nil {
		s.published = append(s.published, event.EventID)
	}
	return err
}

func (s *stubPublisher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}

type rejectingPublisher struct {
	rejectEventID string
	published     []string
}

func (p *rejectingPublisher) Publish(_ context.Context, event domain.PixelEvent) error {
	if event.EventID == p.rejectEventID {
		return errors.New("receiver rejected event")
	}
	p.published = append(p.published, event.EventID)
	return nil
}

type stubRecorder struct {
	published    int
	failed       int
	statusFailed int
	batches      []int
}

func (r *stubRecorder) RecordPublished()          { r.published++ }
func (r *stubRecorder) RecordPublishFailed()      { r.failed++ }
func (r *stubRecorder) RecordStatusUpdateFailed() { r.statusFailed++ }
func (r *stubRecorder) RecordBatch(size int, _ time.Duration) {
	r.batches = append(r.batches, size)
}

var (
	_ EventSource = (*stubSource)(nil)
	_ Publisher   = (*stubPublisher)(nil)
	_ Recorder    = (*stubRecorder)(nil)
)
