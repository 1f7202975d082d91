package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

func testPixelEvent() domain.PixelEvent {
	return domain.PixelEvent{
		ID:           "pe-1",
		UserID:       "user-1",
		EventName:    "Purchase",
		EventID:      "order-42",
		EventTime:    time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		UserData:     map[string]any{"em": "hash"},
		CustomData:   map[string]any{"value": "19.99", "currency": "USD"},
		ActionSource: "website",
	}
}

func headerValue(msg *sarama.ProducerMessage, key string) string {
	for _, header := range msg.Headers {
		if string(header.Key) == key {
			return string(header.Value)
		}
	}
	return ""
}

func TestPixelPublisher_Publish(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	publisher := NewPixelPublisher(newProducer(mockProducer, log.WithField("component", "kafka-pixel-publisher-test")), "")
	publishedAt := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	publisher.now = func() time.Time { return publishedAt }

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		require.Equal(t, TopicPixelEvents, msg.Topic)

		key, err := msg.Key.Encode()
		require.NoError(t, err)
		require.Equal(t, "order-42", string(key))

		value, err := msg.Value.Encode()
		require.NoError(t, err)
		var body PixelEventMessage
		require.NoError(t, json.Unmarshal(value, &body))
		require.Equal(t, EventTypePixelEvent, body.EventType)
		require.Equal(t, "pe-1", body.ID)
		require.Equal(t, "user-1", body.OwnerID)
		require.Equal(t, "Purchase", body.EventName)
		require.Equal(t, "order-42", body.EventID)
		require.True(t, body.EventTime.Equal(time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)))
		require.True(t, body.PublishedAt.Equal(publishedAt))
		require.Equal(t, "USD", body.CustomData["currency"])

		require.Equal(t, string(EventTypePixelEvent), headerValue(msg, HeaderEventType))
		require.Equal(t, "Purchase", headerValue(msg, HeaderEventName))
		require.Equal(t, "user-1", headerValue(msg, HeaderOwnerID))
		return nil
	})

	require.NoError(t, publisher.Publish(context.Background(), testPixelEvent()))
	require.NoError(t, mockProducer.Close())
}

func TestPixelPublisher_PublishFallsBackToRecordID(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	publisher := NewPixelPublisher(newProducer(mockProducer, nil), "custom-topic")
	require.Equal(t, "custom-topic", publisher.Topic())

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		require.Equal(t, "custom-topic", msg.Topic)
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		require.Equal(t, "pe-1", string(key))
		return nil
	})

	event := testPixelEvent()
	event.EventID = ""
	require.NoError(t, publisher.Publish(context.Background(), event))
	require.NoError(t, mockProducer.Close())
}

func TestPixelPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	publisher := NewPixelPublisher(newProducer(mockProducer, nil), TopicPixelEvents)

	err := publisher.Publish(context.Background(), testPixelEvent())
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, mockProducer.Close())
}

func TestPixelPublisher_PublishCanceledContext(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	publisher := NewPixelPublisher(newProducer(mockProducer, nil), TopicPixelEvents)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, publisher.Publish(ctx, testPixelEvent()), context.Canceled)
	require.NoError(t, mockProducer.Close())
}

func TestPixelPublisher_PublishNilProducer(t *testing.T) {
	t.Parallel()

	publisher := NewPixelPublisher(nil, TopicPixelEvents)
	require.Error(t, publisher.Publish(context.Background(), testPixelEvent()))
}
