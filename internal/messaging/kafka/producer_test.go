package kafka

import (
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestProducer_PublishEvent(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer, log.WithField("component", "kafka-producer-test"))

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		require.Equal(t, TopicPixelEvents, msg.Topic)

		key, err := msg.Key.Encode()
		require.NoError(t, err)
		require.Equal(t, "evt-1", string(key))

		value, err := msg.Value.Encode()
		require.NoError(t, err)
		require.JSONEq(t, `{"name":"Purchase"}`, string(value))

		require.Len(t, msg.Headers, 1)
		require.Equal(t, HeaderEventName, string(msg.Headers[0].Key))
		require.Equal(t, "Purchase", string(msg.Headers[0].Value))
		return nil
	})

	err := producer.PublishEvent(TopicPixelEvents, "evt-1", map[string]string{"name": "Purchase"}, map[string]string{
		HeaderEventName: "Purchase",
	})
	require.NoError(t, err)
	require.NoError(t, mockProducer.Close())
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer, nil)

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := producer.PublishEvent(TopicPixelEvents, "evt-1", map[string]string{}, nil)
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, mockProducer.Close())
}

func TestProducer_PublishEvent_MarshalError(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer, nil)

	var unsupported json.Marshaler = badJSON{}
	err := producer.PublishEvent(TopicPixelEvents, "evt-1", unsupported, nil)
	require.Error(t, err)
	require.ErrorContains(t, err, "failed to marshal event")
	require.NoError(t, mockProducer.Close())
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil, nil)
	require.Error(t, err)
}

type badJSON struct{}

func (badJSON) MarshalJSON() ([]byte, error) {
	return nil, sarama.ErrInvalidMessage
}
