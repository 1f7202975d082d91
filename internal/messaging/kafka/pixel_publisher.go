package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

// PixelPublisher публикует pixel-события в заданный Kafka topic.
type PixelPublisher struct {
	producer *Producer
	topic    string
	now      func() time.Time
}

// NewPixelPublisher создаёт паблишер для pixel relay. Пустой topic заменяется TopicPixelEvents.
func NewPixelPublisher(producer *Producer, topic string) *PixelPublisher {
	if topic == "" {
		topic = TopicPixelEvents
	}
	return &PixelPublisher{
		producer: producer,
		topic:    topic,
		now:      time.Now,
	}
}

// Topic возвращает topic публикации.
func (p *PixelPublisher) Topic() string {
	return p.topic
}

// Publish отправляет событие с ключом EventID.
func (p *PixelPublisher) Publish(ctx context.Context, event domain.PixelEvent) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka pixel publisher is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := event.EventID
	if key == "" {
		key = event.ID
	}

	return p.producer.PublishEvent(p.topic, key, NewPixelEventMessage(event, p.now()), map[string]string{
		HeaderEventType: string(EventTypePixelEvent),
		HeaderEventName: event.EventName,
		HeaderOwnerID:   event.UserID,
	})
}
