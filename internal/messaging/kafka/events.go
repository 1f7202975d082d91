package kafka

import (
	"time"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

// EventType определяет тип сообщения
type EventType string

// EventTypePixelEvent — конверсионное событие для внешнего приёмника аналитики.
const EventTypePixelEvent EventType = "pixel.event"

// TopicPixelEvents — topic по умолчанию для pixel relay.
const TopicPixelEvents = "pixel-events"

// Kafka headers pixel-сообщений
const (
	HeaderEventType = "x-event-type"
	HeaderEventName = "x-event-name"
	HeaderOwnerID   = "x-owner-id"
)

// PixelEventMessage — тело сообщения в topic pixel-событий.
// EventID служит ключом дедупликации у приёмника и ключом партиционирования.
type PixelEventMessage struct {
	EventType    EventType      `json:"event_type"`
	ID           string         `json:"id"`
	OwnerID      string         `json:"owner_id"`
	EventName    string         `json:"event_name"`
	EventID      string         `json:"event_id"`
	EventTime    time.Time      `json:"event_time"`
	ActionSource string         `json:"action_source"`
	UserData     map[string]any `json:"user_data,omitempty"`
	CustomData   map[string]any `json:"custom_data,omitempty"`
	PublishedAt  time.Time      `json:"published_at"`
}

// NewPixelEventMessage собирает сообщение из сохранённого события
func NewPixelEventMessage(event domain.PixelEvent, publishedAt time.Time) *PixelEventMessage {
	return &PixelEventMessage{
		EventType:    EventTypePixelEvent,
		ID:           event.ID,
		OwnerID:      event.UserID,
		EventName:    event.EventName,
		EventID:      event.EventID,
		EventTime:    event.EventTime.UTC(),
		ActionSource: event.ActionSource,
		UserData:     event.UserData,
		CustomData:   event.CustomData,
		PublishedAt:  publishedAt.UTC(),
	}
}
