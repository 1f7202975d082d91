package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultActionSource — источник конверсии по умолчанию для pixel-событий.
const DefaultActionSource = "website"

// AbandonedCart — брошенная корзина на checkout-странице.
type AbandonedCart struct {
	ID                string         `json:"id"`
	UserID            string         `json:"userId"`
	CheckoutPageID    string         `json:"checkoutPageId"`
	Email             string         `json:"email"`
	CartData          map[string]any `json:"cartData"`
	RecoveryEmailSent bool           `json:"recoveryEmailSent"`
	RecoveredAt       *time.Time     `json:"recoveredAt"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// NewAbandonedCart — входные данные для фиксации брошенной корзины.
type NewAbandonedCart struct {
	UserID         string
	CheckoutPageID string
	Email          string
	CartData       map[string]any
}

// Validate проверяет email и страницу.
func (c NewAbandonedCart) Validate() error {
	if strings.TrimSpace(c.Email) == "" || c.CheckoutPageID == "" {
		return fmt.Errorf("%w: abandoned cart requires email and checkout page", ErrInvalidInput)
	}
	return nil
}

// AbandonedCartPatch — частичное обновление корзины.
type AbandonedCartPatch struct {
	CartData          *map[string]any
	RecoveryEmailSent *bool
	RecoveredAt       *time.Time
}

// Apply переносит заданные поля патча в c.
func (patch AbandonedCartPatch) Apply(c *AbandonedCart) {
	setValue(&c.CartData, patch.CartData)
	setValue(&c.RecoveryEmailSent, patch.RecoveryEmailSent)
	if patch.RecoveredAt != nil {
		v := patch.RecoveredAt.UTC()
		c.RecoveredAt = &v
	}
}

// EmailTemplate — шаблон письма продавца (подтверждение заказа, восстановление корзины и т.д.).
type EmailTemplate struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Render подставляет переменные вида {{name}} в тему и тело письма.
// Неизвестные переменные остаются как есть.
func (t EmailTemplate) Render(vars map[string]string) (subject, body string) {
	replace := func(s string) string {
		return placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
			name := placeholderPattern.FindStringSubmatch(m)[1]
			if v, ok := vars[name]; ok {
				return v
			}
			return m
		})
	}
	return replace(t.Subject), replace(t.Body)
}

// NewEmailTemplate — входные данные для создания шаблона.
type NewEmailTemplate struct {
	UserID   string
	Type     string
	Subject  string
	Body     string
	IsActive *bool
}

// Validate проверяет тип шаблона.
func (t NewEmailTemplate) Validate() error {
	if strings.TrimSpace(t.Type) == "" {
		return fmt.Errorf("%w: email template type is required", ErrInvalidInput)
	}
	return nil
}

// EmailTemplatePatch — частичное обновление шаблона.
type EmailTemplatePatch struct {
	Type     *string
	Subject  *string
	Body     *string
	IsActive *bool
}

// Apply переносит заданные поля патча в t.
func (patch EmailTemplatePatch) Apply(t *EmailTemplate) {
	setValue(&t.Type, patch.Type)
	setValue(&t.Subject, patch.Subject)
	setValue(&t.Body, patch.Body)
	setValue(&t.IsActive, patch.IsActive)
}

// PixelEvent — конверсионное событие для отправки во внешний приёмник аналитики.
// EventID — ключ дедупликации, уникален в рамках владельца.
// Failed ставится, когда событие не удалось опубликовать за все попытки; такие события
// больше не выбираются relay.
type PixelEvent struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	EventName    string         `json:"eventName"`
	EventID      string         `json:"eventId"`
	EventTime    time.Time      `json:"eventTime"`
	UserData     map[string]any `json:"userData"`
	CustomData   map[string]any `json:"customData"`
	ActionSource string         `json:"actionSource"`
	Sent         bool           `json:"sent"`
	Failed       bool           `json:"failed"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// NewPixelEvent — входные данные для регистрации события.
type NewPixelEvent struct {
	UserID       string
	EventName    string
	EventID      string
	EventTime    *time.Time
	UserData     map[string]any
	CustomData   map[string]any
	ActionSource *string
}

// Validate проверяет имя события и ключ дедупликации.
func (e NewPixelEvent) Validate() error {
	if strings.TrimSpace(e.EventName) == "" || strings.TrimSpace(e.EventID) == "" {
		return fmt.Errorf("%w: pixel event requires name and event id", ErrInvalidInput)
	}
	return nil
}

// PixelEventPatch — частичное обновление события.
type PixelEventPatch struct {
	Sent       *bool
	Failed     *bool
	CustomData *map[string]any
}

// Apply переносит заданные поля патча в e.
func (patch PixelEventPatch) Apply(e *PixelEvent) {
	setValue(&e.Sent, patch.Sent)
	setValue(&e.Failed, patch.Failed)
	setValue(&e.CustomData, patch.CustomData)
}
