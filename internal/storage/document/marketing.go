package document

import (
	"context"
	"time"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/docstore"
)

func (b *Backend) GetAbandonedCarts(ctx context.Context, ownerID string) ([]domain.AbandonedCart, error) {
	records, err := findRecords[abandonedCartRecord](ctx, b, collAbandonedCarts, docstore.Eq("userId", ownerID))
	if err != nil {
		return nil, err
	}
	carts := mapRecords(records, abandonedCartRecord.toDomain)
	sortNewestFirst(carts, func(c domain.AbandonedCart) (time.Time, string) { return c.CreatedAt, c.ID })
	return carts, nil
}

func (b *Backend) GetAbandonedCart(ctx context.Context, id string) (*domain.AbandonedCart, error) {
	rec, err := getRecord[abandonedCartRecord](ctx, b, collAbandonedCarts, id)
	if err != nil || rec == nil {
		return nil, err
	}
	c := rec.toDomain()
	return &c, nil
}

func (b *Backend) CreateAbandonedCart(ctx context.Context, in domain.NewAbandonedCart) (*domain.AbandonedCart, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := b.requireRef(ctx, collUsers, in.UserID, "user"); err != nil {
		return nil, err
	}
	if err := b.requireRef(ctx, collCheckoutPages, in.CheckoutPageID, "checkout page"); err != nil {
		return nil, err
	}

	c := domain.AbandonedCart{
		ID:             b.newID(),
		UserID:         in.UserID,
		CheckoutPageID: in.CheckoutPageID,
		Email:          in.Email,
		CartData:       in.CartData,
		CreatedAt:      b.now(),
	}
	if c.CartData == nil {
		c.CartData = map[string]any{}
	}
	if err := putRecord(ctx, b, collAbandonedCarts, c.ID, newAbandonedCartRecord(c)); err != nil {
		return nil, err
	}
	return &c, nil
}

func (b *Backend) UpdateAbandonedCart(ctx context.Context, id string, patch domain.AbandonedCartPatch) (*domain.AbandonedCart, error) {
	current, err := b.GetAbandonedCart(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}

	patch.Apply(current)
	if current.RecoveredAt != nil {
		v := current.RecoveredAt.Truncate(time.Microsecond)
		current.RecoveredAt = &v
	}
	if err := putRecord(ctx, b, collAbandonedCarts, id, newAbandonedCartRecord(*current)); err != nil {
		return nil, err
	}
	return b.GetAbandonedCart(ctx, id)
}

func (b *Backend) DeleteAbandonedCart(ctx context.Context, id string) (bool, error) {
	return deleteRecord(ctx, b, collAbandonedCarts, id)
}

func templateKey(t domain.EmailTemplate) (time.Time, string) { return t.CreatedAt, t.ID }

func (b *Backend) GetEmailTemplates(ctx context.Context, ownerID string) ([]domain.EmailTemplate, error) {
	records, err := findRecords[emailTemplateRecord](ctx, b, collEmailTemplates, docstore.Eq("userId", ownerID))
	if err != nil {
		return nil, err
	}
	templates := mapRecords(records, emailTemplateRecord.toDomain)
	sortNewestFirst(templates, templateKey)
	return templates, nil
}

func (b *Backend) GetEmailTemplate(ctx context.Context, id string) (*domain.EmailTemplate, error) {
	rec, err := getRecord[emailTemplateRecord](ctx, b, collEmailTemplates, id)
	if err != nil || rec == nil {
		return nil, err
	}
	t := rec.toDomain()
	return &t, nil
}

// GetEmailTemplateByType возвращает самый новый активный шаблон типа.
func (b *Backend) GetEmailTemplateByType(ctx context.Context, ownerID, templateType string) (*domain.EmailTemplate, error) {
	records, err := findRecords[emailTemplateRecord](ctx, b, collEmailTemplates,
		docstore.Eq("userId", ownerID),
		docstore.Eq("type", templateType),
		docstore.Eq("isActive", true),
	)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	templates := mapRecords(records, emailTemplateRecord.toDomain)
	sortNewestFirst(templates, templateKey)
	return &templates[0], nil
}

func (b *Backend) CreateEmailTemplate(ctx context.Context, in domain.NewEmailTemplate) (*domain.EmailTemplate, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := b.requireRef(ctx, collUsers, in.UserID, "user"); err != nil {
		return nil, err
	}

	t := domain.EmailTemplate{
		ID:        b.newID(),
		UserID:    in.UserID,
		Type:      in.Type,
		Subject:   in.Subject,
		Body:      in.Body,
		IsActive:  true,
		CreatedAt: b.now(),
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if err := putRecord(ctx, b, collEmailTemplates, t.ID, newEmailTemplateRecord(t)); err != nil {
		return nil, err
	}
	return &t, nil
}

func (b *Backend) UpdateEmailTemplate(ctx context.Context, id string, patch domain.EmailTemplatePatch) (*domain.EmailTemplate, error) {
	current, err := b.GetEmailTemplate(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}

	patch.Apply(current)
	if err := putRecord(ctx, b, collEmailTemplates, id, newEmailTemplateRecord(*current)); err != nil {
		return nil, err
	}
	return b.GetEmailTemplate(ctx, id)
}

func (b *Backend) DeleteEmailTemplate(ctx context.Context, id string) (bool, error) {
	return deleteRecord(ctx, b, collEmailTemplates, id)
}

func pixelKey(e domain.PixelEvent) (time.Time, string) { return e.CreatedAt, e.ID }

func (b *Backend) GetPixelEvents(ctx context.Context, ownerID string) ([]domain.PixelEvent, error) {
	records, err := findRecords[pixelEventRecord](ctx, b, collPixelEvents, docstore.Eq("userId", ownerID))
	if err != nil {
		return nil, err
	}
	events := mapRecords(records, pixelEventRecord.toDomain)
	sortNewestFirst(events, pixelKey)
	return events, nil
}

func (b *Backend) getPixelEvent(ctx context.Context, id string) (*domain.PixelEvent, error) {
	rec, err := getRecord[pixelEventRecord](ctx, b, collPixelEvents, id)
	if err != nil || rec == nil {
		return nil, err
	}
	e := rec.toDomain()
	return &e, nil
}

// CreatePixelEvent регистрирует событие. EventID уникален в рамках владельца.
func (b *Backend) CreatePixelEvent(ctx context.Context, in domain.NewPixelEvent) (*domain.PixelEvent, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := b.requireRef(ctx, collUsers, in.UserID, "user"); err != nil {
		return nil, err
	}
	if err := b.ensureUnique(ctx, collPixelEvents, "", "pixel event id",
		docstore.Eq("userId", in.UserID),
		docstore.Eq("eventId", in.EventID),
	); err != nil {
		return nil, err
	}

	now := b.now()
	e := domain.PixelEvent{
		ID:           b.newID(),
		UserID:       in.UserID,
		EventName:    in.EventName,
		EventID:      in.EventID,
		EventTime:    now,
		UserData:     in.UserData,
		CustomData:   in.CustomData,
		ActionSource: domain.DefaultActionSource,
		CreatedAt:    now,
	}
	if in.EventTime != nil {
		e.EventTime = in.EventTime.UTC().Truncate(time.Microsecond)
	}
	if in.ActionSource != nil {
		e.ActionSource = *in.ActionSource
	}
	if e.UserData == nil {
		e.UserData = map[string]any{}
	}
	if e.CustomData == nil {
		e.CustomData = map[string]any{}
	}

	if err := putRecord(ctx, b, collPixelEvents, e.ID, newPixelEventRecord(e)); err != nil {
		return nil, err
	}
	return &e, nil
}

func (b *Backend) UpdatePixelEvent(ctx context.Context, id string, patch domain.PixelEventPatch) (*domain.PixelEvent, error) {
	current, err := b.getPixelEvent(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}

	patch.Apply(current)
	if err := putRecord(ctx, b, collPixelEvents, id, newPixelEventRecord(*current)); err != nil {
		return nil, err
	}
	return b.getPixelEvent(ctx, id)
}

// ListUnsentPixelEvents возвращает неотправленные и не помеченные failed события всех
// владельцев, старые первыми. limit <= 0 снимает ограничение.
func (b *Backend) ListUnsentPixelEvents(ctx context.Context, limit int) ([]domain.PixelEvent, error) {
	records, err := findRecords[pixelEventRecord](ctx, b, collPixelEvents, docstore.Eq("sent", false), docstore.Eq("failed", false))
	if err != nil {
		return nil, err
	}
	events := mapRecords(records, pixelEventRecord.toDomain)
	sortOldestFirst(events, pixelKey)
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
