package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

const (
	cartColumns     = `id, user_id, checkout_page_id, email, cart_data, recovery_email_sent, recovered_at, created_at`
	templateColumns = `id, user_id, template_type, subject, body, is_active, created_at`
	pixelColumns    = `id, user_id, event_name, event_id, event_time, user_data, custom_data, action_source,
	sent, failed, created_at`
)

func scanAbandonedCart(row rowScanner) (domain.AbandonedCart, error) {
	var (
		c           domain.AbandonedCart
		cartData    []byte
		recoveredAt sql.Null[time.Time]
		createdAt   time.Time
	)
	if err := row.Scan(
		&c.ID, &c.UserID, &c.CheckoutPageID, &c.Email, &cartData, &c.RecoveryEmailSent, &recoveredAt, &createdAt,
	); err != nil {
		return domain.AbandonedCart{}, err
	}
	data, err := decodeObject(cartData)
	if err != nil {
		return domain.AbandonedCart{}, err
	}
	c.CartData = data
	c.RecoveredAt = optionalTime(recoveredAt)
	c.CreatedAt = createdAt.UTC()
	return c, nil
}

func (s *Store) GetAbandonedCarts(ctx context.Context, ownerID string) (_ []domain.AbandonedCart, err error) {
	defer s.track("get_abandoned_carts")(&err)
	return queryList(ctx, s.db, scanAbandonedCart, `
		SELECT `+cartColumns+`
		FROM abandoned_carts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, ownerID)
}

func (s *Store) GetAbandonedCart(ctx context.Context, id string) (_ *domain.AbandonedCart, err error) {
	defer s.track("get_abandoned_cart")(&err)
	return queryOne(ctx, s.db, scanAbandonedCart, `SELECT `+cartColumns+` FROM abandoned_carts WHERE id = $1`, id)
}

func (s *Store) CreateAbandonedCart(ctx context.Context, in domain.NewAbandonedCart) (_ *domain.AbandonedCart, err error) {
	defer s.track("create_abandoned_cart")(&err)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	cartData, err := jsonArg(objectOrEmpty(in.CartData))
	if err != nil {
		return nil, err
	}
	return writeOne(ctx, s.db, "abandoned cart", scanAbandonedCart, `
		INSERT INTO abandoned_carts (user_id, checkout_page_id, email, cart_data)
		VALUES ($1, $2, $3, $4::jsonb)
		RETURNING `+cartColumns,
		in.UserID, in.CheckoutPageID, in.Email, cartData,
	)
}

func (s *Store) UpdateAbandonedCart(ctx context.Context, id string, patch domain.AbandonedCartPatch) (_ *domain.AbandonedCart, err error) {
	defer s.track("update_abandoned_cart")(&err)

	var cartData any
	if patch.CartData != nil {
		if cartData, err = jsonArg(objectOrEmpty(*patch.CartData)); err != nil {
			return nil, err
		}
	}
	return writeOne(ctx, s.db, "abandoned cart", scanAbandonedCart, `
		UPDATE abandoned_carts SET
			cart_data = COALESCE($2::jsonb, cart_data),
			recovery_email_sent = COALESCE($3, recovery_email_sent),
			recovered_at = COALESCE($4, recovered_at)
		WHERE id = $1
		RETURNING `+cartColumns,
		id, cartData, arg(patch.RecoveryEmailSent), timeArg(patch.RecoveredAt),
	)
}

func (s *Store) DeleteAbandonedCart(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "delete_abandoned_cart", "abandoned_carts", id)
}

func scanEmailTemplate(row rowScanner) (domain.EmailTemplate, error) {
	var (
		t         domain.EmailTemplate
		createdAt time.Time
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Subject, &t.Body, &t.IsActive, &createdAt); err != nil {
		return domain.EmailTemplate{}, err
	}
	t.CreatedAt = createdAt.UTC()
	return t, nil
}

func (s *Store) GetEmailTemplates(ctx context.Context, ownerID string) (_ []domain.EmailTemplate, err error) {
	defer s.track("get_email_templates")(&err)
	return queryList(ctx, s.db, scanEmailTemplate, `
		SELECT `+templateColumns+`
		FROM email_templates
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, ownerID)
}

func (s *Store) GetEmailTemplate(ctx context.Context, id string) (_ *domain.EmailTemplate, err error) {
	defer s.track("get_email_template")(&err)
	return queryOne(ctx, s.db, scanEmailTemplate, `SELECT `+templateColumns+` FROM email_templates WHERE id = $1`, id)
}

// GetEmailTemplateByType возвращает самый новый активный шаблон типа.
func (s *Store) GetEmailTemplateByType(ctx context.Context, ownerID, templateType string) (_ *domain.EmailTemplate, err error) {
	defer s.track("get_email_template_by_type")(&err)
	return queryOne(ctx, s.db, scanEmailTemplate, `
		SELECT `+templateColumns+`
		FROM email_templates
		WHERE user_id = $1 AND template_type = $2 AND is_active
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, ownerID, templateType)
}

func (s *Store) CreateEmailTemplate(ctx context.Context, in domain.NewEmailTemplate) (_ *domain.EmailTemplate, err error) {
	defer s.track("create_email_template")(&err)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return writeOne(ctx, s.db, "email template", scanEmailTemplate, `
		INSERT INTO email_templates (user_id, template_type, subject, body, is_active)
		VALUES ($1, $2, $3, $4, COALESCE($5, TRUE))
		RETURNING `+templateColumns,
		in.UserID, in.Type, in.Subject, in.Body, arg(in.IsActive),
	)
}

func (s *Store) UpdateEmailTemplate(ctx context.Context, id string, patch domain.EmailTemplatePatch) (_ *domain.EmailTemplate, err error) {
	defer s.track("update_email_template")(&err)
	return writeOne(ctx, s.db, "email template", scanEmailTemplate, `
		UPDATE email_templates SET
			template_type = COALESCE($2, template_type),
			subject = COALESCE($3, subject),
			body = COALESCE($4, body),
			is_active = COALESCE($5, is_active)
		WHERE id = $1
		RETURNING `+templateColumns,
		id, arg(patch.Type), arg(patch.Subject), arg(patch.Body), arg(patch.IsActive),
	)
}

func (s *Store) DeleteEmailTemplate(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "delete_email_template", "email_templates", id)
}

func scanPixelEvent(row rowScanner) (domain.PixelEvent, error) {
	var (
		e                    domain.PixelEvent
		userData, customData []byte
		eventTime, createdAt time.Time
	)
	if err := row.Scan(
		&e.ID, &e.UserID, &e.EventName, &e.EventID, &eventTime, &userData, &customData, &e.ActionSource,
		&e.Sent, &e.Failed, &createdAt,
	); err != nil {
		return domain.PixelEvent{}, err
	}
	var err error
	if e.UserData, err = decodeObject(userData); err != nil {
		return domain.PixelEvent{}, err
	}
	if e.CustomData, err = decodeObject(customData); err != nil {
		return domain.PixelEvent{}, err
	}
	e.EventTime = eventTime.UTC()
	e.CreatedAt = createdAt.UTC()
	return e, nil
}

func (s *Store) GetPixelEvents(ctx context.Context, ownerID string) (_ []domain.PixelEvent, err error) {
	defer s.track("get_pixel_events")(&err)
	return queryList(ctx, s.db, scanPixelEvent, `
		SELECT `+pixelColumns+`
		FROM pixel_events
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, ownerID)
}

// CreatePixelEvent регистрирует событие. EventID уникален в рамках владельца.
func (s *Store) CreatePixelEvent(ctx context.Context, in domain.NewPixelEvent) (_ *domain.PixelEvent, err error) {
	defer s.track("create_pixel_event")(&err)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	userData, err := jsonArg(objectOrEmpty(in.UserData))
	if err != nil {
		return nil, err
	}
	customData, err := jsonArg(objectOrEmpty(in.CustomData))
	if err != nil {
		return nil, err
	}
	return writeOne(ctx, s.db, "pixel event", scanPixelEvent, `
		INSERT INTO pixel_events (user_id, event_name, event_id, event_time, user_data, custom_data, action_source)
		VALUES ($1, $2, $3, COALESCE($4, NOW()), $5::jsonb, $6::jsonb, COALESCE($7, 'website'))
		RETURNING `+pixelColumns,
		in.UserID, in.EventName, in.EventID, timeArg(in.EventTime), userData, customData, arg(in.ActionSource),
	)
}

func (s *Store) UpdatePixelEvent(ctx context.Context, id string, patch domain.PixelEventPatch) (_ *domain.PixelEvent, err error) {
	defer s.track("update_pixel_event")(&err)

	var customData any
	if patch.CustomData != nil {
		if customData, err = jsonArg(objectOrEmpty(*patch.CustomData)); err != nil {
			return nil, err
		}
	}
	return writeOne(ctx, s.db, "pixel event", scanPixelEvent, `
		UPDATE pixel_events SET
			sent = COALESCE($2, sent),
			failed = COALESCE($3, failed),
			custom_data = COALESCE($4::jsonb, custom_data)
		WHERE id = $1
		RETURNING `+pixelColumns,
		id, arg(patch.Sent), arg(patch.Failed), customData,
	)
}

// ListUnsentPixelEvents возвращает неотправленные и не помеченные failed события всех
// владельцев, старые первыми. limit <= 0 снимает ограничение.
func (s *Store) ListUnsentPixelEvents(ctx context.Context, limit int) (_ []domain.PixelEvent, err error) {
	defer s.track("list_unsent_pixel_events")(&err)

	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	return queryList(ctx, s.db, scanPixelEvent, `
		SELECT `+pixelColumns+`
		FROM pixel_events
		WHERE NOT sent AND NOT failed
		ORDER BY created_at ASC, id ASC
		LIMIT $1`, limitArg)
}
