package document

import (
	"context"
	"strings"
	"time"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/docstore"
)

// GetUser возвращает продавца по ID.
func (b *Backend) GetUser(ctx context.Context, id string) (*domain.User, error) {
	rec, err := getRecord[userRecord](ctx, b, collUsers, id)
	if err != nil || rec == nil {
		return nil, err
	}
	u := rec.toDomain()
	return &u, nil
}

// GetUserByEmail ищет продавца по email.
func (b *Backend) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	records, err := findRecords[userRecord](ctx, b, collUsers, docstore.Eq("email", email))
	if err != nil || len(records) == 0 {
		return nil, err
	}
	users := mapRecords(records, userRecord.toDomain)
	sortNewestFirst(users, func(u domain.User) (time.Time, string) { return u.CreatedAt, u.ID })
	return &users[0], nil
}

// CreateUser регистрирует продавца.
func (b *Backend) CreateUser(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(in.Email)
	if err := b.ensureUnique(ctx, collUsers, "", "user email", docstore.Eq("email", email)); err != nil {
		return nil, err
	}

	u := domain.User{
		ID:           b.newID(),
		Email:        email,
		PasswordHash: in.PasswordHash,
		BusinessName: in.BusinessName,
		BrandColor:   domain.DefaultBrandColor,
		CreatedAt:    b.now(),
	}
	if in.BrandColor != nil {
		u.BrandColor = *in.BrandColor
	}

	if err := putRecord(ctx, b, collUsers, u.ID, newUserRecord(u)); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser частично обновляет профиль продавца.
func (b *Backend) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	current, err := b.GetUser(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}
	if patch.Email != nil && *patch.Email != current.Email {
		if err := b.ensureUnique(ctx, collUsers, id, "user email", docstore.Eq("email", *patch.Email)); err != nil {
			return nil, err
		}
	}

	patch.Apply(current)
	if err := putRecord(ctx, b, collUsers, id, newUserRecord(*current)); err != nil {
		return nil, err
	}
	return b.GetUser(ctx, id)
}
