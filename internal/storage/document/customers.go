package document

import (
	"context"
	"time"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/docstore"
)

// GetCustomers возвращает покупателей владельца, новые первыми.
func (b *Backend) GetCustomers(ctx context.Context, ownerID string) ([]domain.Customer, error) {
	records, err := findRecords[customerRecord](ctx, b, collCustomers, docstore.Eq("userId", ownerID))
	if err != nil {
		return nil, err
	}
	customers := mapRecords(records, customerRecord.toDomain)
	sortNewestFirst(customers, func(c domain.Customer) (time.Time, string) { return c.CreatedAt, c.ID })
	return customers, nil
}

// GetCustomer возвращает покупателя по ID.
func (b *Backend) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	rec, err := getRecord[customerRecord](ctx, b, collCustomers, id)
	if err != nil || rec == nil {
		return nil, err
	}
	c := rec.toDomain()
	return &c, nil
}

// GetCustomerByEmail ищет покупателя по email в рамках владельца.
func (b *Backend) GetCustomerByEmail(ctx context.Context, email, ownerID string) (*domain.Customer, error) {
	records, err := findRecords[customerRecord](ctx, b, collCustomers,
		docstore.Eq("userId", ownerID),
		docstore.Eq("email", email),
	)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	c := records[0].toDomain()
	return &c, nil
}

func (b *Backend) CreateCustomer(ctx context.Context, in domain.NewCustomer) (*domain.Customer, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := b.requireRef(ctx, collUsers, in.UserID, "user"); err != nil {
		return nil, err
	}
	if err := b.ensureUnique(ctx, collCustomers, "", "customer email",
		docstore.Eq("userId", in.UserID),
		docstore.Eq("email", in.Email),
	); err != nil {
		return nil, err
	}

	c := domain.Customer{
		ID:        b.newID(),
		UserID:    in.UserID,
		Email:     in.Email,
		Name:      in.Name,
		Phone:     in.Phone,
		CreatedAt: b.now(),
	}
	if err := putRecord(ctx, b, collCustomers, c.ID, newCustomerRecord(c)); err != nil {
		return nil, err
	}
	return &c, nil
}

func (b *Backend) UpdateCustomer(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error) {
	current, err := b.GetCustomer(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}
	if patch.Email != nil && *patch.Email != current.Email {
		if err := b.ensureUnique(ctx, collCustomers, id, "customer email",
			docstore.Eq("userId", current.UserID),
			docstore.Eq("email", *patch.Email),
		); err != nil {
			return nil, err
		}
	}

	patch.Apply(current)
	if err := putRecord(ctx, b, collCustomers, id, newCustomerRecord(*current)); err != nil {
		return nil, err
	}
	return b.GetCustomer(ctx, id)
}

// DeleteCustomer удаляет покупателя, если у него нет заказов.
func (b *Backend) DeleteCustomer(ctx context.Context, id string) (bool, error) {
	current, err := b.GetCustomer(ctx, id)
	if err != nil || current == nil {
		return false, err
	}
	if err := b.restrictDelete(ctx, collOrders, "customerId", id, "customer"); err != nil {
		return false, err
	}
	return deleteRecord(ctx, b, collCustomers, id)
}
