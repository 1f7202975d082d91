package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

const customerColumns = `id, user_id, email, name, phone, created_at`

func scanCustomer(row rowScanner) (domain.Customer, error) {
	var (
		c           domain.Customer
		name, phone sql.Null[string]
		createdAt   time.Time
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Email, &name, &phone, &createdAt); err != nil {
		return domain.Customer{}, err
	}
	c.Name = optional(name)
	c.Phone = optional(phone)
	c.CreatedAt = createdAt.UTC()
	return c, nil
}

// GetCustomers возвращает покупателей владельца, новые первыми.
func (s *Store) GetCustomers(ctx context.Context, ownerID string) (_ []domain.Customer, err error) {
	defer s.track("get_customers")(&err)
	return queryList(ctx, s.db, scanCustomer, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, ownerID)
}

// GetCustomer возвращает покупателя по ID.
func (s *Store) GetCustomer(ctx context.Context, id string) (_ *domain.Customer, err error) {
	defer s.track("get_customer")(&err)
	return queryOne(ctx, s.db, scanCustomer, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
}

// GetCustomerByEmail ищет покупателя по email в рамках владельца.
func (s *Store) GetCustomerByEmail(ctx context.Context, email, ownerID string) (_ *domain.Customer, err error) {
	defer s.track("get_customer_by_email")(&err)
	return queryOne(ctx, s.db, scanCustomer,
		`SELECT `+customerColumns+` FROM customers WHERE user_id = $1 AND email = $2`, ownerID, email)
}

func (s *Store) customersByID(ctx context.Context, ids []string) (map[string]*domain.Customer, error) {
	result := make(map[string]*domain.Customer, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	customers, err := queryList(ctx, s.db, scanCustomer,
		`SELECT `+customerColumns+` FROM customers WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for i := range customers {
		result[customers[i].ID] = &customers[i]
	}
	return result, nil
}

func (s *Store) CreateCustomer(ctx context.Context, in domain.NewCustomer) (_ *domain.Customer, err error) {
	defer s.track("create_customer")(&err)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return writeOne(ctx, s.db, "customer", scanCustomer, `
		INSERT INTO customers (user_id, email, name, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING `+customerColumns,
		in.UserID, in.Email, arg(in.Name), arg(in.Phone),
	)
}

func (s *Store) UpdateCustomer(ctx context.Context, id string, patch domain.CustomerPatch) (_ *domain.Customer, err error) {
	defer s.track("update_customer")(&err)
	return writeOne(ctx, s.db, "customer", scanCustomer, `
		UPDATE customers SET
			email = COALESCE($2, email),
			name = COALESCE($3, name),
			phone = COALESCE($4, phone)
		WHERE id = $1
		RETURNING `+customerColumns,
		id, arg(patch.Email), arg(patch.Name), arg(patch.Phone),
	)
}

// DeleteCustomer удаляет покупателя, если у него нет заказов.
func (s *Store) DeleteCustomer(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "delete_customer", "customers", id)
}
