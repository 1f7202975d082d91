package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

const (
	orderColumns = `id, user_id, customer_id, checkout_page_id, coupon_id, status, subtotal, discount, total,
	payment_method, transaction_id, invoice_id, event_id, ip_address, user_agent, created_at`

	orderItemColumns = `id, order_id, product_id, item_type, price, download_count, download_token,
	token_expires_at, created_at`
)

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o                                       domain.Order
		checkoutPageID, couponID                sql.Null[string]
		status                                  string
		paymentMethod, transactionID, invoiceID sql.Null[string]
		eventID, ipAddress, userAgent           sql.Null[string]
		createdAt                               time.Time
	)
	if err := row.Scan(
		&o.ID, &o.UserID, &o.CustomerID, &checkoutPageID, &couponID, &status, &o.Subtotal, &o.Discount, &o.Total,
		&paymentMethod, &transactionID, &invoiceID, &eventID, &ipAddress, &userAgent, &createdAt,
	); err != nil {
		return domain.Order{}, err
	}
	o.CheckoutPageID = optional(checkoutPageID)
	o.CouponID = optional(couponID)
	o.Status = domain.OrderStatus(status)
	o.PaymentMethod = optional(paymentMethod)
	o.TransactionID = optional(transactionID)
	o.InvoiceID = optional(invoiceID)
	o.EventID = optional(eventID)
	o.IPAddress = optional(ipAddress)
	o.UserAgent = optional(userAgent)
	o.CreatedAt = createdAt.UTC()
	return o, nil
}

func scanOrderItem(row rowScanner) (domain.OrderItem, error) {
	var (
		i              domain.OrderItem
		itemType       string
		downloadToken  sql.Null[string]
		tokenExpiresAt sql.Null[time.Time]
		createdAt      time.Time
	)
	if err := row.Scan(
		&i.ID, &i.OrderID, &i.ProductID, &itemType, &i.Price, &i.DownloadCount, &downloadToken,
		&tokenExpiresAt, &createdAt,
	); err != nil {
		return domain.OrderItem{}, err
	}
	i.Type = domain.ItemType(itemType)
	i.DownloadToken = optional(downloadToken)
	i.TokenExpiresAt = optionalTime(tokenExpiresAt)
	i.CreatedAt = createdAt.UTC()
	return i, nil
}

// GetOrders возвращает заказы владельца с покупателем и позициями, новые первыми.
// Покупатели и позиции подгружаются двумя запросами на весь список; товары позиций
// в списке не подгружаются.
func (s *Store) GetOrders(ctx context.Context, ownerID string) (_ []domain.OrderWithDetails, err error) {
	defer s.track("get_orders")(&err)

	orders, err := queryList(ctx, s.db, scanOrder, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}

	orderIDs := make([]string, 0, len(orders))
	customerIDs := make([]string, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		customerIDs = append(customerIDs, o.CustomerID)
	}

	customers, err := s.customersByID(ctx, customerIDs)
	if err != nil {
		return nil, err
	}
	itemsByOrder := make(map[string][]domain.OrderItemWithProduct, len(orders))
	if len(orderIDs) > 0 {
		items, err := queryList(ctx, s.db, scanOrderItem, `
			SELECT `+orderItemColumns+`
			FROM order_items
			WHERE order_id = ANY($1)
			ORDER BY created_at ASC, id ASC`, orderIDs)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], domain.OrderItemWithProduct{OrderItem: item})
		}
	}

	result := make([]domain.OrderWithDetails, 0, len(orders))
	for _, o := range orders {
		items := itemsByOrder[o.ID]
		if items == nil {
			items = []domain.OrderItemWithProduct{}
		}
		result = append(result, domain.OrderWithDetails{Order: o, Customer: customers[o.CustomerID], Items: items})
	}
	return result, nil
}

func (s *Store) getOrder(ctx context.Context, id string) (*domain.Order, error) {
	return queryOne(ctx, s.db, scanOrder, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetOrder возвращает заказ с покупателем и позициями, к каждой позиции подгружен товар.
func (s *Store) GetOrder(ctx context.Context, id string) (_ *domain.OrderWithDetails, err error) {
	defer s.track("get_order")(&err)

	order, err := s.getOrder(ctx, id)
	if err != nil || order == nil {
		return nil, err
	}
	customer, err := queryOne(ctx, s.db, scanCustomer,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, order.CustomerID)
	if err != nil {
		return nil, err
	}
	items, err := s.orderItemsWithProducts(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &domain.OrderWithDetails{Order: *order, Customer: customer, Items: items}, nil
}

// GetOrderByTransactionID ищет заказ по идентификатору платёжной транзакции.
func (s *Store) GetOrderByTransactionID(ctx context.Context, transactionID string) (_ *domain.Order, err error) {
	defer s.track("get_order_by_transaction_id")(&err)
	if transactionID == "" {
		return nil, nil
	}
	return queryOne(ctx, s.db, scanOrder, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE transaction_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, transactionID)
}

// CreateOrder создаёт заказ. Статус по умолчанию pending, скидка — 0.
func (s *Store) CreateOrder(ctx context.Context, in domain.NewOrder) (_ *domain.Order, err error) {
	defer s.track("create_order")(&err)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return writeOne(ctx, s.db, "order", scanOrder, `
		INSERT INTO orders (
			user_id, customer_id, checkout_page_id, coupon_id, status, subtotal, discount, total,
			payment_method, transaction_id, invoice_id, event_id, ip_address, user_agent
		)
		VALUES ($1, $2, $3, $4, COALESCE($5, 'pending'), $6, COALESCE($7::numeric, 0), $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+orderColumns,
		in.UserID, in.CustomerID, arg(in.CheckoutPageID), arg(in.CouponID), arg((*string)(in.Status)),
		money(in.Subtotal), moneyArg(in.Discount), money(in.Total),
		arg(in.PaymentMethod), arg(in.TransactionID), arg(in.InvoiceID), arg(in.EventID),
		arg(in.IPAddress), arg(in.UserAgent),
	)
}

func (s *Store) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (_ *domain.Order, err error) {
	defer s.track("update_order")(&err)
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return writeOne(ctx, s.db, "order", scanOrder, `
		UPDATE orders SET
			status = COALESCE($2, status),
			subtotal = COALESCE($3::numeric, subtotal),
			discount = COALESCE($4::numeric, discount),
			total = COALESCE($5::numeric, total),
			payment_method = COALESCE($6, payment_method),
			transaction_id = COALESCE($7, transaction_id),
			invoice_id = COALESCE($8, invoice_id),
			event_id = COALESCE($9, event_id)
		WHERE id = $1
		RETURNING `+orderColumns,
		id, arg((*string)(patch.Status)), moneyArg(patch.Subtotal), moneyArg(patch.Discount), moneyArg(patch.Total),
		arg(patch.PaymentMethod), arg(patch.TransactionID), arg(patch.InvoiceID), arg(patch.EventID),
	)
}

// DeleteOrder удаляет заказ; позиции удаляются каскадно.
func (s *Store) DeleteOrder(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "delete_order", "orders", id)
}

func (s *Store) orderItemsWithProducts(ctx context.Context, orderID string) ([]domain.OrderItemWithProduct, error) {
	items, err := queryList(ctx, s.db, scanOrderItem, `
		SELECT `+orderItemColumns+`
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC`, orderID)
	if err != nil {
		return nil, err
	}

	productIDs := make([]string, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.productsByID(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	result := make([]domain.OrderItemWithProduct, 0, len(items))
	for _, item := range items {
		result = append(result, domain.OrderItemWithProduct{OrderItem: item, Product: products[item.ProductID]})
	}
	return result, nil
}

// GetOrderItems возвращает позиции заказа (старые первыми) с товарами.
func (s *Store) GetOrderItems(ctx context.Context, orderID string) (_ []domain.OrderItemWithProduct, err error) {
	defer s.track("get_order_items")(&err)
	return s.orderItemsWithProducts(ctx, orderID)
}

// GetOrderItemByDownloadToken ищет позицию по токену скачивания.
func (s *Store) GetOrderItemByDownloadToken(ctx context.Context, token string) (_ *domain.OrderItem, err error) {
	defer s.track("get_order_item_by_download_token")(&err)
	if token == "" {
		return nil, nil
	}
	return queryOne(ctx, s.db, scanOrderItem, `
		SELECT `+orderItemColumns+`
		FROM order_items
		WHERE download_token = $1
		ORDER BY created_at ASC, id ASC
		LIMIT 1`, token)
}

// CreateOrderItem добавляет позицию. Price фиксируется как снимок и дальше не меняется.
func (s *Store) CreateOrderItem(ctx context.Context, in domain.NewOrderItem) (_ *domain.OrderItem, err error) {
	defer s.track("create_order_item")(&err)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return writeOne(ctx, s.db, "order item", scanOrderItem, `
		INSERT INTO order_items (order_id, product_id, item_type, price, download_token, token_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+orderItemColumns,
		in.OrderID, in.ProductID, string(in.Type), money(in.Price), arg(in.DownloadToken), timeArg(in.TokenExpiresAt),
	)
}

func (s *Store) UpdateOrderItem(ctx context.Context, id string, patch domain.OrderItemPatch) (_ *domain.OrderItem, err error) {
	defer s.track("update_order_item")(&err)
	return writeOne(ctx, s.db, "order item", scanOrderItem, `
		UPDATE order_items SET
			download_count = COALESCE($2, download_count),
			download_token = COALESCE($3, download_token),
			token_expires_at = COALESCE($4, token_expires_at)
		WHERE id = $1
		RETURNING `+orderItemColumns,
		id, arg(patch.DownloadCount), arg(patch.DownloadToken), timeArg(patch.TokenExpiresAt),
	)
}
