package document

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
	"github.com/momentouslyfe-web/DigitalCart/internal/storage/docstore"
)

func itemKey(i domain.OrderItem) (time.Time, string) { return i.CreatedAt, i.ID }

// GetOrders возвращает заказы владельца с покупателем и позициями, новые первыми.
// Товары позиций в списке не подгружаются.
func (b *Backend) GetOrders(ctx context.Context, ownerID string) ([]domain.OrderWithDetails, error) {
	records, err := findRecords[orderRecord](ctx, b, collOrders, docstore.Eq("userId", ownerID))
	if err != nil {
		return nil, err
	}
	orders := mapRecords(records, orderRecord.toDomain)
	sortNewestFirst(orders, func(o domain.Order) (time.Time, string) { return o.CreatedAt, o.ID })

	result := make([]domain.OrderWithDetails, len(orders))
	g, gctx := errgroup.WithContext(ctx)
	for i := range orders {
		result[i].Order = orders[i]
		g.Go(func() error {
			customer, err := b.GetCustomer(gctx, orders[i].CustomerID)
			if err != nil {
				return err
			}
			result[i].Customer = customer
			return nil
		})
		g.Go(func() error {
			items, err := b.listOrderItems(gctx, orders[i].ID)
			if err != nil {
				return err
			}
			result[i].Items = wrapItems(items)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (b *Backend) getOrder(ctx context.Context, id string) (*domain.Order, error) {
	rec, err := getRecord[orderRecord](ctx, b, collOrders, id)
	if err != nil || rec == nil {
		return nil, err
	}
	o := rec.toDomain()
	return &o, nil
}

// GetOrder возвращает заказ с покупателем и позициями, к каждой позиции подгружен товар.
func (b *Backend) GetOrder(ctx context.Context, id string) (*domain.OrderWithDetails, error) {
	order, err := b.getOrder(ctx, id)
	if err != nil || order == nil {
		return nil, err
	}

	result := domain.OrderWithDetails{Order: *order}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		customer, err := b.GetCustomer(gctx, order.CustomerID)
		if err != nil {
			return err
		}
		result.Customer = customer
		return nil
	})
	g.Go(func() error {
		items, err := b.GetOrderItems(gctx, order.ID)
		if err != nil {
			return err
		}
		result.Items = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetOrderByTransactionID ищет заказ по идентификатору платёжной транзакции.
func (b *Backend) GetOrderByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error) {
	if transactionID == "" {
		return nil, nil
	}
	records, err := findRecords[orderRecord](ctx, b, collOrders, docstore.Eq("transactionId", transactionID))
	if err != nil || len(records) == 0 {
		return nil, err
	}
	orders := mapRecords(records, orderRecord.toDomain)
	sortNewestFirst(orders, func(o domain.Order) (time.Time, string) { return o.CreatedAt, o.ID })
	return &orders[0], nil
}

// CreateOrder создаёт заказ. Статус по умолчанию pending, скидка — 0.
func (b *Backend) CreateOrder(ctx context.Context, in domain.NewOrder) (*domain.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := b.requireRef(ctx, collUsers, in.UserID, "user"); err != nil {
		return nil, err
	}
	if err := b.requireRef(ctx, collCustomers, in.CustomerID, "customer"); err != nil {
		return nil, err
	}
	if err := b.requireOptionalRef(ctx, collCheckoutPages, in.CheckoutPageID, "checkout page"); err != nil {
		return nil, err
	}
	if err := b.requireOptionalRef(ctx, collCoupons, in.CouponID, "coupon"); err != nil {
		return nil, err
	}

	o := domain.Order{
		ID:             b.newID(),
		UserID:         in.UserID,
		CustomerID:     in.CustomerID,
		CheckoutPageID: in.CheckoutPageID,
		CouponID:       in.CouponID,
		Status:         domain.OrderStatusPending,
		Subtotal:       domain.RoundMoney(in.Subtotal),
		Discount:       decimal.Zero,
		Total:          domain.RoundMoney(in.Total),
		PaymentMethod:  in.PaymentMethod,
		TransactionID:  in.TransactionID,
		InvoiceID:      in.InvoiceID,
		EventID:        in.EventID,
		IPAddress:      in.IPAddress,
		UserAgent:      in.UserAgent,
		CreatedAt:      b.now(),
	}
	if in.Status != nil {
		o.Status = *in.Status
	}
	if in.Discount != nil {
		o.Discount = domain.RoundMoney(*in.Discount)
	}

	if err := putRecord(ctx, b, collOrders, o.ID, newOrderRecord(o)); err != nil {
		return nil, err
	}
	return &o, nil
}

func (b *Backend) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	current, err := b.getOrder(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}

	patch.Apply(current)
	if err := putRecord(ctx, b, collOrders, id, newOrderRecord(*current)); err != nil {
		return nil, err
	}
	return b.getOrder(ctx, id)
}

// DeleteOrder удаляет заказ вместе с позициями.
func (b *Backend) DeleteOrder(ctx context.Context, id string) (bool, error) {
	current, err := b.getOrder(ctx, id)
	if err != nil || current == nil {
		return false, err
	}
	if err := b.cascadeDelete(ctx, collOrderItems, "orderId", id); err != nil {
		return false, err
	}
	return deleteRecord(ctx, b, collOrders, id)
}

func (b *Backend) listOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	records, err := findRecords[orderItemRecord](ctx, b, collOrderItems, docstore.Eq("orderId", orderID))
	if err != nil {
		return nil, err
	}
	items := mapRecords(records, orderItemRecord.toDomain)
	sortOldestFirst(items, itemKey)
	return items, nil
}

func wrapItems(items []domain.OrderItem) []domain.OrderItemWithProduct {
	result := make([]domain.OrderItemWithProduct, 0, len(items))
	for _, item := range items {
		result = append(result, domain.OrderItemWithProduct{OrderItem: item})
	}
	return result
}

// GetOrderItems возвращает позиции заказа (старые первыми) с товарами.
func (b *Backend) GetOrderItems(ctx context.Context, orderID string) ([]domain.OrderItemWithProduct, error) {
	items, err := b.listOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result := wrapItems(items)
	g, gctx := errgroup.WithContext(ctx)
	for i := range result {
		g.Go(func() error {
			product, err := b.GetProduct(gctx, result[i].ProductID)
			if err != nil {
				return err
			}
			result[i].Product = product
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (b *Backend) getOrderItem(ctx context.Context, id string) (*domain.OrderItem, error) {
	rec, err := getRecord[orderItemRecord](ctx, b, collOrderItems, id)
	if err != nil || rec == nil {
		return nil, err
	}
	item := rec.toDomain()
	return &item, nil
}

// GetOrderItemByDownloadToken ищет позицию по токену скачивания.
func (b *Backend) GetOrderItemByDownloadToken(ctx context.Context, token string) (*domain.OrderItem, error) {
	if token == "" {
		return nil, nil
	}
	records, err := findRecords[orderItemRecord](ctx, b, collOrderItems, docstore.Eq("downloadToken", token))
	if err != nil || len(records) == 0 {
		return nil, err
	}
	item := records[0].toDomain()
	return &item, nil
}

// CreateOrderItem добавляет позицию. Price фиксируется как снимок и дальше не меняется.
func (b *Backend) CreateOrderItem(ctx context.Context, in domain.NewOrderItem) (*domain.OrderItem, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := b.requireRef(ctx, collOrders, in.OrderID, "order"); err != nil {
		return nil, err
	}
	if err := b.requireRef(ctx, collProducts, in.ProductID, "product"); err != nil {
		return nil, err
	}

	item := domain.OrderItem{
		ID:            b.newID(),
		OrderID:       in.OrderID,
		ProductID:     in.ProductID,
		Type:          in.Type,
		Price:         domain.RoundMoney(in.Price),
		DownloadToken: in.DownloadToken,
		CreatedAt:     b.now(),
	}
	if in.TokenExpiresAt != nil {
		v := in.TokenExpiresAt.UTC().Truncate(time.Microsecond)
		item.TokenExpiresAt = &v
	}

	if err := putRecord(ctx, b, collOrderItems, item.ID, newOrderItemRecord(item)); err != nil {
		return nil, err
	}
	return &item, nil
}

func (b *Backend) UpdateOrderItem(ctx context.Context, id string, patch domain.OrderItemPatch) (*domain.OrderItem, error) {
	current, err := b.getOrderItem(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}

	patch.Apply(current)
	if current.TokenExpiresAt != nil {
		v := current.TokenExpiresAt.Truncate(time.Microsecond)
		current.TokenExpiresAt = &v
	}
	if err := putRecord(ctx, b, collOrderItems, id, newOrderItemRecord(*current)); err != nil {
		return nil, err
	}
	return b.getOrderItem(ctx, id)
}
