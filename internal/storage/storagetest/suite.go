// Package storagetest содержит общий набор проверок контракта domain.Storage.
// Каждый backend прогоняет его в своих тестах, поэтому наблюдаемое поведение
// реляционного и документного хранилищ совпадает.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/momentouslyfe-web/DigitalCart/internal/domain"
)

// Harness описывает, как получить чистое хранилище для одного теста.
type Harness struct {
	// New возвращает пустое хранилище; закрытие регистрируется через t.Cleanup.
	New func(t *testing.T) domain.Storage
	// Pause разделяет создания, порядок которых проверяется. Для backend-ов с
	// подменяемыми часами может быть nil.
	Pause func()
}

func (h Harness) pause() {
	if h.Pause != nil {
		h.Pause()
	}
}

// Run прогоняет все проверки контракта.
func Run(t *testing.T, h Harness) {
	t.Helper()

	cases := []struct {
		name string
		run  func(t *testing.T, h Harness)
	}{
		{"FreshStoreReadsAreEmpty", testFreshStoreReadsAreEmpty},
		{"Users", testUsers},
		{"ProductDefaults", testProductDefaults},
		{"ProductsNewestFirst", testProductsNewestFirst},
		{"ProductPartialUpdate", testProductPartialUpdate},
		{"DeleteProduct", testDeleteProduct},
		{"MissingOwnerIsRejected", testMissingOwnerIsRejected},
		{"CheckoutPageBySlug", testCheckoutPageBySlug},
		{"CheckoutPageValidation", testCheckoutPageValidation},
		{"OffersOrderedByPosition", testOffersOrderedByPosition},
		{"CouponDefaultsAndScoping", testCouponDefaultsAndScoping},
		{"CouponUsageLimit", testCouponUsageLimit},
		{"CouponCodeNormalized", testCouponCodeNormalized},
		{"CouponPatchValidation", testCouponPatchValidation},
		{"Customers", testCustomers},
		{"OrdersComposite", testOrdersComposite},
		{"OrderItems", testOrderItems},
		{"ReferentialActions", testReferentialActions},
		{"AbandonedCarts", testAbandonedCarts},
		{"EmailTemplates", testEmailTemplates},
		{"PixelEvents", testPixelEvents},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.run(t, h)
		})
	}
}

func newContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createUser(t *testing.T, ctx context.Context, store domain.Storage) *domain.User {
	t.Helper()
	user, err := store.CreateUser(ctx, domain.NewUser{
		Email:        "seller-" + uuid.NewString() + "@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

func createProduct(t *testing.T, ctx context.Context, store domain.Storage, ownerID, name, price string) *domain.Product {
	t.Helper()
	product, err := store.CreateProduct(ctx, domain.NewProduct{
		UserID: ownerID,
		Name:   name,
		Price:  money(price),
	})
	require.NoError(t, err)
	require.NotNil(t, product)
	return product
}

func createPage(t *testing.T, ctx context.Context, store domain.Storage, ownerID, productID, slug string) *domain.CheckoutPage {
	t.Helper()
	page, err := store.CreateCheckoutPage(ctx, domain.NewCheckoutPage{
		UserID:    ownerID,
		ProductID: productID,
		Name:      "Launch",
		Slug:      slug,
	})
	require.NoError(t, err)
	require.NotNil(t, page)
	return page
}

func createCustomer(t *testing.T, ctx context.Context, store domain.Storage, ownerID, email string) *domain.Customer {
	t.Helper()
	customer, err := store.CreateCustomer(ctx, domain.NewCustomer{UserID: ownerID, Email: email})
	require.NoError(t, err)
	require.NotNil(t, customer)
	return customer
}

func createOrder(t *testing.T, ctx context.Context, store domain.Storage, in domain.NewOrder) *domain.Order {
	t.Helper()
	order, err := store.CreateOrder(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, order)
	return order
}

func testFreshStoreReadsAreEmpty(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	owner := uuid.NewString()

	products, err := store.GetProducts(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, products)
	require.Empty(t, products)

	product, err := store.GetProduct(ctx, "nonexistent-id")
	require.NoError(t, err)
	require.Nil(t, product)

	page, err := store.GetCheckoutPageBySlug(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, page)

	pages, err := store.GetCheckoutPages(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, pages)

	coupon, err := store.GetCouponByCode(ctx, "SAVE10", owner)
	require.NoError(t, err)
	require.Nil(t, coupon)

	orders, err := store.GetOrders(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, orders)
	require.Empty(t, orders)

	items, err := store.GetOrderItems(ctx, "nonexistent-id")
	require.NoError(t, err)
	require.Empty(t, items)

	events, err := store.ListUnsentPixelEvents(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, events)

	user, err := store.GetUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	require.Nil(t, user)

	updated, err := store.UpdateProduct(ctx, "nonexistent-id", domain.ProductPatch{Name: domain.Ptr("x")})
	require.NoError(t, err)
	require.Nil(t, updated)

	deleted, err := store.DeleteProduct(ctx, "nonexistent-id")
	require.NoError(t, err)
	require.False(t, deleted)

	deleted, err = store.DeleteEmailTemplate(ctx, "nonexistent-id")
	require.NoError(t, err)
	require.False(t, deleted)
}

func testUsers(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)

	email := "owner-" + uuid.NewString() + "@example.com"
	user, err := store.CreateUser(ctx, domain.NewUser{
		Email:        email,
		PasswordHash: "secret-hash",
		BusinessName: domain.Ptr("Pixel Goods"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, domain.DefaultBrandColor, user.BrandColor)
	require.False(t, user.DomainVerified)
	require.False(t, user.CreatedAt.IsZero())

	byEmail, err := store.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	require.Equal(t, user.ID, byEmail.ID)
	require.Equal(t, "secret-hash", byEmail.PasswordHash)

	_, err = store.CreateUser(ctx, domain.NewUser{Email: email, PasswordHash: "other"})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	updated, err := store.UpdateUser(ctx, user.ID, domain.UserPatch{
		BrandColor:       domain.Ptr("#000000"),
		PixelID:          domain.Ptr("px-1"),
		PixelAccessToken: domain.Ptr("token"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Equal(t, "#000000", updated.BrandColor)
	require.Equal(t, "px-1", *updated.PixelID)
	require.Equal(t, "token", *updated.PixelAccessToken)
	require.Equal(t, "Pixel Goods", *updated.BusinessName)
	require.Equal(t, email, updated.Email)

	missing, err := store.UpdateUser(ctx, "nonexistent-id", domain.UserPatch{BrandColor: domain.Ptr("#fff")})
	require.NoError(t, err)
	require.Nil(t, missing)
}

func testProductDefaults(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	user := createUser(t, ctx, store)

	product := createProduct(t, ctx, store, user.ID, "Ebook", "9.5")
	require.Equal(t, domain.DefaultDownloadLimit, product.DownloadLimit)
	require.True(t, product.IsActive)
	require.Equal(t, "9.5", product.Price.String())

	explicit, err := store.CreateProduct(ctx, domain.NewProduct{
		UserID:         user.ID,
		Name:           "Course",
		Price:          money("49"),
		CompareAtPrice: domain.Ptr(money("99.999")),
		DownloadLimit:  domain.Ptr(1),
		IsActive:       domain.Ptr(false),
	})
	require.NoError(t, err)
	require.Equal(t, 1, explicit.DownloadLimit)
	require.False(t, explicit.IsActive)

	stored, err := store.GetProduct(ctx, explicit.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, 1, stored.DownloadLimit)
	require.False(t, stored.IsActive)
	require.Equal(t, "100", stored.CompareAtPrice.String())
	require.Nil(t, stored.Description)
}

func testProductsNewestFirst(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	user := createUser(t, ctx, store)

	first := createProduct(t, ctx, store, user.ID, "first", "1")
	h.pause()
	second := createProduct(t, ctx, store, user.ID, "second", "2")
	h.pause()
	third := createProduct(t, ctx, store, user.ID, "third", "3")

	other := createUser(t, ctx, store)
	createProduct(t, ctx, store, other.ID, "foreign", "4")

	products, err := store.GetProducts(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, products, 3)
	require.Equal(t, []string{third.ID, second.ID, first.ID},
		[]string{products[0].ID, products[1].ID, products[2].ID})
}

func testProductPartialUpdate(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	user := createUser(t, ctx, store)
	product := createProduct(t, ctx, store, user.ID, "Ebook", "19.99")

	updated, err := store.UpdateProduct(ctx, product.ID, domain.ProductPatch{
		Name:     domain.Ptr("Ebook v2"),
		FileName: domain.Ptr("ebook.pdf"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Equal(t, "Ebook v2", updated.Name)
	require.Equal(t, "ebook.pdf", *updated.FileName)
	require.Equal(t, "19.99", updated.Price.String())
	require.Equal(t, domain.DefaultDownloadLimit, updated.DownloadLimit)
	require.True(t, updated.IsActive)
	require.True(t, updated.CreatedAt.Equal(product.CreatedAt))

	repriced, err := store.UpdateProduct(ctx, product.ID, domain.ProductPatch{Price: domain.Ptr(money("24.999"))})
	require.NoError(t, err)
	require.Equal(t, "25", repriced.Price.String())
	require.Equal(t, "Ebook v2", repriced.Name)
}

func testDeleteProduct(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	user := createUser(t, ctx, store)

	deleted, err := store.DeleteProduct(ctx, uuid.NewString())
	require.NoError(t, err)
	require.False(t, deleted)

	product := createProduct(t, ctx, store, user.ID, "Ebook", "5")
	deleted, err = store.DeleteProduct(ctx, product.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	gone, err := store.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Nil(t, gone)

	deleted, err = store.DeleteProduct(ctx, product.ID)
	require.NoError(t, err)
	require.False(t, deleted)
}

func testMissingOwnerIsRejected(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)

	_, err := store.CreateProduct(ctx, domain.NewProduct{UserID: uuid.NewString(), Name: "Orphan", Price: money("1")})
	require.ErrorIs(t, err, domain.ErrReferenceNotFound)

	_, err = store.CreateCoupon(ctx, domain.NewCoupon{
		UserID:        uuid.NewString(),
		Code:          "ORPHAN",
		DiscountType:  domain.DiscountFixed,
		DiscountValue: money("1"),
	})
	require.ErrorIs(t, err, domain.ErrReferenceNotFound)

	user := createUser(t, ctx, store)
	_, err = store.CreateCheckoutPage(ctx, domain.NewCheckoutPage{
		UserID:    user.ID,
		ProductID: uuid.NewString(),
		Slug:      "orphan-" + uuid.NewString(),
	})
	require.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

func testCheckoutPageBySlug(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	user := createUser(t, ctx, store)
	product := createProduct(t, ctx, store, user.ID, "Ebook", "19.99")

	page, err := store.CreateCheckoutPage(ctx, domain.NewCheckoutPage{
		UserID:    user.ID,
		ProductID: product.ID,
		Name:      "Launch",
		Slug:      "launch",
		Blocks: []domain.Block{
			{ID: "b1", Type: domain.BlockHeading, Content: map[string]any{"text": "Hello"}, Position: 0},
			{ID: "b2", Type: domain.BlockOrderForm, Content: map[string]any{}, Position: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, domain.DefaultTemplate, page.Template)
	require.False(t, page.IsPublished)
	require.NotNil(t, page.CustomStyles)

	found, err := store.GetCheckoutPageBySlug(ctx, "launch")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, page.ID, found.ID)
	require.NotNil(t, found.Product)
	require.Equal(t, product.ID, found.Product.ID)
	require.Equal(t, "19.99", found.Product.Price.String())
	require.Len(t, found.Blocks, 2)
	require.Equal(t, domain.BlockOrderForm, found.Blocks[1].Type)
	require.Equal(t, "Hello", found.Blocks[0].Content["text"])

	other := createUser(t, ctx, store)
	otherProduct := createProduct(t, ctx, store, other.ID, "Other", "1")
	_, err = store.CreateCheckoutPage(ctx, domain.NewCheckoutPage{
		UserID:    other.ID,
		ProductID: otherProduct.ID,
		Slug:      "launch",
	})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	pages, err := store.GetCheckoutPages(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Equal(t, product.ID, pages[0].Product.ID)

	byID, err := store.GetCheckoutPage(ctx, page.ID)
	require.NoError(t, err)
	require.Equal(t, "launch", byID.Slug)
	require.Equal(t, product.ID, byID.Product.ID)

	updated, err := store.UpdateCheckoutPage(ctx, page.ID, domain.CheckoutPagePatch{
		IsPublished: domain.Ptr(true),
		Blocks:      &[]domain.Block{{ID: "b3", Type: domain.BlockDivider, Content: map[string]any{}}},
	})
	require.NoError(t, err)
	require.True(t, updated.IsPublished)
	require.Len(t, updated.Blocks, 1)
	require.Equal(t, "launch", updated.Slug)
}

func testCheckoutPageValidation(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	user := createUser(t, ctx, store)
	product := createProduct(t, ctx, store, user.ID, "Ebook", "1")

	_, err := store.CreateCheckoutPage(ctx, domain.NewCheckoutPage{
		UserID:    user.ID,
		ProductID: product.ID,
		Slug:      "bad-blocks",
		Blocks:    []domain.Block{{ID: "b1", Type: "carousel"}},
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	page := createPage(t, ctx, store, user.ID, product.ID, "valid-"+uuid.NewString())
	_, err = store.UpdateCheckoutPage(ctx, page.ID, domain.CheckoutPagePatch{
		Blocks: &[]domain.Block{{ID: "b1", Type: "marquee"}},
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	taken := createPage(t, ctx, store, user.ID, product.ID, "taken-"+uuid.NewString())
	_, err = store.UpdateCheckoutPage(ctx, page.ID, domain.CheckoutPagePatch{Slug: domain.Ptr(taken.Slug)})
	require.ErrorIs(t, err, domain.ErrDuplicate)
}

func testOffersOrderedByPosition(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	user := createUser(t, ctx, store)
	product := createProduct(t, ctx, store, user.ID, "Main", "20")
	extra := createProduct(t, ctx, store, user.ID, "Extra", "10")
	page := createPage(t, ctx, store, user.ID, product.ID, "offers-"+uuid.NewString())

	second, err := store.CreateOrderBump(ctx, domain.NewOffer{
		CheckoutPageID: page.ID,
		ProductID:      extra.ID,
		Headline:       "Second",
		DiscountType:   domain.DiscountPercentage,
		DiscountValue:  money("50"),
		Position:       domain.Ptr(2),
	})
	require.NoError(t, err)
	require.True(t, second.IsActive)

	first, err := store.CreateOrderBump(ctx, domain.NewOffer{
		CheckoutPageID: page.ID,
		ProductID:      extra.ID,
		Headline:       "First",
		DiscountType:   domain.DiscountFixed,
		DiscountValue:  money("3"),
	})
	require.NoError(t, err)
	require.Equal(t, 0, first.Position)

	bumps, err := store.GetOrderBumps(ctx, page.ID)
	require.NoError(t, err)
	require.Len(t, bumps, 2)
	require.Equal(t, first.ID, bumps[0].ID)
	require.Equal(t, second.ID, bumps[1].ID)
	require.Equal(t, "5", bumps[1].OfferPrice(extra.Price).String())

	_, err = store.CreateUpsell(ctx, domain.NewOffer{
		CheckoutPageID: page.ID,
		ProductID:      extra.ID,
		Headline:       "Too generous",
		DiscountType:   domain.DiscountPercentage,
		DiscountValue:  money("150"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	upsell, err := store.CreateUpsell(ctx, domain.NewOffer{
		CheckoutPageID: page.ID,
		ProductID:      extra.ID,
		Headline:       "After purchase",
		DiscountType:   domain.DiscountFixed,
		DiscountValue:  money("2"),
		IsActive:       domain.Ptr(false),
	})
	require.NoError(t, err)

	updated, err := store.UpdateUpsell(ctx, upsell.ID, domain.OfferPatch{IsActive: domain.Ptr(true), Position: domain.Ptr(4)})
	require.NoError(t, err)
	require.True(t, updated.IsActive)
	require.Equal(t, 4, updated.Position)
	require.Equal(t, "After purchase", updated.Headline)

	upsells, err := store.GetUpsells(ctx, page.ID)
	require.NoError(t, err)
	require.Len(t, upsells, 1)

	deleted, err := store.DeleteOrderBump(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	gone, err := store.GetOrderBump(ctx, first.ID)
	require.NoError(t, err)
	require.Nil(t, gone)
}

func testCouponDefaultsAndScoping(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	ownerA := createUser(t, ctx, store)
	ownerB := createUser(t, ctx, store)

	couponA, err := store.CreateCoupon(ctx, domain.NewCoupon{
		UserID:        ownerA.ID,
		Code:          "SAVE10",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: money("10"),
	})
	require.NoError(t, err)
	require.Equal(t, 0, couponA.UsedCount)
	require.True(t, couponA.IsActive)
	require.Nil(t, couponA.UsageLimit)
	require.Nil(t, couponA.ExpiresAt)

	couponB, err := store.CreateCoupon(ctx, domain.NewCoupon{
		UserID:        ownerB.ID,
		Code:          "SAVE10",
		DiscountType:  domain.DiscountFixed,
		DiscountValue: money("10"),
	})
	require.NoError(t, err)

	found, err := store.GetCouponByCode(ctx, "SAVE10", ownerA.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, couponA.ID, found.ID)
	require.Equal(t, domain.DiscountPercentage, found.DiscountType)

	found, err = store.GetCouponByCode(ctx, "SAVE10", ownerB.ID)
	require.NoError(t, err)
	require.Equal(t, couponB.ID, found.ID)

	_, err = store.CreateCoupon(ctx, domain.NewCoupon{
		UserID:        ownerA.ID,
		Code:          "SAVE10",
		DiscountType:  domain.DiscountFixed,
		DiscountValue: money("1"),
	})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = store.CreateCoupon(ctx, domain.NewCoupon{
		UserID:        ownerA.ID,
		Code:          "BOGUS",
		DiscountType:  "bogus",
		DiscountValue: money("1"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	updated, err := store.UpdateCoupon(ctx, couponA.ID, domain.CouponPatch{ExpiresAt: &expires, UsedCount: domain.Ptr(3)})
	require.NoError(t, err)
	require.Equal(t, 3, updated.UsedCount)
	require.NotNil(t, updated.ExpiresAt)
	require.True(t, updated.ExpiresAt.Equal(expires))
	require.Equal(t, "SAVE10", updated.Code)

	coupons, err := store.GetCoupons(ctx, ownerA.ID)
	require.NoError(t, err)
	require.Len(t, coupons, 1)
}

func testCouponUsageLimit(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	user := createUser(t, ctx, store)

	created, err := store.CreateCoupon(ctx, domain.NewCoupon{
		UserID:        user.ID,
		Code:          "WELCOME",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: money("10"),
		UsageLimit:    domain.Ptr(1),
	})
	require.NoError(t, err)
	require.Equal(t, 0, created.UsedCount)

	coupon, err := store.GetCouponByCode(ctx, "WELCOME", user.ID)
	require.NoError(t, err)
	require.NotNil(t, coupon)
	require.False(t, coupon.LimitReached())

	_, err = store.UpdateCoupon(ctx, created.ID, domain.CouponPatch{UsedCount: domain.Ptr(1)})
	require.NoError(t, err)

	coupon, err = store.GetCouponByCode(ctx, "WELCOME", user.ID)
	require.NoError(t, err)
	require.True(t, coupon.LimitReached())
}

func testCouponCodeNormalized(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	user := createUser(t, ctx, store)

	created, err := store.CreateCoupon(ctx, domain.NewCoupon{
		UserID:        user.ID,
		Code:          "  SAVE10\t",
		DiscountType:  domain.DiscountFixed,
		DiscountValue: money("5"),
	})
	require.NoError(t, err)
	require.Equal(t, "SAVE10", created.Code)

	found, err := store.GetCouponByCode(ctx, " SAVE10 ", user.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, created.ID, found.ID)

	_, err = store.CreateCoupon(ctx, domain.NewCoupon{
		UserID:        user.ID,
		Code:          "SAVE10 ",
		DiscountType:  domain.DiscountFixed,
		DiscountValue: money("5"),
	})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	updated, err := store.UpdateCoupon(ctx, created.ID, domain.CouponPatch{Code: domain.Ptr(" SUMMER ")})
	require.NoError(t, err)
	require.Equal(t, "SUMMER", updated.Code)
}

func testCouponPatchValidation(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	user := createUser(t, ctx, store)

	created, err := store.CreateCoupon(ctx, domain.NewCoupon{
		UserID:        user.ID,
		Code:          "LIMITED",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: money("10"),
		UsageLimit:    domain.Ptr(5),
	})
	require.NoError(t, err)

	patches := map[string]domain.CouponPatch{
		"negative usage limit":     {UsageLimit: domain.Ptr(-1)},
		"negative used count":      {UsedCount: domain.Ptr(-1)},
		"negative discount":        {DiscountValue: domain.Ptr(money("-1"))},
		"percentage above 100":     {DiscountValue: domain.Ptr(money("150"))},
		"switch to percentage 150": {DiscountType: domain.Ptr(domain.DiscountPercentage), DiscountValue: domain.Ptr(money("150"))},
	}
	for name, patch := range patches {
		_, err := store.UpdateCoupon(ctx, created.ID, patch)
		require.ErrorIs(t, err, domain.ErrInvalidInput, name)
	}

	current, err := store.GetCoupon(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 5, *current.UsageLimit)
	require.Equal(t, 0, current.UsedCount)
	require.True(t, current.DiscountValue.Equal(money("10")))

	// Для фиксированной скидки значение выше 100 допустимо.
	fixed, err := store.UpdateCoupon(ctx, created.ID, domain.CouponPatch{
		DiscountType:  domain.Ptr(domain.DiscountFixed),
		DiscountValue: domain.Ptr(money("150")),
	})
	require.NoError(t, err)
	require.True(t, fixed.DiscountValue.Equal(money("150")))
}

func testCustomers(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	ownerA := createUser(t, ctx, store)
	ownerB := createUser(t, ctx, store)

	customer := createCustomer(t, ctx, store, ownerA.ID, "buyer@example.com")
	createCustomer(t, ctx, store, ownerB.ID, "buyer@example.com")

	_, err := store.CreateCustomer(ctx, domain.NewCustomer{UserID: ownerA.ID, Email: "buyer@example.com"})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	found, err := store.GetCustomerByEmail(ctx, "buyer@example.com", ownerA.ID)
	require.NoError(t, err)
	require.Equal(t, customer.ID, found.ID)

	updated, err := store.UpdateCustomer(ctx, customer.ID, domain.CustomerPatch{Name: domain.Ptr("Ann")})
	require.NoError(t, err)
	require.Equal(t, "Ann", *updated.Name)
	require.Equal(t, "buyer@example.com", updated.Email)

	customers, err := store.GetCustomers(ctx, ownerA.ID)
	require.NoError(t, err)
	require.Len(t, customers, 1)

	deleted, err := store.DeleteCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.True(t, deleted)
}

func testOrdersComposite(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	user := createUser(t, ctx, store)
	customer := createCustomer(t, ctx, store, user.ID, "buyer@example.com")
	product := createProduct(t, ctx, store, user.ID, "Ebook", "19.99")
	page := createPage(t, ctx, store, user.ID, product.ID, "orders-"+uuid.NewString())

	older := createOrder(t, ctx, store, domain.NewOrder{
		UserID:     user.ID,
		CustomerID: customer.ID,
		Subtotal:   money("19.99"),
		Total:      money("19.99"),
	})
	require.Equal(t, domain.OrderStatusPending, older.Status)
	require.Equal(t, "0", older.Discount.String())
	require.Nil(t, older.CheckoutPageID)

	h.pause()
	newer := createOrder(t, ctx, store, domain.NewOrder{
		UserID:         user.ID,
		CustomerID:     customer.ID,
		CheckoutPageID: &page.ID,
		Status:         domain.Ptr(domain.OrderStatusCompleted),
		Subtotal:       money("19.99"),
		Discount:       domain.Ptr(money("2")),
		Total:          money("17.99"),
		TransactionID:  domain.Ptr("txn-" + uuid.NewString()),
		EventID:        domain.Ptr("evt-1"),
	})

	_, err := store.CreateOrderItem(ctx, domain.NewOrderItem{
		OrderID:   newer.ID,
		ProductID: product.ID,
		Type:      domain.ItemTypeMain,
		Price:     money("19.99"),
	})
	require.NoError(t, err)

	orders, err := store.GetOrders(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, newer.ID, orders[0].ID)
	require.Equal(t, older.ID, orders[1].ID)
	require.NotNil(t, orders[0].Customer)
	require.Equal(t, customer.ID, orders[0].Customer.ID)
	require.Len(t, orders[0].Items, 1)
	require.Nil(t, orders[0].Items[0].Product)
	require.NotNil(t, orders[1].Items)
	require.Empty(t, orders[1].Items)

	detailed, err := store.GetOrder(ctx, newer.ID)
	require.NoError(t, err)
	require.NotNil(t, detailed)
	require.Equal(t, domain.OrderStatusCompleted, detailed.Status)
	require.Equal(t, "17.99", detailed.Total.String())
	require.Equal(t, page.ID, *detailed.CheckoutPageID)
	require.Len(t, detailed.Items, 1)
	require.NotNil(t, detailed.Items[0].Product)
	require.Equal(t, product.ID, detailed.Items[0].Product.ID)

	byTxn, err := store.GetOrderByTransactionID(ctx, *newer.TransactionID)
	require.NoError(t, err)
	require.NotNil(t, byTxn)
	require.Equal(t, newer.ID, byTxn.ID)

	updated, err := store.UpdateOrder(ctx, older.ID, domain.OrderPatch{
		Status:        domain.Ptr(domain.OrderStatusRefunded),
		PaymentMethod: domain.Ptr("card"),
	})
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusRefunded, updated.Status)
	require.Equal(t, "card", *updated.PaymentMethod)
	require.Equal(t, "19.99", updated.Total.String())

	_, err = store.UpdateOrder(ctx, older.ID, domain.OrderPatch{Status: domain.Ptr(domain.OrderStatus("lost"))})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.CreateOrder(ctx, domain.NewOrder{UserID: user.ID, CustomerID: uuid.NewString()})
	require.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

func testOrderItems(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	user := createUser(t, ctx, store)
	customer := createCustomer(t, ctx, store, user.ID, "buyer@example.com")
	mainProduct := createProduct(t, ctx, store, user.ID, "Main", "30")
	bump := createProduct(t, ctx, store, user.ID, "Bump", "10")
	order := createOrder(t, ctx, store, domain.NewOrder{
		UserID:     user.ID,
		CustomerID: customer.ID,
		Subtotal:   money("35"),
		Total:      money("35"),
	})

	token := "dl-" + uuid.NewString()
	expires := time.Date(2031, 6, 1, 0, 0, 0, 0, time.UTC)
	first, err := store.CreateOrderItem(ctx, domain.NewOrderItem{
		OrderID:        order.ID,
		ProductID:      mainProduct.ID,
		Type:           domain.ItemTypeMain,
		Price:          money("30"),
		DownloadToken:  &token,
		TokenExpiresAt: &expires,
	})
	require.NoError(t, err)
	require.Equal(t, 0, first.DownloadCount)

	h.pause()
	second, err := store.CreateOrderItem(ctx, domain.NewOrderItem{
		OrderID:   order.ID,
		ProductID: bump.ID,
		Type:      domain.ItemTypeBump,
		Price:     money("5"),
	})
	require.NoError(t, err)

	_, err = store.CreateOrderItem(ctx, domain.NewOrderItem{
		OrderID:   order.ID,
		ProductID: bump.ID,
		Type:      "gift",
		Price:     money("5"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	// Цена позиции — снимок: изменение цены товара её не трогает.
	_, err = store.UpdateProduct(ctx, bump.ID, domain.ProductPatch{Price: domain.Ptr(money("12"))})
	require.NoError(t, err)

	items, err := store.GetOrderItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, first.ID, items[0].ID)
	require.Equal(t, second.ID, items[1].ID)
	require.Equal(t, "5", items[1].Price.String())
	require.Equal(t, "12", items[1].Product.Price.String())

	byToken, err := store.GetOrderItemByDownloadToken(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, byToken)
	require.Equal(t, first.ID, byToken.ID)
	require.True(t, byToken.TokenExpiresAt.Equal(expires))

	updated, err := store.UpdateOrderItem(ctx, first.ID, domain.OrderItemPatch{DownloadCount: domain.Ptr(2)})
	require.NoError(t, err)
	require.Equal(t, 2, updated.DownloadCount)
	require.Equal(t, token, *updated.DownloadToken)
	require.Equal(t, "30", updated.Price.String())

	missing, err := store.GetOrderItemByDownloadToken(ctx, "unknown")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func testReferentialActions(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	user := createUser(t, ctx, store)
	customer := createCustomer(t, ctx, store, user.ID, "buyer@example.com")
	product := createProduct(t, ctx, store, user.ID, "Main", "10")
	page := createPage(t, ctx, store, user.ID, product.ID, "refs-"+uuid.NewString())

	bump, err := store.CreateOrderBump(ctx, domain.NewOffer{
		CheckoutPageID: page.ID,
		ProductID:      product.ID,
		Headline:       "Add",
		DiscountType:   domain.DiscountFixed,
		DiscountValue:  money("1"),
	})
	require.NoError(t, err)

	cart, err := store.CreateAbandonedCart(ctx, domain.NewAbandonedCart{
		UserID:         user.ID,
		CheckoutPageID: page.ID,
		Email:          "lead@example.com",
	})
	require.NoError(t, err)

	coupon, err := store.CreateCoupon(ctx, domain.NewCoupon{
		UserID:        user.ID,
		Code:          "REFS",
		DiscountType:  domain.DiscountFixed,
		DiscountValue: money("1"),
	})
	require.NoError(t, err)

	order := createOrder(t, ctx, store, domain.NewOrder{
		UserID:         user.ID,
		CustomerID:     customer.ID,
		CheckoutPageID: &page.ID,
		CouponID:       &coupon.ID,
		Subtotal:       money("10"),
		Total:          money("9"),
	})
	_, err = store.CreateOrderItem(ctx, domain.NewOrderItem{
		OrderID:   order.ID,
		ProductID: product.ID,
		Type:      domain.ItemTypeMain,
		Price:     money("10"),
	})
	require.NoError(t, err)

	_, err = store.DeleteProduct(ctx, product.ID)
	require.ErrorIs(t, err, domain.ErrReferenceInUse)

	_, err = store.DeleteCustomer(ctx, customer.ID)
	require.ErrorIs(t, err, domain.ErrReferenceInUse)

	deleted, err := store.DeleteCheckoutPage(ctx, page.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	gotBump, err := store.GetOrderBump(ctx, bump.ID)
	require.NoError(t, err)
	require.Nil(t, gotBump)

	gotCart, err := store.GetAbandonedCart(ctx, cart.ID)
	require.NoError(t, err)
	require.Nil(t, gotCart)

	detached, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, detached)
	require.Nil(t, detached.CheckoutPageID)
	require.NotNil(t, detached.CouponID)

	deleted, err = store.DeleteCoupon(ctx, coupon.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	detached, err = store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Nil(t, detached.CouponID)

	deleted, err = store.DeleteOrder(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	gotItem, err := store.GetOrderItems(ctx, order.ID)
	require.NoError(t, err)
	require.Empty(t, gotItem)

	deleted, err = store.DeleteProduct(ctx, product.ID)
	require.NoError(t, err)
	require.True(t, deleted)
}

func testAbandonedCarts(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	user := createUser(t, ctx, store)
	product := createProduct(t, ctx, store, user.ID, "Main", "10")
	page := createPage(t, ctx, store, user.ID, product.ID, "carts-"+uuid.NewString())

	first, err := store.CreateAbandonedCart(ctx, domain.NewAbandonedCart{
		UserID:         user.ID,
		CheckoutPageID: page.ID,
		Email:          "a@example.com",
		CartData:       map[string]any{"productId": product.ID},
	})
	require.NoError(t, err)
	require.False(t, first.RecoveryEmailSent)
	require.Nil(t, first.RecoveredAt)

	h.pause()
	second, err := store.CreateAbandonedCart(ctx, domain.NewAbandonedCart{
		UserID:         user.ID,
		CheckoutPageID: page.ID,
		Email:          "b@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, second.CartData)

	carts, err := store.GetAbandonedCarts(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, carts, 2)
	require.Equal(t, second.ID, carts[0].ID)
	require.Equal(t, product.ID, carts[1].CartData["productId"])

	recovered := time.Date(2030, 5, 6, 7, 8, 9, 0, time.UTC)
	updated, err := store.UpdateAbandonedCart(ctx, first.ID, domain.AbandonedCartPatch{
		RecoveryEmailSent: domain.Ptr(true),
		RecoveredAt:       &recovered,
	})
	require.NoError(t, err)
	require.True(t, updated.RecoveryEmailSent)
	require.True(t, updated.RecoveredAt.Equal(recovered))
	require.Equal(t, "a@example.com", updated.Email)

	deleted, err := store.DeleteAbandonedCart(ctx, second.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = store.CreateAbandonedCart(ctx, domain.NewAbandonedCart{
		UserID:         user.ID,
		CheckoutPageID: uuid.NewString(),
		Email:          "c@example.com",
	})
	require.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

func testEmailTemplates(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	user := createUser(t, ctx, store)

	older, err := store.CreateEmailTemplate(ctx, domain.NewEmailTemplate{
		UserID:  user.ID,
		Type:    "order_confirmation",
		Subject: "Thanks {{name}}",
		Body:    "v1",
	})
	require.NoError(t, err)
	require.True(t, older.IsActive)

	h.pause()
	newer, err := store.CreateEmailTemplate(ctx, domain.NewEmailTemplate{
		UserID:  user.ID,
		Type:    "order_confirmation",
		Subject: "Thanks again {{name}}",
		Body:    "v2",
	})
	require.NoError(t, err)

	h.pause()
	_, err = store.CreateEmailTemplate(ctx, domain.NewEmailTemplate{
		UserID:   user.ID,
		Type:     "order_confirmation",
		Subject:  "Draft",
		IsActive: domain.Ptr(false),
	})
	require.NoError(t, err)

	active, err := store.GetEmailTemplateByType(ctx, user.ID, "order_confirmation")
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, newer.ID, active.ID)

	subject, _ := active.Render(map[string]string{"name": "Ann"})
	require.Equal(t, "Thanks again Ann", subject)

	none, err := store.GetEmailTemplateByType(ctx, user.ID, "cart_recovery")
	require.NoError(t, err)
	require.Nil(t, none)

	templates, err := store.GetEmailTemplates(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, templates, 3)
	require.Equal(t, older.ID, templates[2].ID)

	updated, err := store.UpdateEmailTemplate(ctx, older.ID, domain.EmailTemplatePatch{Body: domain.Ptr("v1.1")})
	require.NoError(t, err)
	require.Equal(t, "v1.1", updated.Body)
	require.Equal(t, "Thanks {{name}}", updated.Subject)

	deleted, err := store.DeleteEmailTemplate(ctx, older.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	gone, err := store.GetEmailTemplate(ctx, older.ID)
	require.NoError(t, err)
	require.Nil(t, gone)
}

func testPixelEvents(t *testing.T, h Harness) {
	store := h.New(t)
	ctx := newContext(t)
	user := createUser(t, ctx, store)

	first, err := store.CreatePixelEvent(ctx, domain.NewPixelEvent{
		UserID:     user.ID,
		EventName:  "Purchase",
		EventID:    "evt-1",
		CustomData: map[string]any{"value": "19.99"},
	})
	require.NoError(t, err)
	require.Equal(t, domain.DefaultActionSource, first.ActionSource)
	require.False(t, first.Sent)
	require.False(t, first.Failed)
	require.False(t, first.EventTime.IsZero())

	h.pause()
	eventTime := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	second, err := store.CreatePixelEvent(ctx, domain.NewPixelEvent{
		UserID:       user.ID,
		EventName:    "InitiateCheckout",
		EventID:      "evt-2",
		EventTime:    &eventTime,
		ActionSource: domain.Ptr("email"),
	})
	require.NoError(t, err)
	require.Equal(t, "email", second.ActionSource)
	require.True(t, second.EventTime.Equal(eventTime))

	_, err = store.CreatePixelEvent(ctx, domain.NewPixelEvent{UserID: user.ID, EventName: "Purchase", EventID: "evt-1"})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	events, err := store.GetPixelEvents(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, second.ID, events[0].ID)
	require.Equal(t, "19.99", events[1].CustomData["value"])

	unsent, err := store.ListUnsentPixelEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, unsent, 2)
	require.Equal(t, first.ID, unsent[0].ID)

	limited, err := store.ListUnsentPixelEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	marked, err := store.UpdatePixelEvent(ctx, first.ID, domain.PixelEventPatch{Sent: domain.Ptr(true)})
	require.NoError(t, err)
	require.True(t, marked.Sent)
	require.Equal(t, "Purchase", marked.EventName)

	unsent, err = store.ListUnsentPixelEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unsent, 1)
	require.Equal(t, second.ID, unsent[0].ID)

	failed, err := store.UpdatePixelEvent(ctx, second.ID, domain.PixelEventPatch{Failed: domain.Ptr(true)})
	require.NoError(t, err)
	require.True(t, failed.Failed)
	require.False(t, failed.Sent)

	unsent, err = store.ListUnsentPixelEvents(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, unsent)

	missing, err := store.UpdatePixelEvent(ctx, uuid.NewString(), domain.PixelEventPatch{Sent: domain.Ptr(true)})
	require.NoError(t, err)
	require.Nil(t, missing)
}
