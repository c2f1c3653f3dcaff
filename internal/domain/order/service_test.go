package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranakart/kirana-backend/internal/domain/coupon"
	"github.com/kiranakart/kirana-backend/internal/domain/credit"
	"github.com/kiranakart/kirana-backend/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID map[string]product.Product
	err  error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockRedeemer struct {
	quote *coupon.Quote
	err   error

	gotCode   string
	gotAmount decimal.Decimal
	gotItems  []coupon.Item
}

func (m *mockRedeemer) Redeem(_ context.Context, code, _ string, orderAmount decimal.Decimal, items []coupon.Item) (*coupon.Quote, error) {
	m.gotCode = code
	m.gotAmount = orderAmount
	m.gotItems = items
	return m.quote, m.err
}

type mockCharger struct {
	tx  *credit.Transaction
	err error

	gotOrderID string
	gotAmount  decimal.Decimal
}

func (m *mockCharger) UseCredit(_ context.Context, _, orderID string, amount decimal.Decimal, _ string) (*credit.Transaction, error) {
	m.gotOrderID = orderID
	m.gotAmount = amount
	return m.tx, m.err
}

type mockOrderRepo struct {
	lastOrder *Order
	err       error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.lastOrder = o
	return m.err
}

func (m *mockOrderRepo) GetByID(_ context.Context, _ string) (*Order, error) {
	return m.lastOrder, nil
}

// --- Helpers ---

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newCatalog() *mockProductRepo {
	return &mockProductRepo{byID: map[string]product.Product{
		"milk-1l":  {ID: "milk-1l", Name: "Milk 1L", Category: "dairy", Price: dec("60.00"), Unit: "pc"},
		"rice-5kg": {ID: "rice-5kg", Name: "Rice 5kg", Category: "staples", Price: dec("400.00"), Unit: "bag"},
	}}
}

// --- Tests ---

func TestPlaceOrder_EmptyItems(t *testing.T) {
	svc := NewService(newCatalog(), &mockRedeemer{}, &mockCharger{}, &mockOrderRepo{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	svc := NewService(newCatalog(), &mockRedeemer{}, &mockCharger{}, &mockOrderRepo{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Items: []OrderItem{{ProductID: "milk-1l", Quantity: 0}},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "milk-1l", iqErr.ProductID)
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	svc := NewService(newCatalog(), &mockRedeemer{}, &mockCharger{}, &mockOrderRepo{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Items: []OrderItem{{ProductID: "missing", Quantity: 1}},
	})

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "missing", pnfErr.ProductID)
}

func TestPlaceOrder_NoCoupon(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(newCatalog(), &mockRedeemer{}, &mockCharger{}, repo)

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID: "cust-1",
		Items: []OrderItem{
			{ProductID: "milk-1l", Quantity: 2},
			{ProductID: "rice-5kg", Quantity: 1},
		},
	})

	require.NoError(t, err)
	assert.True(t, dec("520.00").Equal(result.Order.Subtotal))
	assert.True(t, dec("520.00").Equal(result.Order.Total))
	assert.True(t, decimal.Zero.Equal(result.Order.Discount))
	assert.False(t, result.Discount.Applied)
	assert.Len(t, result.Products, 2)
	assert.NotNil(t, repo.lastOrder)
}

func TestPlaceOrder_WithCoupon(t *testing.T) {
	redeemer := &mockRedeemer{
		quote: &coupon.Quote{Code: "DAIRY10", DiscountAmount: dec("12.00")},
	}
	svc := NewService(newCatalog(), redeemer, &mockCharger{}, &mockOrderRepo{})

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID: "cust-1",
		Items: []OrderItem{
			{ProductID: "milk-1l", Quantity: 2},
			{ProductID: "rice-5kg", Quantity: 1},
		},
		CouponCode: "dairy10",
	})

	require.NoError(t, err)
	assert.True(t, result.Discount.Applied)
	assert.Equal(t, "DAIRY10", result.Order.CouponCode)
	assert.True(t, dec("12.00").Equal(result.Order.Discount))
	assert.True(t, dec("508.00").Equal(result.Order.Total))

	// The redeemer sees the priced cart with categories for filtering.
	assert.True(t, dec("520.00").Equal(redeemer.gotAmount))
	require.Len(t, redeemer.gotItems, 2)
	assert.Equal(t, "dairy", redeemer.gotItems[0].Category)
}

func TestPlaceOrder_CouponSoftFail(t *testing.T) {
	tests := []struct {
		name   string
		reason error
	}{
		{"unknown code", coupon.ErrNotFound},
		{"expired", coupon.ErrInvalid},
		{"per-user cap", coupon.ErrUsageLimitExceeded},
		{"below minimum", coupon.ErrBelowMinimumOrder},
		{"no matching items", coupon.ErrNotApplicable},
		{"repository down", errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockOrderRepo{}
			svc := NewService(newCatalog(), &mockRedeemer{err: tt.reason}, &mockCharger{}, repo)

			result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
				CustomerID: "cust-1",
				Items:      []OrderItem{{ProductID: "milk-1l", Quantity: 1}},
				CouponCode: "SAVE10",
			})

			require.NoError(t, err, "coupon failure must not fail the order")
			assert.False(t, result.Discount.Applied)
			assert.ErrorIs(t, result.Discount.Reason, tt.reason)
			assert.True(t, decimal.Zero.Equal(result.Order.Discount))
			assert.True(t, dec("60.00").Equal(result.Order.Total))
			assert.Empty(t, result.Order.CouponCode)
		})
	}
}

func TestPlaceOrder_OnCredit(t *testing.T) {
	charger := &mockCharger{tx: &credit.Transaction{Type: credit.TypeCreditUsed}}
	svc := NewService(newCatalog(), &mockRedeemer{}, charger, &mockOrderRepo{})

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:  "cust-1",
		Items:       []OrderItem{{ProductID: "rice-5kg", Quantity: 1}},
		PayOnCredit: true,
		ProcessedBy: "staff-1",
	})

	require.NoError(t, err)
	assert.True(t, result.Order.PaidOnCredit)
	require.NotNil(t, result.CreditTransaction)
	assert.True(t, dec("400.00").Equal(charger.gotAmount))
	assert.Equal(t, result.Order.ID, charger.gotOrderID)
}

func TestPlaceOrder_CreditRefusalAbortsOrder(t *testing.T) {
	repo := &mockOrderRepo{}
	charger := &mockCharger{err: credit.ErrInsufficientCredit}
	svc := NewService(newCatalog(), &mockRedeemer{}, charger, repo)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:  "cust-1",
		Items:       []OrderItem{{ProductID: "rice-5kg", Quantity: 1}},
		PayOnCredit: true,
	})

	require.ErrorIs(t, err, credit.ErrInsufficientCredit)
	assert.Nil(t, repo.lastOrder, "refused credit must not persist an order")
}

func TestPlaceOrder_OrderCreateError(t *testing.T) {
	svc := NewService(
		newCatalog(),
		&mockRedeemer{},
		&mockCharger{},
		&mockOrderRepo{err: errors.New("db write failed")},
	)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Items: []OrderItem{{ProductID: "milk-1l", Quantity: 1}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}
