package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiranakart/kirana-backend/internal/domain/coupon"
	"github.com/kiranakart/kirana-backend/internal/domain/credit"
	"github.com/kiranakart/kirana-backend/internal/domain/money"
	"github.com/kiranakart/kirana-backend/internal/domain/product"
)

// CouponRedeemer is the slice of the coupon service the order flow needs.
type CouponRedeemer interface {
	Redeem(ctx context.Context, code, customerID string, orderAmount decimal.Decimal, items []coupon.Item) (*coupon.Quote, error)
}

// CreditCharger is the slice of the credit service the order flow needs.
type CreditCharger interface {
	UseCredit(ctx context.Context, customerID, orderID string, amount decimal.Decimal, processedBy string) (*credit.Transaction, error)
}

// DiscountOutcome is the explicit result of attempting to apply a coupon.
// Coupon failure never fails the order: when Applied is false the order
// proceeds at full price and Reason records why.
type DiscountOutcome struct {
	Applied bool
	Code    string
	Amount  decimal.Decimal
	Reason  error
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	CustomerID string
	Items      []OrderItem
	CouponCode string
	// PayOnCredit charges the order total to the customer's credit account
	// instead of collecting payment upfront.
	PayOnCredit bool
	ProcessedBy string
}

// PlaceOrderResult holds the output of a successfully placed order.
type PlaceOrderResult struct {
	Order    *Order
	Products []product.Product
	Discount DiscountOutcome
	// CreditTransaction is the ledger row for a credit-backed order, nil otherwise.
	CreditTransaction *credit.Transaction
}

// Service encapsulates order placement business logic.
type Service struct {
	products product.Repository
	coupons  CouponRedeemer
	credits  CreditCharger
	orders   Repository
	now      func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	coupons CouponRedeemer,
	credits CreditCharger,
	orders Repository,
) *Service {
	return &Service{
		products: products,
		coupons:  coupons,
		credits:  credits,
		orders:   orders,
		now:      time.Now,
	}
}

// PlaceOrder validates items, fetches products in a single batch, applies the
// coupon (soft-fail), optionally charges the customer's credit line, persists
// the order, and returns the result.
//
// The coupon redemption and the credit charge each commit atomically in their
// own stores before the order row is written; a failure after either leaves a
// dangling redemption or charge, which mirrors the storage-boundary gap the
// rest of the system tolerates.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	// Validate quantities and collect product IDs.
	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	// Batch fetch all products in a single query.
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	productMap := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	// Verify every requested product was found.
	products := make([]product.Product, 0, len(req.Items))
	for _, item := range req.Items {
		p, ok := productMap[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		products = append(products, p)
	}

	// Price the lines and build the coupon view of the cart.
	items := make([]OrderItem, len(req.Items))
	couponItems := make([]coupon.Item, len(req.Items))
	subtotal := decimal.Zero
	for i, item := range req.Items {
		p := products[i]
		qty := decimal.NewFromInt(int64(item.Quantity))

		items[i] = OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: p.Price,
		}
		couponItems[i] = coupon.Item{
			ProductID: p.ID,
			Category:  p.Category,
			Price:     p.Price,
			Quantity:  item.Quantity,
		}
		subtotal = subtotal.Add(p.Price.Mul(qty))
	}
	subtotal = money.Round2(subtotal)

	discount := s.applyCoupon(ctx, req, subtotal, couponItems)

	total := money.Round2(money.FloorAtZero(subtotal.Sub(discount.Amount)))

	o := &Order{
		ID:           uuid.New().String(),
		CustomerID:   req.CustomerID,
		Items:        items,
		Subtotal:     subtotal,
		Discount:     discount.Amount,
		Total:        total,
		PaidOnCredit: req.PayOnCredit,
		CreatedAt:    s.now(),
	}
	if discount.Applied {
		o.CouponCode = discount.Code
	}

	// Reserve the credit before writing the order so the headroom guard runs
	// under the ledger's lock. Insufficient credit aborts the order outright.
	var creditTx *credit.Transaction
	if req.PayOnCredit {
		creditTx, err = s.credits.UseCredit(ctx, req.CustomerID, o.ID, total, req.ProcessedBy)
		if err != nil {
			return nil, errors.Wrap(err, "charge credit account")
		}
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return &PlaceOrderResult{
		Order:             o,
		Products:          products,
		Discount:          discount,
		CreditTransaction: creditTx,
	}, nil
}

// GetOrder returns a previously placed order by ID.
func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// applyCoupon redeems the requested coupon and converts any failure into a
// zero-discount outcome. Eligibility failures and infrastructure failures
// alike leave the order intact at full price.
func (s *Service) applyCoupon(ctx context.Context, req PlaceOrderRequest, subtotal decimal.Decimal, items []coupon.Item) DiscountOutcome {
	if req.CouponCode == "" {
		return DiscountOutcome{Amount: decimal.Zero}
	}

	q, err := s.coupons.Redeem(ctx, req.CouponCode, req.CustomerID, subtotal, items)
	if err != nil {
		return DiscountOutcome{
			Code:   req.CouponCode,
			Amount: decimal.Zero,
			Reason: err,
		}
	}

	return DiscountOutcome{
		Applied: true,
		Code:    q.Code,
		Amount:  q.DiscountAmount,
	}
}
