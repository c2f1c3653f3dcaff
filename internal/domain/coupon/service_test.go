package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	coupon    *Coupon
	findErr   error
	redeemErr error

	redeemedCode  string
	redeemedUsage *Usage
}

func (m *mockRepo) FindByCode(_ context.Context, _ string) (*Coupon, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.coupon, nil
}

func (m *mockRepo) Create(_ context.Context, _ *Coupon) error { return nil }

func (m *mockRepo) Update(_ context.Context, _ string, _ Patch) (*Coupon, error) {
	return m.coupon, nil
}

func (m *mockRepo) List(_ context.Context) ([]Coupon, error) { return nil, nil }

func (m *mockRepo) Redeem(_ context.Context, code string, u Usage) error {
	if m.redeemErr != nil {
		return m.redeemErr
	}
	m.redeemedCode = code
	m.redeemedUsage = &u
	m.coupon.MarkUsed(u.CustomerID, u.OrderAmount, u.DiscountAmount, u.UsedAt)
	return nil
}

func newTestService(repo *mockRepo) *Service {
	s := NewService(repo)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestQuote_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name        string
		repo        *mockRepo
		orderAmount string
		wantErr     error
	}{
		{
			name:        "unknown code",
			repo:        &mockRepo{findErr: ErrNotFound},
			orderAmount: "1000",
			wantErr:     ErrNotFound,
		},
		{
			name: "inactive coupon",
			repo: &mockRepo{coupon: func() *Coupon {
				c := activeCoupon()
				c.Active = false
				return &c
			}()},
			orderAmount: "1000",
			wantErr:     ErrInvalid,
		},
		{
			name: "globally exhausted",
			repo: &mockRepo{coupon: func() *Coupon {
				c := activeCoupon()
				c.UsageLimit = 1
				c.UsageCount = 1
				return &c
			}()},
			orderAmount: "1000",
			wantErr:     ErrInvalid,
		},
		{
			name: "per-user cap reached",
			repo: &mockRepo{coupon: func() *Coupon {
				c := activeCoupon()
				c.MarkUsed("cust-1", dec("500"), dec("50"), fixedNow)
				return &c
			}()},
			orderAmount: "1000",
			wantErr:     ErrUsageLimitExceeded,
		},
		{
			name: "order below minimum",
			repo: &mockRepo{coupon: func() *Coupon {
				c := activeCoupon()
				c.MinOrderAmount = dec("500")
				return &c
			}()},
			orderAmount: "400",
			wantErr:     ErrBelowMinimumOrder,
		},
		{
			name: "no matching items",
			repo: &mockRepo{coupon: func() *Coupon {
				c := activeCoupon()
				c.ApplicableCategories = []string{"dairy"}
				return &c
			}()},
			orderAmount: "1000",
			wantErr:     ErrNotApplicable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.repo)
			q, err := svc.Quote(context.Background(), "SAVE10", "cust-1", dec(tt.orderAmount), nil)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, q)
		})
	}
}

func TestQuote_DoesNotConsumeUse(t *testing.T) {
	c := activeCoupon()
	repo := &mockRepo{coupon: &c}
	svc := newTestService(repo)

	q, err := svc.Quote(context.Background(), "save10", "cust-1", dec("1200"), nil)
	require.NoError(t, err)
	assert.True(t, dec("120").Equal(q.DiscountAmount))
	assert.Empty(t, repo.redeemedCode)
	assert.Equal(t, 0, c.UsageCount)
}

func TestRedeem_RecordsUsage(t *testing.T) {
	c := activeCoupon()
	repo := &mockRepo{coupon: &c}
	svc := newTestService(repo)

	q, err := svc.Redeem(context.Background(), "SAVE10", "cust-1", dec("1200"), nil)
	require.NoError(t, err)
	assert.True(t, dec("120").Equal(q.DiscountAmount))

	assert.Equal(t, "SAVE10", repo.redeemedCode)
	require.NotNil(t, repo.redeemedUsage)
	assert.Equal(t, "cust-1", repo.redeemedUsage.CustomerID)
	assert.True(t, dec("1200").Equal(repo.redeemedUsage.OrderAmount))
	assert.True(t, dec("120").Equal(repo.redeemedUsage.DiscountAmount))
	assert.Equal(t, 1, c.UsageCount)
	assert.Len(t, c.UsedBy, 1)
}

func TestRedeem_ExhaustionAfterLimit(t *testing.T) {
	c := activeCoupon()
	c.UsageLimit = 2
	c.UserUsageLimit = 5
	repo := &mockRepo{coupon: &c}
	svc := newTestService(repo)

	for i := 0; i < 2; i++ {
		_, err := svc.Redeem(context.Background(), "SAVE10", "cust-1", dec("100"), nil)
		require.NoError(t, err, "redemption %d", i+1)
	}

	_, err := svc.Redeem(context.Background(), "SAVE10", "cust-1", dec("100"), nil)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestRedeem_LostRaceSurfacesErrInvalid(t *testing.T) {
	c := activeCoupon()
	repo := &mockRepo{coupon: &c, redeemErr: ErrInvalid}
	svc := newTestService(repo)

	_, err := svc.Redeem(context.Background(), "SAVE10", "cust-1", dec("100"), nil)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestRedeem_RepositoryFailureIsWrapped(t *testing.T) {
	c := activeCoupon()
	repo := &mockRepo{coupon: &c, redeemErr: errors.New("connection reset")}
	svc := newTestService(repo)

	_, err := svc.Redeem(context.Background(), "SAVE10", "cust-1", dec("100"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record coupon use")
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SAVE10", normalizeCode("  save10 "))
	assert.Equal(t, "SAVE10", normalizeCode("Save10"))
}

func TestQuote_ScoreExampleScenarios(t *testing.T) {
	// 10% coupon, min 500, cap 100: order 1200 discounts exactly 100.
	c := activeCoupon()
	c.MinOrderAmount = dec("500")
	c.MaxDiscountAmount = decimal.NewNullDecimal(dec("100"))
	svc := newTestService(&mockRepo{coupon: &c})

	q, err := svc.Quote(context.Background(), "SAVE10", "cust-1", dec("1200"), nil)
	require.NoError(t, err)
	assert.True(t, dec("100").Equal(q.DiscountAmount))

	// Same coupon, order 400: below minimum.
	_, err = svc.Quote(context.Background(), "SAVE10", "cust-1", dec("400"), nil)
	require.ErrorIs(t, err, ErrBelowMinimumOrder)
}
