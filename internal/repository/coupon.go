package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kiranakart/kirana-backend/internal/domain/coupon"
)

const (
	couponColumns = `code, description, terms, discount_type, discount_value,
		min_order_amount, max_discount_amount, usage_limit, usage_count, user_usage_limit,
		applicable_categories, excluded_categories, applicable_products, excluded_products,
		start_date, end_date, active, created_at, updated_at`

	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE code = UPPER($1)`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY code`

	getCouponUsagesSQL = `SELECT customer_id, used_at, order_amount, discount_amount
		FROM coupon_usages WHERE coupon_code = $1 ORDER BY id`

	createCouponSQL = `INSERT INTO coupons (code, description, terms, discount_type, discount_value,
		min_order_amount, max_discount_amount, usage_limit, user_usage_limit,
		applicable_categories, excluded_categories, applicable_products, excluded_products,
		start_date, end_date, active)
		VALUES (UPPER($1), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	lockCouponSQL = `SELECT active, start_date, end_date, usage_limit, usage_count, user_usage_limit
		FROM coupons WHERE code = $1 FOR UPDATE`

	countCustomerUsagesSQL = `SELECT count(*) FROM coupon_usages
		WHERE coupon_code = $1 AND customer_id = $2`

	bumpCouponUsageSQL = `UPDATE coupons SET usage_count = usage_count + 1, updated_at = now()
		WHERE code = $1`

	insertCouponUsageSQL = `INSERT INTO coupon_usages (coupon_code, customer_id, used_at,
		order_amount, discount_amount)
		VALUES ($1, $2, $3, $4, $5)`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its code (case-insensitive) together with
// its usage history. Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	usageRows, err := r.pool.Query(ctx, getCouponUsagesSQL, c.Code)
	if err != nil {
		return nil, fmt.Errorf("loading usages for coupon %q: %w", c.Code, err)
	}
	c.UsedBy, err = pgx.CollectRows(usageRows, scanUsage)
	if err != nil {
		return nil, fmt.Errorf("loading usages for coupon %q: %w", c.Code, err)
	}

	return &c, nil
}

// Create persists a new coupon. The code is uppercased on insert.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, createCouponSQL,
		c.Code, c.Description, c.Terms, string(c.DiscountType), c.DiscountValue,
		c.MinOrderAmount, c.MaxDiscountAmount, c.UsageLimit, c.UserUsageLimit,
		c.ApplicableCategories, c.ExcludedCategories, c.ApplicableProducts, c.ExcludedProducts,
		c.StartDate, c.EndDate, c.Active,
	)
	if err != nil {
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Update applies a partial update built from the patch's non-nil fields and
// returns the updated coupon.
func (r *CouponRepository) Update(ctx context.Context, code string, p coupon.Patch) (*coupon.Coupon, error) {
	sets := []string{"updated_at = now()"}
	args := []any{code}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Terms != nil {
		add("terms", *p.Terms)
	}
	if p.DiscountValue != nil {
		add("discount_value", *p.DiscountValue)
	}
	if p.MinOrderAmount != nil {
		add("min_order_amount", *p.MinOrderAmount)
	}
	if p.MaxDiscountAmount != nil {
		add("max_discount_amount", *p.MaxDiscountAmount)
	}
	if p.UsageLimit != nil {
		add("usage_limit", *p.UsageLimit)
	}
	if p.UserUsageLimit != nil {
		add("user_usage_limit", *p.UserUsageLimit)
	}
	if p.StartDate != nil {
		add("start_date", *p.StartDate)
	}
	if p.EndDate != nil {
		add("end_date", *p.EndDate)
	}
	if p.Active != nil {
		add("active", *p.Active)
	}

	sql := fmt.Sprintf("UPDATE coupons SET %s WHERE code = UPPER($1)", strings.Join(sets, ", "))
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("updating coupon %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, coupon.ErrNotFound
	}

	return r.FindByCode(ctx, code)
}

// List returns all coupons without their usage histories.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Redeem increments the usage counter and appends the usage row in one
// transaction. The coupon row is locked first; both guards are checked only
// after the lock is held. The per-user count in particular must run as its
// own statement here: a count folded into a conditional UPDATE is re-checked
// against the statement's original snapshot when racing writers unblock, and
// would let two requests from the same customer through a limit of one.
// Returns coupon.ErrInvalid when the coupon is missing, inactive, outside
// its window, or either cap is reached.
func (r *CouponRepository) Redeem(ctx context.Context, code string, u coupon.Usage) error {
	code = strings.ToUpper(code)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("redeeming coupon %q: %w", code, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var (
		active           bool
		start, end       time.Time
		limit, count     int
		perCustomerLimit int
	)
	err = tx.QueryRow(ctx, lockCouponSQL, code).Scan(&active, &start, &end, &limit, &count, &perCustomerLimit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coupon.ErrInvalid
		}
		return fmt.Errorf("locking coupon %q: %w", code, err)
	}
	if !active || u.UsedAt.Before(start) || u.UsedAt.After(end) {
		return coupon.ErrInvalid
	}
	if limit != 0 && count >= limit {
		return coupon.ErrInvalid
	}

	var used int
	if err := tx.QueryRow(ctx, countCustomerUsagesSQL, code, u.CustomerID).Scan(&used); err != nil {
		return fmt.Errorf("counting usages for coupon %q: %w", code, err)
	}
	if used >= perCustomerLimit {
		return coupon.ErrInvalid
	}

	if _, err := tx.Exec(ctx, bumpCouponUsageSQL, code); err != nil {
		return fmt.Errorf("redeeming coupon %q: %w", code, err)
	}
	if _, err := tx.Exec(ctx, insertCouponUsageSQL,
		code, u.CustomerID, u.UsedAt, u.OrderAmount, u.DiscountAmount,
	); err != nil {
		return fmt.Errorf("redeeming coupon %q: %w", code, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("redeeming coupon %q: %w", code, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c            coupon.Coupon
		discountType string
	)
	err := row.Scan(
		&c.Code, &c.Description, &c.Terms, &discountType, &c.DiscountValue,
		&c.MinOrderAmount, &c.MaxDiscountAmount, &c.UsageLimit, &c.UsageCount, &c.UserUsageLimit,
		&c.ApplicableCategories, &c.ExcludedCategories, &c.ApplicableProducts, &c.ExcludedProducts,
		&c.StartDate, &c.EndDate, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	c.DiscountType = coupon.DiscountType(discountType)
	return c, err
}

func scanUsage(row pgx.CollectableRow) (coupon.Usage, error) {
	var u coupon.Usage
	err := row.Scan(&u.CustomerID, &u.UsedAt, &u.OrderAmount, &u.DiscountAmount)
	return u, err
}
