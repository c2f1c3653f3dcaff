// Command seed-db loads the product catalog, a set of demo coupons, and an
// initial admin staff account into the database. Safe to re-run: every write
// is an upsert.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kiranakart/kirana-backend/internal/auth"
	"github.com/kiranakart/kirana-backend/internal/repository"
)

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Unit     string          `json:"unit"`
}

const (
	upsertProductSQL = `INSERT INTO products (id, name, category, price, unit, in_stock)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, category = EXCLUDED.category,
			price = EXCLUDED.price, unit = EXCLUDED.unit`

	upsertCouponSQL = `INSERT INTO coupons (code, description, discount_type, discount_value,
		min_order_amount, max_discount_amount, usage_limit, user_usage_limit,
		applicable_categories, start_date, end_date, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE)
		ON CONFLICT (code) DO NOTHING`

	upsertStaffSQL = `INSERT INTO staff (id, username, password_hash, role, active)
		VALUES ($1, $2, $3, 'admin', TRUE)
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash`
)

func main() {
	var (
		databaseURL   string
		productsFile  string
		adminUser     string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&adminUser, "admin-user", "admin", "username for the seeded admin account")
	flag.StringVar(&adminPassword, "admin-password", "", "password for the seeded admin account (or KIRANA_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("KIRANA_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or KIRANA_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, adminUser, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, adminUser, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if err := seedAdmin(ctx, pool, adminUser, adminPassword); err != nil {
		return errors.Wrap(err, "seed admin account")
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	for _, p := range products {
		unit := p.Unit
		if unit == "" {
			unit = "pc"
		}
		if _, err := pool.Exec(ctx, upsertProductSQL, p.ID, p.Name, p.Category, p.Price, unit); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
	}

	slog.Info("products seeded", slog.Int("count", len(products)))
	return nil
}

type seedCoupon struct {
	code        string
	description string
	typ         string
	value       string
	minOrder    string
	maxDiscount *string
	usageLimit  int
	userLimit   int
	categories  []string
	days        int
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	cap100 := "100.00"
	demo := []seedCoupon{
		{
			code: "WELCOME10", description: "10% off your first order over 500",
			typ: "percentage", value: "10", minOrder: "500.00", maxDiscount: &cap100,
			usageLimit: 0, userLimit: 1, days: 365,
		},
		{
			code: "DAIRY30", description: "Flat 30 off dairy items",
			typ: "fixed", value: "30.00", minOrder: "150.00",
			usageLimit: 500, userLimit: 3, categories: []string{"dairy"}, days: 90,
		},
		{
			code: "FESTIVE15", description: "15% off festive season orders",
			typ: "percentage", value: "15", minOrder: "1000.00",
			usageLimit: 200, userLimit: 2, days: 30,
		},
	}

	now := time.Now()
	for _, c := range demo {
		categories := c.categories
		if categories == nil {
			categories = []string{}
		}
		_, err := pool.Exec(ctx, upsertCouponSQL,
			c.code, c.description, c.typ, c.value, c.minOrder, c.maxDiscount,
			c.usageLimit, c.userLimit, categories, now, now.AddDate(0, 0, c.days),
		)
		if err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}
	}

	slog.Info("coupons seeded", slog.Int("count", len(demo)))
	return nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, username, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, upsertStaffSQL, uuid.New().String(), username, hash); err != nil {
		return errors.Wrapf(err, "upsert staff %s", username)
	}

	slog.Info("admin account seeded", slog.String("username", username))
	return nil
}
