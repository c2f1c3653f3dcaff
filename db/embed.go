// Package db carries the embedded SQL schema applied on startup.
package db

import _ "embed"

// Schema holds the full DDL for the store: products, customers, coupons,
// coupon usages, orders, credit transactions, and staff.
//
//go:embed migrations/001_schema.sql
var Schema string
