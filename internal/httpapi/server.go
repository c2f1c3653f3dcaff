// Package httpapi exposes the store's counter and admin operations over
// HTTP. All routes except login and the probes require a staff bearer token;
// credit approval requires the admin role.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kiranakart/kirana-backend/internal/auth"
	"github.com/kiranakart/kirana-backend/internal/domain/coupon"
	"github.com/kiranakart/kirana-backend/internal/domain/credit"
	"github.com/kiranakart/kirana-backend/internal/domain/customer"
	"github.com/kiranakart/kirana-backend/internal/domain/order"
	"github.com/kiranakart/kirana-backend/internal/domain/product"
)

// Server holds the handlers' dependencies.
type Server struct {
	auth      *auth.Authenticator
	products  product.Repository
	customers customer.Repository
	coupons   *coupon.Service
	couponSt  coupon.Repository
	credits   *credit.Service
	orders    *order.Service
}

// NewServer wires the services into a Server.
func NewServer(
	authenticator *auth.Authenticator,
	products product.Repository,
	customers customer.Repository,
	coupons *coupon.Service,
	couponStore coupon.Repository,
	credits *credit.Service,
	orders *order.Service,
) *Server {
	return &Server{
		auth:      authenticator,
		products:  products,
		customers: customers,
		coupons:   coupons,
		couponSt:  couponStore,
		credits:   credits,
		orders:    orders,
	}
}

// Routes builds the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireStaff)

		r.Get("/products", s.handleListProducts)
		r.Get("/products/{id}", s.handleGetProduct)

		r.Post("/customers", s.handleCreateCustomer)
		r.Get("/customers/{id}", s.handleGetCustomer)

		r.Post("/coupons/validate", s.handleValidateCoupon)

		r.Post("/orders", s.handlePlaceOrder)
		r.Get("/orders/{id}", s.handleGetOrder)

		r.Route("/customers/{id}/credit", func(r chi.Router) {
			r.Post("/payments", s.handleRecordPayment)
			r.Post("/adjustments", s.handleAdjustCredit)
			r.Post("/deactivate", s.handleDeactivateCredit)
			r.Get("/statement", s.handleCreditStatement)

			r.With(s.requireAdmin).Post("/approve", s.handleApproveCredit)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/coupons", s.handleCreateCoupon)
			r.Get("/coupons", s.handleListCoupons)
			r.Patch("/coupons/{code}", s.handleUpdateCoupon)
		})
	})

	return r
}
