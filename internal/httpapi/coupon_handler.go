package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kiranakart/kirana-backend/internal/domain/coupon"
)

type couponItem struct {
	ProductID string          `json:"productId"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type validateCouponRequest struct {
	Code        string          `json:"code"`
	CustomerID  string          `json:"customerId"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
	Items       []couponItem    `json:"items"`
}

type validateCouponResponse struct {
	Code           string          `json:"code"`
	Description    string          `json:"description,omitempty"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

func toCouponItems(items []couponItem) []coupon.Item {
	out := make([]coupon.Item, 0, len(items))
	for _, it := range items {
		out = append(out, coupon.Item{
			ProductID: it.ProductID,
			Category:  it.Category,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return out
}

// handleValidateCoupon prices a coupon against a cart without consuming a
// use. The counter calls this while the basket is still open.
func (s *Server) handleValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Code == "" || req.CustomerID == "" {
		badRequest(w, "code and customerId are required")
		return
	}

	quote, err := s.coupons.Quote(r.Context(), req.Code, req.CustomerID, req.OrderAmount, toCouponItems(req.Items))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, validateCouponResponse{
		Code:           quote.Code,
		Description:    quote.Description,
		DiscountAmount: quote.DiscountAmount,
	})
}

type createCouponRequest struct {
	Code                 string              `json:"code"`
	Description          string              `json:"description"`
	Terms                string              `json:"terms"`
	DiscountType         string              `json:"discountType"`
	DiscountValue        decimal.Decimal     `json:"discountValue"`
	MinOrderAmount       decimal.Decimal     `json:"minOrderAmount"`
	MaxDiscountAmount    decimal.NullDecimal `json:"maxDiscountAmount"`
	UsageLimit           int                 `json:"usageLimit"`
	UserUsageLimit       int                 `json:"userUsageLimit"`
	ApplicableCategories []string            `json:"applicableCategories"`
	ExcludedCategories   []string            `json:"excludedCategories"`
	ApplicableProducts   []string            `json:"applicableProducts"`
	ExcludedProducts     []string            `json:"excludedProducts"`
	StartDate            time.Time           `json:"startDate"`
	EndDate              time.Time           `json:"endDate"`
	Active               *bool               `json:"active"`
}

type couponResponse struct {
	Code                 string              `json:"code"`
	Description          string              `json:"description,omitempty"`
	Terms                string              `json:"terms,omitempty"`
	DiscountType         string              `json:"discountType"`
	DiscountValue        decimal.Decimal     `json:"discountValue"`
	MinOrderAmount       decimal.Decimal     `json:"minOrderAmount"`
	MaxDiscountAmount    decimal.NullDecimal `json:"maxDiscountAmount"`
	UsageLimit           int                 `json:"usageLimit"`
	UsageCount           int                 `json:"usageCount"`
	UserUsageLimit       int                 `json:"userUsageLimit"`
	ApplicableCategories []string            `json:"applicableCategories"`
	ExcludedCategories   []string            `json:"excludedCategories"`
	ApplicableProducts   []string            `json:"applicableProducts"`
	ExcludedProducts     []string            `json:"excludedProducts"`
	StartDate            time.Time           `json:"startDate"`
	EndDate              time.Time           `json:"endDate"`
	Active               bool                `json:"active"`
}

func toCouponResponse(c *coupon.Coupon) couponResponse {
	return couponResponse{
		Code:                 c.Code,
		Description:          c.Description,
		Terms:                c.Terms,
		DiscountType:         string(c.DiscountType),
		DiscountValue:        c.DiscountValue,
		MinOrderAmount:       c.MinOrderAmount,
		MaxDiscountAmount:    c.MaxDiscountAmount,
		UsageLimit:           c.UsageLimit,
		UsageCount:           c.UsageCount,
		UserUsageLimit:       c.UserUsageLimit,
		ApplicableCategories: c.ApplicableCategories,
		ExcludedCategories:   c.ExcludedCategories,
		ApplicableProducts:   c.ApplicableProducts,
		ExcludedProducts:     c.ExcludedProducts,
		StartDate:            c.StartDate,
		EndDate:              c.EndDate,
		Active:               c.Active,
	}
}

func (s *Server) handleCreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Code == "" {
		badRequest(w, "code is required")
		return
	}
	typ := coupon.DiscountType(req.DiscountType)
	if typ != coupon.DiscountPercentage && typ != coupon.DiscountFixed {
		badRequest(w, "discountType must be percentage or fixed")
		return
	}
	if req.EndDate.Before(req.StartDate) {
		badRequest(w, "endDate must not be before startDate")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	userLimit := req.UserUsageLimit
	if userLimit <= 0 {
		userLimit = 1
	}

	c := &coupon.Coupon{
		Code:                 req.Code,
		Description:          req.Description,
		Terms:                req.Terms,
		DiscountType:         typ,
		DiscountValue:        req.DiscountValue,
		MinOrderAmount:       req.MinOrderAmount,
		MaxDiscountAmount:    req.MaxDiscountAmount,
		UsageLimit:           req.UsageLimit,
		UserUsageLimit:       userLimit,
		ApplicableCategories: req.ApplicableCategories,
		ExcludedCategories:   req.ExcludedCategories,
		ApplicableProducts:   req.ApplicableProducts,
		ExcludedProducts:     req.ExcludedProducts,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		Active:               active,
	}
	if err := s.couponSt.Create(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.couponSt.FindByCode(r.Context(), c.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCouponResponse(created))
}

func (s *Server) handleListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := s.couponSt.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]couponResponse, 0, len(coupons))
	for i := range coupons {
		out = append(out, toCouponResponse(&coupons[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// updateCouponRequest mirrors coupon.Patch: absent fields are left alone,
// present fields are applied, including explicit zero values.
type updateCouponRequest struct {
	Description       *string              `json:"description"`
	Terms             *string              `json:"terms"`
	DiscountValue     *decimal.Decimal     `json:"discountValue"`
	MinOrderAmount    *decimal.Decimal     `json:"minOrderAmount"`
	MaxDiscountAmount *decimal.NullDecimal `json:"maxDiscountAmount"`
	UsageLimit        *int                 `json:"usageLimit"`
	UserUsageLimit    *int                 `json:"userUsageLimit"`
	StartDate         *time.Time           `json:"startDate"`
	EndDate           *time.Time           `json:"endDate"`
	Active            *bool                `json:"active"`
}

func (s *Server) handleUpdateCoupon(w http.ResponseWriter, r *http.Request) {
	var req updateCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	updated, err := s.couponSt.Update(r.Context(), chi.URLParam(r, "code"), coupon.Patch{
		Description:       req.Description,
		Terms:             req.Terms,
		DiscountValue:     req.DiscountValue,
		MinOrderAmount:    req.MinOrderAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		UsageLimit:        req.UsageLimit,
		UserUsageLimit:    req.UserUsageLimit,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		Active:            req.Active,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCouponResponse(updated))
}
