package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiranakart/kirana-backend/internal/domain/credit"
	"github.com/kiranakart/kirana-backend/internal/domain/customer"
)

type createCustomerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type creditAccountResponse struct {
	CreditLimit    decimal.Decimal `json:"creditLimit"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	Available      decimal.Decimal `json:"available"`
	CreditScore    int             `json:"creditScore"`
	Active         bool            `json:"active"`
	ApprovedBy     string          `json:"approvedBy,omitempty"`
	ApprovedAt     *time.Time      `json:"approvedAt,omitempty"`
	LastPayment    *time.Time      `json:"lastPaymentDate,omitempty"`
}

type customerResponse struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Phone     string                `json:"phone"`
	Email     string                `json:"email,omitempty"`
	Credit    creditAccountResponse `json:"credit"`
	CreatedAt time.Time             `json:"createdAt"`
}

func toCreditResponse(a credit.Account) creditAccountResponse {
	return creditAccountResponse{
		CreditLimit:    a.CreditLimit,
		CurrentBalance: a.CurrentBalance,
		Available:      a.Available(),
		CreditScore:    a.CreditScore,
		Active:         a.Active,
		ApprovedBy:     a.ApprovedBy,
		ApprovedAt:     a.ApprovedAt,
		LastPayment:    a.LastPaymentDate,
	}
}

func toCustomerResponse(c *customer.Customer) customerResponse {
	return customerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Credit:    toCreditResponse(c.Credit),
		CreatedAt: c.CreatedAt,
	}
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Name == "" || req.Phone == "" {
		badRequest(w, "name and phone are required")
		return
	}

	c := &customer.Customer{
		ID:    uuid.New().String(),
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
	}
	if err := s.customers.Create(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.customers.GetByID(r.Context(), c.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerResponse(created))
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.customers.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(c))
}
