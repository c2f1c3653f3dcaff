package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kiranakart/kirana-backend/internal/domain/credit"
)

type transactionResponse struct {
	ID               int64           `json:"id"`
	CustomerID       string          `json:"customerId"`
	OrderID          string          `json:"orderId,omitempty"`
	Type             string          `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	Description      string          `json:"description,omitempty"`
	BalanceBefore    decimal.Decimal `json:"balanceBefore"`
	BalanceAfter     decimal.Decimal `json:"balanceAfter"`
	Status           string          `json:"status"`
	PaymentMethod    string          `json:"paymentMethod,omitempty"`
	PaymentReference string          `json:"paymentReference,omitempty"`
	DueDate          *time.Time      `json:"dueDate,omitempty"`
	PaidDate         *time.Time      `json:"paidDate,omitempty"`
	ReceiptNumber    string          `json:"receiptNumber,omitempty"`
	ProcessedBy      string          `json:"processedBy,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

func toTransactionResponse(t credit.Transaction) transactionResponse {
	return transactionResponse{
		ID:               t.ID,
		CustomerID:       t.CustomerID,
		OrderID:          t.OrderID,
		Type:             string(t.Type),
		Amount:           t.Amount,
		Description:      t.Description,
		BalanceBefore:    t.BalanceBefore,
		BalanceAfter:     t.BalanceAfter,
		Status:           string(t.Status),
		PaymentMethod:    t.PaymentMethod,
		PaymentReference: t.PaymentReference,
		DueDate:          t.DueDate,
		PaidDate:         t.PaidDate,
		ReceiptNumber:    t.ReceiptNumber,
		ProcessedBy:      t.ProcessedBy,
		Notes:            t.Notes,
		CreatedAt:        t.CreatedAt,
	}
}

type recordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
}

type recordPaymentResponse struct {
	Transaction transactionResponse `json:"transaction"`
	NewBalance  decimal.Decimal     `json:"newBalance"`
	Requested   decimal.Decimal     `json:"requested"`
	Applied     decimal.Decimal     `json:"applied"`
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	actor, _ := actorFrom(r.Context())
	result, err := s.credits.RecordPayment(r.Context(), credit.PaymentRequest{
		CustomerID:  chi.URLParam(r, "id"),
		Amount:      req.Amount,
		Method:      req.Method,
		Reference:   req.Reference,
		Notes:       req.Notes,
		ProcessedBy: actor.Username,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, recordPaymentResponse{
		Transaction: toTransactionResponse(*result.Transaction),
		NewBalance:  result.NewBalance,
		Requested:   result.Requested,
		Applied:     result.Applied,
	})
}

type adjustCreditRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

type adjustCreditResponse struct {
	Transaction transactionResponse `json:"transaction"`
	NewBalance  decimal.Decimal     `json:"newBalance"`
}

func (s *Server) handleAdjustCredit(w http.ResponseWriter, r *http.Request) {
	var req adjustCreditRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	actor, _ := actorFrom(r.Context())
	result, err := s.credits.Adjust(r.Context(), credit.AdjustmentRequest{
		CustomerID:  chi.URLParam(r, "id"),
		Amount:      req.Amount,
		Reason:      req.Reason,
		ProcessedBy: actor.Username,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, adjustCreditResponse{
		Transaction: toTransactionResponse(*result.Transaction),
		NewBalance:  result.NewBalance,
	})
}

type approveCreditRequest struct {
	CreditLimit decimal.Decimal `json:"creditLimit"`
}

func (s *Server) handleApproveCredit(w http.ResponseWriter, r *http.Request) {
	var req approveCreditRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	actor, _ := actorFrom(r.Context())
	tx, err := s.credits.Approve(r.Context(), chi.URLParam(r, "id"), req.CreditLimit, actor.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(*tx))
}

type deactivateCreditRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleDeactivateCredit(w http.ResponseWriter, r *http.Request) {
	var req deactivateCreditRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	actor, _ := actorFrom(r.Context())
	tx, err := s.credits.Deactivate(r.Context(), chi.URLParam(r, "id"), req.Reason, actor.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(*tx))
}

func (s *Server) handleCreditStatement(w http.ResponseWriter, r *http.Request) {
	txs, err := s.credits.Statement(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}
