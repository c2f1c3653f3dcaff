package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kiranakart/kirana-backend/internal/domain/order"
)

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type placeOrderRequest struct {
	CustomerID  string             `json:"customerId"`
	Items       []orderItemRequest `json:"items"`
	CouponCode  string             `json:"couponCode"`
	PayOnCredit bool               `json:"payOnCredit"`
}

type discountOutcomeResponse struct {
	Applied bool            `json:"applied"`
	Code    string          `json:"code,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
	Reason  string          `json:"reason,omitempty"`
}

type orderResponse struct {
	ID           string            `json:"id"`
	CustomerID   string            `json:"customerId"`
	Items        []order.OrderItem `json:"items"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Discount     decimal.Decimal   `json:"discount"`
	Total        decimal.Decimal   `json:"total"`
	CouponCode   string            `json:"couponCode,omitempty"`
	PaidOnCredit bool              `json:"paidOnCredit"`
	CreatedAt    time.Time         `json:"createdAt"`
}

type placeOrderResponse struct {
	Order             orderResponse           `json:"order"`
	Discount          discountOutcomeResponse `json:"discount"`
	CreditTransaction *transactionResponse    `json:"creditTransaction,omitempty"`
}

func toOrderResponse(o *order.Order) orderResponse {
	return orderResponse{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		Items:        o.Items,
		Subtotal:     o.Subtotal,
		Discount:     o.Discount,
		Total:        o.Total,
		CouponCode:   o.CouponCode,
		PaidOnCredit: o.PaidOnCredit,
		CreatedAt:    o.CreatedAt,
	}
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.CustomerID == "" {
		badRequest(w, "customerId is required")
		return
	}

	actor, _ := actorFrom(r.Context())

	items := make([]order.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, order.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	result, err := s.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		CustomerID:  req.CustomerID,
		Items:       items,
		CouponCode:  req.CouponCode,
		PayOnCredit: req.PayOnCredit,
		ProcessedBy: actor.Username,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := placeOrderResponse{
		Order: toOrderResponse(result.Order),
		Discount: discountOutcomeResponse{
			Applied: result.Discount.Applied,
			Code:    result.Discount.Code,
			Amount:  result.Discount.Amount,
		},
	}
	if result.Discount.Reason != nil {
		resp.Discount.Reason = result.Discount.Reason.Error()
	}
	if result.CreditTransaction != nil {
		tx := toTransactionResponse(*result.CreditTransaction)
		resp.CreditTransaction = &tx
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}
