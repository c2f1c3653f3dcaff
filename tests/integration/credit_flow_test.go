//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"
)

// amt parses a decimal string from a response for numeric comparison, since
// "0" and "0.00" are the same amount.
func amt(t *testing.T, s string) float64 {
	t.Helper()

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.Fatalf("parse amount %q: %v", s, err)
	}
	return v
}

// newCustomer registers a customer with a unique phone number and returns it.
func newCustomer(t *testing.T, name string) customerResponse {
	t.Helper()

	resp := doPost(t, "/api/customers", map[string]any{
		"name":  name,
		"phone": fmt.Sprintf("98%09d", time.Now().UnixNano()%1_000_000_000),
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create customer: status %d", resp.StatusCode)
	}
	return decodeJSON[customerResponse](t, resp)
}

func approveCredit(t *testing.T, customerID, limit string) {
	t.Helper()

	resp := doPost(t, "/api/customers/"+customerID+"/credit/approve", map[string]any{
		"creditLimit": limit,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("approve credit: status %d", resp.StatusCode)
	}
}

func TestCreditLifecycle(t *testing.T) {
	c := newCustomer(t, "Lakshmi")
	if c.Credit.Active {
		t.Fatal("new customer credit should start unapproved")
	}

	approveCredit(t, c.ID, "1000.00")

	// Buy rice on credit.
	resp := doPost(t, "/api/orders", map[string]any{
		"customerId":  c.ID,
		"items":       []map[string]any{{"productId": "rice-5kg", "quantity": 1}},
		"payOnCredit": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place order: status %d", resp.StatusCode)
	}
	placed := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	if placed.CreditTransaction == nil {
		t.Fatal("credit order should return a ledger transaction")
	}
	if placed.CreditTransaction.Type != "credit_used" {
		t.Fatalf("transaction type = %s, want credit_used", placed.CreditTransaction.Type)
	}

	// Overpay: payment must cap at the balance.
	resp = doPost(t, "/api/customers/"+c.ID+"/credit/payments", map[string]any{
		"amount": "9999.00",
		"method": "cash",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("record payment: status %d", resp.StatusCode)
	}
	payment := decodeJSON[paymentResponse](t, resp)
	resp.Body.Close()

	if amt(t, payment.Applied) != amt(t, placed.Order.Total) {
		t.Fatalf("applied = %s, want %s", payment.Applied, placed.Order.Total)
	}
	if amt(t, payment.NewBalance) != 0 {
		t.Fatalf("new balance = %s, want 0", payment.NewBalance)
	}
	if !strings.HasPrefix(payment.Transaction.ReceiptNumber, "RCP-") {
		t.Fatalf("receipt number = %q, want RCP- prefix", payment.Transaction.ReceiptNumber)
	}

	// With a zero balance, deactivation succeeds.
	resp = doPost(t, "/api/customers/"+c.ID+"/credit/deactivate", map[string]any{
		"reason": "customer request",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("deactivate: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Statement shows the full history in order.
	resp = doGet(t, "/api/customers/"+c.ID+"/credit/statement")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("statement: status %d", resp.StatusCode)
	}
	statement := decodeJSON[[]transactionResponse](t, resp)
	resp.Body.Close()

	wantTypes := []string{"credit_adjustment", "credit_used", "payment_received", "credit_adjustment"}
	if len(statement) != len(wantTypes) {
		t.Fatalf("statement rows = %d, want %d", len(statement), len(wantTypes))
	}
	for i, want := range wantTypes {
		if statement[i].Type != want {
			t.Fatalf("statement[%d].Type = %s, want %s", i, statement[i].Type, want)
		}
	}
	// Snapshots must chain.
	for i := 1; i < len(statement); i++ {
		if amt(t, statement[i].BalanceBefore) != amt(t, statement[i-1].BalanceAfter) {
			t.Fatalf("row %d balanceBefore %s does not chain with %s",
				i, statement[i].BalanceBefore, statement[i-1].BalanceAfter)
		}
	}
}

func TestCreditInsufficientHeadroom(t *testing.T) {
	c := newCustomer(t, "Ravi")
	approveCredit(t, c.ID, "100.00")

	resp := doPost(t, "/api/orders", map[string]any{
		"customerId":  c.ID,
		"items":       []map[string]any{{"productId": "rice-5kg", "quantity": 1}},
		"payOnCredit": true,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	// The rejected order must leave no trace in the ledger.
	stResp := doGet(t, "/api/customers/"+c.ID+"/credit/statement")
	defer stResp.Body.Close()
	statement := decodeJSON[[]transactionResponse](t, stResp)
	for _, tx := range statement {
		if tx.Type == "credit_used" {
			t.Fatalf("rejected order wrote a credit_used row: %+v", tx)
		}
	}
}

func TestDeactivateWithOutstandingBalanceFails(t *testing.T) {
	c := newCustomer(t, "Geeta")
	approveCredit(t, c.ID, "1000.00")

	resp := doPost(t, "/api/orders", map[string]any{
		"customerId":  c.ID,
		"items":       []map[string]any{{"productId": "milk-1l", "quantity": 1}},
		"payOnCredit": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place order: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doPost(t, "/api/customers/"+c.ID+"/credit/deactivate", map[string]any{
		"reason": "attempting close with debt",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}
