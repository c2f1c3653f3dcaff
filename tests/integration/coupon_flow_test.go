//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
)

func TestCouponValidateAndRedeem(t *testing.T) {
	c := newCustomer(t, "Anil")

	// WELCOME10: 10% off orders over 500, capped at 100, one use per customer.
	validate := func() *http.Response {
		return doPost(t, "/api/coupons/validate", map[string]any{
			"code":        "welcome10",
			"customerId":  c.ID,
			"orderAmount": "840.00",
		})
	}

	resp := validate()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("validate: status %d", resp.StatusCode)
	}
	quoted := decodeJSON[validateResponse](t, resp)
	resp.Body.Close()

	if quoted.Code != "WELCOME10" {
		t.Fatalf("code = %s, want WELCOME10", quoted.Code)
	}
	if amt(t, quoted.DiscountAmount) != 84 {
		t.Fatalf("discount = %s, want 84.00", quoted.DiscountAmount)
	}

	// Place the order with the coupon: rice 420 + atta 250 + oil 145 = 815.
	resp = doPost(t, "/api/orders", map[string]any{
		"customerId": c.ID,
		"items": []map[string]any{
			{"productId": "rice-5kg", "quantity": 1},
			{"productId": "atta-5kg", "quantity": 1},
			{"productId": "oil-1l", "quantity": 1},
		},
		"couponCode": "WELCOME10",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place order: status %d", resp.StatusCode)
	}
	placed := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	if !placed.Discount.Applied {
		t.Fatalf("discount not applied: %s", placed.Discount.Reason)
	}
	if amt(t, placed.Order.Subtotal) != 815 {
		t.Fatalf("subtotal = %s, want 815.00", placed.Order.Subtotal)
	}
	if amt(t, placed.Order.Discount) != 81.5 {
		t.Fatalf("discount = %s, want 81.50", placed.Order.Discount)
	}
	if amt(t, placed.Order.Total) != 733.5 {
		t.Fatalf("total = %s, want 733.50", placed.Order.Total)
	}

	// One use per customer: the second attempt is rejected.
	resp = validate()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second validate: status %d, want 409", resp.StatusCode)
	}
}

func TestConcurrentRedeemsHonourPerCustomerLimit(t *testing.T) {
	c := newCustomer(t, "Ravi")

	// WELCOME10 allows one use per customer. Fire several orders at once for
	// the same customer: every order succeeds (coupon failure is soft), but
	// exactly one of them may carry the discount.
	const workers = 6
	body, err := json.Marshal(map[string]any{
		"customerId": c.ID,
		"items": []map[string]any{
			{"productId": "rice-5kg", "quantity": 1},
			{"productId": "atta-5kg", "quantity": 1},
		},
		"couponCode": "WELCOME10",
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	var (
		wg      sync.WaitGroup
		results = make(chan orderResponse, workers)
		errs    = make(chan error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := http.NewRequestWithContext(context.Background(),
				http.MethodPost, baseURL+"/api/orders", bytes.NewReader(body))
			if err != nil {
				errs <- err
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+adminToken)

			resp, err := httpClient.Do(req)
			if err != nil {
				errs <- err
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				errs <- fmt.Errorf("place order: status %d", resp.StatusCode)
				return
			}
			var placed orderResponse
			if err := json.NewDecoder(resp.Body).Decode(&placed); err != nil {
				errs <- err
				return
			}
			results <- placed
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent order: %v", err)
	}

	applied := 0
	for placed := range results {
		if placed.Discount.Applied {
			applied++
			if amt(t, placed.Order.Discount) != 67 {
				t.Fatalf("discount = %s, want 67.00", placed.Order.Discount)
			}
		} else if amt(t, placed.Order.Total) != amt(t, placed.Order.Subtotal) {
			t.Fatalf("undiscounted order: total %s != subtotal %s",
				placed.Order.Total, placed.Order.Subtotal)
		}
	}
	if applied != 1 {
		t.Fatalf("discount applied on %d orders, want exactly 1", applied)
	}
}

func TestCouponFailureDoesNotBlockOrder(t *testing.T) {
	c := newCustomer(t, "Meena")

	resp := doPost(t, "/api/orders", map[string]any{
		"customerId": c.ID,
		"items":      []map[string]any{{"productId": "milk-1l", "quantity": 1}},
		"couponCode": "NO-SUCH-CODE",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place order: status %d", resp.StatusCode)
	}
	placed := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	if placed.Discount.Applied {
		t.Fatal("unknown coupon must not apply a discount")
	}
	if placed.Discount.Reason == "" {
		t.Fatal("soft-failed coupon should carry a reason")
	}
	if amt(t, placed.Order.Total) != amt(t, placed.Order.Subtotal) {
		t.Fatalf("total %s should equal subtotal %s", placed.Order.Total, placed.Order.Subtotal)
	}
}

func TestCategoryCouponSkipsOtherCategories(t *testing.T) {
	c := newCustomer(t, "Suresh")

	// DAIRY30 is a flat 30 off dairy items; a staples-only cart over the
	// minimum gets no discount.
	resp := doPost(t, "/api/coupons/validate", map[string]any{
		"code":        "DAIRY30",
		"customerId":  c.ID,
		"orderAmount": "420.00",
		"items": []map[string]any{
			{"productId": "rice-5kg", "category": "staples", "price": "420.00", "quantity": 1},
		},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}

func TestProductsSeeded(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	products := decodeJSON[[]productResponse](t, resp)
	if len(products) < 15 {
		t.Fatalf("got %d products, want the full seeded catalog", len(products))
	}
}
