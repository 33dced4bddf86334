package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ruh-al-oud/api/internal/services"
)

type stubCheckoutService struct {
	result      services.CheckoutResult
	checkoutErr error
	directErr   error

	lastSession string
	lastInput   services.DirectOrderInput
	directCalls int
	cartCalls   int
}

func (s *stubCheckoutService) Checkout(_ context.Context, sessionID string) (services.CheckoutResult, error) {
	s.cartCalls++
	s.lastSession = sessionID
	if s.checkoutErr != nil {
		return services.CheckoutResult{}, s.checkoutErr
	}
	return s.result, nil
}

func (s *stubCheckoutService) DirectOrder(_ context.Context, input services.DirectOrderInput) (services.CheckoutResult, error) {
	s.directCalls++
	s.lastInput = input
	if s.directErr != nil {
		return services.CheckoutResult{}, s.directErr
	}
	return s.result, nil
}

func newCheckoutRouter(t *testing.T, checkout services.CheckoutService) (http.Handler, services.CartService) {
	t.Helper()
	carts, err := services.NewCartService(services.CartServiceDeps{})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	h := NewCheckoutHandlers(checkout, carts, "")
	return NewRouter(WithCheckoutRoutes(h.Routes)), carts
}

func TestCheckoutCartHandOff(t *testing.T) {
	stub := &stubCheckoutService{result: services.CheckoutResult{
		WhatsAppURL:   "https://wa.me/918848320553?text=order",
		Message:       "order",
		TotalQuantity: 2,
		TotalAmount:   1998,
	}}
	router, carts := newCheckoutRouter(t, stub)
	session := carts.EnsureSession("")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout", nil)
	req.Header.Set(defaultSessionHeader, session)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.cartCalls != 1 || stub.directCalls != 0 {
		t.Fatalf("expected cart checkout, got %d cart %d direct", stub.cartCalls, stub.directCalls)
	}
	if stub.lastSession != session {
		t.Fatalf("expected session %q, got %q", session, stub.lastSession)
	}

	var body struct {
		WhatsAppURL   string `json:"whatsappUrl"`
		TotalQuantity int    `json:"totalQuantity"`
		TotalAmount   int64  `json:"totalAmount"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.WhatsAppURL != stub.result.WhatsAppURL || body.TotalAmount != 1998 {
		t.Fatalf("unexpected response %s", rr.Body.String())
	}
}

func TestCheckoutDirectOrder(t *testing.T) {
	stub := &stubCheckoutService{result: services.CheckoutResult{WhatsAppURL: "https://wa.me/918848320553?text=x"}}
	router, _ := newCheckoutRouter(t, stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout",
		strings.NewReader(`{"productId":"p9","sizeLabel":"60ml","quantity":2}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.directCalls != 1 || stub.cartCalls != 0 {
		t.Fatalf("expected direct order, got %d direct %d cart", stub.directCalls, stub.cartCalls)
	}
	if stub.lastInput.ProductID != "p9" || stub.lastInput.SizeLabel != "60ml" || stub.lastInput.Quantity != 2 {
		t.Fatalf("unexpected input %#v", stub.lastInput)
	}
}

func TestCheckoutEmptyCartReturnsConflict(t *testing.T) {
	stub := &stubCheckoutService{checkoutErr: services.ErrCheckoutEmptyCart}
	router, _ := newCheckoutRouter(t, stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestCheckoutUnknownSizeReturnsBadRequest(t *testing.T) {
	stub := &stubCheckoutService{directErr: services.ErrCheckoutUnknownSize}
	router, _ := newCheckoutRouter(t, stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout",
		strings.NewReader(`{"productId":"p9","sizeLabel":"5ml"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestCheckoutUnknownProductReturnsNotFound(t *testing.T) {
	stub := &stubCheckoutService{directErr: services.ErrCatalogProductNotFound}
	router, _ := newCheckoutRouter(t, stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout",
		strings.NewReader(`{"productId":"ghost","sizeLabel":"60ml"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestCheckoutRateLimitsBySession(t *testing.T) {
	stub := &stubCheckoutService{result: services.CheckoutResult{WhatsAppURL: "https://wa.me/x"}}
	router, carts := newCheckoutRouter(t, stub)
	session := carts.EnsureSession("")

	var last int
	for i := 0; i < checkoutRateLimit+1; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout", nil)
		req.Header.Set(defaultSessionHeader, session)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 after burst, got %d", last)
	}
}
