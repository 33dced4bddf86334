package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ruh-al-oud/api/internal/services"
)

func newCartRouter(t *testing.T) (http.Handler, services.CartService) {
	t.Helper()
	carts, err := services.NewCartService(services.CartServiceDeps{})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	h := NewCartHandlers(carts, "")
	return NewRouter(WithCartRoutes(h.Routes)), carts
}

type cartTestResponse struct {
	SessionID string `json:"sessionId"`
	Items     []struct {
		ProductID string `json:"productId"`
		SizeLabel string `json:"sizeLabel"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
	TotalQuantity int    `json:"totalQuantity"`
	Subtotal      int64  `json:"subtotal"`
	Change        string `json:"change"`
}

func doCartRequest(t *testing.T, router http.Handler, method, path, session, body string) (*httptest.ResponseRecorder, cartTestResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if session != "" {
		req.Header.Set(defaultSessionHeader, session)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var parsed cartTestResponse
	if rr.Code == http.StatusOK {
		if err := json.Unmarshal(rr.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("parse response: %v", err)
		}
	}
	return rr, parsed
}

func TestCartGetMintsSession(t *testing.T) {
	router, _ := newCartRouter(t)

	rr, body := doCartRequest(t, router, http.MethodGet, "/api/v1/cart", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get(defaultSessionHeader) == "" {
		t.Fatalf("expected session header to be set")
	}
	if body.SessionID != rr.Header().Get(defaultSessionHeader) {
		t.Fatalf("expected body session to match header")
	}
	if len(body.Items) != 0 || body.Subtotal != 0 {
		t.Fatalf("expected empty cart, got %s", rr.Body.String())
	}
}

func TestCartAddItemThenIncrement(t *testing.T) {
	router, _ := newCartRouter(t)
	payload := `{"productId":"p1","productName":"Oud Royale","sizeLabel":"12ml","unitPrice":999}`

	rr, body := doCartRequest(t, router, http.MethodPost, "/api/v1/cart/items", "", payload)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if body.Change != "added" || body.TotalQuantity != 1 {
		t.Fatalf("expected added change, got %s", rr.Body.String())
	}

	session := rr.Header().Get(defaultSessionHeader)
	rr, body = doCartRequest(t, router, http.MethodPost, "/api/v1/cart/items", session, payload)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if body.Change != "incremented" || body.TotalQuantity != 2 || body.Subtotal != 1998 {
		t.Fatalf("expected incremented line, got %s", rr.Body.String())
	}
	if len(body.Items) != 1 || body.Items[0].Quantity != 2 {
		t.Fatalf("expected single line qty 2, got %s", rr.Body.String())
	}
}

func TestCartUpdateQuantityZeroRemovesLine(t *testing.T) {
	router, _ := newCartRouter(t)

	rr, _ := doCartRequest(t, router, http.MethodPost, "/api/v1/cart/items", "",
		`{"productId":"p1","productName":"Oud Royale","sizeLabel":"12ml","unitPrice":999}`)
	session := rr.Header().Get(defaultSessionHeader)

	rr, body := doCartRequest(t, router, http.MethodPatch, "/api/v1/cart/items", session,
		`{"productId":"p1","sizeLabel":"12ml","quantity":0}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if body.Change != "removed" || len(body.Items) != 0 {
		t.Fatalf("expected line removed, got %s", rr.Body.String())
	}
}

func TestCartRemoveAbsentLineIsNoop(t *testing.T) {
	router, _ := newCartRouter(t)

	rr, body := doCartRequest(t, router, http.MethodDelete, "/api/v1/cart/items", "",
		`{"productId":"ghost","sizeLabel":"6ml"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if body.Change != "noop" {
		t.Fatalf("expected noop change, got %s", rr.Body.String())
	}
}

func TestCartClear(t *testing.T) {
	router, _ := newCartRouter(t)

	rr, _ := doCartRequest(t, router, http.MethodPost, "/api/v1/cart/items", "",
		`{"productId":"p1","productName":"Oud Royale","sizeLabel":"12ml","unitPrice":999}`)
	session := rr.Header().Get(defaultSessionHeader)

	rr, body := doCartRequest(t, router, http.MethodDelete, "/api/v1/cart", session, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(body.Items) != 0 || body.Subtotal != 0 {
		t.Fatalf("expected empty cart, got %s", rr.Body.String())
	}
}

func TestCartAddItemRejectsInvalidBody(t *testing.T) {
	router, _ := newCartRouter(t)

	rr, _ := doCartRequest(t, router, http.MethodPost, "/api/v1/cart/items", "", `{"sizeLabel":"12ml"`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	rr, _ = doCartRequest(t, router, http.MethodPost, "/api/v1/cart/items", "", `{"sizeLabel":"12ml"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for missing product id, got %d", rr.Code)
	}
}

func TestCartSessionHeaderIsRespected(t *testing.T) {
	router, carts := newCartRouter(t)
	session := carts.EnsureSession("")

	rr, body := doCartRequest(t, router, http.MethodGet, "/api/v1/cart", session, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if body.SessionID != session {
		t.Fatalf("expected session %q to be kept, got %q", session, body.SessionID)
	}
}
