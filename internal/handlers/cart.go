package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/ruh-al-oud/api/internal/domain"
	"github.com/ruh-al-oud/api/internal/platform/httpx"
	"github.com/ruh-al-oud/api/internal/services"
)

const (
	maxCartBodySize      = 16 * 1024
	defaultSessionHeader = "X-Session-Id"
)

// CartHandlers exposes the anonymous session cart endpoints. The session is
// carried in a request header and echoed back so clients can persist it.
type CartHandlers struct {
	carts         services.CartService
	sessionHeader string
}

// NewCartHandlers constructs handlers bound to the session cart service.
func NewCartHandlers(carts services.CartService, sessionHeader string) *CartHandlers {
	header := strings.TrimSpace(sessionHeader)
	if header == "" {
		header = defaultSessionHeader
	}
	return &CartHandlers{
		carts:         carts,
		sessionHeader: header,
	}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Patch("/items", h.updateItem)
	r.Delete("/items", h.removeItem)
}

type cartResponse struct {
	SessionID     string            `json:"sessionId"`
	Items         []cartItemPayload `json:"items"`
	TotalQuantity int               `json:"totalQuantity"`
	Subtotal      int64             `json:"subtotal"`
	Change        string            `json:"change,omitempty"`
}

type cartItemPayload struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	SizeLabel   string `json:"sizeLabel"`
	UnitPrice   int64  `json:"unitPrice"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Quantity    int    `json:"quantity"`
}

type addCartItemRequest struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	SizeLabel   string `json:"sizeLabel"`
	UnitPrice   int64  `json:"unitPrice"`
	ImageURL    string `json:"imageUrl"`
}

type updateCartItemRequest struct {
	ProductID string `json:"productId"`
	SizeLabel string `json:"sizeLabel"`
	Quantity  int    `json:"quantity"`
}

type removeCartItemRequest struct {
	ProductID string `json:"productId"`
	SizeLabel string `json:"sizeLabel"`
}

func (h *CartHandlers) session(w http.ResponseWriter, r *http.Request) string {
	sessionID := h.carts.EnsureSession(r.Header.Get(h.sessionHeader))
	w.Header().Set(h.sessionHeader, sessionID)
	return sessionID
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	sessionID := h.session(w, r)
	view, err := h.carts.Get(ctx, sessionID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(view, domain.CartChange{}))
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	sessionID := h.session(w, r)
	view, err := h.carts.Clear(ctx, sessionID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(view, domain.CartChange{}))
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req addCartItemRequest
	if !decodeCartBody(ctx, w, r, &req) {
		return
	}

	sessionID := h.session(w, r)
	change, view, err := h.carts.AddItem(ctx, sessionID, services.AddItemInput{
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		SizeLabel:   req.SizeLabel,
		UnitPrice:   req.UnitPrice,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(view, change))
}

func (h *CartHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req updateCartItemRequest
	if !decodeCartBody(ctx, w, r, &req) {
		return
	}

	sessionID := h.session(w, r)
	change, view, err := h.carts.UpdateQuantity(ctx, sessionID, domain.NewCartItemKey(req.ProductID, req.SizeLabel), req.Quantity)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(view, change))
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req removeCartItemRequest
	if !decodeCartBody(ctx, w, r, &req) {
		return
	}

	sessionID := h.session(w, r)
	change, view, err := h.carts.RemoveItem(ctx, sessionID, domain.NewCartItemKey(req.ProductID, req.SizeLabel))
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(view, change))
}

func decodeCartBody(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}

func buildCartResponse(view services.CartView, change domain.CartChange) cartResponse {
	items := make([]cartItemPayload, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, cartItemPayload{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			SizeLabel:   item.SizeLabel,
			UnitPrice:   item.UnitPrice,
			ImageURL:    item.ImageURL,
			Quantity:    item.Quantity,
		})
	}
	return cartResponse{
		SessionID:     view.SessionID,
		Items:         items,
		TotalQuantity: view.TotalQuantity,
		Subtotal:      view.Subtotal,
		Change:        string(change.Kind),
	}
}

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "failed to update cart", http.StatusInternalServerError))
	}
}
