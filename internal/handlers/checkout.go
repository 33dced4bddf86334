package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ruh-al-oud/api/internal/platform/httpx"
	"github.com/ruh-al-oud/api/internal/services"
)

const (
	maxCheckoutRequestBody = 8 * 1024

	checkoutRateLimit  = 10
	checkoutRateWindow = time.Minute
)

// CheckoutHandlers exposes the WhatsApp order hand-off endpoint. A body with a
// productId places a direct order; an empty body checks out the session cart.
type CheckoutHandlers struct {
	checkout      services.CheckoutService
	carts         services.CartService
	sessionHeader string
	limiter       rateLimiter
}

// NewCheckoutHandlers constructs checkout handlers bound to the session cart.
func NewCheckoutHandlers(checkout services.CheckoutService, carts services.CartService, sessionHeader string) *CheckoutHandlers {
	header := strings.TrimSpace(sessionHeader)
	if header == "" {
		header = defaultSessionHeader
	}
	return &CheckoutHandlers{
		checkout:      checkout,
		carts:         carts,
		sessionHeader: header,
		limiter:       newSimpleRateLimiter(checkoutRateLimit, checkoutRateWindow, nil),
	}
}

// Routes registers checkout endpoints under the cart group.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/checkout", h.placeOrder)
}

type directOrderRequest struct {
	ProductID string `json:"productId"`
	SizeLabel string `json:"sizeLabel"`
	Quantity  int    `json:"quantity"`
}

type checkoutResponse struct {
	WhatsAppURL   string `json:"whatsappUrl"`
	Message       string `json:"message"`
	TotalQuantity int    `json:"totalQuantity"`
	TotalAmount   int64  `json:"totalAmount"`
}

func (h *CheckoutHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil || h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
		return
	}

	sessionID := h.carts.EnsureSession(r.Header.Get(h.sessionHeader))
	w.Header().Set(h.sessionHeader, sessionID)

	if h.limiter != nil && !h.limiter.Allow(sessionID) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many checkout attempts; retry later", http.StatusTooManyRequests))
		return
	}

	body, err := readLimitedBody(r, maxCheckoutRequestBody)
	if err != nil && !errors.Is(err, errEmptyBody) {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return
	}

	var req directOrderRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
			return
		}
	}

	var result services.CheckoutResult
	if strings.TrimSpace(req.ProductID) != "" {
		result, err = h.checkout.DirectOrder(ctx, services.DirectOrderInput{
			ProductID: req.ProductID,
			SizeLabel: req.SizeLabel,
			Quantity:  req.Quantity,
		})
	} else {
		result, err = h.checkout.Checkout(ctx, sessionID)
	}
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, checkoutResponse{
		WhatsAppURL:   result.WhatsAppURL,
		Message:       result.Message,
		TotalQuantity: result.TotalQuantity,
		TotalAmount:   result.TotalAmount,
	})
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart has no items to order", http.StatusConflict))
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutUnknownSize):
		httpx.WriteError(ctx, w, httpx.NewError("unknown_size", "size does not belong to the product", http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "failed to build order hand-off", http.StatusInternalServerError))
	}
}
