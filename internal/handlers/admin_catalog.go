package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ruh-al-oud/api/internal/platform/auth"
	"github.com/ruh-al-oud/api/internal/platform/httpx"
	"github.com/ruh-al-oud/api/internal/services"
)

const maxAdminProductBodySize = 256 * 1024

// AdminCatalogHandlers exposes the dashboard product management endpoints.
type AdminCatalogHandlers struct {
	authn   *auth.Authenticator
	admin   services.AdminCatalogService
	catalog services.CatalogService
}

// NewAdminCatalogHandlers constructs admin handlers guarded by Firebase authentication.
func NewAdminCatalogHandlers(authn *auth.Authenticator, admin services.AdminCatalogService, catalog services.CatalogService) *AdminCatalogHandlers {
	return &AdminCatalogHandlers{
		authn:   authn,
		admin:   admin,
		catalog: catalog,
	}
}

// Routes registers admin endpoints; every route requires the admin role.
func (h *AdminCatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleAdmin))
	}
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Put("/products/{productID}", h.updateProduct)
	r.Delete("/products/{productID}", h.deleteProduct)
	r.Post("/products:seed", h.seedProducts)
	r.Post("/uploads", h.createUploadURL)
}

type adminProductRequest struct {
	Name        string             `json:"name"`
	Category    string             `json:"category"`
	Subcategory string             `json:"subcategory"`
	Description string             `json:"description"`
	ImageURL    string             `json:"imageUrl"`
	Sizes       []adminProductSize `json:"sizes"`
}

type adminProductSize struct {
	Label     string `json:"label"`
	Price     int64  `json:"price"`
	FullPrice int64  `json:"fullPrice"`
}

type seedReportResponse struct {
	Inserted []productPayload  `json:"inserted"`
	Failed   []seedFailureItem `json:"failed"`
}

type seedFailureItem struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type uploadTicketResponse struct {
	UploadID  string            `json:"uploadId"`
	ObjectKey string            `json:"objectKey"`
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresAt string            `json:"expiresAt"`
}

type uploadURLRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

func (h *AdminCatalogHandlers) requireIdentity(ctx context.Context, w http.ResponseWriter) bool {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return false
	}
	return true
}

func (h *AdminCatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}
	if !h.requireIdentity(ctx, w) {
		return
	}

	products, err := h.catalog.ListProducts(ctx, services.CatalogQuery{})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	items := make([]productPayload, 0, len(products))
	for _, product := range products {
		items = append(items, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, productListResponse{Items: items, Count: len(items)})
}

func (h *AdminCatalogHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, "")
}

func (h *AdminCatalogHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, chi.URLParam(r, "productID"))
}

func (h *AdminCatalogHandlers) saveProduct(w http.ResponseWriter, r *http.Request, productID string) {
	ctx := r.Context()
	if h.admin == nil {
		httpx.WriteError(ctx, w, httpx.NewError("admin_unavailable", "admin catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}
	if !h.requireIdentity(ctx, w) {
		return
	}

	req, ok := decodeAdminProductRequest(ctx, w, r)
	if !ok {
		return
	}

	input := services.ProductInput{
		Name:        req.Name,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	for _, size := range req.Sizes {
		input.Sizes = append(input.Sizes, services.ProductSizeInput{
			Label:     size.Label,
			Price:     size.Price,
			FullPrice: size.FullPrice,
		})
	}

	var (
		product = services.Product{}
		err     error
	)
	if productID == "" {
		product, err = h.admin.CreateProduct(ctx, input)
	} else {
		product, err = h.admin.UpdateProduct(ctx, productID, input)
	}
	if err != nil {
		writeAdminCatalogError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, productResponse{Product: buildProductPayload(product)})
}

func (h *AdminCatalogHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.admin == nil {
		httpx.WriteError(ctx, w, httpx.NewError("admin_unavailable", "admin catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}
	if !h.requireIdentity(ctx, w) {
		return
	}

	if err := h.admin.DeleteProduct(ctx, chi.URLParam(r, "productID")); err != nil {
		writeAdminCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminCatalogHandlers) seedProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.admin == nil {
		httpx.WriteError(ctx, w, httpx.NewError("admin_unavailable", "admin catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}
	if !h.requireIdentity(ctx, w) {
		return
	}

	report, err := h.admin.SeedDemoProducts(ctx)
	if err != nil {
		writeAdminCatalogError(ctx, w, err)
		return
	}

	response := seedReportResponse{
		Inserted: make([]productPayload, 0, len(report.Inserted)),
		Failed:   make([]seedFailureItem, 0, len(report.Failed)),
	}
	for _, product := range report.Inserted {
		response.Inserted = append(response.Inserted, buildProductPayload(product))
	}
	for _, failure := range report.Failed {
		response.Failed = append(response.Failed, seedFailureItem{Name: failure.Name, Reason: failure.Reason})
	}

	status := http.StatusCreated
	if len(response.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	writeJSONResponse(w, status, response)
}

func (h *AdminCatalogHandlers) createUploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.admin == nil {
		httpx.WriteError(ctx, w, httpx.NewError("admin_unavailable", "admin catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}
	if !h.requireIdentity(ctx, w) {
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	var req uploadURLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	ticket, err := h.admin.ImageUploadURL(ctx, services.UploadRequest{
		FileName:    req.FileName,
		ContentType: req.ContentType,
	})
	if err != nil {
		writeAdminCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, uploadTicketResponse{
		UploadID:  ticket.UploadID,
		ObjectKey: ticket.ObjectKey,
		URL:       ticket.URL,
		Method:    ticket.Method,
		Headers:   ticket.Headers,
		ExpiresAt: formatTime(ticket.ExpiresAt),
	})
}

func decodeAdminProductRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) (adminProductRequest, bool) {
	var req adminProductRequest
	body, err := readLimitedBody(r, maxAdminProductBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return req, false
	}
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return req, false
	}
	return req, true
}

func writeAdminCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAdminCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrAdminProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrAdminCatalogConflict):
		httpx.WriteError(ctx, w, httpx.NewError("product_conflict", "product was modified concurrently; retry", http.StatusConflict))
	case errors.Is(err, services.ErrAdminCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog store is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("admin_error", "failed to apply catalog change", http.StatusInternalServerError))
	}
}
