package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/ruh-al-oud/api/internal/domain"
	"github.com/ruh-al-oud/api/internal/platform/httpx"
	"github.com/ruh-al-oud/api/internal/services"
)

// CatalogHandlers exposes the public storefront catalog endpoints.
type CatalogHandlers struct {
	catalog services.CatalogService
}

// NewCatalogHandlers constructs the storefront catalog handlers.
func NewCatalogHandlers(catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes wires the /catalog endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/attars", h.listCategory(domain.CategoryAttar))
	r.Get("/perfumes", h.listCategory(domain.CategoryPerfume))
}

type productListResponse struct {
	Items []productPayload `json:"items"`
	Count int              `json:"count"`
}

type productResponse struct {
	Product productPayload `json:"product"`
}

type productPayload struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Category    string               `json:"category"`
	Subcategory string               `json:"subcategory,omitempty"`
	Description string               `json:"description,omitempty"`
	ImageURL    string               `json:"imageUrl,omitempty"`
	Sizes       []productSizePayload `json:"sizes"`
	CreatedAt   string               `json:"createdAt,omitempty"`
}

type productSizePayload struct {
	Label     string `json:"label"`
	Price     int64  `json:"price"`
	FullPrice int64  `json:"fullPrice,omitempty"`
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	query := services.CatalogQuery{
		Search:      r.URL.Query().Get("search"),
		Subcategory: r.URL.Query().Get("subcategory"),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		if !domain.ValidCategory(raw) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("unknown category %q", raw), http.StatusBadRequest))
			return
		}
		category := domain.Category(raw)
		query.Category = &category
	}

	h.writeProductList(ctx, w, query)
}

func (h *CatalogHandlers) listCategory(category domain.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if h.catalog == nil {
			httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
			return
		}

		fixed := category
		h.writeProductList(ctx, w, services.CatalogQuery{
			Category:    &fixed,
			Search:      r.URL.Query().Get("search"),
			Subcategory: r.URL.Query().Get("subcategory"),
		})
	}
}

func (h *CatalogHandlers) writeProductList(ctx context.Context, w http.ResponseWriter, query services.CatalogQuery) {
	products, err := h.catalog.ListProducts(ctx, query)
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

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func buildProductPayload(product domain.Product) productPayload {
	sizes := make([]productSizePayload, 0, len(product.Sizes))
	for _, size := range product.Sizes {
		sizes = append(sizes, productSizePayload{
			Label:     size.Label,
			Price:     size.Price,
			FullPrice: size.FullPrice,
		})
	}
	return productPayload{
		ID:          product.ID,
		Name:        product.Name,
		Category:    string(product.Category),
		Subcategory: string(product.Subcategory),
		Description: product.Description,
		ImageURL:    product.ImageURL,
		Sizes:       sizes,
		CreatedAt:   formatTime(product.CreatedAt),
	}
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to read catalog", http.StatusInternalServerError))
	}
}
