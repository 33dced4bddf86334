package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	domain "github.com/ruh-al-oud/api/internal/domain"
	"github.com/ruh-al-oud/api/internal/platform/requestctx"
	"github.com/ruh-al-oud/api/internal/repositories"
)

var (
	// ErrCatalogRepositoryMissing indicates the repository dependency is absent.
	ErrCatalogRepositoryMissing = errors.New("catalog service: repository is not configured")
	// ErrCatalogInvalidInput indicates the caller supplied invalid data to a catalog read.
	ErrCatalogInvalidInput = errors.New("catalog service: invalid input")
	// ErrCatalogProductNotFound indicates the requested product does not exist.
	ErrCatalogProductNotFound = errors.New("catalog service: product not found")
	// ErrCatalogUnavailable indicates the catalog store is temporarily unreachable.
	ErrCatalogUnavailable = errors.New("catalog service: unavailable")
)

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Products repositories.ProductRepository
}

type catalogService struct {
	repo repositories.ProductRepository

	mu          sync.Mutex
	generations map[string]uint64
	snapshots   map[string][]domain.Product
}

// NewCatalogService constructs the catalog service with the supplied dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, ErrCatalogRepositoryMissing
	}
	return &catalogService{
		repo:        deps.Products,
		generations: make(map[string]uint64),
		snapshots:   make(map[string][]domain.Product),
	}, nil
}

// ListProducts performs one store read per call, then applies the search and
// subcategory filters in memory. A read that fails, or that loses the race
// against a newer read for the same query key, falls back to the last good
// snapshot so the storefront keeps rendering.
func (s *catalogService) ListProducts(ctx context.Context, query CatalogQuery) ([]domain.Product, error) {
	if s == nil || s.repo == nil {
		return nil, ErrCatalogRepositoryMissing
	}

	key := snapshotKey(query.Category)
	generation := s.beginFetch(key)

	products, err := s.repo.List(ctx, repositories.ProductListFilter{Category: query.Category})
	if err != nil {
		requestctx.Logger(ctx).Warn("catalog list degraded to snapshot",
			zap.String("query", key),
			zap.Error(err),
		)
		return filterProducts(s.snapshot(key), query), nil
	}

	if !s.commitFetch(key, generation, products) {
		// A newer fetch for this key started while this one was in flight.
		return filterProducts(s.snapshot(key), query), nil
	}

	return filterProducts(products, query), nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if s == nil || s.repo == nil {
		return domain.Product{}, ErrCatalogRepositoryMissing
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, ErrCatalogInvalidInput
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return domain.Product{}, mapCatalogRepositoryError(err)
	}
	return product, nil
}

func (s *catalogService) beginFetch(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[key]++
	return s.generations[key]
}

func (s *catalogService) commitFetch(key string, generation uint64, products []domain.Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[key] != generation {
		return false
	}
	snapshot := make([]domain.Product, len(products))
	copy(snapshot, products)
	s.snapshots[key] = snapshot
	return true
}

func (s *catalogService) snapshot(key string) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.snapshots[key]
	out := make([]domain.Product, len(stored))
	copy(out, stored)
	return out
}

func snapshotKey(category *domain.Category) string {
	if category == nil {
		return "all"
	}
	return string(*category)
}

func filterProducts(products []domain.Product, query CatalogQuery) []domain.Product {
	return FilterBySubcategory(FilterBySearch(products, query.Search), query.Subcategory)
}

// FilterBySearch keeps products whose name or description contains the
// trimmed, lower-cased query. An empty query keeps everything.
func FilterBySearch(products []domain.Product, search string) []domain.Product {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, product := range products {
		name := strings.ToLower(product.Name)
		description := strings.ToLower(product.Description)
		if strings.Contains(name, needle) || strings.Contains(description, needle) {
			out = append(out, product)
		}
	}
	return out
}

// FilterBySubcategory keeps products matching the subcategory,
// case-insensitively. An empty value or "all" keeps everything.
func FilterBySubcategory(products []domain.Product, subcategory string) []domain.Product {
	selector := strings.TrimSpace(subcategory)
	if selector == "" || strings.EqualFold(selector, domain.SubcategoryAll) {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, product := range products {
		if strings.EqualFold(string(product.Subcategory), selector) {
			out = append(out, product)
		}
	}
	return out
}

func mapCatalogRepositoryError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrCatalogProductNotFound
		case repoErr.IsUnavailable():
			return ErrCatalogUnavailable
		}
	}
	return err
}
