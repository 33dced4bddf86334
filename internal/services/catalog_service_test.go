package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/ruh-al-oud/api/internal/domain"
	"github.com/ruh-al-oud/api/internal/repositories"
)

type stubRepositoryError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *stubRepositoryError) Error() string       { return "stub repository error" }
func (e *stubRepositoryError) IsNotFound() bool    { return e.notFound }
func (e *stubRepositoryError) IsConflict() bool    { return e.conflict }
func (e *stubRepositoryError) IsUnavailable() bool { return e.unavailable }

type stubProductRepository struct {
	products []domain.Product
	listErr  error
	findErr  error

	insertErr error
	updateErr error
	deleteErr error

	lastFilter repositories.ProductListFilter
	inserted   []domain.Product
	updated    []domain.Product
	deleted    []string
}

func (s *stubProductRepository) List(_ context.Context, filter repositories.ProductListFilter) ([]domain.Product, error) {
	s.lastFilter = filter
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *stubProductRepository) FindByID(_ context.Context, productID string) (domain.Product, error) {
	if s.findErr != nil {
		return domain.Product{}, s.findErr
	}
	for _, product := range s.products {
		if product.ID == productID {
			return product, nil
		}
	}
	return domain.Product{}, &stubRepositoryError{notFound: true}
}

func (s *stubProductRepository) Insert(_ context.Context, product domain.Product) (domain.Product, error) {
	if s.insertErr != nil {
		return domain.Product{}, s.insertErr
	}
	product.ID = "gen-" + product.Name
	s.inserted = append(s.inserted, product)
	return product, nil
}

func (s *stubProductRepository) Update(_ context.Context, product domain.Product) (domain.Product, error) {
	if s.updateErr != nil {
		return domain.Product{}, s.updateErr
	}
	s.updated = append(s.updated, product)
	return product, nil
}

func (s *stubProductRepository) Delete(_ context.Context, productID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, productID)
	return nil
}

func catalogFixture() []domain.Product {
	return []domain.Product{
		{
			ID:          "p1",
			Name:        "Dark Woods",
			Category:    domain.CategoryPerfume,
			Subcategory: domain.SubcategoryMen,
			Description: "Intense oud with leather and tobacco accents.",
			CreatedAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:          "p2",
			Name:        "Rose Garden",
			Category:    domain.CategoryPerfume,
			Subcategory: domain.SubcategoryWomen,
			Description: "Delicate rose petals with touches of peony.",
			CreatedAt:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:          "p3",
			Name:        "Royal Attar",
			Category:    domain.CategoryAttar,
			Subcategory: domain.SubcategoryBestSeller,
			Description: "A dark, honeyed oud pressed in the old way.",
			CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func newTestCatalogService(t *testing.T, repo repositories.ProductRepository) CatalogService {
	t.Helper()
	svc, err := NewCatalogService(CatalogServiceDeps{Products: repo})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	return svc
}

func TestListProductsPassesCategoryToStore(t *testing.T) {
	repo := &stubProductRepository{products: catalogFixture()}
	svc := newTestCatalogService(t, repo)

	category := domain.CategoryAttar
	if _, err := svc.ListProducts(context.Background(), CatalogQuery{Category: &category}); err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if repo.lastFilter.Category == nil || *repo.lastFilter.Category != domain.CategoryAttar {
		t.Fatalf("expected category filter pushed to store, got %#v", repo.lastFilter)
	}
}

func TestListProductsSearchMatchesNameOrDescription(t *testing.T) {
	svc := newTestCatalogService(t, &stubProductRepository{products: catalogFixture()})

	products, err := svc.ListProducts(context.Background(), CatalogQuery{Search: "  DARK  "})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 matches for dark, got %d", len(products))
	}
	if products[0].ID != "p1" || products[1].ID != "p3" {
		t.Fatalf("unexpected matches %#v", products)
	}
}

func TestListProductsEmptySearchKeepsEverything(t *testing.T) {
	svc := newTestCatalogService(t, &stubProductRepository{products: catalogFixture()})

	products, err := svc.ListProducts(context.Background(), CatalogQuery{Search: "   "})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected all products for blank search, got %d", len(products))
	}
}

func TestListProductsSubcategoryAllIsIdentity(t *testing.T) {
	svc := newTestCatalogService(t, &stubProductRepository{products: catalogFixture()})

	products, err := svc.ListProducts(context.Background(), CatalogQuery{Subcategory: "all"})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected all products for subcategory all, got %d", len(products))
	}
}

func TestListProductsSubcategoryMatchesCaseInsensitively(t *testing.T) {
	svc := newTestCatalogService(t, &stubProductRepository{products: catalogFixture()})

	products, err := svc.ListProducts(context.Background(), CatalogQuery{Subcategory: "women"})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 1 || products[0].ID != "p2" {
		t.Fatalf("expected only p2, got %#v", products)
	}
}

func TestListProductsFiltersAreIdempotent(t *testing.T) {
	fixture := catalogFixture()
	once := FilterBySearch(fixture, "dark")
	twice := FilterBySearch(once, "dark")
	if len(once) != len(twice) {
		t.Fatalf("expected idempotent search filter, got %d then %d", len(once), len(twice))
	}

	subOnce := FilterBySubcategory(fixture, "Men")
	subTwice := FilterBySubcategory(subOnce, "Men")
	if len(subOnce) != len(subTwice) {
		t.Fatalf("expected idempotent subcategory filter, got %d then %d", len(subOnce), len(subTwice))
	}
}

func TestListProductsFailedReadDegradesToEmptyList(t *testing.T) {
	repo := &stubProductRepository{listErr: &stubRepositoryError{unavailable: true}}
	svc := newTestCatalogService(t, repo)

	products, err := svc.ListProducts(context.Background(), CatalogQuery{})
	if err != nil {
		t.Fatalf("expected fail-soft read, got error %v", err)
	}
	if len(products) != 0 {
		t.Fatalf("expected empty list, got %#v", products)
	}
}

func TestListProductsFailedReadServesLastGoodSnapshot(t *testing.T) {
	repo := &stubProductRepository{products: catalogFixture()}
	svc := newTestCatalogService(t, repo)

	if _, err := svc.ListProducts(context.Background(), CatalogQuery{}); err != nil {
		t.Fatalf("ListProducts: %v", err)
	}

	repo.listErr = errors.New("backend down")
	products, err := svc.ListProducts(context.Background(), CatalogQuery{Search: "rose"})
	if err != nil {
		t.Fatalf("expected fail-soft read, got error %v", err)
	}
	if len(products) != 1 || products[0].ID != "p2" {
		t.Fatalf("expected snapshot filtered to p2, got %#v", products)
	}
}

// racingProductRepository returns one result set per List call and runs a hook
// while the first read is still in flight, so a test can start a competing read
// before the first one commits.
type racingProductRepository struct {
	*stubProductRepository
	results     [][]domain.Product
	onFirstList func()
	calls       int
}

func (r *racingProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) ([]domain.Product, error) {
	r.calls++
	call := r.calls
	if call == 1 && r.onFirstList != nil {
		r.onFirstList()
	}
	idx := call - 1
	if idx >= len(r.results) {
		idx = len(r.results) - 1
	}
	return r.results[idx], nil
}

func TestListProductsDiscardsReadSupersededByNewerRead(t *testing.T) {
	stale := []domain.Product{{ID: "p-old", Name: "Old Batch", Category: domain.CategoryAttar}}
	fresh := []domain.Product{{ID: "p-new", Name: "New Batch", Category: domain.CategoryAttar}}

	repo := &racingProductRepository{
		stubProductRepository: &stubProductRepository{},
		results:               [][]domain.Product{stale, fresh},
	}
	svc := newTestCatalogService(t, repo)

	// While the first read is in flight, a second read for the same query key
	// starts and commits. The first read must lose and serve the committed
	// snapshot instead of its own, older result.
	repo.onFirstList = func() {
		products, err := svc.ListProducts(context.Background(), CatalogQuery{})
		if err != nil {
			t.Fatalf("competing ListProducts: %v", err)
		}
		if len(products) != 1 || products[0].ID != "p-new" {
			t.Fatalf("expected competing read to return fresh result, got %#v", products)
		}
	}

	products, err := svc.ListProducts(context.Background(), CatalogQuery{})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 1 || products[0].ID != "p-new" {
		t.Fatalf("expected superseded read to serve the newer snapshot, got %#v", products)
	}
	if repo.calls != 2 {
		t.Fatalf("expected 2 store reads, got %d", repo.calls)
	}
}

func TestGetProductReturnsTypedNotFound(t *testing.T) {
	svc := newTestCatalogService(t, &stubProductRepository{products: catalogFixture()})

	if _, err := svc.GetProduct(context.Background(), "ghost"); !errors.Is(err, ErrCatalogProductNotFound) {
		t.Fatalf("expected ErrCatalogProductNotFound, got %v", err)
	}
}

func TestGetProductRejectsBlankID(t *testing.T) {
	svc := newTestCatalogService(t, &stubProductRepository{})

	if _, err := svc.GetProduct(context.Background(), "  "); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected ErrCatalogInvalidInput, got %v", err)
	}
}

func TestGetProductMapsUnavailable(t *testing.T) {
	repo := &stubProductRepository{findErr: &stubRepositoryError{unavailable: true}}
	svc := newTestCatalogService(t, repo)

	if _, err := svc.GetProduct(context.Background(), "p1"); !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}
