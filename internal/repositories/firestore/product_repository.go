package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/ruh-al-oud/api/internal/domain"
	pfirestore "github.com/ruh-al-oud/api/internal/platform/firestore"
	"github.com/ruh-al-oud/api/internal/repositories"
)

const defaultProductsCollection = "products"

// ProductRepository persists catalog products in Firestore.
type ProductRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[domain.Product]
	now      func() time.Time
}

// ProductRepositoryOption customises repository construction.
type ProductRepositoryOption func(*ProductRepository)

// WithProductClock injects a custom clock (useful for tests).
func WithProductClock(clock func() time.Time) ProductRepositoryOption {
	return func(r *ProductRepository) {
		if clock != nil {
			r.now = clock
		}
	}
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider, collection string, opts ...ProductRepositoryOption) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository: firestore provider is required")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = defaultProductsCollection
	}

	encoder := func(ctx context.Context, value domain.Product) (any, error) {
		return encodeProductDocument(value), nil
	}
	decoder := func(ctx context.Context, snap *firestore.DocumentSnapshot) (domain.Product, error) {
		var doc productDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.Product{}, err
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = snap.CreateTime
		}
		return decodeProductDocument(snap.Ref.ID, doc), nil
	}

	repo := &ProductRepository{
		provider: provider,
		base:     pfirestore.NewBaseRepository[domain.Product](provider, collection, encoder, decoder),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)

// List returns products ordered newest first, optionally restricted to a category.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) ([]domain.Product, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("product repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.Category != nil {
			q = q.Where("category", "==", string(*filter.Category))
		}
		q = q.OrderBy("createdAt", firestore.Desc)
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		return q
	})
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, doc.Data)
	}
	return products, nil
}

// FindByID loads a single product by its document ID.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, errors.New("product repository: id is required")
	}
	doc, err := r.base.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return doc.Data, nil
}

// Insert stores a new product under a generated document ID.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = r.now().UTC()
	}

	id, _, err := r.base.Add(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	product.ID = id
	return product, nil
}

// Update replaces the product document state inside a transaction so the
// original createdAt survives concurrent writes. The document must exist.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r == nil || r.base == nil || r.provider == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	product.ID = strings.TrimSpace(product.ID)
	if product.ID == "" {
		return domain.Product{}, errors.New("product repository: id is required")
	}

	ref, err := r.base.DocumentRef(ctx, product.ID)
	if err != nil {
		return domain.Product{}, err
	}

	updated := product
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}

		updated = product
		if updated.CreatedAt.IsZero() {
			var existing productDocument
			if err := snap.DataTo(&existing); err != nil {
				return err
			}
			updated.CreatedAt = existing.CreatedAt
			if updated.CreatedAt.IsZero() {
				updated.CreatedAt = snap.CreateTime
			}
		}
		return tx.Set(ref, encodeProductDocument(updated))
	})
	if err != nil {
		return domain.Product{}, err
	}
	return updated, nil
}

// Delete removes a product. Deleting a missing product reports not-found.
func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return errors.New("product repository: id is required")
	}
	return r.base.Delete(ctx, productID, firestore.Exists)
}

type productDocument struct {
	Name        string                `firestore:"name"`
	Category    string                `firestore:"category"`
	Subcategory string                `firestore:"subcategory,omitempty"`
	Description string                `firestore:"description"`
	ImageURL    string                `firestore:"imageUrl"`
	Sizes       []productSizeDocument `firestore:"sizes"`
	CreatedAt   time.Time             `firestore:"createdAt"`
}

type productSizeDocument struct {
	Label     string `firestore:"label"`
	Price     int64  `firestore:"price"`
	FullPrice int64  `firestore:"fullPrice,omitempty"`
}

func encodeProductDocument(product domain.Product) productDocument {
	sizes := make([]productSizeDocument, 0, len(product.Sizes))
	for _, size := range product.Sizes {
		sizes = append(sizes, productSizeDocument{
			Label:     size.Label,
			Price:     size.Price,
			FullPrice: size.FullPrice,
		})
	}
	return productDocument{
		Name:        product.Name,
		Category:    string(product.Category),
		Subcategory: string(product.Subcategory),
		Description: product.Description,
		ImageURL:    product.ImageURL,
		Sizes:       sizes,
		CreatedAt:   product.CreatedAt,
	}
}

func decodeProductDocument(id string, doc productDocument) domain.Product {
	sizes := make([]domain.ProductSize, 0, len(doc.Sizes))
	for _, size := range doc.Sizes {
		sizes = append(sizes, domain.ProductSize{
			Label:     size.Label,
			Price:     size.Price,
			FullPrice: size.FullPrice,
		})
	}

	category, subcategory := normaliseProductTaxonomy(doc.Category, doc.Subcategory)

	return domain.Product{
		ID:          id,
		Name:        doc.Name,
		Category:    category,
		Subcategory: subcategory,
		Description: doc.Description,
		ImageURL:    doc.ImageURL,
		Sizes:       sizes,
		CreatedAt:   doc.CreatedAt,
	}
}

// normaliseProductTaxonomy maps legacy documents that stored a subcategory
// value in the category field onto the canonical category+subcategory pair.
func normaliseProductTaxonomy(category, subcategory string) (domain.Category, domain.Subcategory) {
	if domain.ValidCategory(category) {
		return domain.Category(strings.TrimSpace(category)), domain.Subcategory(strings.TrimSpace(subcategory))
	}
	if domain.ValidSubcategory(category) {
		return domain.CategoryPerfume, domain.Subcategory(strings.TrimSpace(category))
	}
	return domain.Category(strings.TrimSpace(category)), domain.Subcategory(strings.TrimSpace(subcategory))
}
