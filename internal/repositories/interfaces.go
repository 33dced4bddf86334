package repositories

import (
	"context"

	domain "github.com/ruh-al-oud/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductListFilter restricts catalog reads at the store level. Text and
// subcategory filtering happen in the service layer; the store only applies
// the category predicate and newest-first ordering.
type ProductListFilter struct {
	Category *domain.Category
	Limit    int
}

// ProductRepository persists catalog products.
type ProductRepository interface {
	List(ctx context.Context, filter ProductListFilter) ([]domain.Product, error)
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	Insert(ctx context.Context, product domain.Product) (domain.Product, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, productID string) error
}
