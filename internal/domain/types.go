package domain

import (
	"strings"
	"time"
)

// Category partitions the catalog into the two storefront collections.
type Category string

const (
	CategoryAttar   Category = "attar"
	CategoryPerfume Category = "perfume"
)

// Subcategory groups products within a category for the storefront filter chips.
type Subcategory string

const (
	SubcategoryBestSeller Subcategory = "Best Seller"
	SubcategoryMen        Subcategory = "Men"
	SubcategoryWomen      Subcategory = "Women"
)

// SubcategoryAll is the filter value that selects every subcategory.
const SubcategoryAll = "all"

// ValidCategory reports whether the value is one of the known catalog categories.
func ValidCategory(value string) bool {
	switch Category(strings.TrimSpace(value)) {
	case CategoryAttar, CategoryPerfume:
		return true
	}
	return false
}

// ValidSubcategory reports whether the value matches a known subcategory, ignoring case.
func ValidSubcategory(value string) bool {
	trimmed := strings.TrimSpace(value)
	for _, sub := range []Subcategory{SubcategoryBestSeller, SubcategoryMen, SubcategoryWomen} {
		if strings.EqualFold(trimmed, string(sub)) {
			return true
		}
	}
	return false
}

// ProductSize is one purchasable variant of a product. Price is a plain
// minor-unit-free amount; FullPrice, when positive, is the strike-through
// reference price and is never part of any total.
type ProductSize struct {
	Label     string
	Price     int64
	FullPrice int64
}

// Product is a catalog document. ID is assigned by the catalog store.
// Sizes is non-empty with labels unique within the product; CreatedAt is
// used only for newest-first ordering.
type Product struct {
	ID          string
	Name        string
	Category    Category
	Subcategory Subcategory
	Description string
	ImageURL    string
	Sizes       []ProductSize
	CreatedAt   time.Time
}

// SizeByLabel returns the size with the given label and whether it exists.
func (p Product) SizeByLabel(label string) (ProductSize, bool) {
	target := strings.TrimSpace(label)
	for _, size := range p.Sizes {
		if strings.EqualFold(strings.TrimSpace(size.Label), target) {
			return size, true
		}
	}
	return ProductSize{}, false
}

// CartItem is one (product, size, quantity) line. The pair
// (ProductID, SizeLabel) is the identity key and is unique within a cart.
type CartItem struct {
	ProductID   string
	ProductName string
	SizeLabel   string
	UnitPrice   int64
	ImageURL    string
	Quantity    int
}

// Key returns the cart identity key for the item.
func (i CartItem) Key() CartItemKey {
	return NewCartItemKey(i.ProductID, i.SizeLabel)
}

// CartItemKey identifies one cart line by product and size label.
type CartItemKey struct {
	ProductID string
	SizeLabel string
}

// NewCartItemKey builds the identity key from raw handler input.
// Size labels compare case-insensitively, matching the storefront selector.
func NewCartItemKey(productID, sizeLabel string) CartItemKey {
	return CartItemKey{
		ProductID: strings.TrimSpace(productID),
		SizeLabel: strings.ToLower(strings.TrimSpace(sizeLabel)),
	}
}

// CartChangeKind describes the effect a cart mutation had on the sequence.
// Presentation decides whether and how to notify; the engine only reports.
type CartChangeKind string

const (
	CartItemAdded       CartChangeKind = "added"
	CartItemIncremented CartChangeKind = "incremented"
	CartItemUpdated     CartChangeKind = "updated"
	CartItemRemoved     CartChangeKind = "removed"
	CartUnchanged       CartChangeKind = "noop"
)

// CartChange is the result of a cart mutation.
type CartChange struct {
	Kind        CartChangeKind
	ProductID   string
	ProductName string
	SizeLabel   string
	Quantity    int
}
