package firestore

import (
	"testing"
	"time"

	domain "github.com/ruh-al-oud/api/internal/domain"
)

func TestDecodeProductDocumentCanonicalSchema(t *testing.T) {
	createdAt := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	doc := productDocument{
		Name:        "Oud Royale",
		Category:    "attar",
		Subcategory: "Best Seller",
		Description: "Deep resinous oud",
		ImageURL:    "https://example.com/oud.jpg",
		Sizes: []productSizeDocument{
			{Label: "6ml", Price: 999, FullPrice: 1299},
			{Label: "12ml", Price: 1799},
		},
		CreatedAt: createdAt,
	}

	product := decodeProductDocument("prod-1", doc)
	if product.ID != "prod-1" {
		t.Fatalf("expected id prod-1, got %q", product.ID)
	}
	if product.Category != domain.CategoryAttar {
		t.Fatalf("expected attar category, got %q", product.Category)
	}
	if product.Subcategory != domain.SubcategoryBestSeller {
		t.Fatalf("expected Best Seller subcategory, got %q", product.Subcategory)
	}
	if len(product.Sizes) != 2 || product.Sizes[0].FullPrice != 1299 {
		t.Fatalf("unexpected sizes %#v", product.Sizes)
	}
	if !product.CreatedAt.Equal(createdAt) {
		t.Fatalf("unexpected createdAt %v", product.CreatedAt)
	}
}

func TestDecodeProductDocumentLegacySchema(t *testing.T) {
	// Older documents wrote the subcategory into the category field and
	// carried no subcategory at all.
	doc := productDocument{
		Name:     "Noir Intense",
		Category: "Men",
		Sizes:    []productSizeDocument{{Label: "50ml", Price: 1999}},
	}

	product := decodeProductDocument("prod-2", doc)
	if product.Category != domain.CategoryPerfume {
		t.Fatalf("expected legacy category to normalise to perfume, got %q", product.Category)
	}
	if product.Subcategory != domain.SubcategoryMen {
		t.Fatalf("expected legacy subcategory Men, got %q", product.Subcategory)
	}
}

func TestEncodeProductDocumentRoundTrip(t *testing.T) {
	product := domain.Product{
		ID:          "prod-3",
		Name:        "Rose Taif",
		Category:    domain.CategoryPerfume,
		Subcategory: domain.SubcategoryWomen,
		Description: "Damask rose",
		ImageURL:    "https://example.com/rose.jpg",
		Sizes:       []domain.ProductSize{{Label: "30ml", Price: 1499, FullPrice: 1899}},
		CreatedAt:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	doc := encodeProductDocument(product)
	if doc.Category != "perfume" || doc.Subcategory != "Women" {
		t.Fatalf("unexpected taxonomy %q/%q", doc.Category, doc.Subcategory)
	}

	decoded := decodeProductDocument(product.ID, doc)
	if decoded.Name != product.Name || decoded.Subcategory != product.Subcategory {
		t.Fatalf("round trip mismatch %#v", decoded)
	}
	if len(decoded.Sizes) != 1 || decoded.Sizes[0] != product.Sizes[0] {
		t.Fatalf("round trip size mismatch %#v", decoded.Sizes)
	}
}

func TestNormaliseProductTaxonomyUnknownValuesPassThrough(t *testing.T) {
	category, subcategory := normaliseProductTaxonomy("oil", "Rare")
	if string(category) != "oil" || string(subcategory) != "Rare" {
		t.Fatalf("expected pass-through, got %q/%q", category, subcategory)
	}
}
