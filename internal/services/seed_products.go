package services

import (
	domain "github.com/ruh-al-oud/api/internal/domain"
)

const seedImageBase = "https://storage.googleapis.com/ruh-al-oud-media/seed"

// demoProducts returns the demo catalog written by SeedDemoProducts. A fresh
// slice is built per call so callers can stamp timestamps without sharing
// state.
func demoProducts() []domain.Product {
	return []domain.Product{
		{
			Name:        "Crystal Aura",
			Category:    domain.CategoryPerfume,
			Subcategory: domain.SubcategoryBestSeller,
			Description: "A luminous blend of jasmine, white musk, and amber. Our signature scent that captivates with its timeless elegance and ethereal presence.",
			ImageURL:    seedImageBase + "/perfume-crystal-aura.jpg",
			Sizes: []domain.ProductSize{
				{Label: "50ml", Price: 1299},
				{Label: "100ml", Price: 1999},
			},
		},
		{
			Name:        "Golden Hour",
			Category:    domain.CategoryPerfume,
			Subcategory: domain.SubcategoryBestSeller,
			Description: "Warm notes of vanilla, sandalwood, and citrus create a perfect harmony. Like capturing the magic of sunset in a bottle.",
			ImageURL:    seedImageBase + "/perfume-golden-hour.jpg",
			Sizes: []domain.ProductSize{
				{Label: "60ml", Price: 1399},
				{Label: "100ml", Price: 2199},
			},
		},
		{
			Name:        "Amber Essence",
			Category:    domain.CategoryPerfume,
			Subcategory: domain.SubcategoryBestSeller,
			Description: "Rich amber with hints of honey and patchouli. A warm, sensual fragrance that leaves an unforgettable impression.",
			ImageURL:    seedImageBase + "/perfume-amber-essence.jpg",
			Sizes: []domain.ProductSize{
				{Label: "60ml", Price: 1499},
				{Label: "100ml", Price: 2299},
			},
		},
		{
			Name:        "Rose Garden",
			Category:    domain.CategoryPerfume,
			Subcategory: domain.SubcategoryWomen,
			Description: "Delicate rose petals with touches of peony and lily. A romantic, feminine scent that blooms throughout the day.",
			ImageURL:    seedImageBase + "/perfume-rose-garden.jpg",
			Sizes: []domain.ProductSize{
				{Label: "50ml", Price: 1199},
				{Label: "100ml", Price: 1899},
			},
		},
		{
			Name:        "Lavender Dreams",
			Category:    domain.CategoryPerfume,
			Subcategory: domain.SubcategoryWomen,
			Description: "Fresh lavender blended with soft vanilla and powdery iris. Elegant, calming, and utterly sophisticated.",
			ImageURL:    seedImageBase + "/perfume-lavender-dreams.jpg",
			Sizes: []domain.ProductSize{
				{Label: "60ml", Price: 1299},
				{Label: "100ml", Price: 1999},
			},
		},
		{
			Name:        "Tropical Bloom",
			Category:    domain.CategoryPerfume,
			Subcategory: domain.SubcategoryWomen,
			Description: "Exotic frangipani and coconut with hints of citrus. A vibrant, sun-kissed fragrance that radiates joy and warmth.",
			ImageURL:    seedImageBase + "/perfume-tropical-bloom.jpg",
			Sizes: []domain.ProductSize{
				{Label: "50ml", Price: 1099},
				{Label: "100ml", Price: 1799},
			},
		},
		{
			Name:        "Ocean Noir",
			Category:    domain.CategoryPerfume,
			Subcategory: domain.SubcategoryMen,
			Description: "Deep marine notes with bergamot and cedarwood. A sophisticated, masculine scent that commands attention.",
			ImageURL:    seedImageBase + "/perfume-ocean-noir.jpg",
			Sizes: []domain.ProductSize{
				{Label: "60ml", Price: 1399},
				{Label: "100ml", Price: 2199},
			},
		},
		{
			Name:        "Dark Woods",
			Category:    domain.CategoryPerfume,
			Subcategory: domain.SubcategoryMen,
			Description: "Intense oud with leather and tobacco accents. Bold, mysterious, and undeniably masculine.",
			ImageURL:    seedImageBase + "/perfume-dark-woods.jpg",
			Sizes: []domain.ProductSize{
				{Label: "60ml", Price: 1599},
				{Label: "100ml", Price: 2499},
			},
		},
		{
			Name:        "Azure Sport",
			Category:    domain.CategoryPerfume,
			Subcategory: domain.SubcategoryMen,
			Description: "Fresh aquatic notes with mint and vetiver. An energizing, athletic fragrance perfect for the active lifestyle.",
			ImageURL:    seedImageBase + "/perfume-azure-sport.jpg",
			Sizes: []domain.ProductSize{
				{Label: "50ml", Price: 999},
				{Label: "100ml", Price: 1699},
			},
		},
	}
}
