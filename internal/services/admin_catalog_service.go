package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/ruh-al-oud/api/internal/domain"
	"github.com/ruh-al-oud/api/internal/platform/storage"
	"github.com/ruh-al-oud/api/internal/repositories"
)

var (
	// ErrAdminCatalogInvalidInput indicates the dashboard submitted an invalid product payload.
	ErrAdminCatalogInvalidInput = errors.New("admin catalog service: invalid input")
	// ErrAdminProductNotFound indicates the targeted product does not exist.
	ErrAdminProductNotFound = errors.New("admin catalog service: product not found")
	// ErrAdminCatalogConflict indicates the write collided with a concurrent change.
	ErrAdminCatalogConflict = errors.New("admin catalog service: conflict")
	// ErrAdminCatalogUnavailable indicates the catalog store is temporarily unreachable.
	ErrAdminCatalogUnavailable = errors.New("admin catalog service: unavailable")
)

// UploadURLSigner mints signed upload URLs for product imagery.
type UploadURLSigner interface {
	SignedUploadURL(ctx context.Context, bucket, object string, opts storage.UploadOptions) (storage.SignedURLResult, error)
}

// AdminCatalogServiceDeps bundles constructor inputs for the admin catalog service.
type AdminCatalogServiceDeps struct {
	Products  repositories.ProductRepository
	Sanitizer *bluemonday.Policy

	Uploads             UploadURLSigner
	MediaBucket         string
	UploadURLExpiry     time.Duration
	UploadMaxBytes      int64
	AllowedContentTypes []string

	Clock       func() time.Time
	NewUploadID func() string
}

type adminCatalogService struct {
	products  repositories.ProductRepository
	sanitizer *bluemonday.Policy

	uploads             UploadURLSigner
	mediaBucket         string
	uploadURLExpiry     time.Duration
	uploadMaxBytes      int64
	allowedContentTypes []string

	clock       func() time.Time
	newUploadID func() string
}

// NewAdminCatalogService constructs the dashboard product management service.
func NewAdminCatalogService(deps AdminCatalogServiceDeps) (AdminCatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("admin catalog service: product repository is required")
	}
	if deps.Sanitizer == nil {
		return nil, errors.New("admin catalog service: sanitizer is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newUploadID := deps.NewUploadID
	if newUploadID == nil {
		newUploadID = func() string { return ulid.Make().String() }
	}
	return &adminCatalogService{
		products:            deps.Products,
		sanitizer:           deps.Sanitizer,
		uploads:             deps.Uploads,
		mediaBucket:         strings.TrimSpace(deps.MediaBucket),
		uploadURLExpiry:     deps.UploadURLExpiry,
		uploadMaxBytes:      deps.UploadMaxBytes,
		allowedContentTypes: deps.AllowedContentTypes,
		clock:               clock,
		newUploadID:         newUploadID,
	}, nil
}

func (s *adminCatalogService) CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error) {
	product, err := s.buildProduct(input)
	if err != nil {
		return domain.Product{}, err
	}
	product.CreatedAt = s.clock().UTC()

	created, err := s.products.Insert(ctx, product)
	if err != nil {
		return domain.Product{}, mapAdminRepositoryError(err)
	}
	return created, nil
}

func (s *adminCatalogService) UpdateProduct(ctx context.Context, productID string, input ProductInput) (domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrAdminCatalogInvalidInput)
	}
	product, err := s.buildProduct(input)
	if err != nil {
		return domain.Product{}, err
	}
	product.ID = productID

	updated, err := s.products.Update(ctx, product)
	if err != nil {
		return domain.Product{}, mapAdminRepositoryError(err)
	}
	return updated, nil
}

func (s *adminCatalogService) DeleteProduct(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return fmt.Errorf("%w: product id is required", ErrAdminCatalogInvalidInput)
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		return mapAdminRepositoryError(err)
	}
	return nil
}

// SeedDemoProducts writes the demo catalog. Individual failures are
// collected so a partially seeded store is reported, not hidden.
func (s *adminCatalogService) SeedDemoProducts(ctx context.Context) (SeedReport, error) {
	report := SeedReport{}
	now := s.clock().UTC()

	for _, seed := range demoProducts() {
		seed.CreatedAt = now
		inserted, err := s.products.Insert(ctx, seed)
		if err != nil {
			report.Failed = append(report.Failed, SeedFailure{Name: seed.Name, Reason: err.Error()})
			continue
		}
		report.Inserted = append(report.Inserted, inserted)
	}
	return report, nil
}

func (s *adminCatalogService) ImageUploadURL(ctx context.Context, req UploadRequest) (UploadTicket, error) {
	if s.uploads == nil || s.mediaBucket == "" {
		return UploadTicket{}, errors.New("admin catalog service: uploads are not configured")
	}
	fileName := strings.TrimSpace(req.FileName)
	contentType := strings.TrimSpace(req.ContentType)
	if fileName == "" || contentType == "" {
		return UploadTicket{}, fmt.Errorf("%w: file name and content type are required", ErrAdminCatalogInvalidInput)
	}

	uploadID := s.newUploadID()
	objectKey, err := storage.ProductImagePath(uploadID, fileName)
	if err != nil {
		return UploadTicket{}, fmt.Errorf("%w: %v", ErrAdminCatalogInvalidInput, err)
	}

	signed, err := s.uploads.SignedUploadURL(ctx, s.mediaBucket, objectKey, storage.UploadOptions{
		ContentType:         contentType,
		AllowedContentTypes: s.allowedContentTypes,
		MaxSize:             s.uploadMaxBytes,
		ExpiresIn:           s.uploadURLExpiry,
	})
	if err != nil {
		return UploadTicket{}, fmt.Errorf("%w: %v", ErrAdminCatalogInvalidInput, err)
	}

	return UploadTicket{
		UploadID:  uploadID,
		ObjectKey: objectKey,
		URL:       signed.URL,
		Method:    signed.Method,
		Headers:   signed.Headers,
		ExpiresAt: signed.ExpiresAt,
	}, nil
}

func (s *adminCatalogService) buildProduct(input ProductInput) (domain.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: name is required", ErrAdminCatalogInvalidInput)
	}
	category := strings.TrimSpace(input.Category)
	if !domain.ValidCategory(category) {
		return domain.Product{}, fmt.Errorf("%w: unknown category %q", ErrAdminCatalogInvalidInput, category)
	}
	subcategory := strings.TrimSpace(input.Subcategory)
	if !domain.ValidSubcategory(subcategory) {
		return domain.Product{}, fmt.Errorf("%w: unknown subcategory %q", ErrAdminCatalogInvalidInput, subcategory)
	}
	if len(input.Sizes) == 0 {
		return domain.Product{}, fmt.Errorf("%w: at least one size is required", ErrAdminCatalogInvalidInput)
	}

	imageURL := strings.TrimSpace(input.ImageURL)
	if imageURL != "" {
		parsed, err := url.Parse(imageURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return domain.Product{}, fmt.Errorf("%w: image url must be absolute http(s)", ErrAdminCatalogInvalidInput)
		}
	}

	seen := make(map[string]struct{}, len(input.Sizes))
	sizes := make([]domain.ProductSize, 0, len(input.Sizes))
	for _, size := range input.Sizes {
		label := strings.TrimSpace(size.Label)
		if label == "" {
			return domain.Product{}, fmt.Errorf("%w: size label is required", ErrAdminCatalogInvalidInput)
		}
		lowered := strings.ToLower(label)
		if _, dup := seen[lowered]; dup {
			return domain.Product{}, fmt.Errorf("%w: duplicate size label %q", ErrAdminCatalogInvalidInput, label)
		}
		seen[lowered] = struct{}{}
		if size.Price <= 0 {
			return domain.Product{}, fmt.Errorf("%w: size %q price must be positive", ErrAdminCatalogInvalidInput, label)
		}
		if size.FullPrice != 0 && size.FullPrice < size.Price {
			return domain.Product{}, fmt.Errorf("%w: size %q full price below price", ErrAdminCatalogInvalidInput, label)
		}
		sizes = append(sizes, domain.ProductSize{Label: label, Price: size.Price, FullPrice: size.FullPrice})
	}

	return domain.Product{
		Name:        name,
		Category:    domain.Category(category),
		Subcategory: domain.Subcategory(subcategory),
		Description: strings.TrimSpace(s.sanitizer.Sanitize(input.Description)),
		ImageURL:    imageURL,
		Sizes:       sizes,
	}, nil
}

func mapAdminRepositoryError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrAdminProductNotFound
		case repoErr.IsConflict():
			return ErrAdminCatalogConflict
		case repoErr.IsUnavailable():
			return ErrAdminCatalogUnavailable
		}
	}
	return err
}
