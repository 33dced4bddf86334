package services

import (
	"context"
	"time"

	domain "github.com/ruh-al-oud/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Product        = domain.Product
	ProductSize    = domain.ProductSize
	Category       = domain.Category
	Subcategory    = domain.Subcategory
	CartItem       = domain.CartItem
	CartItemKey    = domain.CartItemKey
	CartChange     = domain.CartChange
	CartChangeKind = domain.CartChangeKind
)

// CatalogQuery describes a storefront catalog read. The category predicate is
// pushed to the store; search and subcategory are applied client-side.
type CatalogQuery struct {
	Category    *domain.Category
	Search      string
	Subcategory string
}

// CatalogService serves storefront catalog reads.
type CatalogService interface {
	// ListProducts never fails on backend errors: it degrades to the last
	// known snapshot for the query, or an empty list.
	ListProducts(ctx context.Context, query CatalogQuery) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}

// CartView is a snapshot of one session's cart.
type CartView struct {
	SessionID     string
	Items         []domain.CartItem
	TotalQuantity int
	Subtotal      int64
}

// AddItemInput carries the product snapshot captured when a line is added.
type AddItemInput struct {
	ProductID   string
	ProductName string
	SizeLabel   string
	UnitPrice   int64
	ImageURL    string
}

// CartService owns the in-memory session carts.
type CartService interface {
	// EnsureSession returns a canonical session ID, minting one when the
	// supplied value is blank or unknown.
	EnsureSession(sessionID string) string
	Get(ctx context.Context, sessionID string) (CartView, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (domain.CartChange, CartView, error)
	UpdateQuantity(ctx context.Context, sessionID string, key domain.CartItemKey, quantity int) (domain.CartChange, CartView, error)
	RemoveItem(ctx context.Context, sessionID string, key domain.CartItemKey) (domain.CartChange, CartView, error)
	Clear(ctx context.Context, sessionID string) (CartView, error)
	// ExpireIdleSessions drops sessions idle longer than the configured TTL
	// and reports how many were removed.
	ExpireIdleSessions(now time.Time) int
}

// CheckoutResult carries the WhatsApp hand-off produced from a cart or a
// single product order.
type CheckoutResult struct {
	WhatsAppURL   string
	Message       string
	TotalQuantity int
	TotalAmount   int64
}

// DirectOrderInput identifies a single-product order from the details page.
type DirectOrderInput struct {
	ProductID string
	SizeLabel string
	Quantity  int
}

// CheckoutService converts carts into WhatsApp deep links.
type CheckoutService interface {
	Checkout(ctx context.Context, sessionID string) (CheckoutResult, error)
	DirectOrder(ctx context.Context, input DirectOrderInput) (CheckoutResult, error)
}

// ProductSizeInput is one size row of an admin product write.
type ProductSizeInput struct {
	Label     string
	Price     int64
	FullPrice int64
}

// ProductInput is the payload for admin product writes.
type ProductInput struct {
	Name        string
	Category    string
	Subcategory string
	Description string
	ImageURL    string
	Sizes       []ProductSizeInput
}

// UploadRequest asks for a signed product image upload URL.
type UploadRequest struct {
	FileName    string
	ContentType string
}

// UploadTicket is the signed URL handed back to the admin dashboard.
type UploadTicket struct {
	UploadID  string
	ObjectKey string
	URL       string
	Method    string
	Headers   map[string]string
	ExpiresAt time.Time
}

// SeedReport summarises a demo catalog seeding run.
type SeedReport struct {
	Inserted []domain.Product
	Failed   []SeedFailure
}

// SeedFailure records one demo product that could not be written.
type SeedFailure struct {
	Name   string
	Reason string
}

// AdminCatalogService owns dashboard product management.
type AdminCatalogService interface {
	CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, productID string, input ProductInput) (domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	SeedDemoProducts(ctx context.Context) (SeedReport, error)
	ImageUploadURL(ctx context.Context, req UploadRequest) (UploadTicket, error)
}

// OrderEventLine is one cart line inside an order event message.
type OrderEventLine struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	SizeLabel   string `json:"sizeLabel"`
	UnitPrice   int64  `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
}

// OrderEventMessage is the fire-and-forget payload published after a
// WhatsApp hand-off is generated. No order state is tracked; the stream
// only feeds downstream analytics.
type OrderEventMessage struct {
	EventID       string           `json:"eventId"`
	SessionID     string           `json:"sessionId,omitempty"`
	Kind          string           `json:"kind"`
	TotalQuantity int              `json:"totalQuantity"`
	TotalAmount   int64            `json:"totalAmount"`
	Lines         []OrderEventLine `json:"lines"`
	OccurredAt    time.Time        `json:"occurredAt"`
}

// OrderEventPublisher pushes order events to the configured stream.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, message OrderEventMessage) (string, error)
}
