package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	domain "github.com/ruh-al-oud/api/internal/domain"
	"github.com/ruh-al-oud/api/internal/platform/requestctx"
)

const (
	orderEventKindCheckout    = "checkout"
	orderEventKindDirectOrder = "direct_order"
)

var (
	// ErrCheckoutEmptyCart indicates the session cart has no lines to order.
	ErrCheckoutEmptyCart = errors.New("checkout service: cart is empty")
	// ErrCheckoutInvalidInput indicates the direct order payload is invalid.
	ErrCheckoutInvalidInput = errors.New("checkout service: invalid input")
	// ErrCheckoutUnknownSize indicates the requested size does not belong to the product.
	ErrCheckoutUnknownSize = errors.New("checkout service: unknown size")
)

// CheckoutServiceDeps bundles constructor inputs for the checkout service.
type CheckoutServiceDeps struct {
	Carts       CartService
	Catalog     CatalogService
	Publisher   OrderEventPublisher
	PhoneNumber string
	Clock       func() time.Time
	NewEventID  func() string
}

type checkoutService struct {
	carts      CartService
	catalog    CatalogService
	publisher  OrderEventPublisher
	phone      string
	clock      func() time.Time
	newEventID func() string
	printer    *message.Printer
}

// NewCheckoutService constructs the WhatsApp checkout service.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Carts == nil {
		return nil, errors.New("checkout service: cart service is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("checkout service: catalog service is required")
	}
	phone := strings.TrimSpace(deps.PhoneNumber)
	if phone == "" {
		return nil, errors.New("checkout service: phone number is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newEventID := deps.NewEventID
	if newEventID == nil {
		newEventID = func() string { return "oe_" + ulid.Make().String() }
	}
	return &checkoutService{
		carts:      deps.Carts,
		catalog:    deps.Catalog,
		publisher:  deps.Publisher,
		phone:      phone,
		clock:      clock,
		newEventID: newEventID,
		printer:    message.NewPrinter(language.English),
	}, nil
}

// Checkout serialises the session cart into the WhatsApp order message and
// returns the deep link. The hand-off is fire and forget: no order state is
// recorded and the cart is left untouched.
func (s *checkoutService) Checkout(ctx context.Context, sessionID string) (CheckoutResult, error) {
	view, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(view.Items) == 0 {
		return CheckoutResult{}, ErrCheckoutEmptyCart
	}

	var builder strings.Builder
	builder.WriteString("Hi, I'd like to order the following:\n\n")
	for i, item := range view.Items {
		fmt.Fprintf(&builder, "%d. %s – %s – ₹%d × %d\n", i+1, item.ProductName, item.SizeLabel, item.UnitPrice, item.Quantity)
	}
	fmt.Fprintf(&builder, "\nTotal items: %d", view.TotalQuantity)
	fmt.Fprintf(&builder, "\nTotal amount: ₹%s", s.formatAmount(view.Subtotal))

	result := s.result(builder.String(), view.TotalQuantity, view.Subtotal)
	s.publishEvent(ctx, orderEventKindCheckout, view.SessionID, view.Items, result)
	return result, nil
}

// DirectOrder builds the single-product hand-off used by the product
// details page.
func (s *checkoutService) DirectOrder(ctx context.Context, input DirectOrderInput) (CheckoutResult, error) {
	if strings.TrimSpace(input.ProductID) == "" || strings.TrimSpace(input.SizeLabel) == "" {
		return CheckoutResult{}, ErrCheckoutInvalidInput
	}
	quantity := input.Quantity
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.catalog.GetProduct(ctx, input.ProductID)
	if err != nil {
		return CheckoutResult{}, err
	}
	size, ok := product.SizeByLabel(input.SizeLabel)
	if !ok {
		return CheckoutResult{}, ErrCheckoutUnknownSize
	}

	total := size.Price * int64(quantity)
	messageText := fmt.Sprintf("Hi, I'd like to order:\n%s – %s – ₹%d x %d = ₹%s",
		product.Name, size.Label, size.Price, quantity, s.formatAmount(total))

	result := s.result(messageText, quantity, total)
	lines := []domain.CartItem{{
		ProductID:   product.ID,
		ProductName: product.Name,
		SizeLabel:   size.Label,
		UnitPrice:   size.Price,
		Quantity:    quantity,
	}}
	s.publishEvent(ctx, orderEventKindDirectOrder, "", lines, result)
	return result, nil
}

func (s *checkoutService) result(messageText string, totalQuantity int, totalAmount int64) CheckoutResult {
	query := url.Values{"text": {messageText}}
	return CheckoutResult{
		WhatsAppURL:   fmt.Sprintf("https://wa.me/%s?%s", s.phone, query.Encode()),
		Message:       messageText,
		TotalQuantity: totalQuantity,
		TotalAmount:   totalAmount,
	}
}

func (s *checkoutService) formatAmount(amount int64) string {
	return s.printer.Sprint(number.Decimal(amount))
}

// publishEvent is best effort: publish failures are logged and never block
// the deep link hand-off.
func (s *checkoutService) publishEvent(ctx context.Context, kind, sessionID string, items []domain.CartItem, result CheckoutResult) {
	if s.publisher == nil {
		return
	}

	lines := make([]OrderEventLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, OrderEventLine{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			SizeLabel:   item.SizeLabel,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}

	event := OrderEventMessage{
		EventID:       s.newEventID(),
		SessionID:     sessionID,
		Kind:          kind,
		TotalQuantity: result.TotalQuantity,
		TotalAmount:   result.TotalAmount,
		Lines:         lines,
		OccurredAt:    s.clock().UTC(),
	}

	if _, err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		requestctx.Logger(ctx).Warn("order event publish failed",
			zap.String("kind", kind),
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}
}
