package services

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	domain "github.com/ruh-al-oud/api/internal/domain"
)

type capturingOrderEventPublisher struct {
	events []OrderEventMessage
	err    error
}

func (p *capturingOrderEventPublisher) PublishOrderEvent(_ context.Context, event OrderEventMessage) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "m1", nil
}

func checkoutProducts() []domain.Product {
	return []domain.Product{
		{
			ID:          "p9",
			Name:        "Dark Woods",
			Category:    domain.CategoryPerfume,
			Subcategory: domain.SubcategoryMen,
			Sizes: []domain.ProductSize{
				{Label: "60ml", Price: 1599},
				{Label: "100ml", Price: 2499},
			},
		},
	}
}

func newTestCheckoutService(t *testing.T, deps CheckoutServiceDeps) CheckoutService {
	t.Helper()
	if deps.Carts == nil {
		deps.Carts = newTestCartService(t, CartServiceDeps{})
	}
	if deps.Catalog == nil {
		deps.Catalog = newTestCatalogService(t, &stubProductRepository{products: checkoutProducts()})
	}
	if deps.PhoneNumber == "" {
		deps.PhoneNumber = "918848320553"
	}
	svc, err := NewCheckoutService(deps)
	if err != nil {
		t.Fatalf("NewCheckoutService: %v", err)
	}
	return svc
}

func TestCheckoutBuildsOrderMessage(t *testing.T) {
	carts := newTestCartService(t, CartServiceDeps{})
	svc := newTestCheckoutService(t, CheckoutServiceDeps{Carts: carts})
	ctx := context.Background()
	session := carts.EnsureSession("")

	for i := 0; i < 2; i++ {
		if _, _, err := carts.AddItem(ctx, session, oudItem()); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
	}
	if _, _, err := carts.AddItem(ctx, session, roseItem()); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	result, err := svc.Checkout(ctx, session)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	want := "Hi, I'd like to order the following:\n\n" +
		"1. Oud Royale – 12ml – ₹999 × 2\n" +
		"2. Rose Taif – 50ml – ₹1999 × 1\n" +
		"\nTotal items: 3" +
		"\nTotal amount: ₹3,997"
	if result.Message != want {
		t.Fatalf("unexpected message:\n got %q\nwant %q", result.Message, want)
	}
	if result.TotalQuantity != 3 || result.TotalAmount != 3997 {
		t.Fatalf("unexpected totals %#v", result)
	}
}

func TestCheckoutLinkEncodesMessage(t *testing.T) {
	carts := newTestCartService(t, CartServiceDeps{})
	svc := newTestCheckoutService(t, CheckoutServiceDeps{Carts: carts})
	ctx := context.Background()
	session := carts.EnsureSession("")

	if _, _, err := carts.AddItem(ctx, session, oudItem()); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	result, err := svc.Checkout(ctx, session)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	link, err := url.Parse(result.WhatsAppURL)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if link.Host != "wa.me" || link.Path != "/918848320553" {
		t.Fatalf("unexpected link target %q", result.WhatsAppURL)
	}
	if got := link.Query().Get("text"); got != result.Message {
		t.Fatalf("expected encoded message to round trip, got %q", got)
	}
}

func TestCheckoutEmptyCartFails(t *testing.T) {
	carts := newTestCartService(t, CartServiceDeps{})
	svc := newTestCheckoutService(t, CheckoutServiceDeps{Carts: carts})

	_, err := svc.Checkout(context.Background(), carts.EnsureSession(""))
	if !errors.Is(err, ErrCheckoutEmptyCart) {
		t.Fatalf("expected ErrCheckoutEmptyCart, got %v", err)
	}
}

func TestDirectOrderBuildsSingleLineMessage(t *testing.T) {
	svc := newTestCheckoutService(t, CheckoutServiceDeps{})

	result, err := svc.DirectOrder(context.Background(), DirectOrderInput{
		ProductID: "p9",
		SizeLabel: "60ml",
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("DirectOrder: %v", err)
	}

	want := "Hi, I'd like to order:\nDark Woods – 60ml – ₹1599 x 2 = ₹3,198"
	if result.Message != want {
		t.Fatalf("unexpected message:\n got %q\nwant %q", result.Message, want)
	}
	if result.TotalQuantity != 2 || result.TotalAmount != 3198 {
		t.Fatalf("unexpected totals %#v", result)
	}
}

func TestDirectOrderDefaultsQuantityToOne(t *testing.T) {
	svc := newTestCheckoutService(t, CheckoutServiceDeps{})

	result, err := svc.DirectOrder(context.Background(), DirectOrderInput{
		ProductID: "p9",
		SizeLabel: "100ml",
		Quantity:  0,
	})
	if err != nil {
		t.Fatalf("DirectOrder: %v", err)
	}
	if result.TotalQuantity != 1 || result.TotalAmount != 2499 {
		t.Fatalf("unexpected totals %#v", result)
	}
}

func TestDirectOrderRejectsUnknownSize(t *testing.T) {
	svc := newTestCheckoutService(t, CheckoutServiceDeps{})

	_, err := svc.DirectOrder(context.Background(), DirectOrderInput{ProductID: "p9", SizeLabel: "5ml"})
	if !errors.Is(err, ErrCheckoutUnknownSize) {
		t.Fatalf("expected ErrCheckoutUnknownSize, got %v", err)
	}
}

func TestDirectOrderPropagatesCatalogNotFound(t *testing.T) {
	svc := newTestCheckoutService(t, CheckoutServiceDeps{})

	_, err := svc.DirectOrder(context.Background(), DirectOrderInput{ProductID: "ghost", SizeLabel: "60ml"})
	if !errors.Is(err, ErrCatalogProductNotFound) {
		t.Fatalf("expected ErrCatalogProductNotFound, got %v", err)
	}
}

func TestCheckoutPublishesOrderEvent(t *testing.T) {
	carts := newTestCartService(t, CartServiceDeps{})
	publisher := &capturingOrderEventPublisher{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestCheckoutService(t, CheckoutServiceDeps{
		Carts:      carts,
		Publisher:  publisher,
		Clock:      func() time.Time { return now },
		NewEventID: func() string { return "oe_test" },
	})
	ctx := context.Background()
	session := carts.EnsureSession("")

	if _, _, err := carts.AddItem(ctx, session, oudItem()); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := svc.Checkout(ctx, session); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.EventID != "oe_test" || event.Kind != "checkout" {
		t.Fatalf("unexpected event %#v", event)
	}
	if event.SessionID != session {
		t.Fatalf("expected session %q, got %q", session, event.SessionID)
	}
	if len(event.Lines) != 1 || event.Lines[0].ProductID != "p1" {
		t.Fatalf("unexpected lines %#v", event.Lines)
	}
	if !event.OccurredAt.Equal(now) {
		t.Fatalf("expected occurredAt %v, got %v", now, event.OccurredAt)
	}
}

func TestCheckoutSucceedsWhenPublisherFails(t *testing.T) {
	carts := newTestCartService(t, CartServiceDeps{})
	publisher := &capturingOrderEventPublisher{err: errors.New("broker down")}
	svc := newTestCheckoutService(t, CheckoutServiceDeps{Carts: carts, Publisher: publisher})
	ctx := context.Background()
	session := carts.EnsureSession("")

	if _, _, err := carts.AddItem(ctx, session, oudItem()); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := svc.Checkout(ctx, session); err != nil {
		t.Fatalf("expected checkout to survive publish failure, got %v", err)
	}
}
