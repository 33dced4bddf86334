package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/ruh-al-oud/api/internal/domain"
)

const defaultSessionTTL = 2 * time.Hour

var (
	// ErrCartInvalidInput indicates the caller supplied invalid data to a cart mutation.
	ErrCartInvalidInput = errors.New("cart service: invalid input")
)

// CartServiceDeps bundles constructor inputs for the cart service.
type CartServiceDeps struct {
	SessionTTL time.Duration
	Clock      func() time.Time
	NewID      func() string
}

type cartSession struct {
	items     []domain.CartItem
	lastTouch time.Time
}

type cartService struct {
	ttl   time.Duration
	clock func() time.Time
	newID func() string

	mu       sync.Mutex
	sessions map[string]*cartSession
}

// NewCartService constructs the in-memory session cart service.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	ttl := deps.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.NewID
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	return &cartService{
		ttl:      ttl,
		clock:    clock,
		newID:    newID,
		sessions: make(map[string]*cartSession),
	}, nil
}

// EnsureSession returns the canonical session ID for the supplied value.
// Blank or malformed values get a freshly minted ULID; unknown but
// well-formed values keep their ID and a cart is created on first touch.
func (s *cartService) EnsureSession(sessionID string) string {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return s.newID()
	}
	if _, err := ulid.ParseStrict(strings.ToUpper(sessionID)); err != nil {
		return s.newID()
	}
	return strings.ToUpper(sessionID)
}

func (s *cartService) Get(ctx context.Context, sessionID string) (CartView, error) {
	if err := ctxErr(ctx); err != nil {
		return CartView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID, session := s.touch(sessionID)
	return s.viewLocked(sessionID, session), nil
}

// AddItem appends a new line with quantity one, or increments the existing
// line for the same product and size. The caller guarantees the size belongs
// to the product; the engine only records the snapshot it is given.
func (s *cartService) AddItem(ctx context.Context, sessionID string, input AddItemInput) (domain.CartChange, CartView, error) {
	if err := ctxErr(ctx); err != nil {
		return domain.CartChange{}, CartView{}, err
	}
	if strings.TrimSpace(input.ProductID) == "" || strings.TrimSpace(input.SizeLabel) == "" {
		return domain.CartChange{}, CartView{}, ErrCartInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID, session := s.touch(sessionID)
	key := domain.NewCartItemKey(input.ProductID, input.SizeLabel)

	for i := range session.items {
		if session.items[i].Key() == key {
			session.items[i].Quantity++
			change := changeFor(domain.CartItemIncremented, session.items[i])
			return change, s.viewLocked(sessionID, session), nil
		}
	}

	item := domain.CartItem{
		ProductID:   strings.TrimSpace(input.ProductID),
		ProductName: input.ProductName,
		SizeLabel:   strings.TrimSpace(input.SizeLabel),
		UnitPrice:   input.UnitPrice,
		ImageURL:    input.ImageURL,
		Quantity:    1,
	}
	session.items = append(session.items, item)
	change := changeFor(domain.CartItemAdded, item)
	return change, s.viewLocked(sessionID, session), nil
}

// UpdateQuantity sets the line quantity. Anything below one removes the
// line; updating an absent line is a no-op and never an error.
func (s *cartService) UpdateQuantity(ctx context.Context, sessionID string, key domain.CartItemKey, quantity int) (domain.CartChange, CartView, error) {
	if err := ctxErr(ctx); err != nil {
		return domain.CartChange{}, CartView{}, err
	}
	if quantity < 1 {
		return s.RemoveItem(ctx, sessionID, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID, session := s.touch(sessionID)
	for i := range session.items {
		if session.items[i].Key() == key {
			session.items[i].Quantity = quantity
			change := changeFor(domain.CartItemUpdated, session.items[i])
			return change, s.viewLocked(sessionID, session), nil
		}
	}
	return domain.CartChange{Kind: domain.CartUnchanged, ProductID: key.ProductID, SizeLabel: key.SizeLabel},
		s.viewLocked(sessionID, session), nil
}

// RemoveItem drops the line when present. Removing an absent line is a
// no-op and never an error.
func (s *cartService) RemoveItem(ctx context.Context, sessionID string, key domain.CartItemKey) (domain.CartChange, CartView, error) {
	if err := ctxErr(ctx); err != nil {
		return domain.CartChange{}, CartView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID, session := s.touch(sessionID)
	for i := range session.items {
		if session.items[i].Key() == key {
			removed := session.items[i]
			session.items = append(session.items[:i], session.items[i+1:]...)
			change := changeFor(domain.CartItemRemoved, removed)
			return change, s.viewLocked(sessionID, session), nil
		}
	}
	return domain.CartChange{Kind: domain.CartUnchanged, ProductID: key.ProductID, SizeLabel: key.SizeLabel},
		s.viewLocked(sessionID, session), nil
}

func (s *cartService) Clear(ctx context.Context, sessionID string) (CartView, error) {
	if err := ctxErr(ctx); err != nil {
		return CartView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID, session := s.touch(sessionID)
	session.items = nil
	return s.viewLocked(sessionID, session), nil
}

// ExpireIdleSessions discards sessions idle for longer than the TTL.
func (s *cartService) ExpireIdleSessions(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if now.Sub(session.lastTouch) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// touch resolves the session, creating it on first use, and refreshes its
// idle timer. Callers must hold the mutex.
func (s *cartService) touch(sessionID string) (string, *cartSession) {
	sessionID = s.EnsureSession(sessionID)
	session, ok := s.sessions[sessionID]
	if !ok {
		session = &cartSession{}
		s.sessions[sessionID] = session
	}
	session.lastTouch = s.clock()
	return sessionID, session
}

func (s *cartService) viewLocked(sessionID string, session *cartSession) CartView {
	items := make([]domain.CartItem, len(session.items))
	copy(items, session.items)

	view := CartView{SessionID: sessionID, Items: items}
	for _, item := range items {
		view.TotalQuantity += item.Quantity
		view.Subtotal += item.UnitPrice * int64(item.Quantity)
	}
	return view
}

func changeFor(kind domain.CartChangeKind, item domain.CartItem) domain.CartChange {
	return domain.CartChange{
		Kind:        kind,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		SizeLabel:   item.SizeLabel,
		Quantity:    item.Quantity,
	}
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
