package feed

import (
	"context"
	"sync"

	"github.com/example/shopfront/pkg/models"
	"go.uber.org/zap"
)

type fetchKind int

const (
	fetchNone fetchKind = iota
	fetchInitial
	fetchMore
	fetchRefresh
)

// Store holds the loaded slice of a user's order history plus the
// pagination flags the view renders from. At most one list-level fetch
// (initial, load-more, refresh) is in flight at a time.
type Store struct {
	mu       sync.Mutex
	source   OrderSource
	pageSize int
	logger   *zap.Logger

	orders      []models.Order
	total       int64
	hasMore     bool
	page        int
	loading     bool
	loadingMore bool
	refreshing  bool
	lastErr     error
	lastKind    fetchKind
}

func NewStore(source OrderSource, pageSize int, logger *zap.Logger) *Store {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Store{source: source, pageSize: pageSize, logger: logger}
}

func (s *Store) busyLocked() bool {
	return s.loading || s.loadingMore || s.refreshing
}

// FetchInitial loads the first page. It is a no-op while any list-level
// fetch is in flight or when no user is signed in.
func (s *Store) FetchInitial(ctx context.Context, userID string) error {
	s.mu.Lock()
	if userID == "" || s.busyLocked() {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.lastKind = fetchInitial
	s.lastErr = nil
	s.mu.Unlock()

	page, err := s.source.FetchOrders(ctx, userID, 1, s.pageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = err
		s.logger.Error("Initial order fetch failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	s.orders = page.Orders
	s.total = page.Total
	s.hasMore = page.HasMore
	s.page = 1
	return nil
}

// LoadMore appends the next page. It is a no-op when no more pages remain
// or any list-level fetch is in flight.
func (s *Store) LoadMore(ctx context.Context, userID string) error {
	s.mu.Lock()
	if userID == "" || !s.hasMore || s.busyLocked() {
		s.mu.Unlock()
		return nil
	}
	s.loadingMore = true
	s.lastKind = fetchMore
	next := s.page + 1
	s.mu.Unlock()

	page, err := s.source.FetchOrders(ctx, userID, next, s.pageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadingMore = false
	if err != nil {
		s.lastErr = err
		s.logger.Error("Order page fetch failed", zap.Int("page", next), zap.Error(err))
		return err
	}

	seen := make(map[string]struct{}, len(s.orders))
	for _, order := range s.orders {
		seen[order.ID] = struct{}{}
	}
	for _, order := range page.Orders {
		if _, ok := seen[order.ID]; ok {
			continue
		}
		s.orders = append(s.orders, order)
	}
	s.total = page.Total
	s.hasMore = page.HasMore
	s.page = next
	return nil
}

// Refresh replaces the loaded set with a fresh first page.
func (s *Store) Refresh(ctx context.Context, userID string) error {
	s.mu.Lock()
	if userID == "" || s.busyLocked() {
		s.mu.Unlock()
		return nil
	}
	s.refreshing = true
	s.lastKind = fetchRefresh
	s.mu.Unlock()

	page, err := s.source.FetchOrders(ctx, userID, 1, s.pageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshing = false
	if err != nil {
		s.lastErr = err
		s.logger.Error("Order refresh failed", zap.Error(err))
		return err
	}
	s.orders = page.Orders
	s.total = page.Total
	s.hasMore = page.HasMore
	s.page = 1
	return nil
}

// RefreshOrder swaps a single loaded order in place. Failures are local to
// the order and never touch the list-level error state.
func (s *Store) RefreshOrder(ctx context.Context, orderID string) error {
	order, err := s.source.FetchOrder(ctx, orderID)
	if err != nil {
		s.logger.Warn("Single order refresh failed", zap.String("order_id", orderID), zap.Error(err))
		return err
	}
	if order == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders[i] = *order
			break
		}
	}
	return nil
}

// Retry re-invokes whichever fetch path failed last.
func (s *Store) Retry(ctx context.Context, userID string) error {
	s.mu.Lock()
	kind := s.lastKind
	s.lastErr = nil
	s.mu.Unlock()

	switch kind {
	case fetchMore:
		return s.LoadMore(ctx, userID)
	case fetchRefresh:
		return s.Refresh(ctx, userID)
	default:
		return s.FetchInitial(ctx, userID)
	}
}

// ClearError dismisses the error state without retrying, reverting to
// whatever orders were already loaded.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// Orders returns a copy of the loaded order list.
func (s *Store) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Order returns the loaded order with the given id, or nil.
func (s *Store) Order(orderID string) *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			order := s.orders[i]
			return &order
		}
	}
	return nil
}

func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) LoadingMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadingMore
}

func (s *Store) Refreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshing
}

// Busy reports whether any list-level fetch is in flight.
func (s *Store) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busyLocked()
}

func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
