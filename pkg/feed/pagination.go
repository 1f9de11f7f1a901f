package feed

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Controller drives pagination from sentinel visibility. Visibility is a
// level signal that may repeat while the sentinel stays on screen; the
// controller edge-detects it so each not-visible to visible transition
// triggers at most one page fetch.
type Controller struct {
	mu      sync.Mutex
	store   *Store
	logger  *zap.Logger
	visible bool
}

func NewController(store *Store, logger *zap.Logger) *Controller {
	return &Controller{store: store, logger: logger}
}

// Mount triggers the initial fetch when a user is signed in, nothing is
// loaded yet and no fetch is in flight.
func (c *Controller) Mount(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if len(c.store.Orders()) > 0 || c.store.Busy() {
		return nil
	}
	return c.store.FetchInitial(ctx, userID)
}

// SentinelVisible reports the sentinel's current visibility. A load-more
// fires only on the rising edge, and only while more pages remain, nothing
// is in flight and a user is signed in.
func (c *Controller) SentinelVisible(ctx context.Context, userID string, visible bool) error {
	c.mu.Lock()
	edge := visible && !c.visible
	c.visible = visible
	c.mu.Unlock()

	if !edge || userID == "" {
		return nil
	}
	if !c.store.HasMore() || c.store.Busy() {
		return nil
	}
	return c.store.LoadMore(ctx, userID)
}

// Retry re-runs the failed fetch path.
func (c *Controller) Retry(ctx context.Context, userID string) error {
	return c.store.Retry(ctx, userID)
}

// Dismiss clears the error state without retrying.
func (c *Controller) Dismiss() {
	c.store.ClearError()
}
