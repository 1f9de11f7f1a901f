package feed

import (
	"context"
	"sync"

	"github.com/example/shopfront/pkg/models"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Feed composes the order store, pagination controller, batch loader and
// rating workflow into the state behind the orders screen.
type Feed struct {
	store      *Store
	loader     *Loader
	controller *Controller
	workflow   *Workflow
	logger     *zap.Logger

	mu              sync.Mutex
	userID          string
	trackingOpen    bool
	trackingOrderID string
}

type Options struct {
	Orders   OrderSource
	Products ProductSource
	Ratings  RatingSource
	Notifier Notifier
	PageSize int
	Logger   *zap.Logger
}

func New(opts Options) *Feed {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store := NewStore(opts.Orders, opts.PageSize, logger.Named("store"))
	loader := NewLoader(opts.Products, opts.Ratings, logger.Named("loader"))

	return &Feed{
		store:      store,
		loader:     loader,
		controller: NewController(store, logger.Named("pagination")),
		workflow:   NewWorkflow(opts.Ratings, loader, opts.Notifier, logger.Named("rating")),
		logger:     logger,
	}
}

// SetUser records the authenticated user, or "" when signed out.
func (f *Feed) SetUser(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userID = userID
}

func (f *Feed) user() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userID
}

func (f *Feed) sync(ctx context.Context) {
	f.loader.Sync(ctx, f.user(), f.store.Orders())
}

// Mount runs the on-appear fetch path and the derived batch load.
func (f *Feed) Mount(ctx context.Context) error {
	err := f.controller.Mount(ctx, f.user())
	f.sync(ctx)
	return err
}

// SentinelVisible feeds the end-of-list visibility level into pagination.
func (f *Feed) SentinelVisible(ctx context.Context, visible bool) error {
	err := f.controller.SentinelVisible(ctx, f.user(), visible)
	f.sync(ctx)
	return err
}

// Refresh replaces the loaded set, pull-to-refresh style.
func (f *Feed) Refresh(ctx context.Context) error {
	err := f.store.Refresh(ctx, f.user())
	f.sync(ctx)
	return err
}

// RefreshOrder reloads one order without opening its detail view.
func (f *Feed) RefreshOrder(ctx context.Context, orderID string) error {
	err := f.store.RefreshOrder(ctx, orderID)
	f.sync(ctx)
	return err
}

// Retry re-runs the failed list fetch.
func (f *Feed) Retry(ctx context.Context) error {
	err := f.controller.Retry(ctx, f.user())
	f.sync(ctx)
	return err
}

// Dismiss clears the list error without retrying.
func (f *Feed) Dismiss() {
	f.controller.Dismiss()
}

// Rate submits a star rating for a product within a loaded order.
func (f *Feed) Rate(ctx context.Context, orderID, productID string, value int) error {
	order := f.store.Order(orderID)
	if order == nil {
		return status.Error(codes.NotFound, "order not loaded")
	}
	ref := models.RatingRef{ProductID: productID, OrderNumber: order.OrderNumber}
	err := f.workflow.Submit(ctx, f.user(), order, ref, value)
	f.sync(ctx)
	return err
}

// OpenTracking selects an order for the tracking detail view. The per-order
// refresh control goes through RefreshOrder instead, so the two taps stay
// independent.
func (f *Feed) OpenTracking(orderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trackingOpen = true
	f.trackingOrderID = orderID
}

func (f *Feed) CloseTracking() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trackingOpen = false
	f.trackingOrderID = ""
}

// Tracking returns the modal open flag and the selected order id.
func (f *Feed) Tracking() (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trackingOpen, f.trackingOrderID
}

// Line is one rendered order line item merged with its product projection
// and the user's rating state.
type Line struct {
	Item       models.OrderItem
	Product    *models.Product
	Rating     int
	Rated      bool
	Submitting bool
	CanRate    bool
}

// Item is one rendered order summary.
type Item struct {
	Order        models.Order
	Badge        Badge
	PaymentBadge Badge
	Lines        []Line
}

// Snapshot is everything a renderer needs for one frame of the screen.
type Snapshot struct {
	Items       []Item
	Total       int64
	HasMore     bool
	Loading     bool
	LoadingMore bool
	Refreshing  bool
	Err         error
	Empty       bool
	EndOfList   bool
}

// Snapshot merges the loaded orders with product and rating projections.
// Line items whose lookups failed simply render without enrichment.
func (f *Feed) Snapshot() Snapshot {
	orders := f.store.Orders()
	items := make([]Item, 0, len(orders))

	for _, order := range orders {
		parsed, err := order.ParseItems()
		if err != nil {
			f.logger.Warn("Failed to parse items for order", zap.String("order_id", order.ID), zap.Error(err))
		}

		lines := make([]Line, 0, len(parsed))
		for _, item := range parsed {
			ref := models.RatingRef{ProductID: item.ProductID, OrderNumber: order.OrderNumber}

			var product *models.Product
			if p, ok := f.loader.Product(item.ProductID); ok {
				product = &p
			}
			value, rated := f.loader.Rating(ref)

			lines = append(lines, Line{
				Item:       item,
				Product:    product,
				Rating:     value,
				Rated:      rated,
				Submitting: f.workflow.Submitting(ref),
				CanRate:    f.workflow.CanRate(&order, ref),
			})
		}

		items = append(items, Item{
			Order:        order,
			Badge:        StatusBadge(order.Status),
			PaymentBadge: PaymentBadge(order.PaymentStatus),
			Lines:        lines,
		})
	}

	loading := f.store.Loading()
	lastErr := f.store.Err()

	return Snapshot{
		Items:       items,
		Total:       f.store.Total(),
		HasMore:     f.store.HasMore(),
		Loading:     loading,
		LoadingMore: f.store.LoadingMore(),
		Refreshing:  f.store.Refreshing(),
		Err:         lastErr,
		Empty:       len(items) == 0 && !loading && lastErr == nil,
		EndOfList:   len(items) > 0 && !f.store.HasMore(),
	}
}
