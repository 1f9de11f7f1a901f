package feed

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/example/shopfront/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Loader maintains the product and rating projections derived from the
// currently loaded orders. The derivation is memoized by value: a Sync
// with an unchanged reference set is free.
type Loader struct {
	mu       sync.Mutex
	products ProductSource
	ratings  RatingSource
	logger   *zap.Logger

	productMap map[string]models.Product
	ratingMap  map[models.RatingRef]int
	lastSig    string
}

func NewLoader(products ProductSource, ratings RatingSource, logger *zap.Logger) *Loader {
	return &Loader{
		products:   products,
		ratings:    ratings,
		logger:     logger,
		productMap: make(map[string]models.Product),
		ratingMap:  make(map[models.RatingRef]int),
	}
}

// DeriveRefs computes the deduplicated product-id and purchase-ref sets
// for a loaded order list, sorted for a stable signature. Orders whose
// items fail to decode contribute nothing.
func DeriveRefs(orders []models.Order) ([]string, []models.RatingRef) {
	seenProduct := make(map[string]struct{})
	seenRef := make(map[models.RatingRef]struct{})
	var ids []string
	var refs []models.RatingRef

	for _, order := range orders {
		items, err := order.ParseItems()
		if err != nil {
			continue
		}
		for _, item := range items {
			if item.ProductID == "" {
				continue
			}
			if _, ok := seenProduct[item.ProductID]; !ok {
				seenProduct[item.ProductID] = struct{}{}
				ids = append(ids, item.ProductID)
			}
			ref := models.RatingRef{ProductID: item.ProductID, OrderNumber: order.OrderNumber}
			if _, ok := seenRef[ref]; !ok {
				seenRef[ref] = struct{}{}
				refs = append(refs, ref)
			}
		}
	}

	sort.Strings(ids)
	sort.Slice(refs, func(i, j int) bool { return refs[i].Key() < refs[j].Key() })
	return ids, refs
}

func signature(ids []string, refs []models.RatingRef) string {
	var b strings.Builder
	b.WriteString(strings.Join(ids, ","))
	b.WriteString("|")
	for i, ref := range refs {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(ref.Key())
	}
	return b.String()
}

// Sync re-fetches the lookup sets when they changed by value since the last
// run. Product and rating batches run in parallel; a failed batch is logged
// and skipped, never surfaced. Results merge by key, so a stale batch for a
// superseded reference set overwrites harmlessly.
func (l *Loader) Sync(ctx context.Context, userID string, orders []models.Order) {
	ids, refs := DeriveRefs(orders)
	sig := signature(ids, refs)

	l.mu.Lock()
	if sig == l.lastSig {
		l.mu.Unlock()
		return
	}
	l.lastSig = sig
	l.mu.Unlock()

	var products map[string]models.Product
	var ratings map[models.RatingRef]int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := l.products.GetProducts(gctx, ids)
		if err != nil {
			l.logger.Warn("Product batch lookup failed", zap.Error(err))
			return nil
		}
		products = m
		return nil
	})
	g.Go(func() error {
		if userID == "" {
			return nil
		}
		m, err := l.ratings.GetBatch(gctx, userID, refs)
		if err != nil {
			l.logger.Warn("Rating batch lookup failed", zap.Error(err))
			return nil
		}
		ratings = m
		return nil
	})
	_ = g.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	for id, product := range products {
		l.productMap[id] = product
	}
	for ref, value := range ratings {
		l.ratingMap[ref] = value
	}
}

func (l *Loader) Product(id string) (models.Product, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	product, ok := l.productMap[id]
	return product, ok
}

func (l *Loader) Rating(ref models.RatingRef) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	value, ok := l.ratingMap[ref]
	return value, ok
}

// SetRating records an optimistic value while a submission is in flight.
func (l *Loader) SetRating(ref models.RatingRef, value int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ratingMap[ref] = value
}

// ClearRating rolls an optimistic value back after a failed submission.
func (l *Loader) ClearRating(ref models.RatingRef) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.ratingMap, ref)
}

// Invalidate forces the next Sync to re-fetch even for an unchanged
// reference set, used after a rating settles.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastSig = ""
}
