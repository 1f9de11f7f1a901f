package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/shopfront/pkg/models"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Workflow runs the optimistic rating submission state machine: one
// idle -> submitting -> settled/reverted instance per purchase ref, so
// sibling line items stay independently interactive.
type Workflow struct {
	mu       sync.Mutex
	ratings  RatingSource
	loader   *Loader
	notifier Notifier
	logger   *zap.Logger
	inflight map[models.RatingRef]bool
}

func NewWorkflow(ratings RatingSource, loader *Loader, notifier Notifier, logger *zap.Logger) *Workflow {
	return &Workflow{
		ratings:  ratings,
		loader:   loader,
		notifier: notifier,
		logger:   logger,
		inflight: make(map[models.RatingRef]bool),
	}
}

// Submitting reports whether a submission is in flight for exactly this ref.
func (w *Workflow) Submitting(ref models.RatingRef) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inflight[ref]
}

// CanRate reports whether the rating control for this line item is
// interactive: delivered order, no existing rating, nothing in flight
// for the ref.
func (w *Workflow) CanRate(order *models.Order, ref models.RatingRef) bool {
	if order == nil || order.Status != models.StatusDelivered {
		return false
	}
	if _, rated := w.loader.Rating(ref); rated {
		return false
	}
	return !w.Submitting(ref)
}

// Submit runs one rating submission. Precondition rejections notify the
// user without a network call; a remote failure rolls the optimistic
// value back and notifies.
func (w *Workflow) Submit(ctx context.Context, userID string, order *models.Order, ref models.RatingRef, value int) error {
	if userID == "" {
		w.notifier.Error(userID, "Please sign in to rate products")
		return status.Error(codes.Unauthenticated, "not signed in")
	}
	if existing, ok := w.loader.Rating(ref); ok {
		w.notifier.Info(userID, fmt.Sprintf("You already rated this product %d stars", existing))
		return nil
	}
	if order == nil || order.Status != models.StatusDelivered {
		w.notifier.Info(userID, "You can rate products once the order is delivered")
		return nil
	}
	if value < 1 || value > 5 {
		return status.Error(codes.InvalidArgument, "rating must be between 1 and 5")
	}

	w.mu.Lock()
	if w.inflight[ref] {
		w.mu.Unlock()
		return nil
	}
	w.inflight[ref] = true
	w.mu.Unlock()

	// Optimistic: show the chosen value as committed while the write runs.
	w.loader.SetRating(ref, value)

	err := w.ratings.Submit(ctx, userID, ref, value)

	w.mu.Lock()
	delete(w.inflight, ref)
	w.mu.Unlock()

	if err != nil {
		w.loader.ClearRating(ref)
		if st, ok := status.FromError(err); ok && st.Code() == codes.AlreadyExists {
			// A concurrent session rated first; the ledger view is stale.
			w.loader.Invalidate()
			w.notifier.Info(userID, st.Message())
			return err
		}
		w.logger.Error("Rating submission failed",
			zap.String("product_id", ref.ProductID),
			zap.String("order_number", ref.OrderNumber),
			zap.Error(err))
		w.notifier.Error(userID, "Failed to submit rating. Please try again.")
		return err
	}

	w.notifier.Success(userID, fmt.Sprintf("Rated %d stars. Thanks for your feedback!", value))
	w.loader.Invalidate()
	return nil
}
