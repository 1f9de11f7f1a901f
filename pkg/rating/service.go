package rating

import (
	"context"
	"errors"
	"sync"

	"github.com/example/shopfront/pkg/models"
	"github.com/example/shopfront/pkg/repository"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Ledger is the per-purchase rating store, usually MongoDB.
type Ledger interface {
	Get(ctx context.Context, userID string, ref models.RatingRef) (*repository.UserRating, error)
	Insert(ctx context.Context, rating *repository.UserRating) error
}

// OrderStore resolves the order a rating is scoped to.
type OrderStore interface {
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ApplyRating(ctx context.Context, productID string, value int) error
}

// Invalidator drops a product's cached projection after its average moves.
type Invalidator interface {
	Invalidate(ctx context.Context, productID string) error
}

// Auditor records rating submissions for the audit trail.
type Auditor interface {
	CreateAuditLog(ctx context.Context, log *repository.AuditLog) error
}

type Service struct {
	ledger  Ledger
	orders  OrderStore
	catalog Invalidator
	audit   Auditor
	logger  *zap.Logger
}

func NewService(ledger Ledger, orders OrderStore, catalog Invalidator, audit Auditor, logger *zap.Logger) *Service {
	return &Service{
		ledger:  ledger,
		orders:  orders,
		catalog: catalog,
		audit:   audit,
		logger:  logger,
	}
}

// Get returns the user's rating for the purchase, or ok=false when unrated.
func (s *Service) Get(ctx context.Context, userID string, ref models.RatingRef) (int, bool, error) {
	rating, err := s.ledger.Get(ctx, userID, ref)
	if err != nil {
		return 0, false, err
	}
	if rating == nil {
		return 0, false, nil
	}
	return rating.Rating, true, nil
}

// GetBatch looks up refs in parallel. Failed lookups are logged and excluded;
// a missing rating must not fail the whole batch.
func (s *Service) GetBatch(ctx context.Context, userID string, refs []models.RatingRef) (map[models.RatingRef]int, error) {
	var mu sync.Mutex
	result := make(map[models.RatingRef]int, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			value, ok, err := s.Get(gctx, userID, ref)
			if err != nil {
				s.logger.Warn("Rating lookup failed",
					zap.String("product_id", ref.ProductID),
					zap.String("order_number", ref.OrderNumber),
					zap.Error(err))
				return nil
			}
			if !ok {
				return nil
			}
			mu.Lock()
			result[ref] = value
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

// Submit writes a rating for a delivered purchase. Errors carry gRPC codes:
// Unauthenticated, InvalidArgument, NotFound, PermissionDenied,
// FailedPrecondition, AlreadyExists, Internal.
func (s *Service) Submit(ctx context.Context, userID string, ref models.RatingRef, value int) error {
	if userID == "" {
		return status.Error(codes.Unauthenticated, "sign in to rate products")
	}
	if value < 1 || value > 5 {
		return status.Error(codes.InvalidArgument, "rating must be between 1 and 5")
	}

	existing, err := s.ledger.Get(ctx, userID, ref)
	if err != nil {
		s.logger.Error("Failed to check existing rating", zap.Error(err))
		return status.Error(codes.Internal, "failed to check existing rating")
	}
	if existing != nil {
		return status.Errorf(codes.AlreadyExists, "you already rated this product %d stars", existing.Rating)
	}

	order, err := s.orders.GetByNumber(ctx, ref.OrderNumber)
	if err != nil {
		s.logger.Error("Failed to load order", zap.String("order_number", ref.OrderNumber), zap.Error(err))
		return status.Error(codes.Internal, "failed to load order")
	}
	if order == nil {
		return status.Error(codes.NotFound, "order not found")
	}
	if order.UserID != userID {
		return status.Error(codes.PermissionDenied, "order belongs to another user")
	}
	if order.Status != models.StatusDelivered {
		return status.Error(codes.FailedPrecondition, "only delivered orders can be rated")
	}

	items, err := order.ParseItems()
	if err != nil {
		s.logger.Error("Failed to parse order items", zap.String("order_id", order.ID), zap.Error(err))
		return status.Error(codes.Internal, "failed to parse order items")
	}
	inOrder := false
	for _, item := range items {
		if item.ProductID == ref.ProductID {
			inOrder = true
			break
		}
	}
	if !inOrder {
		return status.Error(codes.NotFound, "product is not part of this order")
	}

	err = s.ledger.Insert(ctx, &repository.UserRating{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProductID:   ref.ProductID,
		OrderNumber: ref.OrderNumber,
		Rating:      value,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyRated) {
			return status.Error(codes.AlreadyExists, "you already rated this product")
		}
		s.logger.Error("Failed to insert rating", zap.Error(err))
		return status.Error(codes.Internal, "failed to save rating")
	}

	// The ledger document is authoritative; aggregate and cache updates
	// are best-effort follow-ups.
	if err := s.orders.ApplyRating(ctx, ref.ProductID, value); err != nil {
		s.logger.Error("Failed to update product average", zap.String("product_id", ref.ProductID), zap.Error(err))
	}
	if err := s.catalog.Invalidate(ctx, ref.ProductID); err != nil {
		s.logger.Warn("Failed to invalidate product cache", zap.String("product_id", ref.ProductID), zap.Error(err))
	}

	// Audit log
	go s.audit.CreateAuditLog(context.Background(), &repository.AuditLog{
		Service:  "rating-service",
		Action:   "submit_rating",
		EntityID: ref.ProductID,
		Data: bson.M{
			"user_id":      userID,
			"order_number": ref.OrderNumber,
			"rating":       value,
		},
	})

	return nil
}
