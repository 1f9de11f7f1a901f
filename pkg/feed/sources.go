// Package feed implements the state layer behind the customer orders
// screen: a paginated order store, viewport-driven pagination, batched
// product and rating enrichment, and an optimistic rating workflow.
// It is written against small source interfaces so it runs over the
// shopfront backend services or the HTTP client interchangeably.
package feed

import (
	"context"

	"github.com/example/shopfront/pkg/models"
)

// Page is one fetched slice of a user's order history.
type Page struct {
	Orders  []models.Order
	Total   int64
	HasMore bool
}

// OrderSource serves pages of a user's orders.
type OrderSource interface {
	FetchOrders(ctx context.Context, userID string, page, pageSize int) (Page, error)
	// FetchOrder returns (nil, nil) when the order does not exist.
	FetchOrder(ctx context.Context, orderID string) (*models.Order, error)
}

// ProductSource batch-resolves product projections. Missing or failed ids
// are absent from the result, not errors.
type ProductSource interface {
	GetProducts(ctx context.Context, ids []string) (map[string]models.Product, error)
}

// RatingSource reads and writes the user's per-purchase ratings.
type RatingSource interface {
	GetBatch(ctx context.Context, userID string, refs []models.RatingRef) (map[models.RatingRef]int, error)
	Submit(ctx context.Context, userID string, ref models.RatingRef, value int) error
}

// Notifier shows toast-style messages to the user.
type Notifier interface {
	Success(userID, message string)
	Info(userID, message string)
	Error(userID, message string)
}
