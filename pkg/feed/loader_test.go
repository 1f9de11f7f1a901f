package feed

import (
	"context"
	"testing"

	"github.com/example/shopfront/pkg/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDeriveRefsDedupes(t *testing.T) {
	var o1, o2 models.Order
	o1.OrderNumber = "ORD-1"
	require.NoError(t, o1.SetItems([]models.OrderItem{
		{ProductID: "p1", Quantity: 1, Price: 10},
		{ProductID: "p2", Quantity: 2, Price: 5},
		{ProductID: "p1", Quantity: 1, Price: 10}, // same product twice in one order
	}))
	o2.OrderNumber = "ORD-2"
	require.NoError(t, o2.SetItems([]models.OrderItem{
		{ProductID: "p1", Quantity: 1, Price: 10}, // same product, different order
	}))

	ids, refs := DeriveRefs([]models.Order{o1, o2})

	require.ElementsMatch(t, []string{"p1", "p2"}, ids)
	require.ElementsMatch(t, []models.RatingRef{
		{ProductID: "p1", OrderNumber: "ORD-1"},
		{ProductID: "p2", OrderNumber: "ORD-1"},
		{ProductID: "p1", OrderNumber: "ORD-2"},
	}, refs)

	seen := make(map[models.RatingRef]bool)
	for _, ref := range refs {
		require.False(t, seen[ref], "duplicate ref %v", ref)
		seen[ref] = true
	}
}

func TestDeriveRefsSkipsUndecodableOrders(t *testing.T) {
	bad := models.Order{OrderNumber: "ORD-BAD", Items: "{not json"}
	ids, refs := DeriveRefs([]models.Order{bad})
	require.Empty(t, ids)
	require.Empty(t, refs)
}

func TestLoaderSyncMemoizedByValue(t *testing.T) {
	orders := makeOrders(3, models.StatusDelivered)
	products := &fakeProducts{}
	ratings := newFakeRatings()
	loader := NewLoader(products, ratings, zap.NewNop())

	loader.Sync(context.Background(), "user-1", orders)
	require.Equal(t, 1, products.callCount())

	// Same order list by value: no refetch.
	loader.Sync(context.Background(), "user-1", orders)
	require.Equal(t, 1, products.callCount())

	// Invalidation forces a refetch of the unchanged set.
	loader.Invalidate()
	loader.Sync(context.Background(), "user-1", orders)
	require.Equal(t, 2, products.callCount())
}

func TestLoaderSyncRefetchesWhenSetChanges(t *testing.T) {
	orders := makeOrders(6, models.StatusDelivered)
	products := &fakeProducts{}
	ratings := newFakeRatings()
	loader := NewLoader(products, ratings, zap.NewNop())

	loader.Sync(context.Background(), "user-1", orders[:3])
	loader.Sync(context.Background(), "user-1", orders)
	require.Equal(t, 2, products.callCount())
}

func TestLoaderAbsorbsProductFailures(t *testing.T) {
	orders := makeOrders(2, models.StatusDelivered)
	ref := models.RatingRef{ProductID: "prod-1", OrderNumber: orders[0].OrderNumber}

	products := &fakeProducts{err: errTest}
	ratings := newFakeRatings()
	ratings.stored[ref] = 5

	loader := NewLoader(products, ratings, zap.NewNop())
	loader.Sync(context.Background(), "user-1", orders)

	// Product batch failed silently; ratings still merged.
	_, ok := loader.Product("prod-1")
	require.False(t, ok)
	value, ok := loader.Rating(ref)
	require.True(t, ok)
	require.Equal(t, 5, value)
}

func TestLoaderSkipsRatingsWhenSignedOut(t *testing.T) {
	orders := makeOrders(2, models.StatusDelivered)
	products := &fakeProducts{}
	ratings := newFakeRatings()
	loader := NewLoader(products, ratings, zap.NewNop())

	loader.Sync(context.Background(), "", orders)

	require.Zero(t, ratings.batchCalls)
	_, ok := loader.Product("prod-1")
	require.True(t, ok)
}

func TestLoaderOptimisticSetAndRollback(t *testing.T) {
	loader := NewLoader(&fakeProducts{}, newFakeRatings(), zap.NewNop())
	ref := models.RatingRef{ProductID: "p1", OrderNumber: "ORD-1"}

	loader.SetRating(ref, 4)
	value, ok := loader.Rating(ref)
	require.True(t, ok)
	require.Equal(t, 4, value)

	loader.ClearRating(ref)
	_, ok = loader.Rating(ref)
	require.False(t, ok)
}
