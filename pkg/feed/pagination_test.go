package feed

import (
	"context"
	"testing"

	"github.com/example/shopfront/pkg/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestControllerMountFetchesOnce(t *testing.T) {
	source := newFakeOrders(makeOrders(5, models.StatusDelivered), 10)
	store := NewStore(source, 10, zap.NewNop())
	controller := NewController(store, zap.NewNop())

	require.NoError(t, controller.Mount(context.Background(), "user-1"))
	require.Len(t, store.Orders(), 5)
	require.Equal(t, 1, source.callCount())

	// A remount with orders already loaded is a no-op.
	require.NoError(t, controller.Mount(context.Background(), "user-1"))
	require.Equal(t, 1, source.callCount())
}

func TestControllerMountUnauthenticated(t *testing.T) {
	source := newFakeOrders(makeOrders(5, models.StatusDelivered), 10)
	store := NewStore(source, 10, zap.NewNop())
	controller := NewController(store, zap.NewNop())

	require.NoError(t, controller.Mount(context.Background(), ""))
	require.Zero(t, source.callCount())
}

func TestSentinelEdgeTriggered(t *testing.T) {
	source := newFakeOrders(makeOrders(25, models.StatusDelivered), 10)
	store := NewStore(source, 10, zap.NewNop())
	controller := NewController(store, zap.NewNop())
	require.NoError(t, controller.Mount(context.Background(), "user-1"))

	// Rising edge fires exactly one page fetch.
	require.NoError(t, controller.SentinelVisible(context.Background(), "user-1", true))
	require.Equal(t, 2, source.callCount())
	require.Len(t, store.Orders(), 20)

	// Repeated visibility events while still visible do not re-fire.
	require.NoError(t, controller.SentinelVisible(context.Background(), "user-1", true))
	require.NoError(t, controller.SentinelVisible(context.Background(), "user-1", true))
	require.Equal(t, 2, source.callCount())

	// Leaving and re-entering the viewport fires again.
	require.NoError(t, controller.SentinelVisible(context.Background(), "user-1", false))
	require.NoError(t, controller.SentinelVisible(context.Background(), "user-1", true))
	require.Equal(t, 3, source.callCount())
	require.Len(t, store.Orders(), 25)
	require.False(t, store.HasMore())
}

func TestSentinelNeverFiresWithoutMorePages(t *testing.T) {
	source := newFakeOrders(makeOrders(5, models.StatusDelivered), 10)
	store := NewStore(source, 10, zap.NewNop())
	controller := NewController(store, zap.NewNop())
	require.NoError(t, controller.Mount(context.Background(), "user-1"))
	require.False(t, store.HasMore())

	for i := 0; i < 3; i++ {
		require.NoError(t, controller.SentinelVisible(context.Background(), "user-1", true))
		require.NoError(t, controller.SentinelVisible(context.Background(), "user-1", false))
	}
	require.Equal(t, 1, source.callCount())
}

func TestSentinelRequiresUser(t *testing.T) {
	source := newFakeOrders(makeOrders(25, models.StatusDelivered), 10)
	store := NewStore(source, 10, zap.NewNop())
	controller := NewController(store, zap.NewNop())
	require.NoError(t, controller.Mount(context.Background(), "user-1"))

	require.NoError(t, controller.SentinelVisible(context.Background(), "", true))
	require.Equal(t, 1, source.callCount())
}

func TestControllerRetryAndDismiss(t *testing.T) {
	source := newFakeOrders(makeOrders(5, models.StatusDelivered), 10)
	store := NewStore(source, 10, zap.NewNop())
	controller := NewController(store, zap.NewNop())

	source.setErr(errTest)
	require.Error(t, controller.Mount(context.Background(), "user-1"))
	require.Error(t, store.Err())

	controller.Dismiss()
	require.NoError(t, store.Err())

	source.setErr(nil)
	require.NoError(t, controller.Retry(context.Background(), "user-1"))
	require.Len(t, store.Orders(), 5)
}
