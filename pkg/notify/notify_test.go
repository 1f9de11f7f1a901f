package notify

import (
	"sync"
	"testing"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorderSink struct {
	mu       sync.Mutex
	received []Notification
}

func (r *recorderSink) Deliver(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, n)
}

func (r *recorderSink) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.received...)
}

func TestNotifierDeliversToSinks(t *testing.T) {
	system := actor.NewActorSystem()
	defer system.Shutdown()

	first := &recorderSink{}
	second := &recorderSink{}
	notifier, err := NewNotifier(system, zap.NewNop(), first, second)
	require.NoError(t, err)

	// send blocks on the actor's response, so deliveries are visible
	// as soon as these calls return.
	notifier.Success("user-1", "Rated 4 stars. Thanks for your feedback!")
	notifier.Info("user-1", "You already rated this product.")
	notifier.Error("user-2", "Failed to submit rating. Please try again.")

	want := []Notification{
		{UserID: "user-1", Level: LevelSuccess, Message: "Rated 4 stars. Thanks for your feedback!"},
		{UserID: "user-1", Level: LevelInfo, Message: "You already rated this product."},
		{UserID: "user-2", Level: LevelError, Message: "Failed to submit rating. Please try again."},
	}
	require.Equal(t, want, first.all())
	require.Equal(t, want, second.all())
}

func TestNotifierOrdersPerSender(t *testing.T) {
	system := actor.NewActorSystem()
	defer system.Shutdown()

	sink := &recorderSink{}
	notifier, err := NewNotifier(system, zap.NewNop(), sink)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		notifier.Info("user-1", "ping")
	}
	require.Len(t, sink.all(), 10)
}
