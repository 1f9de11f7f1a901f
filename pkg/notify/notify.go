package notify

import (
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is one toast-style message addressed to a user.
type Notification struct {
	UserID  string
	Level   Level
	Message string
}

type delivered struct{}

// Sink receives delivered notifications: a websocket push channel in
// production, a recorder in tests.
type Sink interface {
	Deliver(n Notification)
}

// NotificationActor fans incoming notifications out to its sinks.
type NotificationActor struct {
	logger *zap.Logger
	sinks  []Sink
}

func (a *NotificationActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *Notification:
		a.logger.Info("Delivering notification",
			zap.String("user_id", msg.UserID),
			zap.String("level", string(msg.Level)),
			zap.String("message", msg.Message))

		for _, sink := range a.sinks {
			sink.Deliver(*msg)
		}

		if ctx.Sender() != nil {
			ctx.Respond(&delivered{})
		}

	case *actor.Started:
		a.logger.Info("Notification actor started")

	case *actor.Stopping:
		a.logger.Info("Notification actor stopping")

	case *actor.Stopped:
		a.logger.Info("Notification actor stopped")
	}
}

// Notifier is the synchronous facade in front of the notification actor.
type Notifier struct {
	system *actor.ActorSystem
	pid    *actor.PID
	logger *zap.Logger
}

func NewNotifier(system *actor.ActorSystem, logger *zap.Logger, sinks ...Sink) (*Notifier, error) {
	props := actor.PropsFromProducer(func() actor.Actor {
		return &NotificationActor{logger: logger.Named("notification-actor"), sinks: sinks}
	})
	pid, err := system.Root.SpawnNamed(props, "notification-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn notification actor: %w", err)
	}

	return &Notifier{system: system, pid: pid, logger: logger}, nil
}

func (n *Notifier) Success(userID, message string) {
	n.send(LevelSuccess, userID, message)
}

func (n *Notifier) Info(userID, message string) {
	n.send(LevelInfo, userID, message)
}

func (n *Notifier) Error(userID, message string) {
	n.send(LevelError, userID, message)
}

func (n *Notifier) send(level Level, userID, message string) {
	future := n.system.Root.RequestFuture(n.pid, &Notification{
		UserID:  userID,
		Level:   level,
		Message: message,
	}, 5*time.Second)

	if _, err := future.Result(); err != nil {
		n.logger.Error("Failed to deliver notification",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}
