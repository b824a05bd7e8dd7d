package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MrWong99/presenter/internal/observe"
)

var (
	// ErrRejected is returned by a target whose receiver refused the message.
	ErrRejected = errors.New("dispatch: rejected by receiver")

	// ErrNoListeners is returned by [Hub.Send] when no presenter is connected.
	ErrNoListeners = errors.New("dispatch: no presenters connected")
)

// Target delivers a [Message] somewhere. Send returns nil once the receiver
// has accepted the message.
type Target interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// LogTarget writes the message to the structured log and always succeeds.
// It backs the demo configuration, where nothing real is started.
type LogTarget struct {
	name string
}

// NewLogTarget returns a LogTarget called name.
func NewLogTarget(name string) *LogTarget {
	return &LogTarget{name: name}
}

// Name implements [Target].
func (t *LogTarget) Name() string { return t.name }

// Send implements [Target].
func (t *LogTarget) Send(ctx context.Context, msg Message) error {
	observe.Logger(observe.WithSession(ctx, msg.SessionID)).Info("start presentation",
		slog.String("target", t.name),
		slog.String("message_id", msg.ID),
		slog.String("presentation", msg.Presentation.Name),
		slog.String("filename", msg.Presentation.Filename),
		slog.Float64("confidence", msg.Confidence),
	)
	return nil
}
