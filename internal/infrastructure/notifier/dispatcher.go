package notifier

import (
	"context"
	"log/slog"

	"buybox_tracker/internal/domain/entity"
	"buybox_tracker/pkg/contextx"
	"buybox_tracker/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Sink delivers one event to an operator channel.
type Sink interface {
	Send(ctx context.Context, event entity.Event) error
}

// Dispatcher consumes the diff engine's event channel and fans every event
// out to all configured sinks. Delivery is best effort: a sink failure is
// logged and swallowed, it never reaches the tracking cycle.
type Dispatcher struct {
	sinks []Sink
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks}
}

func (d *Dispatcher) Run(ctx context.Context, events <-chan entity.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			d.dispatch(ctx, event)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, event entity.Event) {
	for _, sink := range d.sinks {
		if err := sink.Send(ctx, event); err != nil {
			logger(ctx).Error("failed to deliver notification",
				slog.String(logx.FieldEventKind, string(event.Kind)),
				slog.String(logx.FieldSubjectID, event.SubjectID),
				slog.String(logx.FieldItemID, event.ItemID),
				logx.Error(err),
			)
		}
	}
}
