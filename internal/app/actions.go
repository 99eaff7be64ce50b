package app

import (
	"context"
	"time"

	"fintrack/internal/log"
	"fintrack/internal/ui"
)

// actions is the notify-and-navigate glue shared by every façade.
type actions struct {
	notifier  ui.Notifier
	navigator ui.Navigator
	logger    *log.Logger
	now       func() time.Time
}

func (a *actions) notify(ctx context.Context, severity ui.Severity, message string) {
	a.notifier.Notify(ctx, ui.Notification{Message: message, Severity: severity, At: a.now()})
}

// done reports a success and moves to path when one is given.
func (a *actions) done(ctx context.Context, message, path string) {
	a.notify(ctx, ui.Success, message)
	if path != "" {
		a.navigator.GoTo(ctx, path)
	}
}

// fail notifies the classified outcome of err and returns err unchanged.
func (a *actions) fail(ctx context.Context, err error, fallback string) error {
	if o, ok := Classify(err, fallback); ok {
		a.logger.DebugContext(ctx, "Operation failed", log.FieldSeverity, string(o.Severity), log.FieldError, err)
		a.notify(ctx, o.Severity, o.Message)
	}
	return err
}

// failLoad is fail for reads, which always show their fixed message and may
// send the user back to a list.
func (a *actions) failLoad(ctx context.Context, err error, message, back string) error {
	if _, ok := Classify(err, message); !ok {
		return err
	}
	a.logger.WarnContext(ctx, message, log.FieldError, err)
	a.notify(ctx, ui.Error, message)
	if back != "" {
		a.navigator.GoTo(ctx, back)
	}
	return err
}
