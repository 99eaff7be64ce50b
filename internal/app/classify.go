package app

import (
	"context"
	"errors"

	"fintrack/internal/collection"
	"fintrack/internal/core"
	"fintrack/internal/reports"
	"fintrack/internal/ui"
)

// serverMessage is implemented by transport errors that carry a message
// written by the backend for the user.
type serverMessage interface {
	ServerMessage() string
}

// Outcome is how a failed operation is presented to the user.
type Outcome struct {
	Severity ui.Severity
	Message  string
}

// Classify maps an operation error to exactly one user-facing outcome:
// local rejections are warnings, terminal states are informational and
// everything else is an error carrying the server message when there is one,
// fallback otherwise. It returns false for errors that must stay silent,
// such as a cancelled context or a response superseded by a filter change.
func Classify(err error, fallback string) (Outcome, bool) {
	switch {
	case err == nil:
		return Outcome{}, false
	case errors.Is(err, context.Canceled), errors.Is(err, collection.ErrStale):
		return Outcome{}, false
	case errors.Is(err, core.ErrAlreadyPaid):
		return Outcome{ui.Info, "Debt is already marked as paid"}, true
	case errors.Is(err, core.ErrAlreadyPremium):
		return Outcome{ui.Info, "You already have an active premium subscription."}, true
	}

	var ve *core.ValidationError
	if errors.As(err, &ve) {
		switch {
		case errors.Is(ve, core.ErrDefaultCategory),
			errors.Is(ve, core.ErrInvalidExportFormat):
			return Outcome{ui.Error, ve.Message}, true
		}
		return Outcome{ui.Warning, ve.Message}, true
	}

	var partial *reports.PartialError
	if errors.As(err, &partial) {
		return Outcome{ui.Warning, partial.Error()}, true
	}

	var sm serverMessage
	if errors.As(err, &sm) && sm.ServerMessage() != "" {
		return Outcome{ui.Error, sm.ServerMessage()}, true
	}
	if fallback == "" {
		fallback = err.Error()
	}
	return Outcome{ui.Error, fallback}, true
}

// Severity is the severity Classify assigns to err, empty when silent.
func Severity(err error) ui.Severity {
	o, ok := Classify(err, "")
	if !ok {
		return ""
	}
	return o.Severity
}
