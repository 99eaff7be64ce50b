// Package ui defines the notification and navigation collaborators the
// action layer talks to, with log-backed and recording implementations.
package ui

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/log"
)

type Severity string

const (
	Success Severity = "success"
	Info    Severity = "info"
	Warning Severity = "warning"
	Error   Severity = "error"
)

// Level maps a severity to the log level it is recorded at.
func (s Severity) Level() slog.Level {
	switch s {
	case Warning:
		return slog.LevelWarn
	case Error:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type Notification struct {
	Message  string    `json:"message" yaml:"message"`
	Severity Severity  `json:"severity" yaml:"severity"`
	At       time.Time `json:"at" yaml:"at"`
}

// Notifier shows a message to the user. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Navigator moves the user to another screen.
type Navigator interface {
	GoTo(ctx context.Context, path string)
}

type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

type NavigatorFunc func(ctx context.Context, path string)

func (f NavigatorFunc) GoTo(ctx context.Context, path string) { f(ctx, path) }

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger.WithComponent(log.ComponentUI)}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	l.logger.Log(ctx, n.Severity.Level(), n.Message, log.FieldSeverity, string(n.Severity))
}

func (l *LogNotifier) GoTo(ctx context.Context, path string) {
	l.logger.DebugContext(ctx, "Navigate", log.FieldPath, path)
}

// Multi fans a notification out to every notifier. Nil entries are skipped.
func Multi(notifiers ...Notifier) Notifier {
	var out []Notifier
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return NotifierFunc(func(ctx context.Context, n Notification) {
		for _, target := range out {
			target.Notify(ctx, n)
		}
	})
}

// Recorder keeps every notification and navigation in memory.
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
	paths         []string
}

func (r *Recorder) Notify(ctx context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *Recorder) GoTo(ctx context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notifications) == 0 {
		return Notification{}, false
	}
	return r.notifications[len(r.notifications)-1], true
}

func (r *Recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = nil
	r.paths = nil
}
