package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ui"
)

const (
	DefaultSchedule = "0 9 * * *"
	defaultPageSize = 50
)

// maxPages bounds a single run against a backend that never reports the last page.
const maxPages = 1000

// Source lists debts page by page.
type Source interface {
	ListDebts(ctx context.Context, filters core.DebtFilters, page, size int) (core.Page[core.Debt], error)
}

type Option func(*Scheduler)

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSchedule sets the cron expression (five fields).
func WithSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.spec = spec
		}
	}
}

func WithDaysBefore(days []int) Option {
	return func(s *Scheduler) { s.registry = DefaultRegistry(days) }
}

func WithRegistry(r *Registry) Option {
	return func(s *Scheduler) { s.registry = r }
}

func WithPageSize(size int) Option {
	return func(s *Scheduler) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// Scheduler runs reminder checks on a cron schedule.
type Scheduler struct {
	source   Source
	notifier ui.Notifier
	registry *Registry
	logger   *log.Logger
	now      func() time.Time
	loc      *time.Location
	spec     string
	pageSize int
	cron     *cron.Cron
}

func New(source Source, notifier ui.Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:   source,
		notifier: notifier,
		registry: DefaultRegistry([]int{7, 1}),
		logger:   log.Discard(),
		now:      time.Now,
		loc:      time.UTC,
		spec:     DefaultSchedule,
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentReminder)
	s.cron = cron.New(cron.WithLocation(s.loc))
	return s
}

// Start registers the job and blocks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.Run(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Reminder run failed", log.FieldError, err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reminders %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Reminder scheduler started", "schedule", s.spec, "timezone", s.loc.String())

	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	<-done.Done()
	s.logger.Info("Reminder scheduler stopped")
}

// Run checks every unpaid debt once and returns how many reminders were sent.
func (s *Scheduler) Run(ctx context.Context) (int, error) {
	reminders, err := s.Due(ctx)
	if err != nil {
		return 0, err
	}
	for _, r := range reminders {
		n := r.Notification()
		n.At = s.now()
		s.notifier.Notify(ctx, n)
		s.logger.DebugContext(ctx, "Reminder sent", log.FieldDebtID, r.Debt.ID, "kind", string(r.Kind))
	}
	s.logger.InfoContext(ctx, "Reminder run complete", "sent", len(reminders))
	return len(reminders), nil
}

// Due collects today's reminders without sending them.
func (s *Scheduler) Due(ctx context.Context) ([]Reminder, error) {
	today := core.Today(s.now().In(s.loc))
	var out []Reminder
	for page := 0; page < maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := s.source.ListDebts(ctx, core.DebtFilters{}, page, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("list debts page %d: %w", page, err)
		}
		for _, d := range p.Content {
			if d.Status == core.DebtPaid {
				continue
			}
			if r, ok := s.registry.Check(d, today); ok {
				out = append(out, r)
			}
		}
		if p.Last || len(p.Content) == 0 {
			break
		}
	}
	return out, nil
}
