package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/reminder"
	"fintrack/internal/ui"
)

const shutdownTimeout = 10 * time.Second

func remindCmd() *cobra.Command {
	var (
		watch  bool
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send reminders for overdue and upcoming debts",
		Long: `Check every unpaid debt and send a reminder for the overdue ones, the
ones due today and the ones due in REMINDER_DAYS_BEFORE days.

Reminders are printed and, when AMQP_URL is set, published to the
notifications exchange. With --watch the check runs on REMINDER_SCHEDULE
until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rt.cfg
			notifiers := []ui.Notifier{&consoleNotifier{w: cmd.ErrOrStderr()}}
			if rt.amqp != nil {
				notifiers = append(notifiers, rt.amqp)
			}
			s := reminder.New(rt.client, ui.Multi(notifiers...),
				reminder.WithLocation(cfg.Location()),
				reminder.WithSchedule(cfg.ReminderSchedule),
				reminder.WithDaysBefore(cfg.ReminderDaysBefore),
				reminder.WithPageSize(cfg.PageSize),
				reminder.WithLogger(rt.logger),
			)

			if dryRun {
				due, err := s.Due(cmd.Context())
				if err != nil {
					return err
				}
				today := core.Today(time.Now().In(cfg.Location()))
				t := table{header: []string{"KIND", "DEBT", "COUNTERPARTY", "REMAINING", "DUE", "MESSAGE"}}
				for _, r := range due {
					t.add(string(r.Kind), r.Debt.ID, r.Debt.CounterpartyName, idr(r.Debt.RemainingAmount), dueLabel(r.Debt.DueDate, today), r.Message)
				}
				return rt.out.print(due, t)
			}

			if !watch {
				n, err := s.Run(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%d reminder(s) sent\n", n)
				return nil
			}

			ctx, done := cli.GracefulShutdown(rt.logger, shutdownTimeout, func(context.Context) {})
			if err := s.Start(ctx); err != nil {
				return err
			}
			<-done
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running on the reminder schedule")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list due reminders without sending them")
	return cmd
}

func notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Read notifications published by fintrack processes",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "tail",
		Short: "Print notifications from the AMQP queue until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.amqp == nil {
				return errors.New("notifications need AMQP_URL to point at a reachable broker")
			}
			ctx, done := cli.GracefulShutdown(rt.logger, shutdownTimeout, func(context.Context) {})
			w := cmd.OutOrStdout()
			err := rt.amqp.Consume(ctx, func(n ui.Notification) error {
				at := n.At
				if at.IsZero() {
					at = time.Now()
				}
				if output == formatTable {
					_, err := fmt.Fprintf(w, "%s %s %s\n", at.Local().Format(time.DateTime), severityMark(n.Severity), n.Message)
					return err
				}
				return rt.out.print(n, table{})
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			if ctx.Err() != nil {
				<-done
			}
			return nil
		},
	})
	return cmd
}

// dueLabel renders a due date relative to today.
func dueLabel(d core.Date, today core.Date) string {
	switch n := today.DaysUntil(d); {
	case n == 0:
		return d.String() + " (today)"
	case n < 0:
		return fmt.Sprintf("%s (%d days ago)", d, -n)
	default:
		return fmt.Sprintf("%s (in %d days)", d, n)
	}
}
