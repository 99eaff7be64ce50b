// Package cmd provides the fintrack command tree.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fintrack/internal/amqp"
	"fintrack/internal/api"
	"fintrack/internal/app"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/export/sheets"
	"fintrack/internal/log"
	"fintrack/internal/ui"
)

var (
	envFile string
	output  string
	debug   bool

	rt *runtime
)

// runtime is everything a command needs, built once per invocation.
type runtime struct {
	cfg     *config.Config
	logger  *log.Logger
	client  *api.Client
	app     *app.App
	amqp    *amqp.Client
	console *consoleNotifier
	out     *printer
}

func (r *runtime) close() {
	if r.app != nil {
		r.app.Close()
	}
	if r.amqp != nil {
		if err := r.amqp.Close(); err != nil {
			r.logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fintrack",
		Short: "Track debts, transactions and wallets from the terminal",
		Long: `fintrack talks to the finance tracker API: debts and their payments,
income and expense transactions, categories, wallets, premium reports and
exports.

Configuration is read from the environment (and .env when present).

Example:
  fintrack debts list --type PAYABLE --overdue
  fintrack debts pay <id> --amount 250000
  fintrack reports show --preset thisMonth -o yaml`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default .env)")
	root.PersistentFlags().StringVarP(&output, "output", "o", formatTable, "output format: table, json or yaml")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(debtsCmd())
	root.AddCommand(transactionsCmd())
	root.AddCommand(categoriesCmd())
	root.AddCommand(walletsCmd())
	root.AddCommand(subscriptionCmd())
	root.AddCommand(reportsCmd())
	root.AddCommand(dashboardCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(remindCmd())
	root.AddCommand(notificationsCmd())
	return root
}

// Execute runs the command tree. Failures already shown to the user through
// a notification are not printed a second time.
func Execute() error {
	err := run(context.Background(), newRootCmd(), os.Args[1:])
	if err != nil && (rt == nil || !rt.console.reported()) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func run(ctx context.Context, root *cobra.Command, args []string) error {
	rt = nil
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if rt != nil {
		rt.close()
	}
	return err
}

func setup(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		cli.LoadEnvFile()
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	logger := cli.SetupLogger(cfg, log.ComponentCLI, os.Stderr)

	out, err := newPrinter(cmd.OutOrStdout(), output)
	if err != nil {
		return err
	}

	r := &runtime{
		cfg:     cfg,
		logger:  logger,
		client:  api.New(cfg.APIBaseURL, cfg.APIToken, api.WithLogger(logger), api.WithTimeout(cfg.APITimeout)),
		console: &consoleNotifier{w: cmd.ErrOrStderr()},
		out:     out,
	}
	rt = r

	notifiers := []ui.Notifier{r.console}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, "fintrack-cli", logger)
		if err != nil {
			logger.Warn("AMQP unavailable, notifications stay local", log.FieldError, err)
		} else {
			r.amqp = client
			notifiers = append(notifiers, client)
		}
	}

	opts := app.Options{
		Notifier:  ui.Multi(notifiers...),
		Navigator: ui.NewLogNotifier(logger),
		Logger:    logger,
		PageSize:  cfg.PageSize,
		ExportDir: cfg.ExportDir,
	}
	if cfg.GoogleSpreadsheetID != "" {
		sc, err := sheets.New(cmd.Context(), sheets.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Warn("Google Sheets export disabled", log.FieldError, err)
		} else {
			opts.Sheets = sc
		}
	}
	r.app = app.New(r.client, opts)
	return nil
}

// consoleNotifier prints notifications on stderr and remembers whether a
// failure was already shown.
type consoleNotifier struct {
	w      io.Writer
	failed atomic.Bool
}

func (c *consoleNotifier) Notify(ctx context.Context, n ui.Notification) {
	if n.Severity == ui.Warning || n.Severity == ui.Error {
		c.failed.Store(true)
	}
	fmt.Fprintf(c.w, "%s %s\n", severityMark(n.Severity), n.Message)
}

func (c *consoleNotifier) reported() bool {
	return c.failed.Load()
}

func severityMark(s ui.Severity) string {
	switch s {
	case ui.Success:
		return "[ok]"
	case ui.Warning:
		return "[warn]"
	case ui.Error:
		return "[error]"
	default:
		return "[info]"
	}
}
