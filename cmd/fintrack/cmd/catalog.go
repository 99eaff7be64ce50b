package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "Manage income and expense categories",
	}
	cmd.AddCommand(categoriesListCmd(), categoriesCreateCmd(), categoriesUpdateCmd(), categoriesDeleteCmd())
	return cmd
}

func categoryTable(items []core.Category) table {
	t := table{header: []string{"ID", "NAME", "TYPE", "ICON", "COLOR", "DEFAULT"}}
	for _, c := range items {
		def := ""
		if c.IsDefault {
			def = "yes"
		}
		t.add(c.ID, c.Name, string(c.Type), orDash(c.Icon), orDash(c.Color), def)
	}
	return t
}

func categoriesListCmd() *cobra.Command {
	var (
		typ    string
		custom bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseTxType(typ)
			if err != nil {
				return err
			}
			cats := rt.app.Categories
			if err := cats.Load(cmd.Context(), kind); err != nil {
				return err
			}
			items := cats.Store().Categories()
			if custom {
				items = cats.Store().Custom()
			}
			return rt.out.print(items, categoryTable(items))
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "INCOME or EXPENSE")
	cmd.Flags().BoolVar(&custom, "custom", false, "hide the default categories")
	return cmd
}

type categoryFlags struct {
	name, typ, icon, color string
}

func (f *categoryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "category name")
	cmd.Flags().StringVar(&f.typ, "type", "", "INCOME or EXPENSE")
	cmd.Flags().StringVar(&f.icon, "icon", "", "icon name")
	cmd.Flags().StringVar(&f.color, "color", "", "hex color, e.g. #FF8800")
}

func (f *categoryFlags) apply(cmd *cobra.Command, in *core.CategoryInput) {
	if changed(cmd, "name") {
		in.Name = f.name
	}
	if changed(cmd, "type") {
		in.Type = core.TransactionType(f.typ)
	}
	if changed(cmd, "icon") {
		in.Icon = f.icon
	}
	if changed(cmd, "color") {
		in.Color = f.color
	}
}

func categoriesCreateCmd() *cobra.Command {
	var f categoryFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a custom category",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in core.CategoryInput
			f.apply(cmd, &in)
			ctx := cmd.Context()
			// The duplicate check runs against the loaded list.
			if err := rt.app.Categories.Load(ctx, ""); err != nil {
				return err
			}
			c, err := rt.app.Categories.Create(ctx, in)
			if err != nil {
				return err
			}
			return rt.out.print(c, categoryTable([]core.Category{c}))
		},
	}
	f.register(cmd)
	return cmd
}

func categoriesUpdateCmd() *cobra.Command {
	var f categoryFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or restyle a custom category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := rt.app.Categories.Load(ctx, ""); err != nil {
				return err
			}
			cur, err := rt.app.Categories.Open(ctx, args[0])
			if err != nil {
				return err
			}
			in := core.CategoryInput{Name: cur.Name, Type: cur.Type, Icon: cur.Icon, Color: cur.Color}
			f.apply(cmd, &in)
			c, err := rt.app.Categories.Update(ctx, args[0], in)
			if err != nil {
				return err
			}
			return rt.out.print(c, categoryTable([]core.Category{c}))
		},
	}
	f.register(cmd)
	return cmd
}

func categoriesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a custom category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := rt.app.Categories.Load(ctx, ""); err != nil {
				return err
			}
			return rt.app.Categories.Delete(ctx, args[0])
		},
	}
}

func walletsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wallets",
		Aliases: []string{"wallet"},
		Short:   "Manage wallets",
	}
	cmd.AddCommand(walletsListCmd(), walletsCreateCmd(), walletsUpdateCmd(), walletsDeleteCmd())
	return cmd
}

func walletTable(items []core.Wallet) table {
	t := table{header: []string{"ID", "NAME", "CURRENCY", "INITIAL", "BALANCE"}}
	for _, w := range items {
		t.add(w.ID, w.Name, string(w.Currency), core.FormatMoney(w.InitialBalance, w.Currency), w.Formatted())
	}
	return t
}

func walletsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List wallets with their balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := rt.app.Wallets
			if err := ws.Load(cmd.Context()); err != nil {
				return err
			}
			items := ws.Store().Wallets()
			t := walletTable(items)
			if len(items) > 1 {
				t.add("", "TOTAL", "", "", idr(ws.Store().TotalBalance()))
			}
			return rt.out.print(items, t)
		},
	}
}

type walletFlags struct {
	name, currency, balance string
}

func (f *walletFlags) register(cmd *cobra.Command) {
	currencies := make([]string, 0, len(core.SupportedCurrencies()))
	for _, c := range core.SupportedCurrencies() {
		currencies = append(currencies, string(c))
	}
	cmd.Flags().StringVar(&f.name, "name", "", "wallet name")
	cmd.Flags().StringVar(&f.currency, "currency", string(core.DefaultCurrency), "one of "+strings.Join(currencies, ", "))
	cmd.Flags().StringVar(&f.balance, "initial-balance", "0", "opening balance")
}

func (f *walletFlags) apply(cmd *cobra.Command, in *core.WalletInput, creating bool) error {
	if changed(cmd, "name") {
		in.Name = f.name
	}
	if creating || changed(cmd, "currency") {
		c, err := core.ParseCurrency(f.currency)
		if err != nil {
			return fmt.Errorf("--currency: %w", err)
		}
		in.Currency = c
	}
	if creating || changed(cmd, "initial-balance") {
		m, err := core.ParseMoney(f.balance)
		if err != nil {
			return fmt.Errorf("--initial-balance: %w", err)
		}
		in.InitialBalance = m
	}
	return nil
}

func walletsCreateCmd() *cobra.Command {
	var f walletFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a wallet",
		Long:  "Open a wallet. Free accounts hold a single wallet.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in core.WalletInput
			if err := f.apply(cmd, &in, true); err != nil {
				return err
			}
			w, err := rt.app.Wallets.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return rt.out.print(w, walletTable([]core.Wallet{w}))
		},
	}
	f.register(cmd)
	return cmd
}

func walletsUpdateCmd() *cobra.Command {
	var f walletFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a wallet or change its opening balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cur, err := rt.app.Wallets.Open(ctx, args[0])
			if err != nil {
				return err
			}
			in := core.WalletInput{Name: cur.Name, Currency: cur.Currency, InitialBalance: cur.InitialBalance}
			if err := f.apply(cmd, &in, false); err != nil {
				return err
			}
			w, err := rt.app.Wallets.Update(ctx, args[0], in)
			if err != nil {
				return err
			}
			return rt.out.print(w, walletTable([]core.Wallet{w}))
		},
	}
	f.register(cmd)
	return cmd
}

func walletsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.app.Wallets.Delete(cmd.Context(), args[0])
		},
	}
}
