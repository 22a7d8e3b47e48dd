package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Show paper cash, positions and equity",
	Long: `Show the paper portfolio. Positions are marked at the latest quote;
a position without a quote is marked at its last fill price.`,
	Args: cobra.NoArgs,
	RunE: runPortfolio,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the account summary and today's guardrail counters",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.AddCommand(statusCmd)
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		snap := s.ex.SnapshotWithQuotes(ctx)

		fmt.Println(titleStyle.Render(fmt.Sprintf("Portfolio %s", cfg.Account.ID)))
		if len(snap.Positions) > 0 {
			rows := make([][]string, 0, len(snap.Positions))
			for _, sym := range snap.Symbols() {
				p := snap.Positions[sym]
				mark := snap.Marks[sym]
				rows = append(rows, []string{
					sym,
					p.Quantity.String(),
					p.AverageCost.StringFixed(4),
					mark.StringFixed(4),
					p.Quantity.Mul(mark).StringFixed(2),
					p.Quantity.Mul(mark.Sub(p.AverageCost)).StringFixed(2),
				})
			}
			fmt.Println(renderTable([]string{"Symbol", "Qty", "Avg Cost", "Mark", "Value", "Unrealized"}, rows))
		}
		fmt.Printf("  Cash:     $%s\n", snap.Cash.StringFixed(2))
		fmt.Printf("  Equity:   $%s\n", snap.Equity.StringFixed(2))
		fmt.Printf("  Realized: $%s\n", snap.Realized.StringFixed(2))
		return nil
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		fmt.Println(s.ex.Summary())

		g := s.ex.Guardrails()
		if len(g.SymbolQty) == 0 {
			return nil
		}
		syms := make([]string, 0, len(g.SymbolQty))
		for sym := range g.SymbolQty {
			syms = append(syms, sym)
		}
		sort.Strings(syms)

		rows := make([][]string, 0, len(syms))
		for _, sym := range syms {
			last := "-"
			if t, ok := g.LastSymbolTrade[sym]; ok {
				last = t.Format("15:04:05")
			}
			rows = append(rows, []string{sym, g.SymbolQty[sym].String(), g.SymbolNotional[sym].StringFixed(2), last})
		}
		fmt.Println(titleStyle.Render("Traded today (" + g.Day + ")"))
		fmt.Println(renderTable([]string{"Symbol", "Qty", "Notional", "Last"}, rows))
		return nil
	})
}
