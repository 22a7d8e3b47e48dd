package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Revetex/tradeguard/executor"
	"github.com/Revetex/tradeguard/pkg/id"
)

var signalCmd = &cobra.Command{
	Use:   "signal <symbol> <buy|sell>",
	Short: "Act on a strategy signal",
	Long: `Submit a strategy signal. Signals are gated by the guardrails and
executed at most once per symbol, kind and id within a trading day.

Without --qty the order is sized to signals.base_size at the current price.

Examples:
  trader signal AAPL buy --id ema-cross-2024-06-03
  trader signal AAPL sell --id exit-7 --qty 5 --reason "stop hit"`,
	Args: cobra.ExactArgs(2),
	RunE: runSignal,
}

var (
	signalID         string
	signalQty        string
	signalReason     string
	signalConfidence float64
)

func init() {
	rootCmd.AddCommand(signalCmd)

	signalCmd.Flags().StringVar(&signalID, "id", "", "signal id (default: a fresh id, so never a duplicate)")
	signalCmd.Flags().StringVar(&signalQty, "qty", "", "explicit quantity")
	signalCmd.Flags().StringVar(&signalReason, "reason", "", "free-form reason recorded with the order")
	signalCmd.Flags().Float64Var(&signalConfidence, "confidence", 0, "strategy confidence in [0,1]")
}

func runSignal(cmd *cobra.Command, args []string) error {
	qty, err := parseDecimal("qty", signalQty)
	if err != nil {
		return err
	}
	sig := executor.Signal{
		ID:         signalID,
		Kind:       args[1],
		Quantity:   qty,
		Reason:     signalReason,
		Confidence: signalConfidence,
	}
	if sig.ID == "" {
		sig.ID = id.New()
	}

	return withSession(cmd, func(ctx context.Context, s *session) error {
		printResult(s.ex.OnSignal(ctx, args[0], sig))
		fmt.Println(s.ex.Summary())
		return nil
	})
}
