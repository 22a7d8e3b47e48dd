package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Revetex/tradeguard/internal/clock"
	"github.com/Revetex/tradeguard/quote"
	"github.com/Revetex/tradeguard/replay"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script.csv>",
	Short: "Replay a tick and event script against a scratch account",
	Long: `Replay price ticks and trading events from a CSV file on a simulated
clock. The account starts from the configured starting cash and guardrails;
nothing is written to the configured journal.

CSV format:
  time,symbol,price,event,arg1,arg2,arg3

Events: SIGNAL, BUY, SELL, BUY_LIMIT, SELL_LIMIT, BUY_STOP, SELL_STOP,
CANCEL, ENABLE, DISABLE.

Example:
  trader replay scenarios/cooldown.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

var replayEventFirst bool

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().BoolVar(&replayEventFirst, "event-first", false, "apply each row's event before its price tick")
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	clk := clock.NewManual(time.Time{})
	prices := quote.NewStore(clk)
	s, err := openSessionWith(ctx, prices, clk, "memory")
	if err != nil {
		return err
	}
	defer s.Close()

	d := replay.New(s.ex, prices, clk, replay.Options{TickThenEvent: !replayEventFirst})
	steps, err := d.CSV(ctx, args[0])
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	rows := make([][]string, 0, len(steps))
	for _, st := range steps {
		for _, r := range st.Swept {
			rows = append(rows, stepRow(st.Line, st.Time, st.Symbol, "sweep", string(r.Status), r.OrderID, r.Reason))
		}
		if st.Event != "" {
			r := st.Result
			rows = append(rows, stepRow(st.Line, st.Time, st.Symbol, st.Event, string(r.Status), r.OrderID, r.Reason))
		}
	}
	fmt.Println(titleStyle.Render("Replay " + args[0]))
	fmt.Println(renderTable([]string{"Line", "Time", "Symbol", "Event", "Status", "Order", "Reason"}, rows))
	fmt.Println(s.ex.Summary())
	return nil
}

func stepRow(line int, t time.Time, symbol, event, status, orderID, reason string) []string {
	if status == "" {
		status = "-"
	}
	return []string{
		fmt.Sprint(line),
		t.Format(time.RFC3339),
		symbol,
		event,
		statusStyle(status).Render(status),
		orderID,
		reason,
	}
}
