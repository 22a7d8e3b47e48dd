package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Revetex/tradeguard/order"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Place, list and cancel manual orders",
	Long: `Manual orders bypass the signal guardrails and the idempotency ledger.
They are still validated, priced, checked against cash and positions, and
journaled.

Subcommands:
  buy    - Buy a symbol
  sell   - Sell a symbol
  open   - List resting limit and stop orders
  sweep  - Re-price resting orders and fill the marketable ones
  cancel - Cancel a resting order

Examples:
  trader order buy AAPL 10
  trader order buy AAPL --notional 2500
  trader order sell AAPL 5 --type limit --limit 195
  trader order buy AAPL 10 --type stop_limit --stop 200 --limit 201 --tif gtc
  trader order cancel 01HZY3W8Q0K2M6V4S1T9R7P5N3`,
}

var orderBuyCmd = &cobra.Command{
	Use:   "buy <symbol> [quantity]",
	Short: "Buy a symbol",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  func(cmd *cobra.Command, args []string) error { return runOrder(cmd, order.Buy, args) },
}

var orderSellCmd = &cobra.Command{
	Use:   "sell <symbol> [quantity]",
	Short: "Sell a symbol",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  func(cmd *cobra.Command, args []string) error { return runOrder(cmd, order.Sell, args) },
}

var orderOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "List resting orders",
	Args:  cobra.NoArgs,
	RunE:  runOrderOpen,
}

var orderSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Fill resting orders whose price has been reached",
	Args:  cobra.NoArgs,
	RunE:  runOrderSweep,
}

var orderCancelCmd = &cobra.Command{
	Use:   "cancel <order-id>",
	Short: "Cancel a resting order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrderCancel,
}

var (
	orderType     string
	orderLimit    string
	orderStop     string
	orderTIF      string
	orderMode     string
	orderNotional string
)

func init() {
	rootCmd.AddCommand(orderCmd)
	orderCmd.AddCommand(orderBuyCmd, orderSellCmd, orderOpenCmd, orderSweepCmd, orderCancelCmd)

	for _, c := range []*cobra.Command{orderBuyCmd, orderSellCmd} {
		c.Flags().StringVarP(&orderType, "type", "t", string(order.Market), "market, limit, stop or stop_limit")
		c.Flags().StringVar(&orderLimit, "limit", "", "limit price")
		c.Flags().StringVar(&orderStop, "stop", "", "stop price")
		c.Flags().StringVar(&orderTIF, "tif", string(order.Day), "time in force: day, gtc, ioc or fok")
		c.Flags().StringVar(&orderMode, "mode", "", "paper or live (default from config)")
		c.Flags().StringVar(&orderNotional, "notional", "", "size by cash amount instead of quantity")
	}
}

func parseDecimal(name, s string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%s: %w", name, err)
	}
	return order.Some(d), nil
}

func buildOrder(side order.Side, args []string) (order.Order, error) {
	o := order.Order{
		Symbol:      args[0],
		Side:        side,
		Type:        order.Type(orderType),
		TimeInForce: order.TimeInForce(orderTIF),
		Mode:        order.Mode(orderMode),
	}

	var err error
	if len(args) == 2 {
		if o.Quantity, err = parseDecimal("quantity", args[1]); err != nil {
			return o, err
		}
	}
	if o.Notional, err = parseDecimal("notional", orderNotional); err != nil {
		return o, err
	}
	if o.LimitPrice, err = parseDecimal("limit", orderLimit); err != nil {
		return o, err
	}
	if o.StopPrice, err = parseDecimal("stop", orderStop); err != nil {
		return o, err
	}
	return o, nil
}

func runOrder(cmd *cobra.Command, side order.Side, args []string) error {
	o, err := buildOrder(side, args)
	if err != nil {
		return err
	}
	return withSession(cmd, func(ctx context.Context, s *session) error {
		printResult(s.ex.PlaceOrder(ctx, o))
		return nil
	})
}

func runOrderOpen(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		open := s.ex.OpenOrders()
		if len(open) == 0 {
			fmt.Println("No resting orders")
			return nil
		}
		rows := make([][]string, 0, len(open))
		for _, oo := range open {
			o := oo.Order
			rows = append(rows, []string{
				o.ID,
				o.Symbol,
				string(o.Side),
				string(o.Type),
				o.Quantity.Decimal.String(),
				priceOrDash(o.LimitPrice),
				priceOrDash(o.StopPrice),
				string(o.TimeInForce),
				fmt.Sprint(oo.Triggered),
				oo.Placed.Format("2006-01-02 15:04:05"),
			})
		}
		fmt.Println(titleStyle.Render("Resting orders"))
		fmt.Println(renderTable(
			[]string{"ID", "Symbol", "Side", "Type", "Qty", "Limit", "Stop", "TIF", "Triggered", "Placed"},
			rows))
		return nil
	})
}

func runOrderSweep(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		results := s.ex.SweepOpenOrders(ctx)
		if len(results) == 0 {
			fmt.Println("Nothing to fill")
		}
		for _, r := range results {
			printResult(r)
		}
		return nil
	})
}

func runOrderCancel(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		if err := s.ex.CancelOrder(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", warnStyle.Render("canceled"), args[0])
		return nil
	})
}

func priceOrDash(p decimal.NullDecimal) string {
	if !p.Valid {
		return "-"
	}
	return p.Decimal.String()
}
