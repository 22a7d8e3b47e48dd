package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Revetex/tradeguard/internal/clock"
	"github.com/Revetex/tradeguard/journal"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Query the activity journal",
	Long: `List recorded outcomes: fills, rejections, denials, duplicates and
cancellations.

Examples:
  trader activity --last 20
  trader activity --day 2024-06-03 --org
  trader activity --symbol AAPL
  trader activity show <activity-id>`,
	Args: cobra.NoArgs,
	RunE: runActivity,
}

var activityShowCmd = &cobra.Command{
	Use:   "show <activity-id>",
	Short: "Show one activity record (SQLite journal only)",
	Args:  cobra.ExactArgs(1),
	RunE:  runActivityShow,
}

var (
	activityLast   int
	activityDay    string
	activitySymbol string
	activityOrg    bool
)

var errNeedsSQLite = errors.New("this query needs the sqlite journal")

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.AddCommand(activityShowCmd)

	activityCmd.Flags().IntVarP(&activityLast, "last", "n", 0, "only the last n records")
	activityCmd.Flags().StringVar(&activityDay, "day", "", "only records from this trading day (YYYY-MM-DD, or 'today')")
	activityCmd.Flags().StringVar(&activitySymbol, "symbol", "", "only records for this symbol")
	activityCmd.Flags().BoolVar(&activityOrg, "org", false, "print as Org-mode headings")
}

func runActivity(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		recs, err := queryActivity(ctx, s)
		if err != nil {
			return err
		}
		printActivities(recs)
		return nil
	})
}

func queryActivity(ctx context.Context, s *session) ([]journal.Activity, error) {
	last := -1
	if activityLast > 0 {
		last = activityLast
	}
	if activityDay == "" && activitySymbol == "" {
		return s.ex.LastActions(ctx, last)
	}
	j, ok := s.sqlite()
	if !ok {
		return nil, errNeedsSQLite
	}
	if activitySymbol != "" {
		recs, err := j.ListBySymbol(ctx, activitySymbol)
		return journal.Last(recs, last), err
	}

	loc, err := clock.Location(cfg.Clock.Timezone)
	if err != nil {
		return nil, err
	}
	day := activityDay
	if day == "today" {
		day = clock.DayKey(time.Now(), loc)
	}
	start, end, err := clock.DayBounds(loc, day)
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	recs, err := j.ListBetween(ctx, start, end)
	return journal.Last(recs, last), err
}

func runActivityShow(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		j, ok := s.sqlite()
		if !ok {
			return errNeedsSQLite
		}
		rec, err := j.GetActivity(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get activity: %w", err)
		}
		fmt.Println(journal.FormatActivityOrg(rec))
		return nil
	})
}

func printActivities(recs []journal.Activity) {
	if len(recs) == 0 {
		fmt.Println("No activity")
		return
	}
	if activityOrg {
		fmt.Println(journal.FormatActivitiesOrg(recs))
		return
	}

	rows := make([][]string, 0, len(recs))
	for _, a := range recs {
		rows = append(rows, []string{
			a.Time.Local().Format("2006-01-02 15:04:05"),
			a.Symbol,
			string(a.Side),
			string(a.Type),
			string(a.Source),
			statusStyle(a.Status).Render(a.Status),
			a.FillQty.String(),
			a.FillPrice.StringFixed(4),
			a.CashDelta.StringFixed(2),
			a.Reason,
		})
	}
	fmt.Println(renderTable(
		[]string{"Time", "Symbol", "Side", "Type", "Source", "Status", "Qty", "Price", "Cash", "Reason"},
		rows))
}
