package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Revetex/tradeguard/config"
	"github.com/Revetex/tradeguard/executor"
	"github.com/Revetex/tradeguard/internal/clock"
	"github.com/Revetex/tradeguard/internal/logger"
	"github.com/Revetex/tradeguard/internal/trace"
	"github.com/Revetex/tradeguard/journal"
	"github.com/Revetex/tradeguard/ledger"
	"github.com/Revetex/tradeguard/quote"
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "Guarded order execution for paper and live accounts",
	Long: `Trader places orders and acts on strategy signals against a paper
portfolio or a live executor.

Every signal passes the daily trade cap, the cooldowns and the per-symbol
size limits, and is executed at most once per trading day. Every outcome,
fills and rejections alike, is written to the activity journal.

Examples:
  trader config init -o tradeguard.yaml
  trader order buy AAPL 10 -c tradeguard.yaml
  trader signal AAPL buy --id sig-42
  trader activity --last 20`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = trace.Shutdown(context.Background())
		_ = logger.Sync()
	},
}

var (
	configPath string
	envFile    string

	cfg *config.Config
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML or JSON); defaults apply when empty")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with TRADEGUARD_* overrides")
}

func setup(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		c, err := config.LoadFromFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
	} else {
		cfg = config.Default()
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := logger.Init(cfg.Logger()); err != nil {
		return err
	}
	return trace.Init(cfg.Trace(version))
}

// session is an executor wired to the configured journal. store holds the
// ledger and account state when it is not the journal itself.
type session struct {
	ex      *executor.Executor
	journal journal.Journal
	store   *journal.SQLite
}

func (s *session) Close() error {
	err := s.journal.Close()
	if s.store != nil {
		if cerr := s.store.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// sqlite returns the SQLite journal when that is what is configured.
func (s *session) sqlite() (*journal.SQLite, bool) {
	j, ok := s.journal.(*journal.SQLite)
	return j, ok
}

func openSession(ctx context.Context) (*session, error) {
	clk := clock.System{}
	quotes, err := cfg.QuoteSource(clk)
	if err != nil {
		return nil, err
	}
	return openSessionWith(ctx, quotes, clk, cfg.Journal.Type)
}

func openSessionWith(ctx context.Context, quotes quote.Source, clk clock.Clock, journalType string) (*session, error) {
	ecfg, err := cfg.Executor()
	if err != nil {
		return nil, err
	}

	s := &session{}
	deps := executor.Deps{Quotes: quotes, Clock: clk}
	switch journalType {
	case "sqlite":
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		l, err := ledger.NewSQLite(j.DB())
		if err != nil {
			_ = j.Close()
			return nil, err
		}
		deps.Journal, deps.Ledger, deps.State = j, l, j
	case "csv":
		db, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open state db: %w", err)
		}
		l, err := ledger.NewSQLite(db.DB())
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		j, err := journal.NewCSV(cfg.Journal.ActivityFile)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		deps.Journal, deps.Ledger, deps.State = j, l, db
		s.store = db
	default:
		deps.Journal = journal.NewMemory()
	}
	s.journal = deps.Journal

	ex, err := executor.New(ctx, ecfg, deps)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.ex = ex
	return s, nil
}

// withSession opens a session for the duration of fn.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}
