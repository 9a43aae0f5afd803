// Command presupuesto is the terminal front end of the 50-30-20 planner.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/advice"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/analysis"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/budget"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/cli"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/config"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/log"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/remote"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/storage"
)

var (
	flagIdentity string
	flagDataDir  string
	flagAPIURL   string
	flagRules    string
	flagLocal    string
	flagNoExport bool
	flagDebug    bool
)

var rootCmd = &cobra.Command{
	Use:           "presupuesto",
	Short:         "Planificador de presupuesto 50-30-20",
	Long:          "Organiza tus ingresos y gastos con la regla 50-30-20: necesidades, deseos y ahorro.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPlan,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagIdentity, "identity", "i", os.Getenv("BUDGET_IDENTITY"), "Identity used for remote load and save")
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Directory holding the local budget (default BUDGET_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Budget API base URL (default BUDGET_API_URL)")
	rootCmd.PersistentFlags().StringVar(&flagLocal, "local-store", "", "Local store: file or sqlite (default BUDGET_LOCAL_STORE)")
	rootCmd.PersistentFlags().StringVar(&flagRules, "rules", "", "TOML file with advice thresholds (default BUDGET_RULES_FILE)")
	rootCmd.PersistentFlags().BoolVar(&flagNoExport, "no-export", false, "Hide export actions")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
}

func main() {
	cli.LoadEnvFile()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "  Error:", err)
		os.Exit(1)
	}
}

// session is the opened budget store plus what commands need around it.
type session struct {
	cfg        *config.Config
	logger     *log.Logger
	store      *budget.Store
	closeLocal func() error
}

func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	// The CLI never opens a server repository.
	cfg.DataBackend = "memory"
	if flagDataDir != "" {
		cfg.BudgetDataDir = flagDataDir
	}
	if flagAPIURL != "" {
		cfg.APIURL = flagAPIURL
	}
	if flagRules != "" {
		cfg.RulesFile = flagRules
	}
	if flagLocal != "" {
		cfg.LocalStore = flagLocal
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openSession restores the local budget and, when an identity and API are
// configured, loads the remote one over it.
func openSession(ctx context.Context) (*session, error) {
	logger := cli.SetupLogger(log.ComponentApp, flagDebug)
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	rules, err := cfg.Rules()
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	local, closeLocal, err := openLocalStore(cfg)
	if err != nil {
		return nil, err
	}

	var rem budget.Remote
	if cfg.APIURL != "" {
		client, err := remote.New(remote.Options{
			BaseURL:        cfg.APIURL,
			Token:          cfg.APIToken,
			IdentityHeader: cfg.IdentityHeader,
			Logger:         logger,
		})
		if err != nil {
			_ = closeLocal()
			return nil, err
		}
		rem = client
	}

	store := budget.New(ctx, budget.Options{
		Init: budget.InitContext{
			IsAuthenticated: flagIdentity != "",
			IdentityID:      flagIdentity,
			InitialAttributes: budget.Attributes{
				ShowExport: !flagNoExport,
			},
		},
		Local:     local,
		Remote:    rem,
		Logger:    logger,
		Evaluator: advice.NewEvaluator(rules, analysis.NewMemo(cfg.CacheSize, cfg.CacheTTL)),
	})

	if err := store.Load(ctx); err != nil && !errors.Is(err, budget.ErrNotAuthenticated) && !errors.Is(err, budget.ErrNoRemote) {
		fmt.Fprintln(os.Stderr, cli.RenderMuted("  No se pudo cargar el presupuesto remoto, se usa el local."))
	}

	return &session{cfg: cfg, logger: logger, store: store, closeLocal: closeLocal}, nil
}

// openLocalStore returns the store that keeps the budget between runs: a
// table in the SQLite database or a JSON file per identity.
func openLocalStore(cfg *config.Config) (budget.LocalStore, func() error, error) {
	if cfg.LocalStore == "sqlite" {
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open local budget: %w", err)
		}
		return repo, repo.Close, nil
	}
	fs, err := storage.NewFileStore(cfg.BudgetDataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open local budget: %w", err)
	}
	return fs, func() error { return nil }, nil
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Close(ctx); err != nil {
		s.logger.Warn("Local budget not fully written", log.FieldError, err)
	}
	if s.closeLocal != nil {
		if err := s.closeLocal(); err != nil {
			s.logger.Warn("Could not close local store", log.FieldError, err)
		}
	}
}

// withSession opens a session around fn.
func withSession(fn func(ctx context.Context, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.close()
		return fn(ctx, s, args)
	}
}
