package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

var (
	envFile  string
	username string
	dbname   string
	logLevel string

	// session is opened by the root pre-run hook for every subcommand.
	session *app

	rootCmd = &cobra.Command{
		Use:   "fintrack",
		Short: "Shared finance tracker client",
		Long: `fintrack lists transactions and balances of a shared ledger, records
new transactions and manages accounts, partitions and categories.

Results are cached per session and invalidated after every change. With a
broadcast backend configured, other running sessions are told which
results went stale.`,
		SilenceUsage:       true,
		PersistentPreRunE:  openSession,
		PersistentPostRunE: closeSession,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default: .env)")
	rootCmd.PersistentFlags().StringVarP(&username, "user", "u", "", "username (overrides FINTRACK_USERNAME)")
	rootCmd.PersistentFlags().StringVarP(&dbname, "db", "d", "", "database name (overrides FINTRACK_DBNAME)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(transactionsCmd())
	rootCmd.AddCommand(balancesCmd())
	rootCmd.AddCommand(accountsCmd())
	rootCmd.AddCommand(partitionsCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(txCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(cacheCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openSession(cmd *cobra.Command, _ []string) error {
	if envFile != "" {
		cli.LoadEnvFile(envFile)
	} else {
		cli.LoadEnvFile()
	}

	cfg := config.Load()
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Username == "" {
		return fmt.Errorf("username required (set FINTRACK_USERNAME or --user)")
	}

	logger := cli.SetupLogger(cfg.LogLevel)

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	session = a
	return nil
}

func closeSession(cmd *cobra.Command, _ []string) error {
	if session == nil {
		return nil
	}
	// The command context may already be cancelled by a signal.
	err := session.Close(context.WithoutCancel(cmd.Context()))
	session = nil
	return err
}

func applyFlags(cfg *config.Config) {
	if username != "" {
		cfg.Username = username
	}
	if dbname != "" {
		cfg.DBName = dbname
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
}

// logFor returns the session logger, or the default one before a session
// is open.
func logFor(component string) *log.Logger {
	if session != nil {
		return session.logger.WithComponent(component)
	}
	return log.Default(component)
}
