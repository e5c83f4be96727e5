// Package main is a command line tool that prepares a library database:
// it applies the schema and loads fixture files through the business rules.
//
// Usage:
//
//	seed schema --db-dsn ./library.db
//	seed load fixtures/demo.json --db-driver postgres --db-dsn postgres://...
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfkeep/library-server/internal/config"
	"github.com/shelfkeep/library-server/internal/logger"
	"github.com/shelfkeep/library-server/internal/store/sqlstore"
)

type rootFlags struct {
	dbDriver string
	dbDSN    string
	envFile  string
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "seed",
		Short:         "Prepare and populate a library database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dbDriver, "db-driver", "", "Database driver: sqlite or postgres")
	root.PersistentFlags().StringVar(&flags.dbDSN, "db-dsn", "", "SQLite file path or Postgres connection URL")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Path to .env file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level")

	root.AddCommand(newSchemaCmd(flags), newLoadCmd(flags))
	return root
}

func newSchemaCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the tables and indexes if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore(flags)
			if err != nil {
				return err
			}
			defer st.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\n", st.Driver())
			return nil
		},
	}
}

func newLoadCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "load <fixture.json>",
		Short: "Create the books, copies, users and loans described in a fixture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			fixture, err := DecodeFixture(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			st, err := openStore(flags)
			if err != nil {
				return err
			}
			defer st.Close()

			log := newLogger(flags)
			result, err := NewSeeder(st, log.Logger).Load(context.Background(), fixture)
			if err != nil {
				return err
			}

			result.Print(cmd.OutOrStdout())
			return nil
		},
	}
}

// loadConfig reuses the server's configuration rules, with command flags taking precedence.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	args := []string{"-env-file", flags.envFile}
	if flags.dbDriver != "" {
		args = append(args, "-db-driver", flags.dbDriver)
	}
	if flags.dbDSN != "" {
		args = append(args, "-db-dsn", flags.dbDSN)
	}
	return config.Load(args)
}

func newLogger(flags *rootFlags) *logger.Logger {
	return logger.New(logger.Config{
		Writer: os.Stderr,
		Level:  logger.ParseLevel(flags.logLevel),
	})
}

func openStore(flags *rootFlags) (*sqlstore.Store, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return sqlstore.Open(cfg.Database.Driver, cfg.Database.DSN, newLogger(flags).Logger)
}
