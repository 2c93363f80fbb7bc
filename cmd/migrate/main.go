package main

import (
	"GymFinance/database/migrations"
	"GymFinance/database/postgres"
	"GymFinance/pkg/log"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var logger = log.NewLogger()

func main() {
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the gym finance database schema",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if err := godotenv.Load(); err != nil {
				logger.Debugf("No .env file loaded: %v", err)
			}
		},
	}

	rootCmd.AddCommand(upCmd())
	rootCmd.AddCommand(downCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(forceCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, postgres.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect migrator: %w", err)
	}
	return m, nil
}

func upCmd() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			m, err := newMigrate()
			if err != nil {
				return err
			}
			defer m.Close()

			if steps > 0 {
				err = m.Steps(steps)
			} else {
				err = m.Up()
			}
			return report(m, err)
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 0, "number of migrations to apply (default all)")
	return cmd
}

func downCmd() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			m, err := newMigrate()
			if err != nil {
				return err
			}
			defer m.Close()

			if steps > 0 {
				err = m.Steps(-steps)
			} else {
				err = m.Down()
			}
			return report(m, err)
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back, 0 rolls back all")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(_ *cobra.Command, _ []string) error {
			m, err := newMigrate()
			if err != nil {
				return err
			}
			defer m.Close()

			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				logger.Info("No migrations applied")
				return nil
			}
			if err != nil {
				return err
			}
			logger.WithField("dirty", dirty).Infof("Schema version %d", version)
			return nil
		},
	}
}

func forceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Mark a version as applied without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}

			m, err := newMigrate()
			if err != nil {
				return err
			}
			defer m.Close()

			return report(m, m.Force(version))
		},
	}
}

func report(m *migrate.Migrate, err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("Schema already up to date")
		return nil
	}
	if err != nil {
		return err
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return verr
	}
	logger.WithField("dirty", dirty).Infof("Schema at version %d", version)
	return nil
}
