package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun/migrate"

	"github.com/mcoot/scoresnap/internal/config"
	"github.com/mcoot/scoresnap/internal/storage/postgres"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dsn string
	var migrator *migrate.Migrator
	var closeDB func() error

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the ScoreSnap Postgres schema",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				if err := config.LoadDotenvIfPresent(); err != nil {
					return err
				}
				dsn = os.Getenv("SCORESNAP_POSTGRES_DSN")
			}
			if dsn == "" {
				return fmt.Errorf("--dsn or SCORESNAP_POSTGRES_DSN is required")
			}

			pgCfg := postgres.DefaultConfig()
			pgCfg.DSN = dsn
			db := postgres.OpenDB(pgCfg)
			migrator = postgres.NewMigrator(db)
			closeDB = db.Close
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if closeDB != nil {
				return closeDB()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", "", "Postgres DSN (env: SCORESNAP_POSTGRES_DSN)")

	root.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the migration tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrator.Init(cmd.Context())
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := migrator.Init(ctx); err != nil {
				return err
			}
			if err := migrator.Lock(ctx); err != nil {
				return err
			}
			defer func() { _ = migrator.Unlock(ctx) }()

			group, err := migrator.Migrate(ctx)
			if err != nil {
				return err
			}
			if group.IsZero() {
				cmd.Println("no new migrations")
				return nil
			}
			cmd.Printf("migrated to %s\n", group)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Roll back the last migration group",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := migrator.Lock(ctx); err != nil {
				return err
			}
			defer func() { _ = migrator.Unlock(ctx) }()

			group, err := migrator.Rollback(ctx)
			if err != nil {
				return err
			}
			if group.IsZero() {
				cmd.Println("no groups to roll back")
				return nil
			}
			cmd.Printf("rolled back %s\n", group)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := migrator.MigrationsWithStatus(cmd.Context())
			if err != nil {
				return err
			}
			applied := ms.Applied()
			unapplied := ms.Unapplied()
			cmd.Printf("applied:   %s\n", names(applied))
			cmd.Printf("pending:   %s\n", names(unapplied))
			cmd.Printf("last group: %s\n", ms.LastGroup())
			return nil
		},
	})

	return root
}

func names(ms migrate.MigrationSlice) string {
	if len(ms) == 0 {
		return "none"
	}
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Name)
	}
	return strings.Join(out, ", ")
}
