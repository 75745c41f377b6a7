package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/tmaps/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [version]",
	Short: "Run snapshot database migrations",
	Long: `Run migrations on the local snapshot database.

Without arguments, runs all pending migrations (up).
With a version number, migrates to that specific version (up or down as needed).

Examples:
  tmaps migrate      # Run all pending migrations
  tmaps migrate 1    # Migrate to version 1
  tmaps migrate 0    # Rollback all migrations`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	target := -1
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return fmt.Errorf("invalid version number: %s", args[0])
		}
		target = v
	}

	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		db, err := openDB(app.Config.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		return runMigrations(ctx, cmd.OutOrStdout(), migrate.New(db, cmd.OutOrStdout()), target)
	})
}

// runMigrations applies all pending migrations when target is negative,
// otherwise migrates to target.
func runMigrations(ctx context.Context, out io.Writer, m *migrate.Migrator, target int) error {
	if err := m.EnsureTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	current, _, err := m.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	fmt.Fprintf(out, "Current version: %d\n", current)

	if target < 0 {
		fmt.Fprintln(out, "Running all pending migrations...")
		count, err := m.Up(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			fmt.Fprintln(out, "No migrations to run")
			return nil
		}
		version, _, _ := m.CurrentVersion(ctx)
		fmt.Fprintf(out, "Migrated to version %d (%d migrations applied)\n", version, count)
		return nil
	}

	if target == current {
		fmt.Fprintln(out, "Already at target version")
		return nil
	}
	if err := m.To(ctx, target); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated to version %d\n", target)
	return nil
}
