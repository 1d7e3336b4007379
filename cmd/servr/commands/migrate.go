package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/servr/cmd/servr/cmdutil"
	"github.com/marmos91/servr/internal/logger"
	"github.com/marmos91/servr/pkg/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the metadata store schema",
	Long: `Apply pending schema migrations to the configured metadata store.

Postgres (pgx driver) runs the embedded SQL migrations. SQLite and the gorm
postgres driver migrate their models. Memory and Badger stores have no schema.

Examples:
  # Run migrations with default config
  servr migrate

  # Run migrations against postgres from the environment
  SERVR_METADATA_TYPE=postgres SERVR_METADATA_POSTGRES_HOST=db servr migrate`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}
	if err := cmdutil.InitLogger(cfg); err != nil {
		return err
	}

	logger.Info("Running metadata migrations", "type", cfg.Metadata.Type, "driver", cfg.Metadata.Driver)

	if err := config.MigrateMetadata(context.Background(), cfg); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Migrations completed successfully (metadata type: %s)\n", cfg.Metadata.Type)
	return nil
}
