package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/servr/cmd/servr/cmdutil"
	"github.com/marmos91/servr/internal/cli/output"
	"github.com/marmos91/servr/pkg/config"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective configuration after defaults and environment
overrides. Secrets are masked. Table output is rendered as YAML.

Examples:
  servr config show
  servr config show -o json`,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(cmdutil.Flags.Output)
	if err != nil {
		return err
	}
	if format == output.FormatJSON {
		return output.PrintJSON(cmd.OutOrStdout(), masked(cfg))
	}
	return output.PrintYAML(cmd.OutOrStdout(), masked(cfg))
}

const mask = "********"

// masked returns a copy of cfg with credentials replaced.
func masked(cfg *config.Config) *config.Config {
	cp := *cfg
	if cp.API.JWT.Secret != "" {
		cp.API.JWT.Secret = mask
	}
	if cp.Metadata.Postgres.Password != "" {
		cp.Metadata.Postgres.Password = mask
	}
	if cp.Blob.S3.SecretAccessKey != "" {
		cp.Blob.S3.SecretAccessKey = mask
	}
	return &cp
}
