// Package account implements offline account administration against the
// configured stores.
package account

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marmos91/servr/cmd/servr/cmdutil"
	"github.com/marmos91/servr/pkg/config"
)

// Cmd is the account subcommand.
var Cmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts",
	Long: `Manage accounts directly in the configured metadata and blob stores.

Subcommands:
  create     Create an account
  quota      Show the storage usage of an account
  provision  Create the blob container of an account`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(quotaCmd)
	Cmd.AddCommand(provisionCmd)
}

// open loads the configuration and opens the backends. The caller closes
// them.
func open(ctx context.Context) (*cmdutil.Backends, error) {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := cmdutil.InitLogger(cfg); err != nil {
		return nil, err
	}
	return cmdutil.OpenBackends(ctx, cfg, config.MetricsResult{})
}
