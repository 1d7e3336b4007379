package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/servr/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file",
	Long: `Write a configuration file holding every default and a freshly generated
JWT secret.

Examples:
  # Create $XDG_CONFIG_HOME/servr/config.yaml
  servr config init

  # Overwrite a specific file
  servr config init --config /etc/servr/config.yaml --force`,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath()
	if err := config.InitConfigToPath(path, initForce); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration written to %s\n\n", path)
	_, _ = fmt.Fprintln(out, "Next steps:")
	_, _ = fmt.Fprintln(out, "  servr migrate     # apply the metadata schema")
	_, _ = fmt.Fprintln(out, "  servr start       # start the API server")
	return nil
}
