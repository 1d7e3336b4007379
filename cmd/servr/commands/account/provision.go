package account

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/servr/cmd/servr/cmdutil"
)

var provisionEmail string

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the blob container of an account",
	Long: `Create the blob container of an account. Sign-up provisions it already;
use this when that step failed. Provisioning an existing container is a no-op.`,
	RunE: runProvision,
}

func init() {
	provisionCmd.Flags().StringVar(&provisionEmail, "email", "", "Account email (required)")
	_ = provisionCmd.MarkFlagRequired("email")
}

func runProvision(cmd *cobra.Command, args []string) error {
	printer, err := cmdutil.Printer()
	if err != nil {
		return err
	}

	ctx := context.Background()
	backends, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = backends.Close() }()

	acc, err := backends.AccountByEmail(ctx, provisionEmail)
	if err != nil {
		return err
	}

	container, err := backends.Storage.ProvisionContainer(ctx, acc.ID)
	if err != nil {
		return fmt.Errorf("failed to provision container: %w", err)
	}
	printer.Success(fmt.Sprintf("Container %s ready for %s", container, acc.Email))
	return nil
}
