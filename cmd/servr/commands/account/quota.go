package account

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/marmos91/servr/cmd/servr/cmdutil"
	"github.com/marmos91/servr/internal/bytesize"
	"github.com/marmos91/servr/internal/cli/output"
	"github.com/marmos91/servr/pkg/metadata"
	"github.com/marmos91/servr/pkg/storage"
)

var quotaEmail string

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show the storage usage of an account",
	RunE:  runQuota,
}

func init() {
	quotaCmd.Flags().StringVar(&quotaEmail, "email", "", "Account email (required)")
	_ = quotaCmd.MarkFlagRequired("email")
}

// View is the account as printed by account commands.
type View struct {
	ID           uuid.UUID `json:"id" yaml:"id"`
	Email        string    `json:"email" yaml:"email"`
	Active       bool      `json:"active" yaml:"active"`
	SuperUser    bool      `json:"superuser" yaml:"superuser"`
	StorageUsed  int64     `json:"storage_used" yaml:"storage_used"`
	StorageLimit int64     `json:"storage_limit" yaml:"storage_limit"`
	Available    int64     `json:"available" yaml:"available"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

func accountView(acc *metadata.Account) *View {
	return &View{
		ID:           acc.ID,
		Email:        acc.Email,
		Active:       acc.Active,
		SuperUser:    acc.SuperUser,
		StorageUsed:  acc.StorageUsed,
		StorageLimit: acc.StorageLimit,
		Available:    acc.Available(),
		CreatedAt:    acc.CreatedAt,
	}
}

// quotaPairs renders a quota report for PrintKeyValues.
func quotaPairs(email string, q *storage.QuotaReport) [][2]string {
	pct := "-"
	if q.Limit > 0 {
		pct = fmt.Sprintf("%.1f%%", float64(q.Used)*100/float64(q.Limit))
	}
	return [][2]string{
		{"Account", email},
		{"Used", bytesize.ByteSize(q.Used).String()},
		{"Limit", bytesize.ByteSize(q.Limit).String()},
		{"Available", bytesize.ByteSize(q.Available).String()},
		{"Usage", pct},
	}
}

func runQuota(cmd *cobra.Command, args []string) error {
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

	acc, err := backends.AccountByEmail(ctx, quotaEmail)
	if err != nil {
		return err
	}

	q, err := backends.Storage.Quota(ctx, acc.ID)
	if err != nil {
		return err
	}

	if printer.Format() != output.FormatTable {
		return printer.Print(q)
	}
	return output.PrintKeyValues(cmd.OutOrStdout(), quotaPairs(acc.Email, q))
}
