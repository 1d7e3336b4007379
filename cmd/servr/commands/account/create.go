package account

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/servr/cmd/servr/cmdutil"
	"github.com/marmos91/servr/internal/bytesize"
	"github.com/marmos91/servr/internal/cli/output"
	"github.com/marmos91/servr/internal/cli/prompt"
	"github.com/marmos91/servr/pkg/accounts"
)

var (
	createEmail         string
	createLimit         string
	createPasswordStdin bool
	createSuperUser     bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	Long: `Create an account and provision its blob container.

Email and password are prompted for when not given. Use --password-stdin for
scripts.

Examples:
  # Interactive
  servr account create

  # Scripted, with a 5GiB quota
  echo "$PASSWORD" | servr account create --email bob@example.com --password-stdin --limit 5GiB`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createEmail, "email", "", "Account email")
	createCmd.Flags().StringVar(&createLimit, "limit", "", "Storage limit, e.g. 5GiB (default: accounts.default_storage_limit)")
	createCmd.Flags().BoolVar(&createPasswordStdin, "password-stdin", false, "Read the password from stdin")
	createCmd.Flags().BoolVar(&createSuperUser, "superuser", false, "Mark the account as superuser")
}

func runCreate(cmd *cobra.Command, args []string) error {
	printer, err := cmdutil.Printer()
	if err != nil {
		return err
	}

	req, err := createRequest()
	if err != nil {
		if prompt.IsAborted(err) {
			return nil
		}
		return err
	}

	ctx := context.Background()
	backends, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = backends.Close() }()

	acc, err := backends.Accounts.SignUp(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	if printer.Format() != output.FormatTable {
		return printer.Print(accountView(acc))
	}
	printer.Success(fmt.Sprintf("Account %s created (id %s, limit %s)", acc.Email, acc.ID, bytesize.ByteSize(acc.StorageLimit)))
	return nil
}

func createRequest() (accounts.SignUpRequest, error) {
	req := accounts.SignUpRequest{Email: createEmail, SuperUser: createSuperUser}

	if createLimit != "" {
		limit, err := bytesize.ParseByteSize(createLimit)
		if err != nil {
			return req, fmt.Errorf("invalid --limit: %w", err)
		}
		req.StorageLimit = limit.Int64()
	}

	var err error
	if req.Email == "" {
		if req.Email, err = prompt.Email("Email"); err != nil {
			return req, err
		}
	} else if err := prompt.ValidateEmail(req.Email); err != nil {
		return req, err
	}

	if createPasswordStdin {
		req.Password, err = readPassword(bufio.NewReader(os.Stdin))
		if err != nil {
			return req, err
		}
		return req, prompt.ValidatePassword(req.Password)
	}

	req.Password, err = prompt.NewPassword()
	return req, err
}

func readPassword(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
