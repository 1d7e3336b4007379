package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/servr/cmd/servr/cmdutil"
	"github.com/marmos91/servr/internal/cli/health"
	"github.com/marmos91/servr/internal/cli/output"
	"github.com/marmos91/servr/pkg/apiclient"
	"github.com/marmos91/servr/pkg/config"
)

var (
	statusServer  string
	statusTimeout time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server health",
	Long: `Query the liveness and readiness endpoints of a running server.

Without --server the API port of the loaded configuration on localhost is used.
Exits with a non-zero status when the server or one of its dependencies is
unhealthy.

Examples:
  # Check the local server
  servr status

  # Check a remote server as JSON
  servr status --server https://files.example.com -o json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusServer, "server", "", "Server URL (default: http://localhost:<api.port>)")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 5*time.Second, "Request timeout")
}

func runStatus(cmd *cobra.Command, args []string) error {
	printer, err := cmdutil.Printer()
	if err != nil {
		return err
	}

	serverURL := statusServer
	if serverURL == "" {
		cfg, err := config.Load(cmdutil.Flags.ConfigFile)
		if err != nil {
			return err
		}
		serverURL = fmt.Sprintf("http://localhost:%d", cfg.API.Port)
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	client := apiclient.New(serverURL)
	live, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("server at %s is not reachable: %w", serverURL, err)
	}

	ready, err := client.Ready(ctx)
	if err != nil {
		printer.Warning(fmt.Sprintf("readiness probe failed: %v", err))
	}

	report := health.NewReport(serverURL, live, ready)
	if err := printReport(printer, report); err != nil {
		return err
	}

	if !report.Healthy() {
		return fmt.Errorf("server at %s is %s", serverURL, report.Status)
	}
	return nil
}

func printReport(printer *output.Printer, report *health.Report) error {
	if printer.Format() != output.FormatTable {
		return printer.Print(report)
	}

	if err := output.PrintKeyValues(os.Stdout, [][2]string{
		{"Server", report.URL},
		{"Status", report.Status},
		{"Started", report.StartedAt},
		{"Uptime", report.Uptime},
	}); err != nil {
		return err
	}
	if len(report.Dependencies) == 0 {
		return nil
	}
	printer.Printf("\n")
	return printer.Print(report)
}
