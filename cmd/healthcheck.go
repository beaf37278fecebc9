package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iksnae/rag-chat/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
	healthcheckTimeout time.Duration
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that rag-chat can reach the RAG service and its history",
	Long: `Check the health of rag-chat by verifying:
  • Configuration
  • RAG service reachability (GET /health)
  • History database access

This command is useful for debugging connection issues, especially in CI/CD environments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 RAG Chat Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Checking configuration..."))
		fmt.Fprintln(out, successStyle.Render("✅ Configuration valid"))
		if healthcheckVerbose {
			path := configPath
			if path == "" {
				path = internal.DefaultConfigPath()
			}
			fmt.Fprintf(out, "   Config file: %s\n", path)
			fmt.Fprintf(out, "   Service: %s\n", cfg.BaseURL)
			timeout := "none"
			if cfg.Timeout > 0 {
				timeout = cfg.Timeout.String()
			}
			fmt.Fprintf(out, "   Request timeout: %s\n", timeout)
			fmt.Fprintf(out, "   History: %s\n", cfg.HistoryPath)
		}
		fmt.Fprintln(out)

		// Step 2: RAG service
		fmt.Fprintln(out, infoStyle.Render("Step 2: Contacting the RAG service..."))
		ctx, cancel := context.WithTimeout(cmd.Context(), healthcheckTimeout)
		defer cancel()

		start := time.Now()
		health, err := cfg.NewClient().Health(ctx)
		var reqErr *internal.RequestError
		switch {
		case errors.As(err, &reqErr):
			// Any HTTP answer means the service is up
			fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  RAG service reachable, but /health returned %d", reqErr.StatusCode)))
			if healthcheckVerbose && reqErr.Message != "" {
				fmt.Fprintf(out, "   Response: %s\n", reqErr.Message)
			}
		case err != nil:
			fmt.Fprintln(out, errorStyle.Render("❌ RAG service unreachable at "+cfg.BaseURL))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Error details:")
			fmt.Fprintln(out, err)
			return fmt.Errorf("health check failed: %w", err)
		case health.Status != "healthy":
			fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  RAG service reports status %q", health.Status)))
		default:
			fmt.Fprintln(out, successStyle.Render("✅ RAG service is healthy"))
		}
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Round trip: %s\n", time.Since(start).Round(time.Millisecond))
		}
		fmt.Fprintln(out)

		// Step 3: History
		fmt.Fprintln(out, infoStyle.Render("Step 3: Checking chat history..."))
		if !cfg.SaveHistory {
			fmt.Fprintln(out, warningStyle.Render("⚠️  History saving is disabled"))
		}
		store, err := openStore()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ History database not accessible"))
			return err
		}
		defer store.Close()

		summaries, err := store.List(cmd.Context())
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to read history"))
			return err
		}
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ History accessible (%d saved chat(s))", len(summaries))))
		fmt.Fprintln(out)

		fmt.Fprintln(out, sectionStyle.Render("✅ Health check passed"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckVerbose, "verbose", false, "Show detailed information")
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 5*time.Second, "How long to wait for the RAG service")
}
