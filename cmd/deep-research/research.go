package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/agent"
	"github.com/pdiddy/deep-research/internal/reports"
)

var researchCmd = &cobra.Command{
	Use:   "research [query]",
	Short: "Run one research query and print the report",
	Long: `Research runs the full iterative loop for a single query: decomposition,
concurrent retrieval, credibility scoring, completeness evaluation, and
synthesis. Progress events go to stderr; the final markdown report goes to
stdout. With --save the report is also written to the reports directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return fmt.Errorf("query must not be empty")
		}

		cfg := loadConfig()
		if len(query) > cfg.Server.MaxQueryLength {
			return fmt.Errorf("query exceeds %d characters", cfg.Server.MaxQueryLength)
		}

		logger := newLogger()
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		researcher, err := buildAgent(ctx, cfg, logger)
		if err != nil {
			return err
		}

		sink := agent.SinkFunc(func(ev agent.Event) error {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", ev.Type, ev.Message)
			return nil
		})

		report, err := researcher.Research(ctx, query, sink)
		if err != nil {
			return fmt.Errorf("research interrupted: %w", err)
		}

		fmt.Println(report.ReportMarkdown)

		if save, _ := cmd.Flags().GetBool("save"); save {
			name, err := reports.Save(cfg.Server.ReportsDir, report, time.Now())
			if err != nil {
				return fmt.Errorf("saving report: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Report saved: %s\n", name)
		}
		return nil
	},
}

func init() {
	researchCmd.Flags().Bool("save", false, "also write the report to the reports directory")

	rootCmd.AddCommand(researchCmd)
}
