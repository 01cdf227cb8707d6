package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ppiankov/questclaim/internal/metrics"
	"github.com/ppiankov/questclaim/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	runTypes       []string
	runAnswersFile string
	runFile        string
	runJSON        string
	runTimeout     time.Duration
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [subdomain...]",
	Short: "Claim every claimable quest of the given communities",
	Long: `Run walks each community in random order and claims its unlocked quests
of the requested submission types:
- none: claimed without proof
- quiz, text, url, image: claimed with the stored answer, reported when missing
- twitter: follow, tweet, reply, like and retweet are performed first

Without arguments every joined public community is processed.

Example:
  questclaim run --types none,twitter
  questclaim run acme beta --types quiz --answers answers.yaml
  questclaim run --file communities.txt --json report.json`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVarP(&runTypes, "types", "t", nil, "submission types to claim (default from config: none)")
	runCmd.Flags().StringVar(&runAnswersFile, "answers", "", "answers file (YAML or JSON)")
	runCmd.Flags().StringVar(&runFile, "file", "", "file with community subdomains, one per line")
	runCmd.Flags().StringVar(&runJSON, "json", "", "also write the report as JSON to this path")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "overall run timeout (default from config: 2h)")

	_ = viper.BindPFlag("claim.types", runCmd.Flags().Lookup("types"))
	_ = viper.BindPFlag("claim.answers_file", runCmd.Flags().Lookup("answers"))
	_ = viper.BindPFlag("output.json", runCmd.Flags().Lookup("json"))
	_ = viper.BindPFlag("schedule.run_timeout", runCmd.Flags().Lookup("timeout"))
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := checkCredentials(cfg); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Output.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Schedule.RunTimeout)
	defer cancel()

	e, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	subdomains, err := subdomainArgs(args, runFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  questclaim run\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Types:        %s\n", strings.Join(cfg.Claim.Types, ","))
	fmt.Fprintf(os.Stderr, "  Answers:      %s\n", valueOr(cfg.Claim.AnswersFile, "(none)"))
	fmt.Fprintf(os.Stderr, "  Twitter:      %v\n", e.twitter != nil)
	fmt.Fprintf(os.Stderr, "  Phrases:      %s\n", e.phrases.Name())
	fmt.Fprintf(os.Stderr, "  Pacing:       %v (rechecks: %d)\n", cfg.Pacing.Base, cfg.Pacing.MaxRechecks)
	fmt.Fprintf(os.Stderr, "\n")

	report, err := executeRun(ctx, e, subdomains)
	if report != nil {
		fmt.Println(report.String())
		if cfg.Output.JSON != "" {
			if werr := writeReportJSON(report, cfg.Output.JSON); werr != nil {
				fmt.Fprintf(os.Stderr, "✗ %v\n", werr)
			}
		}
		printSummary(report, err)
	}
	return err
}

// executeRun resolves communities and runs the claim engine once
func executeRun(ctx context.Context, e *engine, subdomains []string) (*model.RunReport, error) {
	start := time.Now()

	communities, err := e.communities(ctx, subdomains)
	if err != nil {
		metrics.ObserveRun("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("resolve communities: %w", err)
	}

	req, err := e.request(ctx, e.cfg.Claim.Types, e.cfg.Claim.AnswersFile)
	if err != nil {
		metrics.ObserveRun("error", time.Since(start).Seconds())
		return nil, err
	}

	report, err := e.batch.ProcessCommunities(ctx, communities, req)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.ObserveRun(result, time.Since(start).Seconds())
	return report, err
}

func writeReportJSON(report *model.RunReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Report written to %s\n", path)
	return nil
}

func printSummary(report *model.RunReport, runErr error) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "  Run Aborted\n")
	} else {
		fmt.Fprintf(os.Stderr, "  Run Complete\n")
	}
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Run:          %s\n", report.ID)
	fmt.Fprintf(os.Stderr, "  Communities:  %d\n", report.Communities)
	fmt.Fprintf(os.Stderr, "  Claimed:      %d\n", report.Claimed)
	fmt.Fprintf(os.Stderr, "  XP earned:    %d\n", report.EarnedXP)
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "  Error:        %v\n", runErr)
	}
	fmt.Fprintf(os.Stderr, "\n")
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
