package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/questclaim/internal/answers"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	harvestOut      string
	harvestPageSize int
	harvestMaxPages int
)

// answersCmd represents the answers command
var answersCmd = &cobra.Command{
	Use:   "answers",
	Short: "Manage the stored quiz and text answers",
}

var answersHarvestCmd = &cobra.Command{
	Use:   "harvest [subdomain...]",
	Short: "Collect accepted answers from your claim notifications",
	Long: `Harvest reads your notifications in each community and records the answer
of every successful quiz or text claim, keyed by community name and quest title.
New answers are merged into the answers file.

Example:
  questclaim answers harvest
  questclaim answers harvest acme --out answers.yaml`,
	RunE: runAnswersHarvest,
}

var answersShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show how many answers are stored per community",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path := valueOr(harvestOut, cfg.Claim.AnswersFile)
		store, err := answers.LoadOrEmpty(path)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Answers file: %s\n\n", valueOr(path, "(none)"))
		for _, community := range store.Communities() {
			fmt.Printf("%-40s %d\n", community, store.CountFor(community))
		}
		fmt.Printf("\nTotal: %d answers\n", store.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(answersCmd)
	answersCmd.AddCommand(answersHarvestCmd)
	answersCmd.AddCommand(answersShowCmd)

	answersCmd.PersistentFlags().StringVar(&harvestOut, "out", "", "answers file (default from config: claim.answers_file)")
	answersHarvestCmd.Flags().IntVar(&harvestPageSize, "page-size", 50, "notifications per page")
	answersHarvestCmd.Flags().IntVar(&harvestMaxPages, "max-pages", 20, "maximum notification pages per community")
}

func runAnswersHarvest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := checkCredentials(cfg); err != nil {
		return err
	}
	path := valueOr(harvestOut, cfg.Claim.AnswersFile)
	if path == "" {
		return fmt.Errorf("no answers file: use --out or set claim.answers_file")
	}

	logger, err := newLogger(cfg.Output.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	store, err := answers.LoadOrEmpty(path)
	if err != nil {
		return err
	}

	communities, err := e.communities(ctx, args)
	if err != nil {
		return fmt.Errorf("resolve communities: %w", err)
	}

	added := 0
	for _, c := range communities {
		harvested := answers.New(nil)
		for page := 0; page < harvestMaxPages; page++ {
			notes, err := e.platform.Notifications(ctx, c.Subdomain, page, harvestPageSize)
			if err != nil {
				logger.Warn("notifications unavailable", zap.String("community", c.Subdomain), zap.Error(err))
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", c.Subdomain, err)
				break
			}
			harvested.Merge(answers.FromNotifications(c.Name, notes))
			if len(notes) < harvestPageSize {
				break
			}
		}
		n := store.Merge(harvested)
		added += n
		fmt.Fprintf(os.Stderr, "✓ %s: %d answers (%d new)\n", c.Name, harvested.Len(), n)
	}

	if err := store.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\n✓ %d new answers saved to %s (%d total)\n", added, path, store.Len())
	return nil
}
