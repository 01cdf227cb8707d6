package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/questclaim/internal/classify"
	"github.com/ppiankov/questclaim/internal/model"
	"github.com/spf13/cobra"
)

var (
	questsTypes   []string
	questsDiscord bool
	questsJSON    bool
)

// questsCmd represents the quests command
var questsCmd = &cobra.Command{
	Use:   "quests <subdomain>",
	Short: "List the claimable quests of a community",
	Long: `Quests prints the unlocked quests of a community that match the requested
submission types, with the intent links of each twitter task. Nothing is claimed.

Example:
  questclaim quests acme
  questclaim quests acme --types twitter --json
  questclaim quests acme --discord`,
	Args: cobra.ExactArgs(1),
	RunE: runQuests,
}

func init() {
	rootCmd.AddCommand(questsCmd)

	questsCmd.Flags().StringSliceVarP(&questsTypes, "types", "t", nil, "submission types to list (default: all)")
	questsCmd.Flags().BoolVar(&questsDiscord, "discord", false, "print the discord invite links of discord quests instead")
	questsCmd.Flags().BoolVar(&questsJSON, "json", false, "print JSON")
}

// questView is one listed quest
type questView struct {
	ID     string                 `json:"id"`
	Name   string                 `json:"name"`
	Type   model.SubmissionType   `json:"type"`
	Link   string                 `json:"link"`
	Tasks  []classify.TwitterTask `json:"tasks,omitempty"`
	Reward []model.Reward         `json:"reward,omitempty"`
}

func runQuests(cmd *cobra.Command, args []string) error {
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

	e, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Platform.Timeout*4)
	defer cancel()

	sub := strings.ToLower(args[0])
	themes, err := e.platform.ListQuestBoard(ctx, sub)
	if err != nil {
		return fmt.Errorf("list quests: %w", err)
	}
	unlocked := classify.Unlocked(classify.Flatten(themes))

	if questsDiscord {
		for _, link := range classify.DiscordInviteLinks(unlocked) {
			fmt.Println(link)
		}
		return nil
	}

	quests := unlocked
	if len(questsTypes) > 0 {
		quests = classify.ByType(unlocked, classify.ParseTypes(questsTypes))
	}

	views := make([]questView, 0, len(quests))
	for _, q := range quests {
		v := questView{
			ID:     q.ID,
			Name:   q.Name,
			Type:   q.SubmissionType,
			Link:   fmt.Sprintf("https://%s/c/%s/questboard/%s", cfg.Platform.AppHost, sub, q.ID),
			Reward: q.Reward,
		}
		if q.SubmissionType == model.SubmissionTwitter {
			v.Tasks = classify.TwitterTasks(ctx, q, e.phrases)
		}
		views = append(views, v)
	}

	if questsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	fmt.Fprintf(os.Stderr, "✓ %d claimable quests in %s\n\n", len(views), sub)
	for _, v := range views {
		fmt.Printf("[%s] %s\n", v.Type, v.Name)
		fmt.Printf("    %s\n", v.Link)
		for _, t := range v.Tasks {
			fmt.Printf("    %-8s %s\n", t.Task, t.Link)
		}
	}
	return nil
}
