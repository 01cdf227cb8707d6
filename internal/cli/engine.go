package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/questclaim/internal/answers"
	"github.com/ppiankov/questclaim/internal/claim"
	"github.com/ppiankov/questclaim/internal/classify"
	"github.com/ppiankov/questclaim/internal/llm"
	"github.com/ppiankov/questclaim/internal/model"
	"github.com/ppiankov/questclaim/internal/platform"
	"github.com/ppiankov/questclaim/internal/twitter"
	"github.com/ppiankov/questclaim/internal/worker"
	"go.uber.org/zap"
)

// engine bundles the collaborators of one configured account
type engine struct {
	cfg      *model.Config
	platform *platform.Client
	twitter  *twitter.Client // nil when credentials are not configured
	phrases  llm.PhraseProvider
	batch    *worker.BatchProcessor
	logger   *zap.Logger
}

func newEngine(cfg *model.Config, logger *zap.Logger) (*engine, error) {
	client, err := platform.NewClient(cfg.Platform, logger.Named("platform"))
	if err != nil {
		return nil, fmt.Errorf("create platform client: %w", err)
	}

	phrases, err := llm.NewPhraseProvider(cfg.Phrases, logger.Named("phrases"))
	if err != nil {
		return nil, err
	}

	e := &engine{
		cfg:      cfg,
		platform: client,
		phrases:  phrases,
		logger:   logger,
	}

	opts := claim.Options{
		Phrases:     phrases,
		Pacer:       worker.NewPacer(cfg.Pacing.Base),
		AppHost:     cfg.Platform.AppHost,
		MaxRechecks: cfg.Pacing.MaxRechecks,
		Logger:      logger.Named("claim"),
	}
	if cfg.Twitter.Enabled() {
		tw, err := twitter.NewClient(cfg.Twitter, cfg.Platform, logger.Named("twitter"))
		if err != nil {
			return nil, fmt.Errorf("create twitter client: %w", err)
		}
		e.twitter = tw
		opts.Actions = tw
	}

	orchestrator := claim.NewOrchestrator(client, opts)
	e.batch = worker.NewBatchProcessor(orchestrator, worker.NewPacer(cfg.Pacing.Base), logger.Named("run"))
	return e, nil
}

// communities resolves subdomains given on the command line (or in a file),
// defaulting to every joined community. Private communities are skipped.
func (e *engine) communities(ctx context.Context, subdomains []string) ([]model.Community, error) {
	var all []model.Community
	if len(subdomains) == 0 {
		joined, err := e.platform.UserCommunities(ctx)
		if err != nil {
			return nil, err
		}
		all = joined
	} else {
		for _, sub := range subdomains {
			community, err := e.platform.GetCommunity(ctx, sub)
			if err != nil {
				return nil, err
			}
			all = append(all, *community)
		}
	}

	var public []model.Community
	for _, c := range all {
		if c.IsPrivate() {
			e.logger.Info("skipping private community", zap.String("community", c.Subdomain))
			continue
		}
		public = append(public, c)
	}
	return public, nil
}

// request builds the run request: requested types, stored answers and the
// twitter handle used in proof URLs
func (e *engine) request(ctx context.Context, types []string, answersFile string) (model.RunRequest, error) {
	store, err := answers.LoadOrEmpty(answersFile)
	if err != nil {
		return model.RunRequest{}, err
	}

	handle := e.cfg.Twitter.Handle
	if handle == "" && e.twitter != nil {
		user, err := e.platform.Me(ctx)
		if err != nil {
			e.logger.Warn("could not resolve twitter handle from profile", zap.Error(err))
		} else {
			handle = user.TwitterUsername
		}
	}

	return model.RunRequest{
		Types:   classify.ParseTypes(types),
		Answers: store,
		Actor:   model.Actor{TwitterHandle: handle},
	}, nil
}

// subdomainArgs merges positional subdomains with those listed in a file
func subdomainArgs(args []string, file string) ([]string, error) {
	subdomains := append([]string{}, args...)
	if file == "" {
		return subdomains, nil
	}
	fromFile, err := worker.ReadSubdomainsFromFile(file)
	if err != nil {
		return nil, fmt.Errorf("read communities file: %w", err)
	}
	return append(subdomains, fromFile...), nil
}

func checkCredentials(cfg *model.Config) error {
	if cfg.Platform.Cookie == "" {
		return fmt.Errorf("platform cookie is not set (QUESTCLAIM_PLATFORM_COOKIE or platform.cookie in %s)", configPathHint())
	}
	return nil
}

func configPathHint() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return home + "/.questclaim/config.yaml"
}
