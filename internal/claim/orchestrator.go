// Package claim drives quest discovery and claiming for one community at a time.
package claim

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/questclaim/internal/classify"
	"github.com/ppiankov/questclaim/internal/llm"
	"github.com/ppiankov/questclaim/internal/metrics"
	"github.com/ppiankov/questclaim/internal/model"
	"github.com/ppiankov/questclaim/internal/twitter"
	"go.uber.org/zap"
)

// Platform is the part of the quest platform the orchestrator needs
type Platform interface {
	ListQuestBoard(ctx context.Context, subdomain string) ([]model.Theme, error)
	SubmitClaim(ctx context.Context, subdomain string, req model.ClaimRequest) (*model.ClaimResult, error)
}

// ActionProvider performs social-network actions on behalf of the actor
type ActionProvider interface {
	Follow(ctx context.Context, handle string) error
	Tweet(ctx context.Context, text string) (*twitter.Tweet, error)
	Reply(ctx context.Context, text, targetID string) (*twitter.Tweet, error)
	Like(ctx context.Context, tweetID string) error
	Retweet(ctx context.Context, tweetID string) error
}

// Pacer inserts jittered delays
type Pacer interface {
	Pause(ctx context.Context) error
	Wait(ctx context.Context, base time.Duration) error
}

// Options configures an Orchestrator. Only Platform is required.
type Options struct {
	Actions     ActionProvider // nil disables twitter quests
	Phrases     llm.PhraseProvider
	Pacer       Pacer
	AppHost     string
	MaxRechecks int
	Logger      *zap.Logger
}

// Orchestrator claims every claimable quest of a community, re-polling the
// board after each drain until no new quest unlocks
type Orchestrator struct {
	platform    Platform
	actions     ActionProvider
	phrases     llm.PhraseProvider
	pacer       Pacer
	appHost     string
	maxRechecks int
	logger      *zap.Logger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(p Platform, opts Options) *Orchestrator {
	o := &Orchestrator{
		platform:    p,
		actions:     opts.Actions,
		phrases:     opts.Phrases,
		pacer:       opts.Pacer,
		appHost:     opts.AppHost,
		maxRechecks: opts.MaxRechecks,
		logger:      opts.Logger,
	}
	if o.phrases == nil {
		o.phrases = llm.NewFixedPhrases(nil)
	}
	if o.pacer == nil {
		o.pacer = noPacer{}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.maxRechecks < 0 {
		o.maxRechecks = 0
	}
	return o
}

// ClaimQuestsForCommunity processes one community and returns its report lines.
// Per-quest failures become report lines; only a fatal error is returned, along
// with the lines produced so far.
func (o *Orchestrator) ClaimQuestsForCommunity(ctx context.Context, community model.Community, req model.RunRequest) (*model.CommunityResult, error) {
	result := &model.CommunityResult{Community: community}
	log := o.logger.With(zap.String("community", community.Subdomain))

	attempted := make(map[string]bool)
	queue, err := o.claimable(ctx, community, req.Types, attempted)
	if err != nil {
		log.Warn("quest board unavailable", zap.Error(err))
		result.Lines = append(result.Lines, fmt.Sprintf("Could not load quests of community *%s*: %s", community.Name, errorMessage(err)))
		return result, nil
	}
	if len(queue) == 0 {
		result.Lines = append(result.Lines, fmt.Sprintf("No claimable quests with type *%q* for community *%s*!",
			strings.Join(req.TypeNames(), ","), community.Name))
		return result, nil
	}

	result.Lines = append(result.Lines, fmt.Sprintf("*%s* `%s` (%d quests):", community.Name, community.Subdomain, len(queue)))

	for round := 0; ; round++ {
		for len(queue) > 0 {
			quest := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			attempted[quest.ID] = true

			outcome, line, err := o.processQuest(ctx, community, quest, req)
			if err != nil {
				return result, err
			}
			result.Outcomes = append(result.Outcomes, outcome)
			result.Lines = append(result.Lines, " - "+line)
			metrics.ObserveOutcome(outcome.Kind.String(), outcome.XP)

			log.Info("quest processed",
				zap.String("quest", quest.Name),
				zap.String("type", string(quest.SubmissionType)),
				zap.String("outcome", outcome.Kind.String()))

			if len(queue) > 0 && outcome.Kind != model.OutcomeAnswerMissing {
				if err := o.pacer.Pause(ctx); err != nil {
					return result, err
				}
			}
		}

		if round >= o.maxRechecks {
			break
		}
		if err := o.pacer.Pause(ctx); err != nil {
			return result, err
		}
		queue, err = o.claimable(ctx, community, req.Types, attempted)
		if err != nil {
			log.Warn("re-check failed", zap.Int("round", round+1), zap.Error(err))
			break
		}
		if len(queue) == 0 {
			break
		}
		log.Info("new quests unlocked", zap.Int("round", round+1), zap.Int("count", len(queue)))
	}

	return result, nil
}

// claimable fetches the board and returns claimable quests not yet attempted
func (o *Orchestrator) claimable(ctx context.Context, community model.Community, types []model.SubmissionType, attempted map[string]bool) ([]model.Quest, error) {
	themes, err := o.platform.ListQuestBoard(ctx, community.Subdomain)
	if err != nil {
		return nil, err
	}
	var quests []model.Quest
	for _, q := range classify.Claimable(classify.Flatten(themes), types) {
		if !attempted[q.ID] {
			quests = append(quests, q)
		}
	}
	return quests, nil
}

// processQuest resolves proof, submits the claim and renders its report line
func (o *Orchestrator) processQuest(ctx context.Context, community model.Community, quest model.Quest, req model.RunRequest) (model.ClaimOutcome, string, error) {
	value, early, err := o.resolveProof(ctx, community, quest, req)
	if err != nil {
		return model.ClaimOutcome{}, "", err
	}
	outcome := early
	if outcome == nil {
		submitted, err := o.submit(ctx, community, quest, value)
		if err != nil {
			return model.ClaimOutcome{}, "", err
		}
		outcome = &submitted
	}
	return *outcome, o.reportLine(community, quest, *outcome), nil
}

// resolveProof returns the claim value for a quest. A non-nil outcome ends the
// quest without a submission.
func (o *Orchestrator) resolveProof(ctx context.Context, community model.Community, quest model.Quest, req model.RunRequest) (string, *model.ClaimOutcome, error) {
	switch {
	case quest.SubmissionType.RequiresAnswer():
		if req.Answers == nil {
			missing := model.AnswerMissing()
			return "", &missing, nil
		}
		answer, ok := req.Answers.Lookup(community.Name, quest.Name)
		if !ok {
			missing := model.AnswerMissing()
			return "", &missing, nil
		}
		return answer, nil, nil
	case quest.SubmissionType == model.SubmissionTwitter:
		return o.performActions(ctx, quest, req.Actor)
	default:
		return "", nil, nil
	}
}

// performActions runs the quest's twitter actions in dependency order and
// returns the proof URL of the tweet it posted, if any
func (o *Orchestrator) performActions(ctx context.Context, quest model.Quest, actor model.Actor) (string, *model.ClaimOutcome, error) {
	data := quest.ValidationData
	if o.actions == nil && len(data.Actions) > 0 {
		failed := model.ActionFailed("Twitter credentials are not configured, cannot complete quest.")
		return "", &failed, nil
	}

	var proof string
	for _, action := range model.ActionOrder {
		if !data.HasAction(action) {
			continue
		}

		var err error
		switch action {
		case model.ActionFollow:
			if data.TwitterHandle == "" {
				o.logger.Debug("follow skipped, no handle", zap.String("quest", quest.Name))
				continue
			}
			err = o.actions.Follow(ctx, data.TwitterHandle)
		case model.ActionTweet:
			var tweet *twitter.Tweet
			tweet, err = o.actions.Tweet(ctx, o.tweetText(ctx, data))
			if err == nil && tweet != nil && tweet.ID != "" {
				proof = StatusURL(actor.TwitterHandle, tweet.ID)
			}
		default:
			if data.TweetID == "" {
				o.logger.Debug("action skipped, no target tweet",
					zap.String("quest", quest.Name), zap.String("action", string(action)))
				continue
			}
			switch action {
			case model.ActionReply:
				_, err = o.actions.Reply(ctx, o.replyText(ctx, data), data.TweetID)
			case model.ActionLike:
				err = o.actions.Like(ctx, data.TweetID)
			case model.ActionRetweet:
				err = o.actions.Retweet(ctx, data.TweetID)
			}
		}
		if err == nil {
			continue
		}

		class, reason := ClassifyActionError(action, err)
		switch class {
		case ActionTolerated:
			o.logger.Info(reason, zap.String("quest", quest.Name), zap.String("action", string(action)))
		case ActionTerminal:
			failed := model.ActionFailed(reason)
			return "", &failed, nil
		default:
			return "", nil, fmt.Errorf("%s for quest %s: %w", action, quest.Name, err)
		}
	}
	return proof, nil, nil
}

// submit posts the claim, waiting out a single rate-limit response before
// the one permitted retry
func (o *Orchestrator) submit(ctx context.Context, community model.Community, quest model.Quest, value string) (model.ClaimOutcome, error) {
	req := model.ClaimRequest{QuestID: quest.ID, Type: quest.SubmissionType, Value: value}

	for attempt := 1; ; attempt++ {
		metrics.ObserveSubmission()
		res, err := o.platform.SubmitClaim(ctx, community.Subdomain, req)
		if err == nil {
			if res.Succeeded() {
				return model.Claimed(res.XP), nil
			}
			return model.AlreadyClaimed(), nil
		}
		if ctx.Err() != nil {
			return model.ClaimOutcome{}, fmt.Errorf("claim %s: %w", quest.Name, ctx.Err())
		}

		if wait, msg, ok := rateLimitWait(err); ok {
			if attempt > 1 {
				return model.RateLimited(wait, msg), nil
			}
			o.logger.Warn("claim rate limited, waiting",
				zap.String("quest", quest.Name), zap.Duration("retry_after", wait))
			if err := o.pacer.Wait(ctx, wait); err != nil {
				return model.ClaimOutcome{}, fmt.Errorf("rate limit wait: %w", err)
			}
			continue
		}

		o.logger.Warn("claim failed", zap.String("quest", quest.Name), zap.Error(err))
		return model.Unknown(platformMessage(err)), nil
	}
}

func (o *Orchestrator) reportLine(community model.Community, quest model.Quest, outcome model.ClaimOutcome) string {
	switch outcome.Kind {
	case model.OutcomeClaimed:
		return fmt.Sprintf("Claim *%s*, earn *%d* points", quest.Name, outcome.XP)
	case model.OutcomeAlreadyClaimed:
		return fmt.Sprintf("%s already claimed!", quest.Name)
	case model.OutcomeAnswerMissing:
		return "Answer not found for following quest:\n" + classify.DisplayText(o.appHost, community.Subdomain, quest)
	case model.OutcomeActionFailed, model.OutcomeRateLimited:
		return fmt.Sprintf("*%s*: %s", quest.Name, outcome.Message)
	default:
		if outcome.Message == "" {
			return fmt.Sprintf("Something wrong with %s", quest.Name)
		}
		return fmt.Sprintf("*%s*: %s", quest.Name, outcome.Message)
	}
}

func (o *Orchestrator) tweetText(ctx context.Context, data model.ValidationData) string {
	text := data.DefaultTweet
	if text == "" {
		text = o.phrases.Phrase(ctx, llm.PhraseTweet)
	}
	if len(data.TweetWords) > 0 {
		text += "\n" + strings.Join(data.TweetWords, " ")
	}
	return text
}

func (o *Orchestrator) replyText(ctx context.Context, data model.ValidationData) string {
	if data.DefaultReply != "" {
		return data.DefaultReply
	}
	return o.phrases.Phrase(ctx, llm.PhraseReply)
}

// StatusURL is the public URL of a tweet, used as claim proof
func StatusURL(handle, tweetID string) string {
	if handle == "" {
		handle = "i"
	}
	return fmt.Sprintf("https://twitter.com/%s/status/%s", handle, tweetID)
}

func errorMessage(err error) string {
	if msg := platformMessage(err); msg != "" {
		return msg
	}
	return err.Error()
}

type noPacer struct{}

func (noPacer) Pause(context.Context) error               { return nil }
func (noPacer) Wait(context.Context, time.Duration) error { return nil }
