package claim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/questclaim/internal/answers"
	"github.com/ppiankov/questclaim/internal/llm"
	"github.com/ppiankov/questclaim/internal/model"
	"github.com/ppiankov/questclaim/internal/platform"
	"github.com/ppiankov/questclaim/internal/twitter"
)

type fakePlatform struct {
	boards      [][]model.Theme // One per ListQuestBoard call, the last one repeats
	boardErr    error
	boardCalls  int
	submitFn    func(req model.ClaimRequest, attempt int) (*model.ClaimResult, error)
	submissions []model.ClaimRequest
}

func (f *fakePlatform) ListQuestBoard(_ context.Context, _ string) ([]model.Theme, error) {
	if f.boardErr != nil {
		return nil, f.boardErr
	}
	i := f.boardCalls
	if i >= len(f.boards) {
		i = len(f.boards) - 1
	}
	f.boardCalls++
	return f.boards[i], nil
}

func (f *fakePlatform) SubmitClaim(_ context.Context, _ string, req model.ClaimRequest) (*model.ClaimResult, error) {
	f.submissions = append(f.submissions, req)
	attempt := 0
	for _, s := range f.submissions {
		if s.QuestID == req.QuestID {
			attempt++
		}
	}
	if f.submitFn != nil {
		return f.submitFn(req, attempt)
	}
	return &model.ClaimResult{Status: "success", XP: 50}, nil
}

func (f *fakePlatform) submissionsFor(questID string) int {
	n := 0
	for _, s := range f.submissions {
		if s.QuestID == questID {
			n++
		}
	}
	return n
}

type fakeActions struct {
	calls   []string
	errs    map[string]error
	tweetID string
}

func (f *fakeActions) record(call string) error {
	f.calls = append(f.calls, call)
	return f.errs[strings.SplitN(call, ":", 2)[0]]
}

func (f *fakeActions) Follow(_ context.Context, handle string) error {
	return f.record("follow:" + handle)
}

func (f *fakeActions) Tweet(_ context.Context, text string) (*twitter.Tweet, error) {
	if err := f.record("tweet:" + text); err != nil {
		return nil, err
	}
	return &twitter.Tweet{ID: f.tweetID}, nil
}

func (f *fakeActions) Reply(_ context.Context, text, targetID string) (*twitter.Tweet, error) {
	if err := f.record("reply:" + targetID + ":" + text); err != nil {
		return nil, err
	}
	return &twitter.Tweet{ID: "reply-1"}, nil
}

func (f *fakeActions) Like(_ context.Context, tweetID string) error {
	return f.record("like:" + tweetID)
}

func (f *fakeActions) Retweet(_ context.Context, tweetID string) error {
	return f.record("retweet:" + tweetID)
}

type fakePacer struct {
	pauses int
	waits  []time.Duration
}

func (p *fakePacer) Pause(context.Context) error {
	p.pauses++
	return nil
}

func (p *fakePacer) Wait(_ context.Context, base time.Duration) error {
	p.waits = append(p.waits, base)
	return nil
}

func board(quests ...model.Quest) []model.Theme {
	return []model.Theme{{ID: "theme", Name: "Main", Quests: quests}}
}

func quest(id string, typ model.SubmissionType) model.Quest {
	return model.Quest{ID: id, Name: "Quest " + id, SubmissionType: typ, Unlocked: true, Open: true}
}

func twitterQuest(id string, data model.ValidationData) model.Quest {
	q := quest(id, model.SubmissionTwitter)
	q.ValidationData = data
	return q
}

var acme = model.Community{ID: "c1", Subdomain: "acme", Name: "Acme"}

func newTestOrchestrator(p *fakePlatform, actions ActionProvider, pacer *fakePacer) *Orchestrator {
	return NewOrchestrator(p, Options{
		Actions:     actions,
		Phrases:     llm.NewSeededPhrases([]string{"gm"}, func(int) int { return 0 }),
		Pacer:       pacer,
		AppHost:     "crew3.xyz",
		MaxRechecks: 1,
	})
}

func TestClaimQuestsForCommunity_NoClaimable(t *testing.T) {
	locked := quest("q1", model.SubmissionNone)
	locked.Unlocked = false
	p := &fakePlatform{boards: [][]model.Theme{board(locked, quest("q2", model.SubmissionQuiz))}}

	result, err := newTestOrchestrator(p, nil, &fakePacer{}).ClaimQuestsForCommunity(context.Background(), acme, model.RunRequest{
		Types: []model.SubmissionType{model.SubmissionNone, model.SubmissionTwitter},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := `No claimable quests with type *"none,twitter"* for community *Acme*!`
	if len(result.Lines) != 1 || result.Lines[0] != want {
		t.Errorf("Lines = %q, want [%q]", result.Lines, want)
	}
	if len(p.submissions) != 0 {
		t.Errorf("Expected no submissions, got %d", len(p.submissions))
	}
}

func TestClaimQuestsForCommunity_TweetProof(t *testing.T) {
	p := &fakePlatform{boards: [][]model.Theme{board(twitterQuest("q1", model.ValidationData{
		Actions:    []model.TwitterAction{model.ActionTweet},
		TweetWords: []string{"#acme", "@acme"},
	}))}}
	actions := &fakeActions{tweetID: "999"}

	result, err := newTestOrchestrator(p, actions, &fakePacer{}).ClaimQuestsForCommunity(context.Background(), acme, model.RunRequest{
		Types: []model.SubmissionType{model.SubmissionTwitter},
		Actor: model.Actor{TwitterHandle: "me"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(actions.calls) != 1 || actions.calls[0] != "tweet:gm\n#acme @acme" {
		t.Errorf("Unexpected actions %q", actions.calls)
	}
	if len(p.submissions) != 1 {
		t.Fatalf("Expected 1 submission, got %d", len(p.submissions))
	}
	sub := p.submissions[0]
	if sub.Type != model.SubmissionTwitter || sub.Value != "https://twitter.com/me/status/999" {
		t.Errorf("Unexpected submission %+v", sub)
	}

	wantLines := []string{"*Acme* `acme` (1 quests):", " - Claim *Quest q1*, earn *50* points"}
	if strings.Join(result.Lines, "\n") != strings.Join(wantLines, "\n") {
		t.Errorf("Lines = %q, want %q", result.Lines, wantLines)
	}
	if count, xp := result.Claimed(); count != 1 || xp != 50 {
		t.Errorf("Claimed() = %d, %d", count, xp)
	}
}

func TestClaimQuestsForCommunity_Answers(t *testing.T) {
	p := &fakePlatform{boards: [][]model.Theme{board(
		quest("known", model.SubmissionQuiz),
		quest("unknown", model.SubmissionText),
	)}}
	store := answers.New(map[string]map[string]string{
		"Acme": {"Quest known": "42"},
	})
	pacer := &fakePacer{}

	result, err := newTestOrchestrator(p, nil, pacer).ClaimQuestsForCommunity(context.Background(), acme, model.RunRequest{
		Types:   []model.SubmissionType{model.SubmissionQuiz, model.SubmissionText},
		Answers: store,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(p.submissions) != 1 || p.submissions[0].QuestID != "known" || p.submissions[0].Value != "42" {
		t.Errorf("Unexpected submissions %+v", p.submissions)
	}
	if len(result.Outcomes) != 2 {
		t.Fatalf("Expected 2 outcomes, got %+v", result.Outcomes)
	}
	// Stack order: the last claimable quest is processed first
	if result.Outcomes[0].Kind != model.OutcomeAnswerMissing || result.Outcomes[1].Kind != model.OutcomeClaimed {
		t.Errorf("Unexpected outcomes %+v", result.Outcomes)
	}
	missing := result.Lines[1]
	if !strings.HasPrefix(missing, " - Answer not found for following quest:\nName: *Quest unknown*") ||
		!strings.Contains(missing, "https://crew3.xyz/c/acme/questboard/unknown") {
		t.Errorf("Unexpected missing-answer line %q", missing)
	}
}

func TestClaimQuestsForCommunity_ActionOrder(t *testing.T) {
	p := &fakePlatform{boards: [][]model.Theme{board(twitterQuest("q1", model.ValidationData{
		Actions:       []model.TwitterAction{model.ActionRetweet, model.ActionLike, model.ActionFollow},
		TwitterHandle: "acme",
		TweetID:       "555",
	}))}}
	actions := &fakeActions{}

	if _, err := newTestOrchestrator(p, actions, &fakePacer{}).ClaimQuestsForCommunity(context.Background(), acme, model.RunRequest{
		Types: []model.SubmissionType{model.SubmissionTwitter},
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []string{"follow:acme", "like:555", "retweet:555"}
	if strings.Join(actions.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %q, want %q", actions.calls, want)
	}
	if len(p.submissions) != 1 || p.submissions[0].Value != "" {
		t.Errorf("Expected one proof-less submission, got %+v", p.submissions)
	}
}

func TestClaimQuestsForCommunity_ReplyUsesDefaultText(t *testing.T) {
	p := &fakePlatform{boards: [][]model.Theme{board(twitterQuest("q1", model.ValidationData{
		Actions:      []model.TwitterAction{model.ActionReply},
		TweetID:      "555",
		DefaultReply: "wen token",
	}))}}
	actions := &fakeActions{}

	if _, err := newTestOrchestrator(p, actions, &fakePacer{}).ClaimQuestsForCommunity(context.Background(), acme, model.RunRequest{
		Types: []model.SubmissionType{model.SubmissionTwitter},
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(actions.calls) != 1 || actions.calls[0] != "reply:555:wen token" {
		t.Errorf("Unexpected calls %q", actions.calls)
	}
}

func TestClaimQuestsForCommunity_RateLimitRetry(t *testing.T) {
	p := &fakePlatform{
		boards: [][]model.Theme{board(twitterQuest("q1", model.ValidationData{
			Actions: []model.TwitterAction{model.ActionTweet},
		}))},
		submitFn: func(req model.ClaimRequest, attempt int) (*model.ClaimResult, error) {
			if attempt == 1 {
				return nil, &platform.ResponseError{
					StatusCode: 400,
					Fields:     map[string]string{"follow": "too many request, retry in 3 minutes"},
				}
			}
			return &model.ClaimResult{Status: "success", XP: 100}, nil
		},
	}
	actions := &fakeActions{tweetID: "999"}
	pacer := &fakePacer{}

	result, err := newTestOrchestrator(p, actions, pacer).ClaimQuestsForCommunity(context.Background(), acme, model.RunRequest{
		Types: []model.SubmissionType{model.SubmissionTwitter},
		Actor: model.Actor{TwitterHandle: "me"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(pacer.waits) != 1 || pacer.waits[0] < 180*time.Second {
		t.Errorf("Expected one wait of at least 180s, got %v", pacer.waits)
	}
	if len(p.submissions) != 2 || p.submissions[0].Value != p.submissions[1].Value {
		t.Errorf("Expected the same proof submitted twice, got %+v", p.submissions)
	}
	if len(actions.calls) != 1 {
		t.Errorf("Actions must not be repeated on retry, got %q", actions.calls)
	}
	if result.Outcomes[0].Kind != model.OutcomeClaimed || result.Outcomes[0].XP != 100 {
		t.Errorf("Unexpected outcome %+v", result.Outcomes[0])
	}
}

func TestClaimQuestsForCommunity_RateLimitTwice(t *testing.T) {
	p := &fakePlatform{
		boards: [][]model.Theme{board(quest("q1", model.SubmissionNone))},
		submitFn: func(model.ClaimRequest, int) (*model.ClaimResult, error) {
			return nil, &platform.ResponseError{StatusCode: 400, Message: "too many requests, retry in 1 minute"}
		},
	}

	result, err := newTestOrchestrator(p, nil, &fakePacer{}).ClaimQuestsForCommunity(context.Background(), acme, model.RunRequest{
		Types: []model.SubmissionType{model.SubmissionNone},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n := p.submissionsFor("q1"); n != 2 {
		t.Errorf("Expected exactly 2 submissions, got %d", n)
	}
	if result.Outcomes[0].Kind != model.OutcomeRateLimited || result.Outcomes[0].RetryAfter != time.Minute {
		t.Errorf("Unexpected outcome %+v", result.Outcomes[0])
	}
	if !strings.Contains(result.Lines[1], "too many requests, retry in 1 minute") {
		t.Errorf("Expected platform message in line, got %q", result.Lines[1])
	}
}

func TestClaimQuestsForCommunity_OtherFailures(t *testing.T) {
	p := &fakePlatform{
		boards: [][]model.Theme{board(
			quest("transport", model.SubmissionNone),
			quest("rejected", model.SubmissionNone),
			quest("claimed", model.SubmissionNone),
		)},
		submitFn: func(req model.ClaimRequest, _ int) (*model.ClaimResult, error) {
			switch req.QuestID {
			case "rejected":
				return nil, &platform.ResponseError{StatusCode: 400, Message: "Quest is not open"}
			case "transport":
				return nil, errors.New("fetch: connection reset")
			default:
				return &model.ClaimResult{Status: "pending"}, nil
			}
		},
	}

	result, err := newTestOrchestrator(p, nil, &fakePacer{}).ClaimQuestsForCommunity(context.Background(), acme, model.RunRequest{
		Types: []model.SubmissionType{model.SubmissionNone},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []string{
		"*Acme* `acme` (3 quests):",
		" - Quest claimed already claimed!",
		" - *Quest rejected*: Quest is not open",
		" - Something wrong with Quest transport",
	}
	if strings.Join(result.Lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("Lines = %q, want %q", result.Lines, want)
	}
	if len(p.submissions) != 3 {
		t.Errorf("Failures must not be retried, got %d submissions", len(p.submissions))
	}
}

func TestClaimQuestsForCommunity_DrainAndRecheck(t *testing.T) {
	first := quest("q1", model.SubmissionNone)
	second := quest("q2", model.SubmissionNone)
	p := &fakePlatform{boards: [][]model.Theme{
		board(first),
		board(first, second),
	}}
	pacer := &fakePacer{}

	o := newTestOrchestrator(p, nil, pacer)
	o.maxRechecks = 3
	result, err := o.ClaimQuestsForCommunity(context.Background(), acme, model.RunRequest{
		Types: []model.SubmissionType{model.SubmissionNone},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if p.submissionsFor("q1") != 1 || p.submissionsFor("q2") != 1 {
		t.Errorf("Expected each quest claimed once, got %+v", p.submissions)
	}
	// Initial fetch, recheck that finds q2, recheck that finds nothing new
	if p.boardCalls != 3 {
		t.Errorf("Expected 3 board fetches, got %d", p.boardCalls)
	}
	if len(result.Outcomes) != 2 {
		t.Errorf("Expected 2 outcomes, got %d", len(result.Outcomes))
	}
	if pacer.pauses != 2 {
		t.Errorf("Expected a pause before each recheck, got %d", pacer.pauses)
	}
}

func TestClaimQuestsForCommunity_RecheckBounded(t *testing.T) {
	p := &fakePlatform{}
	for i := 0; i < 10; i++ {
		p.boards = append(p.boards, board(quest(fmt.Sprintf("q%d", i), model.SubmissionNone)))
	}

	o := newTestOrchestrator(p, nil, &fakePacer{})
	o.maxRechecks = 2
	result, err := o.ClaimQuestsForCommunity(context.Background(), acme, model.RunRequest{
		Types: []model.SubmissionType{model.SubmissionNone},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Outcomes) != 3 || p.boardCalls != 3 {
		t.Errorf("Expected 3 quests over 3 fetches, got %d quests over %d fetches", len(result.Outcomes), p.boardCalls)
	}
}

func TestClaimQuestsForCommunity_TerminalActionContinues(t *testing.T) {
	p := &fakePlatform{boards: [][]model.Theme{board(
		quest("plain", model.SubmissionNone),
		twitterQuest("like", model.ValidationData{
			Actions: []model.TwitterAction{model.ActionLike},
			TweetID: "404",
		}),
	)}}
	actions := &fakeActions{errs: map[string]error{
		"like": &twitter.APIError{StatusCode: 404, Code: twitter.CodeNoStatusFound},
	}}

	result, err := newTestOrchestrator(p, actions, &fakePacer{}).ClaimQuestsForCommunity(context.Background(), acme, model.RunRequest{
		Types: []model.SubmissionType{model.SubmissionNone, model.SubmissionTwitter},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if p.submissionsFor("like") != 0 || p.submissionsFor("plain") != 1 {
		t.Errorf("Unexpected submissions %+v", p.submissions)
	}
	if result.Outcomes[0].Kind != model.OutcomeActionFailed {
		t.Errorf("Unexpected outcome %+v", result.Outcomes[0])
	}
	if want := " - *Quest like*: Tweet is not found, cannot like. Quest not claimable."; result.Lines[1] != want {
		t.Errorf("Line = %q, want %q", result.Lines[1], want)
	}
}

func TestClaimQuestsForCommunity_ToleratedActionStillClaims(t *testing.T) {
	p := &fakePlatform{boards: [][]model.Theme{board(twitterQuest("q1", model.ValidationData{
		Actions: []model.TwitterAction{model.ActionTweet, model.ActionRetweet},
		TweetID: "555",
	}))}}
	actions := &fakeActions{errs: map[string]error{
		"tweet":   &twitter.APIError{StatusCode: 403, Code: twitter.CodeDuplicateStatus},
		"retweet": &twitter.APIError{StatusCode: 403, Code: twitter.CodeAlreadyRetweeted},
	}}

	result, err := newTestOrchestrator(p, actions, &fakePacer{}).ClaimQuestsForCommunity(context.Background(), acme, model.RunRequest{
		Types: []model.SubmissionType{model.SubmissionTwitter},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(p.submissions) != 1 || result.Outcomes[0].Kind != model.OutcomeClaimed {
		t.Errorf("Expected the quest to be claimed, got %+v", result.Outcomes)
	}
}

func TestClaimQuestsForCommunity_FatalActionError(t *testing.T) {
	p := &fakePlatform{boards: [][]model.Theme{board(
		quest("plain", model.SubmissionNone),
		twitterQuest("follow", model.ValidationData{
			Actions:       []model.TwitterAction{model.ActionFollow},
			TwitterHandle: "acme",
		}),
	)}}
	boom := errors.New("connection refused")
	actions := &fakeActions{errs: map[string]error{"follow": boom}}

	result, err := newTestOrchestrator(p, actions, &fakePacer{}).ClaimQuestsForCommunity(context.Background(), acme, model.RunRequest{
		Types: []model.SubmissionType{model.SubmissionNone, model.SubmissionTwitter},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected fatal error, got %v", err)
	}
	if len(p.submissions) != 0 {
		t.Errorf("Fatal error must stop the community, got %+v", p.submissions)
	}
	if result == nil || len(result.Lines) != 1 {
		t.Errorf("Expected the partial report with its header, got %+v", result)
	}
}

func TestClaimQuestsForCommunity_NoActionProvider(t *testing.T) {
	p := &fakePlatform{boards: [][]model.Theme{board(twitterQuest("q1", model.ValidationData{
		Actions: []model.TwitterAction{model.ActionFollow},
	}))}}

	result, err := newTestOrchestrator(p, nil, &fakePacer{}).ClaimQuestsForCommunity(context.Background(), acme, model.RunRequest{
		Types: []model.SubmissionType{model.SubmissionTwitter},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(p.submissions) != 0 || result.Outcomes[0].Kind != model.OutcomeActionFailed {
		t.Errorf("Expected the quest to fail without submission, got %+v", result.Outcomes)
	}
}

func TestClaimQuestsForCommunity_BoardUnavailable(t *testing.T) {
	p := &fakePlatform{boardErr: &platform.ResponseError{StatusCode: 403, Message: "community is private"}}

	result, err := newTestOrchestrator(p, nil, &fakePacer{}).ClaimQuestsForCommunity(context.Background(), acme, model.RunRequest{
		Types: []model.SubmissionType{model.SubmissionNone},
	})
	if err != nil {
		t.Fatalf("Board failures must not be fatal, got %v", err)
	}
	if len(result.Lines) != 1 || !strings.Contains(result.Lines[0], "community is private") {
		t.Errorf("Unexpected lines %q", result.Lines)
	}
}

func TestStatusURL(t *testing.T) {
	if got := StatusURL("me", "999"); got != "https://twitter.com/me/status/999" {
		t.Errorf("StatusURL() = %s", got)
	}
	if got := StatusURL("", "999"); got != "https://twitter.com/i/status/999" {
		t.Errorf("StatusURL() without handle = %s", got)
	}
}
