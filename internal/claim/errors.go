package claim

import (
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/questclaim/internal/model"
	"github.com/ppiankov/questclaim/internal/platform"
	"github.com/ppiankov/questclaim/internal/twitter"
)

// ActionClass is how a failed social-network action affects its quest
type ActionClass int

const (
	// ActionTolerated means the action's effect already holds; the quest proceeds
	ActionTolerated ActionClass = iota
	// ActionTerminal aborts the quest with a report line; the run continues
	ActionTerminal
	// ActionFatal aborts the whole run
	ActionFatal
)

func (c ActionClass) String() string {
	switch c {
	case ActionTolerated:
		return "tolerated"
	case ActionTerminal:
		return "terminal"
	default:
		return "fatal"
	}
}

// ClassifyActionError maps a provider error for one action to its class and,
// for tolerated and terminal errors, a human-readable reason.
func ClassifyActionError(action model.TwitterAction, err error) (ActionClass, string) {
	var apiErr *twitter.APIError
	if !errors.As(err, &apiErr) {
		return ActionFatal, ""
	}

	switch apiErr.Code {
	case twitter.CodeDuplicateStatus:
		return ActionTolerated, "Tweet is a duplicate, still want to claim quest."
	case twitter.CodeAlreadyFavorited:
		return ActionTolerated, "Tweet has already been liked, still want to claim quest."
	case twitter.CodeAlreadyRetweeted:
		return ActionTolerated, "Tweet has already been retweeted, still want to claim quest."
	case twitter.CodeOverDailyLimit:
		return ActionTerminal, "Cannot tweet anymore today (user is over daily status update limit)."
	case twitter.CodeReplyTargetDeleted:
		return ActionTerminal, "Tweet has been deleted, cannot reply. Quest not claimable."
	case twitter.CodeNoStatusFound:
		return ActionTerminal, fmt.Sprintf("Tweet is not found, cannot %s. Quest not claimable.", action)
	case twitter.CodeRetweetNotPermitted:
		return ActionTerminal, "Retweet is not possible for this tweet. Quest not claimable"
	default:
		return ActionFatal, ""
	}
}

// rateLimitWait extracts the platform's requested wait from a claim error
func rateLimitWait(err error) (time.Duration, string, bool) {
	var respErr *platform.ResponseError
	if !errors.As(err, &respErr) {
		return 0, "", false
	}
	wait, ok := respErr.RetryAfter()
	return wait, respErr.ReportMessage(), ok
}

// platformMessage returns the platform's message for a claim error, empty when
// the error did not come from a platform response
func platformMessage(err error) string {
	var respErr *platform.ResponseError
	if errors.As(err, &respErr) {
		return respErr.ReportMessage()
	}
	return ""
}
