package model

import "time"

// ClaimRequest is the proof submitted for one quest
type ClaimRequest struct {
	QuestID string
	Type    SubmissionType
	Value   string // Answer or generated proof artifact, empty when none is needed
}

// ClaimResult is the platform's answer to a successful claim submission
type ClaimResult struct {
	Status string `json:"status"` // "success" or anything else for an already claimed quest
	XP     int    `json:"xp,omitempty"`
}

// Succeeded reports whether the claim earned its reward now
func (r ClaimResult) Succeeded() bool {
	return r.Status == "success"
}

// OutcomeKind classifies the result of one claim attempt
type OutcomeKind int

const (
	OutcomeClaimed OutcomeKind = iota
	OutcomeAlreadyClaimed
	OutcomeAnswerMissing
	OutcomeRateLimited
	OutcomeActionFailed
	OutcomeUnknown
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeClaimed:
		return "claimed"
	case OutcomeAlreadyClaimed:
		return "already_claimed"
	case OutcomeAnswerMissing:
		return "answer_missing"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeActionFailed:
		return "action_failed"
	default:
		return "unknown"
	}
}

// ClaimOutcome is the uniform result of processing one quest
type ClaimOutcome struct {
	Kind       OutcomeKind
	XP         int           // OutcomeClaimed
	RetryAfter time.Duration // OutcomeRateLimited
	Message    string        // Human-readable detail for the report
}

// Claimed builds a successful outcome
func Claimed(xp int) ClaimOutcome {
	return ClaimOutcome{Kind: OutcomeClaimed, XP: xp}
}

// AlreadyClaimed builds an informational outcome
func AlreadyClaimed() ClaimOutcome {
	return ClaimOutcome{Kind: OutcomeAlreadyClaimed}
}

// AnswerMissing builds an outcome for a quest with no stored answer
func AnswerMissing() ClaimOutcome {
	return ClaimOutcome{Kind: OutcomeAnswerMissing}
}

// RateLimited builds an outcome for a throttled claim
func RateLimited(retryAfter time.Duration, message string) ClaimOutcome {
	return ClaimOutcome{Kind: OutcomeRateLimited, RetryAfter: retryAfter, Message: message}
}

// ActionFailed builds an outcome for a quest aborted by its social-network action
func ActionFailed(reason string) ClaimOutcome {
	return ClaimOutcome{Kind: OutcomeActionFailed, Message: reason}
}

// Unknown builds an outcome carrying the platform's message verbatim
func Unknown(message string) ClaimOutcome {
	return ClaimOutcome{Kind: OutcomeUnknown, Message: message}
}
