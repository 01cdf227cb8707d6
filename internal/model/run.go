package model

// AnswerSource resolves stored answers by community name and question text
type AnswerSource interface {
	Lookup(community, question string) (string, bool)
}

// Actor is the identity claims are made for
type Actor struct {
	TwitterHandle string // Used to build tweet proof URLs
}

// RunRequest is what one run asks the claim engine to do for each community
type RunRequest struct {
	Types   []SubmissionType
	Answers AnswerSource
	Actor   Actor
}

// TypeNames returns the requested types as strings
func (r RunRequest) TypeNames() []string {
	names := make([]string, len(r.Types))
	for i, t := range r.Types {
		names[i] = string(t)
	}
	return names
}

// CommunityResult is the outcome of processing one community
type CommunityResult struct {
	Community Community
	Lines     []string
	Outcomes  []ClaimOutcome
}

// Claimed returns the number of quests claimed and the XP they earned
func (r *CommunityResult) Claimed() (count, xp int) {
	for _, o := range r.Outcomes {
		if o.Kind == OutcomeClaimed {
			count++
			xp += o.XP
		}
	}
	return count, xp
}
