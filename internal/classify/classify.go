// Package classify derives quest subsets from an already fetched quest board.
// Every function is a pure filter: the input slice is never modified and
// the relative order of the kept quests is preserved.
package classify

import (
	"github.com/ppiankov/questclaim/internal/model"
)

// Flatten merges quest-board themes into one quest list, dropping deleted themes and quests
func Flatten(themes []model.Theme) []model.Quest {
	var quests []model.Quest
	for _, theme := range themes {
		if theme.Deleted {
			continue
		}
		for _, q := range theme.Quests {
			if q.Deleted {
				continue
			}
			quests = append(quests, q)
		}
	}
	return quests
}

// Unlocked returns the quests that are unlocked, open and not waiting for review
func Unlocked(quests []model.Quest) []model.Quest {
	return filter(quests, func(q model.Quest) bool {
		return q.Unlocked && q.Open && !q.InReview
	})
}

// ByType returns the quests whose submission type is one of types
func ByType(quests []model.Quest, types []model.SubmissionType) []model.Quest {
	set := make(map[model.SubmissionType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return filter(quests, func(q model.Quest) bool {
		_, ok := set[q.SubmissionType]
		return ok
	})
}

// Claimable returns the quests eligible for a claim attempt with the requested types
func Claimable(quests []model.Quest, types []model.SubmissionType) []model.Quest {
	return ByType(Unlocked(quests), types)
}

// AutoValidated returns quests validated by the platform without manual review
func AutoValidated(quests []model.Quest) []model.Quest {
	return filter(quests, func(q model.Quest) bool { return q.AutoValidate })
}

// RoleGranting returns quests whose reward list includes a role
func RoleGranting(quests []model.Quest) []model.Quest {
	return filter(quests, func(q model.Quest) bool {
		for _, r := range q.Reward {
			if r.Type == "role" {
				return true
			}
		}
		return false
	})
}

// TwitterQuests returns quests requiring social-network actions
func TwitterQuests(quests []model.Quest) []model.Quest {
	return ByType(quests, []model.SubmissionType{model.SubmissionTwitter})
}

// DiscordQuests returns quests requiring a discord server join
func DiscordQuests(quests []model.Quest) []model.Quest {
	return ByType(quests, []model.SubmissionType{model.SubmissionDiscord})
}

// InviteQuests returns quests requiring referrals
func InviteQuests(quests []model.Quest) []model.Quest {
	return ByType(quests, []model.SubmissionType{model.SubmissionInvites})
}

// DiscordInviteLinks returns the distinct invite links of the discord quests
func DiscordInviteLinks(quests []model.Quest) []string {
	var links []string
	seen := make(map[string]bool)
	for _, q := range DiscordQuests(quests) {
		link := q.ValidationData.InviteLink
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true
		links = append(links, link)
	}
	return links
}

// ParseTypes converts configured type names into submission types, dropping blanks
func ParseTypes(names []string) []model.SubmissionType {
	types := make([]model.SubmissionType, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		types = append(types, model.SubmissionType(n))
	}
	return types
}

func filter(quests []model.Quest, keep func(model.Quest) bool) []model.Quest {
	out := make([]model.Quest, 0, len(quests))
	for _, q := range quests {
		if keep(q) {
			out = append(out, q)
		}
	}
	return out
}
