package model

import (
	"encoding/json"
)

// SubmissionType is the kind of proof a quest requires
type SubmissionType string

const (
	SubmissionNone    SubmissionType = "none"
	SubmissionQuiz    SubmissionType = "quiz"
	SubmissionText    SubmissionType = "text"
	SubmissionURL     SubmissionType = "url"
	SubmissionImage   SubmissionType = "image"
	SubmissionTwitter SubmissionType = "twitter"
	SubmissionDiscord SubmissionType = "discord"
	SubmissionInvites SubmissionType = "invites"
)

// RequiresAnswer reports whether a claim of this type must carry an answer from the answer store
func (t SubmissionType) RequiresAnswer() bool {
	switch t {
	case SubmissionQuiz, SubmissionText, SubmissionURL, SubmissionImage:
		return true
	default:
		return false
	}
}

// TwitterAction is one social-network side effect a twitter quest asks for
type TwitterAction string

const (
	ActionFollow  TwitterAction = "follow"
	ActionTweet   TwitterAction = "tweet"
	ActionReply   TwitterAction = "reply"
	ActionLike    TwitterAction = "like"
	ActionRetweet TwitterAction = "retweet"
)

// ActionOrder is the order in which twitter actions are performed.
// A tweet must exist before it can be replied to, liked or retweeted.
var ActionOrder = []TwitterAction{ActionFollow, ActionTweet, ActionReply, ActionLike, ActionRetweet}

// Theme groups quests on a community quest board
type Theme struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Deleted bool    `json:"deleted"`
	Quests  []Quest `json:"quests"`
}

// Quest is a single completable task on a quest board
type Quest struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	SubmissionType SubmissionType `json:"submissionType"`
	Unlocked       bool           `json:"unlocked"`
	InReview       bool           `json:"inReview"`
	Open           bool           `json:"open"`
	Deleted        bool           `json:"deleted"`
	AutoValidate   bool           `json:"autoValidate"`
	Reward         []Reward       `json:"reward"`
	ValidationData ValidationData `json:"validationData"`
	Description    *RichText      `json:"description,omitempty"`
}

// Reward is one entry of a quest's reward list
type Reward struct {
	Type  string `json:"type"` // "xp", "role", "other"
	Value any    `json:"value,omitempty"`
}

// RichText is the platform's tree-shaped description document
type RichText struct {
	Type    string     `json:"type"`
	Text    string     `json:"text,omitempty"`
	Content []RichText `json:"content,omitempty"`
}

// ValidationData is the submission-type specific payload of a quest.
// Only the fields relevant to the quest's submission type are populated.
type ValidationData struct {
	// twitter
	Actions       []TwitterAction `json:"actions,omitempty"`
	TwitterHandle string          `json:"twitterHandle,omitempty"`
	TweetID       string          `json:"tweetId,omitempty"`
	DefaultReply  string          `json:"defaultReply,omitempty"`
	DefaultTweet  string          `json:"defaultTweet,omitempty"`
	TweetWords    []string        `json:"tweetWords,omitempty"`

	// discord
	InviteLink string `json:"inviteLink,omitempty"`

	// Raw keeps the payload as received, for quest types whose fields are not modelled
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and keeps the raw payload
func (v *ValidationData) UnmarshalJSON(data []byte) error {
	type plain ValidationData
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*v = ValidationData(p)
	v.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// HasAction reports whether the quest asks for the given twitter action
func (v ValidationData) HasAction(action TwitterAction) bool {
	for _, a := range v.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// String returns the raw payload, or "{}" when none was received
func (v ValidationData) String() string {
	if len(v.Raw) == 0 {
		return "{}"
	}
	return string(v.Raw)
}
