package llm

import (
	"context"
	"math/rand/v2"
)

// PhraseKind tells a provider what the text will be posted as
type PhraseKind string

const (
	PhraseTweet PhraseKind = "tweet"
	PhraseReply PhraseKind = "reply"
)

// PhraseProvider supplies short cosmetic text for tweets and replies.
// Implementations never fail: a provider that cannot produce text falls back to a fixed phrase.
type PhraseProvider interface {
	// Name returns the provider name
	Name() string

	// Phrase returns one short phrase
	Phrase(ctx context.Context, kind PhraseKind) string
}

// DefaultPhrases is the built-in phrase pool
var DefaultPhrases = []string{
	"great milestone team ❤️🌎",
	"👍👍👍👍",
	"👏",
	"We need more of this kind of good news 🚀",
	"Nice",
	"Good",
	"go moon",
	"Great news 😊",
	"Great project",
	"awesome",
	"Nice project",
	"Good news!",
	"Very good",
	"👌",
	"🚀🚀🚀",
	"amazing",
	"Cool!",
}

// FixedPhrases draws phrases uniformly at random from a fixed pool
type FixedPhrases struct {
	phrases []string
	intN    func(n int) int
}

// NewFixedPhrases creates a provider over the given pool (DefaultPhrases when empty)
func NewFixedPhrases(phrases []string) *FixedPhrases {
	if len(phrases) == 0 {
		phrases = DefaultPhrases
	}
	return &FixedPhrases{
		phrases: phrases,
		intN:    rand.IntN,
	}
}

// NewSeededPhrases creates a provider whose choice is driven by intN, for deterministic runs
func NewSeededPhrases(phrases []string, intN func(n int) int) *FixedPhrases {
	p := NewFixedPhrases(phrases)
	p.intN = intN
	return p
}

// Name returns the provider name
func (p *FixedPhrases) Name() string {
	return "fixed"
}

// Phrase returns a random phrase from the pool
func (p *FixedPhrases) Phrase(_ context.Context, _ PhraseKind) string {
	return p.phrases[p.intN(len(p.phrases))]
}
