package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/questclaim/internal/model"
	"go.uber.org/zap"
)

// NewPhraseProvider creates the phrase provider selected by configuration
func NewPhraseProvider(cfg model.PhrasesConfig, logger *zap.Logger) (PhraseProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "fixed":
		return NewFixedPhrases(nil), nil

	case "openai":
		return NewOpenAIPhrases(cfg.APIKey, cfg.BaseURL, cfg.Model, NewFixedPhrases(nil), logger)

	default:
		return nil, fmt.Errorf("unknown phrase provider: %s (supported: fixed, openai)", cfg.Provider)
	}
}
