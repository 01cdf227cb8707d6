// Package answers holds the precomputed answers used for quiz, text, url and image quests.
//
// Answers are keyed by community display name with non-alphanumeric characters
// stripped, then by trimmed question text. The claim engine only reads the store.
package answers

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/questclaim/internal/model"
	"gopkg.in/yaml.v3"
)

var communityKeyPattern = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

// Store maps community name to question to answer
type Store struct {
	byCommunity map[string]map[string]string
}

// New creates a store from a raw mapping, normalizing all keys
func New(raw map[string]map[string]string) *Store {
	s := &Store{byCommunity: make(map[string]map[string]string)}
	for community, qa := range raw {
		for question, answer := range qa {
			s.Add(community, question, answer)
		}
	}
	return s
}

// NormalizeCommunity strips everything but ASCII letters, digits and spaces
func NormalizeCommunity(name string) string {
	return communityKeyPattern.ReplaceAllString(name, "")
}

// NormalizeQuestion trims surrounding whitespace from a question
func NormalizeQuestion(question string) string {
	return strings.TrimSpace(question)
}

// Lookup returns the answer for a question of a community.
// An empty stored answer counts as missing.
func (s *Store) Lookup(community, question string) (string, bool) {
	if s == nil {
		return "", false
	}
	qa, ok := s.byCommunity[NormalizeCommunity(community)]
	if !ok {
		return "", false
	}
	answer, ok := qa[NormalizeQuestion(question)]
	if !ok || answer == "" {
		return "", false
	}
	return answer, true
}

// Add records an answer, replacing any previous one
func (s *Store) Add(community, question, answer string) {
	key := NormalizeCommunity(community)
	qa, ok := s.byCommunity[key]
	if !ok {
		qa = make(map[string]string)
		s.byCommunity[key] = qa
	}
	qa[NormalizeQuestion(question)] = answer
}

// Merge copies answers from other into s and returns how many were new or changed
func (s *Store) Merge(other *Store) int {
	changed := 0
	for community, qa := range other.byCommunity {
		for question, answer := range qa {
			if current, ok := s.byCommunity[community][question]; ok && current == answer {
				continue
			}
			s.Add(community, question, answer)
			changed++
		}
	}
	return changed
}

// Len returns the number of stored answers
func (s *Store) Len() int {
	n := 0
	for _, qa := range s.byCommunity {
		n += len(qa)
	}
	return n
}

// CountFor returns the number of answers stored for a community
func (s *Store) CountFor(community string) int {
	return len(s.byCommunity[NormalizeCommunity(community)])
}

// Communities returns the normalized community keys in sorted order
func (s *Store) Communities() []string {
	keys := make([]string, 0, len(s.byCommunity))
	for k := range s.byCommunity {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load reads a YAML (or JSON) answers file
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}

	raw := make(map[string]map[string]string)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse answers %s: %w", path, err)
	}

	return New(raw), nil
}

// LoadOrEmpty reads an answers file, returning an empty store when the file does not exist
func LoadOrEmpty(path string) (*Store, error) {
	if path == "" {
		return New(nil), nil
	}
	s, err := Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(nil), nil
		}
		return nil, err
	}
	return s, nil
}

// Save writes the store as YAML
func (s *Store) Save(path string) error {
	data, err := yaml.Marshal(s.byCommunity)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create answers dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write answers: %w", err)
	}
	return nil
}

// FromNotifications collects answers accepted by the platform for a community.
// Only successful claims of quiz and text quests are kept.
func FromNotifications(communityName string, notes []model.Notification) *Store {
	s := New(nil)
	for _, n := range notes {
		if n.Status != "success" || n.Type != "claim" || len(n.Events) == 0 {
			continue
		}
		ev := n.Events[0]
		if ev.ValueType != model.SubmissionQuiz && ev.ValueType != model.SubmissionText {
			continue
		}
		s.Add(communityName, n.Title, ev.Value)
	}
	return s
}
