package answers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/questclaim/internal/model"
)

func TestNormalizeCommunity(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme", "Acme"},
		{"Acme DAO!", "Acme DAO"},
		{"Ñ-Labs: v2", "Labs v2"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeCommunity(tt.in); got != tt.want {
			t.Errorf("NormalizeCommunity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStore_Lookup(t *testing.T) {
	s := New(map[string]map[string]string{
		"Acme DAO!": {"  What is 2+2? ": "4", "Empty": ""},
	})

	if got, ok := s.Lookup("Acme DAO", "What is 2+2?"); !ok || got != "4" {
		t.Errorf("Lookup() = %q, %v; want 4, true", got, ok)
	}
	if got, ok := s.Lookup("Acme DAO!", "\tWhat is 2+2?\n"); !ok || got != "4" {
		t.Errorf("Lookup() with raw names = %q, %v", got, ok)
	}
	if _, ok := s.Lookup("Acme DAO", "what is 2+2?"); ok {
		t.Error("Expected exact question match only")
	}
	if _, ok := s.Lookup("Acme DAO", "Empty"); ok {
		t.Error("Expected empty answer to count as missing")
	}
	if _, ok := s.Lookup("Other", "What is 2+2?"); ok {
		t.Error("Expected miss for unknown community")
	}

	var nilStore *Store
	if _, ok := nilStore.Lookup("Acme", "q"); ok {
		t.Error("Expected nil store to miss")
	}
}

func TestStore_Merge(t *testing.T) {
	s := New(map[string]map[string]string{"Acme": {"q1": "a1"}})
	other := New(map[string]map[string]string{"Acme": {"q1": "a1", "q2": "a2"}, "Beta": {"q": "b"}})

	if changed := s.Merge(other); changed != 2 {
		t.Errorf("Expected 2 changed answers, got %d", changed)
	}
	if s.Len() != 3 {
		t.Errorf("Expected 3 answers, got %d", s.Len())
	}
	if got := s.Communities(); len(got) != 2 || got[0] != "Acme" || got[1] != "Beta" {
		t.Errorf("Unexpected communities: %v", got)
	}
	if n := s.CountFor("Acme!"); n != 2 {
		t.Errorf("Expected 2 answers for Acme, got %d", n)
	}
}

func TestLoadSave_RoundTripFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "answers.yaml")

	s := New(map[string]map[string]string{"Acme": {"Favourite colour": "blue"}})
	if err := s.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got, ok := loaded.Lookup("Acme", "Favourite colour"); !ok || got != "blue" {
		t.Errorf("Lookup after load = %q, %v", got, ok)
	}
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.json")
	if err := os.WriteFile(path, []byte(`{"Acme": {"q": "a"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := s.Lookup("Acme", "q"); !ok {
		t.Error("Expected JSON answers to load")
	}
}

func TestLoadOrEmpty(t *testing.T) {
	s, err := LoadOrEmpty(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Expected no error for missing file, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty store, got %d answers", s.Len())
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("- not: a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrEmpty(bad); err == nil {
		t.Error("Expected parse error")
	}
}

func TestFromNotifications(t *testing.T) {
	notes := []model.Notification{
		{Type: "claim", Status: "success", Title: " Quiz one ", Events: []model.NotificationEvent{{ValueType: model.SubmissionQuiz, Value: "A"}}},
		{Type: "claim", Status: "success", Title: "Text one", Events: []model.NotificationEvent{{ValueType: model.SubmissionText, Value: "hello"}}},
		{Type: "claim", Status: "fail", Title: "Failed", Events: []model.NotificationEvent{{ValueType: model.SubmissionQuiz, Value: "B"}}},
		{Type: "claim", Status: "success", Title: "Link", Events: []model.NotificationEvent{{ValueType: model.SubmissionURL, Value: "https://x"}}},
		{Type: "review", Status: "success", Title: "Review", Events: []model.NotificationEvent{{ValueType: model.SubmissionText, Value: "r"}}},
		{Type: "claim", Status: "success", Title: "No events"},
	}

	s := FromNotifications("Acme!", notes)
	if s.Len() != 2 {
		t.Fatalf("Expected 2 answers, got %d", s.Len())
	}
	if got, _ := s.Lookup("Acme", "Quiz one"); got != "A" {
		t.Errorf("Unexpected quiz answer %q", got)
	}
}
