package model

import (
	"strings"
	"time"
)

// RunReport is the append-only, human-readable result of one run
type RunReport struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	Types       []string  `json:"types"`
	Communities int       `json:"communities"`
	Lines       []string  `json:"lines"`
	Claimed     int       `json:"claimed"`  // Quests claimed in this run
	EarnedXP    int       `json:"earned_xp"` // Sum of XP over claimed quests
}

// Append adds lines to the report
func (r *RunReport) Append(lines ...string) {
	r.Lines = append(r.Lines, lines...)
}

// String renders the report one line per entry
func (r *RunReport) String() string {
	return strings.Join(r.Lines, "\n")
}
