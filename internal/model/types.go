// Package model defines shared data structures.
package model

import (
	"time"

	"github.com/verte-zerg/keydrill/internal/engine"
)

// PracticeConfig defines settings for one practice run.
type PracticeConfig struct {
	Branch string
	Words  int
}

// StatsConfig defines filters for stats output.
type StatsConfig struct {
	Branch string
	Since  *time.Time
	Last   int
}

// SessionStats captures a completed (or abandoned) typing session.
type SessionStats struct {
	StartedAt      time.Time
	EndedAt        time.Time
	Branch         string
	Focus          string
	CorrectKeys    int
	IncorrectKeys  int
	BackspaceCount int
	DurationMs     int64
}

// CPM returns the session's characters-per-minute over correct keystrokes.
func (s SessionStats) CPM() float64 {
	if s.DurationMs <= 0 {
		return 0
	}
	return float64(s.CorrectKeys) / (float64(s.DurationMs) / 60000.0)
}

// Accuracy returns the fraction of keystrokes that were correct.
func (s SessionStats) Accuracy() float64 {
	total := s.CorrectKeys + s.IncorrectKeys
	if total == 0 {
		return 0
	}
	return float64(s.CorrectKeys) / float64(total)
}

// Session is a stored session with its keystroke log.
type Session struct {
	ID    int64
	Stats SessionStats
	Keys  []engine.Keystroke
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID  int64
	EndedAt    time.Time
	Branch     string
	Correct    int
	Incorrect  int
	DurationMs int64
}

// CPM returns the aggregate's characters-per-minute.
func (a SessionAggregate) CPM() float64 {
	if a.DurationMs <= 0 {
		return 0
	}
	return float64(a.Correct) / (float64(a.DurationMs) / 60000.0)
}
