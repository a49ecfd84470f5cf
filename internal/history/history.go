// Package history persists an append-only record of executed page actions.
package history

import (
	"context"
	"strings"
	"time"
)

// Record is one executed action with its outcome and page context.
type Record struct {
	Timestamp  time.Time      `json:"timestamp"`
	SessionID  string         `json:"session_id"`
	ActionType string         `json:"action_type"`
	Action     map[string]any `json:"action"`
	URL        string         `json:"url,omitempty"`
	PageTitle  string         `json:"page_title,omitempty"`
	Success    bool           `json:"success"`
	Message    string         `json:"message,omitempty"`
	DurationMS int64          `json:"duration_ms,omitempty"`
}

// Store is the persistence contract for action history. Append failures are
// reported but treated as non-fatal by callers; losing a history entry never
// fails the action that produced it.
type Store interface {
	// Append adds a record, evicting the oldest entries beyond the
	// configured maximum.
	Append(ctx context.Context, rec Record) error

	// Recent returns up to n records, newest last. n <= 0 returns all.
	Recent(ctx context.Context, n int) ([]Record, error)

	// ByType returns records for one action type, newest last.
	ByType(ctx context.Context, actionType string) ([]Record, error)

	// Failed returns records of unsuccessful actions, newest last.
	Failed(ctx context.Context) ([]Record, error)

	// Search returns records whose action payload, URL, or message
	// contains the query, case-insensitively, newest last.
	Search(ctx context.Context, query string) ([]Record, error)

	// Clear removes all records.
	Clear(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

func matches(rec Record, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(rec.URL), q) ||
		strings.Contains(strings.ToLower(rec.Message), q) ||
		strings.Contains(strings.ToLower(rec.ActionType), q) {
		return true
	}
	for _, v := range rec.Action {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}
