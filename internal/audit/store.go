package audit

import (
	"context"
	"sort"

	"github.com/maklarsystem/hookguard/internal/hook"
)

// Store persists audit entries, one ordered log per stage.
type Store interface {
	// Append adds e to the log for e.Stage. Prior entries are preserved.
	Append(ctx context.Context, e Entry) error
	// Read returns the log for stage in arrival order.
	Read(stage hook.Stage) ([]Entry, error)
}

// Query selects entries across stages.
type Query struct {
	Stage       hook.Stage // empty for all stages
	SessionID   string
	BlockedOnly bool
	Limit       int // most recent N after filtering; 0 for all
}

// Match reports whether e satisfies the filters of q.
func (q Query) Match(e Entry) bool {
	if q.Stage != "" && e.Stage != q.Stage {
		return false
	}
	if q.SessionID != "" && e.SessionID != q.SessionID {
		return false
	}
	if q.BlockedOnly && !e.Blocked {
		return false
	}
	return true
}

// Collect reads the stages q selects from s, merges them by timestamp and
// applies the filters. Unreadable stages are reported with the partial result.
func Collect(s Store, q Query) ([]Entry, error) {
	stages := hook.AllStages()
	if q.Stage != "" {
		stages = []hook.Stage{q.Stage}
	}

	var out []Entry
	var firstErr error
	for _, st := range stages {
		entries, err := s.Read(st)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, e := range entries {
			if q.Match(e) {
				out = append(out, e)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out, firstErr
}
