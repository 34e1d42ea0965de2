package model

import "time"

// Checkpoint records pagination progress for one search identity. LastPage is
// monotonically non-decreasing for a given QueryID; the history store rejects
// regressions rather than trusting callers.
type Checkpoint struct {
	QueryID     string    `json:"query_id"`
	LastPage    int       `json:"last_page"`
	LastScraped time.Time `json:"last_scraped"`
}

// Query identifies one acquisition search against one source.
type Query struct {
	Source string `json:"source"`
	Terms  string `json:"terms"`
}

// ID returns the stable search identity used to key checkpoints and the
// seen-item set.
func (q Query) ID() string {
	return q.Source + "::" + q.Terms
}

// SessionState tracks an acquisition session's lifecycle.
type SessionState string

const (
	SessionPending SessionState = "pending"
	SessionRunning SessionState = "running"
	// SessionAwaitingIntervention is the human-in-the-loop pause while an
	// operator resolves a source security challenge. Always bounded by a
	// timeout, never an unconditional wait.
	SessionAwaitingIntervention SessionState = "awaiting_intervention"
	SessionExhausted            SessionState = "exhausted"
	SessionCompleted            SessionState = "completed"
	SessionFailed               SessionState = "failed"
)

// ResumePolicy controls what Begin does when a checkpoint already exists for
// the query. The original tooling flip-flopped between prompting and always
// resuming, so the choice is explicit configuration.
type ResumePolicy string

const (
	ResumeAuto    ResumePolicy = "auto"    // always continue from the checkpoint
	ResumePrompt  ResumePolicy = "prompt"  // ask the operator: continue or restart
	ResumeRestart ResumePolicy = "restart" // always start over from page 1
)
