package api

import "time"

// SubmitSessionResponse is returned by POST /api/v1/sessions.
type SubmitSessionResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// SessionResponse is returned by GET /api/v1/sessions/:id.
type SessionResponse struct {
	SessionID    string    `json:"session_id"`
	Status       string    `json:"status"`
	UserRequest  string    `json:"user_request"`
	ProjectRoot  string    `json:"project_root"`
	Attempts     Attempts  `json:"attempts"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Attempts mirrors internal/session.AttemptCounters for the wire.
type Attempts struct {
	Revisions        int `json:"revisions"`
	ValidatorRetries int `json:"validator_retries"`
	TestRuns         int `json:"test_runs"`
}

// CancelResponse is returned by POST /api/v1/sessions/:id/cancel.
type CancelResponse struct {
	SessionID string `json:"session_id"`
	Cancelled bool   `json:"cancelled"`
}

// ConfirmPreviewResponse is returned by GET /api/v1/sessions/:id/confirm.
type ConfirmPreviewResponse struct {
	SessionID     string            `json:"session_id"`
	AffectedFiles []string          `json:"affected_files"`
	Dependents    []string          `json:"dependents"`
	Diffs         map[string]string `json:"diffs"`
}

// ConfirmDecisionResponse is returned by POST /api/v1/sessions/:id/confirm.
type ConfirmDecisionResponse struct {
	SessionID string `json:"session_id"`
	Delivered bool   `json:"delivered"`
}
