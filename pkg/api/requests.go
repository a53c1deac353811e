package api

// SubmitSessionRequest is the body for POST /api/v1/sessions.
type SubmitSessionRequest struct {
	UserRequest string `json:"user_request" binding:"required"`
	ProjectRoot string `json:"project_root" binding:"required"`
	// Fingerprint ties this session to an inbound trigger (e.g. a Slack
	// command), so notify.Notifier can thread later updates under it.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// ConfirmDecisionRequest is the body for POST /api/v1/sessions/:id/confirm.
type ConfirmDecisionRequest struct {
	Accepted      bool   `json:"accepted"`
	Justification string `json:"justification,omitempty"`
}
