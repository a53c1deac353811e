package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codeagent-run/codeagent/internal/session"
)

// submitSessionHandler handles POST /api/v1/sessions: it creates a new
// RequestSession and returns immediately, the same fire-and-stream shape
// as the teacher's submitAlertHandler returning a session_id for the
// caller to poll or stream.
func (s *Server) submitSessionHandler(c *gin.Context) {
	var req SubmitSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := s.manager.Submit(c.Request.Context(), session.SubmitRequest{
		UserRequest: req.UserRequest,
		ProjectRoot: req.ProjectRoot,
		Fingerprint: req.Fingerprint,
		Progress:    &wsProgress{hub: s.hub},
		Confirmer:   s.confirm,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusAccepted, SubmitSessionResponse{
		SessionID: sess.ID.String(),
		Status:    string(sess.Status()),
	})
}

func (s *Server) lookupSession(c *gin.Context) (*session.RequestSession, string, bool) {
	idStr := c.Param("id")
	if _, err := uuid.Parse(idStr); err != nil {
		respondError(c, http.StatusBadRequest, "invalid session id")
		return nil, "", false
	}
	id, _ := uuid.Parse(idStr)
	sess, ok := s.manager.Get(id)
	if !ok {
		respondError(c, http.StatusNotFound, "session not found")
		return nil, idStr, false
	}
	return sess, idStr, true
}

// getSessionHandler handles GET /api/v1/sessions/:id.
func (s *Server) getSessionHandler(c *gin.Context) {
	sess, idStr, ok := s.lookupSession(c)
	if !ok {
		return
	}

	attempts := sess.Attempts()
	errMsg := ""
	if err := sess.Err(); err != nil {
		errMsg = err.Error()
	}

	c.JSON(http.StatusOK, SessionResponse{
		SessionID:   idStr,
		Status:      string(sess.Status()),
		UserRequest: sess.UserRequest,
		ProjectRoot: sess.ProjectRoot,
		Attempts: Attempts{
			Revisions:        attempts.Revisions,
			ValidatorRetries: attempts.ValidatorRetries,
			TestRuns:         attempts.TestRuns,
		},
		ErrorMessage: errMsg,
		CreatedAt:    sess.CreatedAt,
	})
}

// cancelSessionHandler handles POST /api/v1/sessions/:id/cancel.
func (s *Server) cancelSessionHandler(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid session id")
		return
	}

	cancelled := s.manager.Cancel(id)
	c.JSON(http.StatusOK, CancelResponse{SessionID: idStr, Cancelled: cancelled})
}
