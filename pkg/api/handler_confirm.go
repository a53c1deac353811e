package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeagent-run/codeagent/pkg/agent"
)

// getConfirmPreviewHandler handles GET /api/v1/sessions/:id/confirm: it
// returns the step 9 confirmation preview (affected files, dependents, and
// a unified diff per file) once the pipeline reaches that phase, or 404
// if no confirmation is currently pending for this session.
func (s *Server) getConfirmPreviewHandler(c *gin.Context) {
	idStr := c.Param("id")

	preview, ok := s.confirm.Preview(idStr)
	if !ok {
		respondError(c, http.StatusNotFound, "no confirmation pending for this session")
		return
	}

	c.JSON(http.StatusOK, ConfirmPreviewResponse{
		SessionID:     idStr,
		AffectedFiles: preview.AffectedFiles,
		Dependents:    preview.Dependents,
		Diffs:         preview.Diffs,
	})
}

// postConfirmDecisionHandler handles POST /api/v1/sessions/:id/confirm:
// the user's accept/reject answer, unblocking the pipeline goroutine
// parked in ConfirmBroker.Confirm.
func (s *Server) postConfirmDecisionHandler(c *gin.Context) {
	idStr := c.Param("id")

	var req ConfirmDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	delivered := s.confirm.Decide(idStr, agent.ConfirmDecision{
		Accepted:      req.Accepted,
		Justification: req.Justification,
	})
	if !delivered {
		respondError(c, http.StatusConflict, "no confirmation pending for this session")
		return
	}

	c.JSON(http.StatusOK, ConfirmDecisionResponse{SessionID: idStr, Delivered: true})
}
