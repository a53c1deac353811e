package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeagent-run/codeagent/internal/store"
)

// errorResponse is the JSON body for every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

// mapStoreError maps internal/store sentinel errors to HTTP status codes,
// the gin equivalent of the teacher's mapServiceError.
func mapStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, "resource not found")
	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
