package handlers

import (
	"errors"
	"net/http"

	"github.com/dareyes-87/Votacion-UMG/service"

	"github.com/gin-gonic/gin"
)

// ResultsHandler serves one-shot tally snapshots.
type ResultsHandler struct {
	svc service.VoteService
}

// NewResultsHandler creates the handler.
func NewResultsHandler(svc service.VoteService) *ResultsHandler {
	return &ResultsHandler{svc: svc}
}

// GetResults handles GET /api/elections/:id/results.
func (h *ResultsHandler) GetResults(c *gin.Context) {
	electionID, ok := electionIDParam(c)
	if !ok {
		return
	}

	if _, err := h.svc.GetElection(c.Request.Context(), electionID); err != nil {
		if errors.Is(err, service.ErrElectionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "election not found"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ReasonStorageError})
		return
	}

	snapshot, err := h.svc.ComputeTally(c.Request.Context(), electionID)
	if err != nil {
		// Fail toward an explicit error, never toward a wrong tally.
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ReasonStorageError})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
