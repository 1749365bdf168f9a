package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/dareyes-87/Votacion-UMG/identity"
	"github.com/dareyes-87/Votacion-UMG/model"
	"github.com/dareyes-87/Votacion-UMG/service"

	"github.com/gin-gonic/gin"
)

// Rejection reasons exposed to the UI. The user-facing behavior differs per
// reason, so they are never collapsed into one generic failure.
const (
	ReasonElectionClosed   = "election_closed"
	ReasonAlreadyVoted     = "already_voted"
	ReasonInvalidCandidate = "invalid_candidate"
	ReasonIdentityRequired = "identity_required"
	ReasonStorageError     = "storage_error"
)

// VoteHandler serves ballot submission.
type VoteHandler struct {
	svc service.VoteService
}

// NewVoteHandler creates the handler.
func NewVoteHandler(svc service.VoteService) *VoteHandler {
	return &VoteHandler{svc: svc}
}

// SubmitVote handles POST /api/elections/:id/vote.
func (h *VoteHandler) SubmitVote(c *gin.Context) {
	electionID, ok := electionIDParam(c)
	if !ok {
		return
	}

	var req model.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	device := identity.FromRequest(c.Request)
	if device.IssuedToken != "" {
		// First visit: hand the token back so the browser persists it.
		c.SetCookie(identity.TokenCookie, device.IssuedToken, identity.CookieMaxAge, "/", "", false, true)
		c.Header(identity.TokenHeader, device.IssuedToken)
	}

	receipt, err := h.svc.SubmitBallot(c.Request.Context(), electionID, device, req)
	if err != nil {
		h.rejectVote(c, electionID, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":            "admitted",
		"ballot_id":         receipt.BallotID,
		"receipt":           receipt.Receipt,
		"identity_degraded": receipt.IdentityDegraded,
	})
}

// rejectVote maps every rejection reason to its own status and reason code.
func (h *VoteHandler) rejectVote(c *gin.Context, electionID uint, err error) {
	switch {
	case errors.Is(err, service.ErrElectionClosed):
		c.JSON(http.StatusForbidden, gin.H{"error": ReasonElectionClosed})
	case errors.Is(err, service.ErrAlreadyVoted):
		c.JSON(http.StatusConflict, gin.H{"error": ReasonAlreadyVoted})
	case errors.Is(err, service.ErrInvalidCandidate), errors.Is(err, service.ErrInvalidBallot):
		// Usually a stale candidate list in the client.
		log.Printf("invalid ballot for election %d: %v", electionID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": ReasonInvalidCandidate})
	case errors.Is(err, service.ErrUnstableDevice):
		c.JSON(http.StatusForbidden, gin.H{"error": ReasonIdentityRequired})
	case errors.Is(err, service.ErrStorageUnavailable):
		log.Printf("storage unavailable admitting ballot for election %d: %v", electionID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ReasonStorageError})
	default:
		log.Printf("unexpected admission error for election %d: %v", electionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": ReasonStorageError})
	}
}

// electionIDParam parses the :id path segment.
func electionIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid election id"})
		return 0, false
	}
	return uint(id), true
}
