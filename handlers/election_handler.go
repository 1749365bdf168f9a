package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dareyes-87/Votacion-UMG/model"
	"github.com/dareyes-87/Votacion-UMG/service"

	"github.com/gin-gonic/gin"
)

// ElectionHandler serves the organizer-facing election and candidate
// endpoints plus the public election window check.
type ElectionHandler struct {
	svc service.VoteService
}

// NewElectionHandler creates the handler.
func NewElectionHandler(svc service.VoteService) *ElectionHandler {
	return &ElectionHandler{svc: svc}
}

// CreateElection handles POST /api/elections.
func (h *ElectionHandler) CreateElection(c *gin.Context) {
	var req model.CreateElectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_time must be RFC3339"})
		return
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_time must be RFC3339"})
		return
	}

	election := model.Election{
		Name:        req.Name,
		Description: req.Description,
		StartTime:   startTime,
		EndTime:     endTime,
		IsActive:    true,
		OwnerID:     req.OwnerID,
	}
	if err := h.svc.CreateElection(c.Request.Context(), &election); err != nil {
		if errors.Is(err, service.ErrInvalidWindow) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_time must not precede start_time"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ReasonStorageError})
		return
	}
	c.JSON(http.StatusCreated, election)
}

// ListElections handles GET /api/elections.
func (h *ElectionHandler) ListElections(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	elections, err := h.svc.ListElections(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ReasonStorageError})
		return
	}
	c.JSON(http.StatusOK, elections)
}

// GetElection handles GET /api/elections/:id.
func (h *ElectionHandler) GetElection(c *gin.Context) {
	electionID, ok := electionIDParam(c)
	if !ok {
		return
	}

	election, err := h.svc.GetElection(c.Request.Context(), electionID)
	if err != nil {
		if errors.Is(err, service.ErrElectionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "election not found"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ReasonStorageError})
		return
	}
	c.JSON(http.StatusOK, election)
}

// IsOpen handles GET /api/elections/:id/open.
func (h *ElectionHandler) IsOpen(c *gin.Context) {
	electionID, ok := electionIDParam(c)
	if !ok {
		return
	}

	open, err := h.svc.IsElectionOpen(c.Request.Context(), electionID, time.Now())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ReasonStorageError})
		return
	}
	c.JSON(http.StatusOK, gin.H{"open": open})
}

// AddCandidate handles POST /api/elections/:id/candidates.
func (h *ElectionHandler) AddCandidate(c *gin.Context) {
	electionID, ok := electionIDParam(c)
	if !ok {
		return
	}

	var req model.CreateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candidate := model.Candidate{
		ElectionID: electionID,
		Name:       req.Name,
		Faculty:    req.Faculty,
		PhotoURL:   req.PhotoURL,
	}
	if err := h.svc.AddCandidate(c.Request.Context(), &candidate); err != nil {
		if errors.Is(err, service.ErrElectionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "election not found"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ReasonStorageError})
		return
	}
	c.JSON(http.StatusCreated, candidate)
}

// GetCandidates handles GET /api/elections/:id/candidates.
func (h *ElectionHandler) GetCandidates(c *gin.Context) {
	electionID, ok := electionIDParam(c)
	if !ok {
		return
	}

	candidates, err := h.svc.GetCandidates(c.Request.Context(), electionID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ReasonStorageError})
		return
	}
	c.JSON(http.StatusOK, candidates)
}
