package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/dareyes-87/Votacion-UMG/service"
	"github.com/dareyes-87/Votacion-UMG/tally"

	"github.com/gin-gonic/gin"
)

const sseHeartbeatInterval = 15 * time.Second

// SSEHandler streams live tally snapshots over Server-Sent Events. Each
// connection owns one tally subscription; disconnecting releases it.
type SSEHandler struct {
	svc      service.VoteService
	streamer *tally.Streamer
}

// NewSSEHandler creates the handler.
func NewSSEHandler(svc service.VoteService, streamer *tally.Streamer) *SSEHandler {
	return &SSEHandler{svc: svc, streamer: streamer}
}

// HandleSSE handles GET /api/elections/:id/live.
func (h *SSEHandler) HandleSSE(c *gin.Context) {
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

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	snapshots, cancel, err := h.streamer.Subscribe(c.Request.Context(), electionID)
	if err != nil {
		log.Printf("SSE subscribe failed for election %d: %v", electionID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ReasonStorageError})
		return
	}
	defer cancel()

	log.Printf("SSE client connected [election %d, ip %s]", electionID, c.ClientIP())

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			log.Printf("SSE client disconnected [election %d]", electionID)
			return
		case snapshot, open := <-snapshots:
			if !open {
				// The notification source died; tell the client instead
				// of stalling silently.
				fmt.Fprint(c.Writer, "event: stream_error\ndata: {\"error\":\"tally stream terminated\"}\n\n")
				flusher.Flush()
				return
			}
			data, err := json.Marshal(snapshot)
			if err != nil {
				log.Printf("failed to marshal snapshot for election %d: %v", electionID, err)
				continue
			}
			if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(c.Writer, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
