package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dareyes-87/Votacion-UMG/model"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readSSESnapshot reads lines until the next data event and decodes it.
func readSSESnapshot(t *testing.T, reader *bufio.Reader) model.TallySnapshot {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var snapshot model.TallySnapshot
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snapshot))
		return snapshot
	}
}

func TestHandleSSE_StreamsLiveTally(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	election, candidates := seedElection(t, db, "C1")

	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/api/elections/%d/live", srv.URL, election.ID), nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	initial := readSSESnapshot(t, reader)
	assert.Equal(t, int64(0), initial.Total)

	w := postVote(router, election.ID, "dev-A", gin.H{"candidate_id": candidates[0].ID})
	require.Equal(t, http.StatusCreated, w.Code)

	updated := readSSESnapshot(t, reader)
	assert.Equal(t, int64(1), updated.Total)
	assert.Equal(t, int64(1), updated.Candidates[0].Count)
}

func TestHandleSSE_UnknownElection(t *testing.T) {
	router, _ := SetupTestEnvironment(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/elections/9999/live", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleWebSocket_PushesSnapshots(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	election, candidates := seedElection(t, db, "C1")

	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") +
		fmt.Sprintf("/api/elections/%d/ws", election.ID)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg model.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "TALLY_UPDATE", msg.Type)
	assert.Equal(t, election.ID, msg.ElectionID)

	w := postVote(router, election.ID, "dev-A", gin.H{"candidate_id": candidates[0].ID})
	require.Equal(t, http.StatusCreated, w.Code)

	require.NoError(t, conn.ReadJSON(&msg))
	payload, err := json.Marshal(msg.Payload)
	require.NoError(t, err)
	var snapshot model.TallySnapshot
	require.NoError(t, json.Unmarshal(payload, &snapshot))
	assert.Equal(t, int64(1), snapshot.Total)
}
