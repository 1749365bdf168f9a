package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dareyes-87/Votacion-UMG/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(router *gin.Engine, path string, body gin.H) *httptest.ResponseRecorder {
	jsonData, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestCreateElection(t *testing.T) {
	router, _ := SetupTestEnvironment(t)

	now := time.Now().UTC()
	w := postJSON(router, "/api/elections", gin.H{
		"name":       "Reina UMG 2026",
		"start_time": now.Format(time.RFC3339),
		"end_time":   now.Add(24 * time.Hour).Format(time.RFC3339),
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var created model.Election
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Reina UMG 2026", created.Name)
	assert.True(t, created.IsActive)
	assert.NotZero(t, created.ID)
}

func TestCreateElection_InvalidInput(t *testing.T) {
	router, _ := SetupTestEnvironment(t)
	now := time.Now().UTC()

	tests := []struct {
		name string
		body gin.H
	}{
		{
			name: "missing name",
			body: gin.H{"start_time": now.Format(time.RFC3339), "end_time": now.Format(time.RFC3339)},
		},
		{
			name: "bad time format",
			body: gin.H{"name": "X", "start_time": "yesterday", "end_time": now.Format(time.RFC3339)},
		},
		{
			name: "end before start",
			body: gin.H{
				"name":       "X",
				"start_time": now.Format(time.RFC3339),
				"end_time":   now.Add(-time.Hour).Format(time.RFC3339),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(router, "/api/elections", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAddAndListCandidates(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	election, _ := seedElection(t, db)

	w := postJSON(router, fmt.Sprintf("/api/elections/%d/candidates", election.ID), gin.H{
		"name":    "Maria Lopez",
		"faculty": "Ingenieria",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	req, _ := http.NewRequest("GET", fmt.Sprintf("/api/elections/%d/candidates", election.ID), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var candidates []model.Candidate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &candidates))
	require.Len(t, candidates, 1)
	assert.Equal(t, "Maria Lopez", candidates[0].Name)
	assert.Equal(t, "Ingenieria", candidates[0].Faculty)
}

func TestAddCandidate_UnknownElection(t *testing.T) {
	router, _ := SetupTestEnvironment(t)

	w := postJSON(router, "/api/elections/9999/candidates", gin.H{"name": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIsOpen(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	open, _ := seedElection(t, db)
	closed, _ := seedClosedElection(t, db)

	check := func(id uint) bool {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", fmt.Sprintf("/api/elections/%d/open", id), nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]bool
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp["open"]
	}

	assert.True(t, check(open.ID))
	assert.False(t, check(closed.ID))
	assert.False(t, check(9999), "an unloadable election reports closed")
}

func TestGetElection(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	election, _ := seedElection(t, db)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", fmt.Sprintf("/api/elections/%d", election.ID), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/elections/9999", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListElections(t *testing.T) {
	router, db := SetupTestEnvironment(t)
	seedElection(t, db)
	seedClosedElection(t, db)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/elections", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var elections []model.Election
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &elections))
	assert.Len(t, elections, 2)
}

func TestHealthCheck(t *testing.T) {
	router, _ := SetupTestEnvironment(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
