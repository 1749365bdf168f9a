package handlers

import (
	"testing"
	"time"

	"github.com/dareyes-87/Votacion-UMG/database"
	"github.com/dareyes-87/Votacion-UMG/model"
	"github.com/dareyes-87/Votacion-UMG/notify"
	"github.com/dareyes-87/Votacion-UMG/repository"
	"github.com/dareyes-87/Votacion-UMG/service"
	"github.com/dareyes-87/Votacion-UMG/tally"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestEnvironment builds the gin router against an in-memory SQLite
// database, mirroring the production wiring minus Redis.
func SetupTestEnvironment(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })

	notifier := notify.NewMemoryNotifier()
	svc := service.NewVoteService(repository.NewGormVoteRepository(db), notifier)
	streamer := tally.NewStreamer(svc, notifier)
	hub := NewHub(streamer)
	go hub.Run()

	voteHandler := NewVoteHandler(svc)
	electionHandler := NewElectionHandler(svc)
	resultsHandler := NewResultsHandler(svc)
	sseHandler := NewSSEHandler(svc, streamer)
	wsHandler := NewWSHandler(svc, hub)

	router := gin.New()
	api := router.Group("/api")
	{
		api.GET("/health", HealthCheck)
		elections := api.Group("/elections")
		{
			elections.POST("", electionHandler.CreateElection)
			elections.GET("", electionHandler.ListElections)
			elections.GET("/:id", electionHandler.GetElection)
			elections.GET("/:id/open", electionHandler.IsOpen)
			elections.POST("/:id/candidates", electionHandler.AddCandidate)
			elections.GET("/:id/candidates", electionHandler.GetCandidates)
			elections.POST("/:id/vote", voteHandler.SubmitVote)
			elections.GET("/:id/results", resultsHandler.GetResults)
			elections.GET("/:id/live", sseHandler.HandleSSE)
			elections.GET("/:id/ws", wsHandler.HandleWebSocket)
		}
	}

	return router, db
}

// seedElection creates an open election with the given candidates.
func seedElection(t *testing.T, db *gorm.DB, names ...string) (*model.Election, []model.Candidate) {
	t.Helper()

	now := time.Now()
	election := model.Election{
		Name:      "Handler Test Election",
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		IsActive:  true,
	}
	require.NoError(t, db.Create(&election).Error)

	candidates := make([]model.Candidate, 0, len(names))
	for _, name := range names {
		c := model.Candidate{ElectionID: election.ID, Name: name}
		require.NoError(t, db.Create(&c).Error)
		candidates = append(candidates, c)
	}
	return &election, candidates
}

// seedClosedElection creates an election whose window already ended.
func seedClosedElection(t *testing.T, db *gorm.DB, names ...string) (*model.Election, []model.Candidate) {
	t.Helper()

	now := time.Now()
	election := model.Election{
		Name:      "Finished Election",
		StartTime: now.Add(-2 * time.Hour),
		EndTime:   now.Add(-time.Hour),
		IsActive:  true,
	}
	require.NoError(t, db.Create(&election).Error)

	candidates := make([]model.Candidate, 0, len(names))
	for _, name := range names {
		c := model.Candidate{ElectionID: election.ID, Name: name}
		require.NoError(t, db.Create(&c).Error)
		candidates = append(candidates, c)
	}
	return &election, candidates
}
