package routes

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/dareyes-87/Votacion-UMG/handlers"
	"github.com/dareyes-87/Votacion-UMG/service"
	"github.com/dareyes-87/Votacion-UMG/tally"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server wraps the HTTP server for graceful shutdown.
type Server struct {
	*http.Server
}

// SetupRouter wires all endpoints onto a gin engine.
func SetupRouter(svc service.VoteService, streamer *tally.Streamer, hub *handlers.Hub) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Device-Token"},
		ExposeHeaders:    []string{"Content-Length", "X-Device-Token"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.InitRateLimiters()

	voteHandler := handlers.NewVoteHandler(svc)
	electionHandler := handlers.NewElectionHandler(svc)
	resultsHandler := handlers.NewResultsHandler(svc)
	sseHandler := handlers.NewSSEHandler(svc, streamer)
	wsHandler := handlers.NewWSHandler(svc, hub)

	api := router.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		elections := api.Group("/elections")
		{
			elections.POST("", electionHandler.CreateElection)
			elections.GET("", electionHandler.ListElections)
			elections.GET("/:id", electionHandler.GetElection)
			elections.GET("/:id/open", electionHandler.IsOpen)
			elections.POST("/:id/candidates", electionHandler.AddCandidate)
			elections.GET("/:id/candidates", electionHandler.GetCandidates)

			elections.POST("/:id/vote", handlers.VoteRateLimitMiddleware(), voteHandler.SubmitVote)

			elections.GET("/:id/results", resultsHandler.GetResults)
			elections.GET("/:id/live", sseHandler.HandleSSE)
			elections.GET("/:id/ws", wsHandler.HandleWebSocket)
		}
	}

	return router
}

// StartServer runs the engine on SERVER_PORT (default 8090).
func StartServer(router *gin.Engine) *Server {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8090"
	}
	addr := ":" + port

	srv := &Server{
		&http.Server{
			Addr:    addr,
			Handler: router,
		},
	}

	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	return srv
}
