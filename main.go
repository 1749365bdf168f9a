package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dareyes-87/Votacion-UMG/cache"
	"github.com/dareyes-87/Votacion-UMG/database"
	"github.com/dareyes-87/Votacion-UMG/handlers"
	"github.com/dareyes-87/Votacion-UMG/notify"
	"github.com/dareyes-87/Votacion-UMG/repository"
	"github.com/dareyes-87/Votacion-UMG/routes"
	"github.com/dareyes-87/Votacion-UMG/service"
	"github.com/dareyes-87/Votacion-UMG/tally"
)

func main() {
	if err := database.InitDB(); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	// Redis is optional: without it the service runs single-instance with
	// in-process notifications and no metadata cache.
	var repo repository.VoteRepository = repository.NewGormVoteRepository(database.DB)
	var notifier notify.Notifier = notify.NewMemoryNotifier()
	var serviceOpts []service.Option

	if err := cache.InitRedis(); err != nil {
		log.Printf("redis unavailable, running in single-instance mode: %v", err)
	} else {
		defer cache.CloseRedis()
		redisClient, _ := cache.GetClient()
		repo = repository.NewCachedVoteRepository(repo, redisClient)
		notifier = notify.NewRedisNotifier(redisClient)
		serviceOpts = append(serviceOpts, service.WithAdmissionLocker(cache.NewAdmissionLocker(redisClient)))
	}

	if os.Getenv("REQUIRE_STABLE_DEVICE") == "true" {
		serviceOpts = append(serviceOpts, service.WithStableDevicePolicy(true))
	}

	svc := service.NewVoteService(repo, notifier, serviceOpts...)
	streamer := tally.NewStreamer(svc, notifier)

	hub := handlers.NewHub(streamer)
	go hub.Run()

	router := routes.SetupRouter(svc, streamer, hub)
	srv := routes.StartServer(router)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("server stopped")
}
