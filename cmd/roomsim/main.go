package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iamasit07/code-clash/client/internal/config"
	"github.com/iamasit07/code-clash/client/internal/sim"
	"github.com/joho/godotenv"

	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("No .env file found")
		}
	}

	cfg := config.LoadConfig()

	store := sim.NewRedisReservationStore(cfg.RedisURL, cfg.RedisPassword)

	var archive sim.MatchArchive = sim.NopArchive{}
	if cfg.DatabaseURL != "" {
		pg, err := sim.NewPostgresArchive(cfg.DatabaseURL)
		if err != nil {
			log.Printf("Failed to open match archive: %v. Matches will not be persisted.", err)
		} else {
			archive = pg
			log.Println("Postgres match archive connected")
		}
	}

	server := sim.NewServer(store, archive, cfg.RateLimitPerMinute)

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	go server.StartCleanup(cleanupCtx, 5*time.Minute)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("Room simulator starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Room simulator is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Room simulator exited gracefully")
}
