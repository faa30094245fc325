package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/stock247/lending-engine/internal/config"
	"github.com/stock247/lending-engine/internal/repository"
)

// The scheduler sweeps disbursements whose repayment deadline has
// passed and flips their repayment status to overdue.
func main() {
	log.Println("Starting overdue sweeper...")

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	disbursementRepo := repository.NewDisbursementRepository(db)

	location, err := time.LoadLocation(cfg.Sweeper.Timezone)
	if err != nil {
		log.Fatalf("Invalid sweeper timezone %q: %v", cfg.Sweeper.Timezone, err)
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	_, err = c.AddFunc(cfg.Sweeper.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		marked, err := disbursementRepo.MarkOverdue(ctx, time.Now())
		if err != nil {
			log.Printf("Overdue sweep failed: %v", err)
			return
		}
		if marked > 0 {
			log.Printf("Marked %d disbursements overdue", marked)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule overdue sweep: %v", err)
	}

	c.Start()
	log.Println("Sweeper started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stopping sweeper...")
	<-c.Stop().Done()
	log.Println("Sweeper exited")
}
