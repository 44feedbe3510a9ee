package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"railway-backend/config"
	"railway-backend/controllers"
	"railway-backend/models"
	"railway-backend/routes"
	"railway-backend/services"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found or couldn't load it; continuing with environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("Database connect failed: %v", err)
	}
	if err := config.SeedDatabase(db); err != nil {
		log.Fatalf("Database seeding failed: %v", err)
	}
	log.Println("Database connection established and migrations applied")

	// Initialize services
	trainService := services.NewTrainService(db)
	ticketService := services.NewTicketService(db)

	if cfg.SeedDemo {
		seedDemoTrain(trainService, db)
	}

	// Initialize controllers
	ticketController := controllers.NewTicketController(ticketService)
	trainController := controllers.NewTrainController(trainService)
	authController := controllers.NewAuthController(db)

	router := routes.SetupRouter(ticketController, trainController, authController, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

// seedDemoTrain provisions one standard rake when no trains exist, for
// local development (SEED_DEMO_TRAIN=true).
func seedDemoTrain(trainService *services.TrainService, db *gorm.DB) {
	var trainCount int64
	if err := db.Model(&models.Train{}).Count(&trainCount).Error; err != nil {
		log.Printf("warning: failed to count trains for demo seed: %v", err)
		return
	}
	if trainCount > 0 {
		return
	}

	train, err := trainService.CreateTrain(services.CreateTrainInput{Name: "Rajdhani Express"})
	if err != nil {
		log.Printf("warning: failed to seed demo train: %v", err)
		return
	}
	log.Printf("Demo train %q seeded with %d berths", train.Name, len(train.Berths))
}
