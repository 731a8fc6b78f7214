package main

import (
	"context"
	"log"
	"os"

	"podly/internal/database"
	"podly/internal/handlers"
	"podly/internal/repository"
	"podly/internal/scheduler"
	"podly/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using existing environment")
	}

	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	if os.Getenv("GIN_MODE") != "release" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := database.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	db := database.GetDB()

	ctx := context.Background()

	push, err := services.NewPushService(ctx)
	if err != nil {
		log.Fatal("Failed to initialize push gateway:", err)
	}

	pods := repository.NewPodRepository(db)
	recipients := repository.NewRecipientRepository(db)
	ledger := repository.NewNotificationRepository(db)

	statusService := services.NewStatusService(pods, recipients, services.NewEmailService())
	reminderService := services.NewReminderService(pods, recipients, ledger, push)

	// The scheduler is owned here; it runs for the process lifetime.
	sched := scheduler.New(scheduler.DefaultConfig())
	services.RegisterTasks(sched, statusService, reminderService)
	sched.Start(ctx)

	router := gin.Default()
	router.SetTrustedProxies([]string{"127.0.0.1"})
	router.Use(cors.Default())

	router.GET("/", handlers.HomeHandler)
	router.GET("/health", handlers.HealthHandler)
	router.GET("/accounts/:username/notifications", handlers.GetNotifications)
	router.POST("/accounts/:username/notifications/:id/read", handlers.MarkNotificationRead)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
