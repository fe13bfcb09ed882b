package main

import (
	"context"
	"log"

	"examcore/config"
	"examcore/models"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.Question{},
		&models.Exam{},
		&models.ExamQuestion{},
		&models.ExamRecord{},
		&models.UnlimitedSession{},
		&models.UnlimitedQuestionRecord{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Verify Redis is reachable; the unlimited engine tolerates running
	// without it, so this is a warning rather than a failure
	redisClient := config.InitRedis(cfg)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Printf("Redis unavailable, session caching will be disabled: %v", err)
	}

	log.Println("Schema migrated, exam engine ready")
}
