package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dareyes-87/Votacion-UMG/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database handle. Tests swap it for an in-memory SQLite
// connection via SetupTestEnvironment.
var DB *gorm.DB

// InitDB opens the MySQL connection from environment configuration and runs
// the schema migration. The migration creates the unique index on
// (election_id, device_hash) that enforces one ballot per device.
func InitDB() error {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	dbUser := getEnv("DB_USER", "voteuser")
	dbPassword := getEnv("DB_PASSWORD", "votepassword")
	dbHost := getEnv("DB_HOST", "mysql")
	dbPort := getEnv("DB_PORT", "3306")
	dbName := getEnv("DB_NAME", "votingdb")

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbUser, dbPassword, dbHost, dbPort, dbName)

	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(DB); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if getEnv("ENVIRONMENT", "development") == "development" {
		createSampleData()
	}

	log.Println("database connected and migrated")
	return nil
}

// Migrate applies the schema. Safe to call repeatedly.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Election{}, &model.Candidate{}, &model.Ballot{})
}

// createSampleData seeds a demo election so a fresh dev environment has
// something to vote on.
func createSampleData() {
	var count int64
	DB.Model(&model.Election{}).Count(&count)
	if count > 0 {
		return
	}

	log.Println("seeding sample election...")

	now := time.Now()
	election := model.Election{
		Name:        "Reina UMG 2026",
		Description: "Eleccion de la reina universitaria",
		StartTime:   now,
		EndTime:     now.Add(7 * 24 * time.Hour),
		IsActive:    true,
	}
	if err := DB.Create(&election).Error; err != nil {
		log.Printf("failed to seed election: %v", err)
		return
	}

	candidates := []model.Candidate{
		{ElectionID: election.ID, Name: "Maria Lopez", Faculty: "Ingenieria"},
		{ElectionID: election.ID, Name: "Ana Garcia", Faculty: "Derecho"},
		{ElectionID: election.ID, Name: "Lucia Perez", Faculty: "Medicina"},
	}
	if err := DB.Create(&candidates).Error; err != nil {
		log.Printf("failed to seed candidates: %v", err)
	}
}

// CloseDB closes the underlying connection pool.
func CloseDB() {
	if DB == nil {
		return
	}
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("failed to get sql.DB: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("failed to close database: %v", err)
	}
}

// getEnv returns the environment value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
