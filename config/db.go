package config

import (
	"log"
	"os"
	"time"

	"railway-backend/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDatabase opens the MySQL connection and migrates the schema.
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(mysql.Open(cfg.MySQLDSN), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, err
	}

	// Parent -> child order.
	if err := db.AutoMigrate(
		&models.Admin{},
		&models.Train{},
		&models.Berth{},
		&models.Ticket{},
		&models.Passenger{},
	); err != nil {
		return nil, err
	}

	return db, nil
}

// SeedDatabase ensures a default admin exists so the provisioning endpoints
// are reachable on a fresh install.
func SeedDatabase(db *gorm.DB) error {
	var adminCount int64
	if err := db.Model(&models.Admin{}).Count(&adminCount).Error; err != nil {
		return err
	}
	if adminCount > 0 {
		return nil
	}

	password := envOrDefault("ADMIN_PASSWORD", "admin123")
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.Admin{
		FullName: "Admin User",
		Username: envOrDefault("ADMIN_USERNAME", "admin@railway.local"),
		Password: string(hash),
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Println("Default admin seeded")
	return nil
}
