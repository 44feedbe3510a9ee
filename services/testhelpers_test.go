package services

import (
	"testing"
	"time"

	"railway-backend/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an isolated in-memory database. The pool is pinned to a
// single connection so every query sees the same SQLite instance.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Admin{},
		&models.Train{},
		&models.Berth{},
		&models.Ticket{},
		&models.Passenger{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	return db
}

// createTrain provisions a train with the given capacities through the real
// train service so tests run against the production berth pool layout.
func createTrain(t *testing.T, db *gorm.DB, confirmed, rac, waiting int) *models.Train {
	t.Helper()

	train, err := NewTrainService(db).CreateTrain(CreateTrainInput{
		Name:                 "Test Express",
		TotalConfirmedBerths: confirmed,
		TotalRACBerths:       rac,
		TotalWaitingList:     waiting,
	})
	if err != nil {
		t.Fatalf("failed to create train: %v", err)
	}
	return train
}

func adult(name string) PassengerInput {
	return PassengerInput{Name: name, Age: 30, Gender: models.GenderMale}
}

func adults(n int) []PassengerInput {
	out := make([]PassengerInput, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, PassengerInput{Name: "Passenger", Age: 30, Gender: models.GenderMale})
	}
	return out
}

func mustBook(t *testing.T, svc *TicketService, trainID uint, passengers []PassengerInput) *models.Ticket {
	t.Helper()

	ticket, err := svc.BookTicket(trainID, passengers)
	if err != nil {
		t.Fatalf("BookTicket failed: %v", err)
	}
	return ticket
}

func reloadTicket(t *testing.T, db *gorm.DB, id uint) *models.Ticket {
	t.Helper()

	var ticket models.Ticket
	if err := db.Preload("Passengers.Berth").First(&ticket, id).Error; err != nil {
		t.Fatalf("failed to reload ticket %d: %v", id, err)
	}
	return &ticket
}

func reloadBerth(t *testing.T, db *gorm.DB, id uint) *models.Berth {
	t.Helper()

	var berth models.Berth
	if err := db.First(&berth, id).Error; err != nil {
		t.Fatalf("failed to reload berth %d: %v", id, err)
	}
	return &berth
}

// backdateTicket forces a deterministic created_at ordering where a test
// depends on promotion priority.
func backdateTicket(t *testing.T, db *gorm.DB, ticketID uint, secondsAgo int) {
	t.Helper()

	stamp := time.Now().Add(-time.Duration(secondsAgo) * time.Second)
	if err := db.Model(&models.Ticket{}).
		Where("id = ?", ticketID).
		Update("created_at", stamp).Error; err != nil {
		t.Fatalf("failed to backdate ticket %d: %v", ticketID, err)
	}
}
