package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"railway-backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Capacity defaults for a standard sleeper rake.
const (
	defaultConfirmedBerths = 63
	defaultRACBerths       = 9
	defaultWaitingList     = 10
)

type CreateTrainInput struct {
	Name                 string
	TotalConfirmedBerths int
	TotalRACBerths       int
	TotalWaitingList     int
}

// berthLayout is the provisioning summary persisted on the train row.
type berthLayout struct {
	CoachSize int            `json:"coach_size"`
	Coaches   int            `json:"coaches"`
	Breakdown map[string]int `json:"breakdown"`
	RACCoach  string         `json:"rac_coach,omitempty"`
}

type TrainService struct {
	DB *gorm.DB
}

func NewTrainService(db *gorm.DB) *TrainService {
	return &TrainService{DB: db}
}

// CreateTrain creates the train and provisions its whole berth pool in one
// transaction. Confirmed berths are dealt into coaches S1..Sn of
// models.BerthsPerCoach each, cycling lower/middle/upper; the RAC pool goes
// into coach R1 as side-lower berths. The core never touches this again
// beyond flipping availability.
func (s *TrainService) CreateTrain(input CreateTrainInput) (*models.Train, error) {
	if input.TotalConfirmedBerths <= 0 {
		input.TotalConfirmedBerths = defaultConfirmedBerths
	}
	if input.TotalRACBerths < 0 {
		input.TotalRACBerths = defaultRACBerths
	}
	if input.TotalWaitingList < 0 {
		input.TotalWaitingList = defaultWaitingList
	}

	train := models.Train{
		Name:                 input.Name,
		TotalConfirmedBerths: input.TotalConfirmedBerths,
		TotalRACBerths:       input.TotalRACBerths,
		TotalWaitingList:     input.TotalWaitingList,
	}

	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&train).Error; err != nil {
			return fmt.Errorf("failed to create train: %w", err)
		}

		berths, layout := buildBerthPool(&train)
		if len(berths) > 0 {
			if err := tx.Create(&berths).Error; err != nil {
				return fmt.Errorf("failed to provision berths: %w", err)
			}
		}

		raw, err := json.Marshal(layout)
		if err != nil {
			return fmt.Errorf("failed to encode berth layout: %w", err)
		}
		if err := tx.Model(&train).Update("berth_layout", datatypes.JSON(raw)).Error; err != nil {
			return fmt.Errorf("failed to store berth layout: %w", err)
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.GetTrain(train.ID)
}

var confirmedCycle = []models.BerthType{
	models.BerthLower,
	models.BerthMiddle,
	models.BerthUpper,
}

func buildBerthPool(train *models.Train) ([]models.Berth, berthLayout) {
	berths := make([]models.Berth, 0, train.TotalConfirmedBerths+train.TotalRACBerths)
	breakdown := map[string]int{}

	for i := 0; i < train.TotalConfirmedBerths; i++ {
		coach := "S" + strconv.Itoa(i/models.BerthsPerCoach+1)
		berthType := confirmedCycle[i%len(confirmedCycle)]
		berths = append(berths, models.Berth{
			TrainID:     train.ID,
			Coach:       coach,
			BerthNumber: strconv.Itoa(i%models.BerthsPerCoach + 1),
			Type:        berthType,
			IsAvailable: true,
		})
		breakdown[string(berthType)]++
	}

	layout := berthLayout{
		CoachSize: models.BerthsPerCoach,
		Coaches:   train.TotalCoaches(),
		Breakdown: breakdown,
	}

	for i := 0; i < train.TotalRACBerths; i++ {
		berths = append(berths, models.Berth{
			TrainID:     train.ID,
			Coach:       "R1",
			BerthNumber: strconv.Itoa(i + 1),
			Type:        models.BerthSideLower,
			IsAvailable: true,
		})
		breakdown[string(models.BerthSideLower)]++
	}
	if train.TotalRACBerths > 0 {
		layout.RACCoach = "R1"
	}

	return berths, layout
}

func (s *TrainService) GetTrain(trainID uint) (*models.Train, error) {
	var train models.Train
	if err := s.DB.Preload("Berths").First(&train, trainID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrainNotFound
		}
		return nil, fmt.Errorf("failed to load train %d: %w", trainID, err)
	}
	return &train, nil
}

func (s *TrainService) GetTrains(page, pageSize int) ([]models.Train, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	var trains []models.Train
	if err := s.DB.Order("id").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&trains).Error; err != nil {
		return nil, fmt.Errorf("failed to list trains: %w", err)
	}
	return trains, nil
}

// DeleteTrain removes the train and everything it owns: berths, tickets and
// their passengers. Deletes run child-first so the cascade holds even
// without database-level foreign key enforcement.
func (s *TrainService) DeleteTrain(trainID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var train models.Train
		if err := tx.First(&train, trainID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTrainNotFound
			}
			return fmt.Errorf("failed to load train %d: %w", trainID, err)
		}

		if err := tx.Where("ticket_id IN (?)",
			tx.Model(&models.Ticket{}).Select("id").Where("train_id = ?", trainID),
		).Delete(&models.Passenger{}).Error; err != nil {
			return fmt.Errorf("failed to delete passengers for train %d: %w", trainID, err)
		}

		if err := tx.Where("train_id = ?", trainID).Delete(&models.Ticket{}).Error; err != nil {
			return fmt.Errorf("failed to delete tickets for train %d: %w", trainID, err)
		}

		if err := tx.Where("train_id = ?", trainID).Delete(&models.Berth{}).Error; err != nil {
			return fmt.Errorf("failed to delete berths for train %d: %w", trainID, err)
		}

		if err := tx.Delete(&train).Error; err != nil {
			return fmt.Errorf("failed to delete train %d: %w", trainID, err)
		}

		return nil
	})
}
