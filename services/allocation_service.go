package services

import (
	"errors"
	"fmt"

	"railway-backend/models"

	"gorm.io/gorm"
)

// claimRetries bounds how often a berth pick is retried after losing the
// availability compare-and-set to a concurrent writer.
const claimRetries = 3

// CapacityCounts is the per-tier admission snapshot for one train. RAC
// totals are raw berth count times two: each side-lower berth seats two
// RAC ticket holders.
type CapacityCounts struct {
	TotalConfirmed int
	TotalRAC       int
	TotalWaiting   int

	AvailableConfirmed int
	AvailableRAC       int
	AvailableWaiting   int
}

// AllocationService owns capacity accounting, berth selection and the
// promotion cascade. Every method takes the transaction handle explicitly so
// booking and cancellation can compose these steps into a single unit of
// work.
type AllocationService struct {
	DB *gorm.DB
}

func NewAllocationService(db *gorm.DB) *AllocationService {
	return &AllocationService{DB: db}
}

// GetCapacityCounts recomputes the admission snapshot from the train's
// configured capacities and live usage. Usage is counted in berth-needing
// passengers on non-cancelled tickets, grouped by ticket status, so the
// numbers share units with the booking engine's needed-berth arithmetic.
// Never cached: every booking attempt reads fresh counts.
func (s *AllocationService) GetCapacityCounts(tx *gorm.DB, trainID uint) (CapacityCounts, error) {
	var train models.Train
	if err := tx.First(&train, trainID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CapacityCounts{}, ErrTrainNotFound
		}
		return CapacityCounts{}, fmt.Errorf("failed to load train %d: %w", trainID, err)
	}

	var rows []struct {
		Status models.TicketStatus
		Count  int64
	}
	if err := tx.Model(&models.Passenger{}).
		Select("tickets.status as status, count(passengers.id) as count").
		Joins("JOIN tickets ON tickets.id = passengers.ticket_id").
		Where("tickets.train_id = ? AND tickets.status <> ? AND passengers.needs_berth = ?",
			trainID, models.StatusCancelled, true).
		Group("tickets.status").
		Scan(&rows).Error; err != nil {
		return CapacityCounts{}, fmt.Errorf("failed to count usage for train %d: %w", trainID, err)
	}

	used := map[models.TicketStatus]int{}
	for _, r := range rows {
		used[r.Status] = int(r.Count)
	}

	totalRAC := train.TotalRACBerths * 2
	return CapacityCounts{
		TotalConfirmed:     train.TotalConfirmedBerths,
		TotalRAC:           totalRAC,
		TotalWaiting:       train.TotalWaitingList,
		AvailableConfirmed: nonNegative(train.TotalConfirmedBerths - used[models.StatusConfirmed]),
		AvailableRAC:       nonNegative(totalRAC - used[models.StatusRAC]),
		AvailableWaiting:   nonNegative(train.TotalWaitingList - used[models.StatusWaitingList]),
	}, nil
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// AvailableBerths lists a train's free berths, optionally restricted to one
// type, lowest id first.
func (s *AllocationService) AvailableBerths(tx *gorm.DB, trainID uint, berthType *models.BerthType) ([]models.Berth, error) {
	q := tx.Where("train_id = ? AND is_available = ?", trainID, true)
	if berthType != nil {
		q = q.Where("type = ?", *berthType)
	}

	var berths []models.Berth
	if err := q.Order("id").Find(&berths).Error; err != nil {
		return nil, fmt.Errorf("failed to list available berths for train %d: %w", trainID, err)
	}
	return berths, nil
}

// PickBerth selects one free berth for a passenger, or nil when the pool is
// exhausted. It does not flip availability; callers claim the berth
// separately so a whole promotion can be decided before anything commits.
//
// Priority, first match wins:
//  1. confirmed ticket, senior (60+) or girl under berth age -> lower berth
//  2. rac ticket -> side-lower berth
//  3. any free berth
func (s *AllocationService) PickBerth(tx *gorm.DB, trainID uint, p PassengerInput, status models.TicketStatus) (*models.Berth, error) {
	if status == models.StatusConfirmed &&
		(p.Age >= seniorAge || (p.Gender == models.GenderFemale && p.Age < models.MinBerthAge)) {
		berth, err := s.firstAvailable(tx, trainID, models.BerthLower)
		if err != nil || berth != nil {
			return berth, err
		}
	}

	if status == models.StatusRAC {
		berth, err := s.firstAvailable(tx, trainID, models.BerthSideLower)
		if err != nil || berth != nil {
			return berth, err
		}
	}

	return s.firstAvailableAny(tx, trainID)
}

const seniorAge = 60

func (s *AllocationService) firstAvailable(tx *gorm.DB, trainID uint, berthType models.BerthType) (*models.Berth, error) {
	var berth models.Berth
	err := tx.Where("train_id = ? AND is_available = ? AND type = ?", trainID, true, berthType).
		Order("id").
		First(&berth).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find available %s berth: %w", berthType, err)
	}
	return &berth, nil
}

func (s *AllocationService) firstAvailableAny(tx *gorm.DB, trainID uint) (*models.Berth, error) {
	var berth models.Berth
	err := tx.Where("train_id = ? AND is_available = ?", trainID, true).
		Order("id").
		First(&berth).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find available berth: %w", err)
	}
	return &berth, nil
}

// ClaimBerth flips a berth to unavailable, but only if it is still
// available. A false return means a concurrent writer got there first.
func (s *AllocationService) ClaimBerth(tx *gorm.DB, berthID uint) (bool, error) {
	res := tx.Model(&models.Berth{}).
		Where("id = ? AND is_available = ?", berthID, true).
		Update("is_available", false)
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim berth %d: %w", berthID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ReleaseBerth marks a berth available again.
func (s *AllocationService) ReleaseBerth(tx *gorm.DB, berthID uint) error {
	if err := tx.Model(&models.Berth{}).
		Where("id = ?", berthID).
		Update("is_available", true).Error; err != nil {
		return fmt.Errorf("failed to release berth %d: %w", berthID, err)
	}
	return nil
}

// AcquireBerth runs the pick-then-claim loop. A lost claim re-picks a
// bounded number of times; running out of picks or retries yields nil, which
// callers record as a berth-less passenger rather than an error.
func (s *AllocationService) AcquireBerth(tx *gorm.DB, trainID uint, p PassengerInput, status models.TicketStatus) (*models.Berth, error) {
	for attempt := 0; attempt < claimRetries; attempt++ {
		berth, err := s.PickBerth(tx, trainID, p, status)
		if err != nil {
			return nil, err
		}
		if berth == nil {
			return nil, nil
		}

		claimed, err := s.ClaimBerth(tx, berth.ID)
		if err != nil {
			return nil, err
		}
		if claimed {
			return berth, nil
		}
	}
	return nil, nil
}

// PromoteRACToConfirmed moves the oldest RAC ticket to confirmed, provided
// at least one berth of any type is free. At most one ticket is promoted per
// call regardless of how many berths freed up. The returned bool reports
// whether a promotion happened; absence of a candidate or a berth is a
// silent no-op.
func (s *AllocationService) PromoteRACToConfirmed(tx *gorm.DB, trainID uint) (bool, error) {
	ticket, err := s.oldestByStatus(tx, trainID, models.StatusRAC)
	if err != nil {
		return false, err
	}
	if ticket == nil {
		return false, nil
	}

	free, err := s.firstAvailableAny(tx, trainID)
	if err != nil {
		return false, err
	}
	if free == nil {
		return false, nil
	}

	return true, s.promote(tx, ticket, models.StatusConfirmed)
}

// PromoteWaitingToRAC is the symmetric step for the waiting list, gated on a
// free side-lower berth.
func (s *AllocationService) PromoteWaitingToRAC(tx *gorm.DB, trainID uint) (bool, error) {
	ticket, err := s.oldestByStatus(tx, trainID, models.StatusWaitingList)
	if err != nil {
		return false, err
	}
	if ticket == nil {
		return false, nil
	}

	free, err := s.firstAvailable(tx, trainID, models.BerthSideLower)
	if err != nil {
		return false, err
	}
	if free == nil {
		return false, nil
	}

	return true, s.promote(tx, ticket, models.StatusRAC)
}

func (s *AllocationService) oldestByStatus(tx *gorm.DB, trainID uint, status models.TicketStatus) (*models.Ticket, error) {
	var ticket models.Ticket
	err := tx.Preload("Passengers").
		Where("train_id = ? AND status = ?", trainID, status).
		Order("created_at").
		First(&ticket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load oldest %s ticket for train %d: %w", status, trainID, err)
	}
	return &ticket, nil
}

func (s *AllocationService) promote(tx *gorm.DB, ticket *models.Ticket, target models.TicketStatus) error {
	if err := tx.Model(&models.Ticket{}).
		Where("id = ?", ticket.ID).
		Update("status", target).Error; err != nil {
		return fmt.Errorf("failed to promote ticket %d to %s: %w", ticket.ID, target, err)
	}

	for i := range ticket.Passengers {
		p := &ticket.Passengers[i]
		if !p.NeedsBerth || p.BerthID != nil {
			continue
		}

		berth, err := s.AcquireBerth(tx, ticket.TrainID, PassengerInput{
			Name:   p.Name,
			Age:    p.Age,
			Gender: p.Gender,
		}, target)
		if err != nil {
			return err
		}
		if berth == nil {
			continue
		}

		if err := tx.Model(&models.Passenger{}).
			Where("id = ?", p.ID).
			Update("berth_id", berth.ID).Error; err != nil {
			return fmt.Errorf("failed to assign berth %d to passenger %d: %w", berth.ID, p.ID, err)
		}
	}

	return nil
}
