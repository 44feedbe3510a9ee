package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"railway-backend/models"
	"railway-backend/utils"

	mysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrTrainNotFound      = errors.New("train_not_found")
	ErrTicketNotFound     = errors.New("ticket_not_found")
	ErrNoTicketsAvailable = errors.New("no_tickets_available")
	ErrInvalidPassenger   = errors.New("invalid_passenger")
)

// maxPNRAttempts bounds regeneration when a fresh PNR collides with the
// unique index.
const maxPNRAttempts = 5

// PassengerInput is one passenger of a booking request.
type PassengerInput struct {
	Name   string
	Age    int
	Gender models.Gender
}

// TierCounts groups the three admission tiers for API responses.
type TierCounts struct {
	Confirmed   int `json:"confirmed"`
	RAC         int `json:"rac"`
	WaitingList int `json:"waiting_list"`
}

type AvailableTickets struct {
	Available       TierCounts     `json:"available"`
	Total           TierCounts     `json:"total"`
	AvailableBerths []models.Berth `json:"available_berths"`
}

type BookedTickets struct {
	Tickets []models.Ticket `json:"tickets"`
	Count   int64           `json:"count"`
}

// TicketService implements booking and cancellation on top of the
// allocation service.
type TicketService struct {
	DB    *gorm.DB
	Alloc *AllocationService
}

func NewTicketService(db *gorm.DB) *TicketService {
	return &TicketService{
		DB:    db,
		Alloc: NewAllocationService(db),
	}
}

// BookTicket books one ticket for the whole passenger group.
//
// The admission tier is decided from cumulative capacity: the group goes
// confirmed if its berth-needing size fits the confirmed tier, else rac if
// it fits confirmed+rac, else waiting list, else the booking is rejected as
// a whole. Berths are then acquired passenger by passenger in input order
// for confirmed/rac tickets; a passenger whose acquisition comes up empty is
// created berth-less (aggregate counts and granular berth availability can
// disagree under contention). Everything commits as one transaction.
func (s *TicketService) BookTicket(trainID uint, passengers []PassengerInput) (*models.Ticket, error) {
	if len(passengers) == 0 {
		return nil, fmt.Errorf("%w: empty passenger list", ErrInvalidPassenger)
	}
	for _, p := range passengers {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("%w: passenger name required", ErrInvalidPassenger)
		}
		if p.Age < 0 || p.Age > 130 {
			return nil, fmt.Errorf("%w: age %d out of range", ErrInvalidPassenger, p.Age)
		}
		switch p.Gender {
		case models.GenderMale, models.GenderFemale, models.GenderOther:
		default:
			return nil, fmt.Errorf("%w: unknown gender %q", ErrInvalidPassenger, p.Gender)
		}
	}

	var ticketID uint
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		capacity, err := s.Alloc.GetCapacityCounts(tx, trainID)
		if err != nil {
			return err
		}

		needed := 0
		for _, p := range passengers {
			if p.Age >= models.MinBerthAge {
				needed++
			}
		}

		var status models.TicketStatus
		switch {
		case needed <= capacity.AvailableConfirmed:
			status = models.StatusConfirmed
		case needed <= capacity.AvailableConfirmed+capacity.AvailableRAC:
			status = models.StatusRAC
		case needed <= capacity.AvailableConfirmed+capacity.AvailableRAC+capacity.AvailableWaiting:
			status = models.StatusWaitingList
		default:
			return ErrNoTicketsAvailable
		}

		ticket, err := s.createTicketWithPNR(tx, trainID, status)
		if err != nil {
			return err
		}
		ticketID = ticket.ID

		for _, p := range passengers {
			var berthID *uint
			needsBerth := p.Age >= models.MinBerthAge

			if needsBerth && (status == models.StatusConfirmed || status == models.StatusRAC) {
				berth, err := s.Alloc.AcquireBerth(tx, trainID, p, status)
				if err != nil {
					return err
				}
				if berth != nil {
					berthID = &berth.ID
				} else {
					log.Printf("booking %s: no %s berth left for passenger %q, creating berth-less", ticket.PNR, status, p.Name)
				}
			}

			passenger := models.Passenger{
				TicketID:   ticket.ID,
				Name:       p.Name,
				Age:        p.Age,
				Gender:     p.Gender,
				BerthID:    berthID,
				NeedsBerth: needsBerth,
			}
			if err := tx.Create(&passenger).Error; err != nil {
				return fmt.Errorf("failed to create passenger %q: %w", p.Name, err)
			}
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.getTicketWithRelations(ticketID)
}

func (s *TicketService) createTicketWithPNR(tx *gorm.DB, trainID uint, status models.TicketStatus) (*models.Ticket, error) {
	var lastErr error
	for attempt := 0; attempt < maxPNRAttempts; attempt++ {
		ticket := models.Ticket{
			PNR:     utils.GeneratePNR(),
			Status:  status,
			TrainID: trainID,
		}
		lastErr = tx.Create(&ticket).Error
		if lastErr == nil {
			return &ticket, nil
		}
		if !isDuplicateKeyError(lastErr) {
			return nil, fmt.Errorf("failed to create ticket: %w", lastErr)
		}
		log.Printf("pnr collision on %s (attempt %d), regenerating", ticket.PNR, attempt+1)
	}
	return nil, fmt.Errorf("failed to create ticket after %d pnr attempts: %w", maxPNRAttempts, lastErr)
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var merr *mysql.MySQLError
	if errors.As(err, &merr) {
		return merr.Number == 1062
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "duplicate") || strings.Contains(lower, "unique")
}

// CancelTicket cancels a ticket and runs the promotion cascade. Cancelling
// an already-cancelled ticket is a no-op. Berths are released before the
// ticket is marked cancelled so the pool is correct for the promotions that
// follow in the same transaction; the cascade depends on the status the
// ticket held before cancellation and promotes at most one ticket per tier.
func (s *TicketService) CancelTicket(ticketID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var ticket models.Ticket
		if err := tx.Preload("Passengers").First(&ticket, ticketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return fmt.Errorf("failed to load ticket %d: %w", ticketID, err)
		}

		if ticket.Status == models.StatusCancelled {
			return nil
		}

		for _, p := range ticket.Passengers {
			if p.BerthID == nil {
				continue
			}
			if err := s.Alloc.ReleaseBerth(tx, *p.BerthID); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Ticket{}).
			Where("id = ?", ticket.ID).
			Update("status", models.StatusCancelled).Error; err != nil {
			return fmt.Errorf("failed to cancel ticket %d: %w", ticket.ID, err)
		}

		switch ticket.Status {
		case models.StatusConfirmed:
			promoted, err := s.Alloc.PromoteRACToConfirmed(tx, ticket.TrainID)
			if err != nil {
				return err
			}
			if promoted {
				log.Printf("cancel %s: promoted oldest rac ticket to confirmed", ticket.PNR)
			}
			if _, err := s.Alloc.PromoteWaitingToRAC(tx, ticket.TrainID); err != nil {
				return err
			}
		case models.StatusRAC:
			if _, err := s.Alloc.PromoteWaitingToRAC(tx, ticket.TrainID); err != nil {
				return err
			}
		}

		return nil
	})
}

// GetAvailableTickets returns the per-tier capacity snapshot plus the free
// berth rows for one train.
func (s *TicketService) GetAvailableTickets(trainID uint) (*AvailableTickets, error) {
	capacity, err := s.Alloc.GetCapacityCounts(s.DB, trainID)
	if err != nil {
		return nil, err
	}

	berths, err := s.Alloc.AvailableBerths(s.DB, trainID, nil)
	if err != nil {
		return nil, err
	}

	return &AvailableTickets{
		Available: TierCounts{
			Confirmed:   capacity.AvailableConfirmed,
			RAC:         capacity.AvailableRAC,
			WaitingList: capacity.AvailableWaiting,
		},
		Total: TierCounts{
			Confirmed:   capacity.TotalConfirmed,
			RAC:         capacity.TotalRAC,
			WaitingList: capacity.TotalWaiting,
		},
		AvailableBerths: berths,
	}, nil
}

// GetBookedTickets lists a train's non-cancelled tickets with passengers and
// berths, newest first, paginated.
func (s *TicketService) GetBookedTickets(trainID uint, page, pageSize int) (*BookedTickets, error) {
	var exists int64
	if err := s.DB.Model(&models.Train{}).Where("id = ?", trainID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("failed to check train %d: %w", trainID, err)
	}
	if exists == 0 {
		return nil, ErrTrainNotFound
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	booked := s.DB.Model(&models.Ticket{}).
		Where("train_id = ? AND status <> ?", trainID, models.StatusCancelled)

	var count int64
	if err := booked.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count booked tickets: %w", err)
	}

	var tickets []models.Ticket
	if err := s.DB.Preload("Passengers.Berth").
		Where("train_id = ? AND status <> ?", trainID, models.StatusCancelled).
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to list booked tickets: %w", err)
	}

	if tickets == nil {
		tickets = []models.Ticket{}
	}
	return &BookedTickets{Tickets: tickets, Count: count}, nil
}

func (s *TicketService) getTicketWithRelations(ticketID uint) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.DB.Preload("Passengers.Berth").First(&ticket, ticketID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload ticket %d: %w", ticketID, err)
	}
	return &ticket, nil
}
