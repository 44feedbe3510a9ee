package models

import "time"

type TicketStatus string

const (
	StatusConfirmed   TicketStatus = "confirmed"
	StatusRAC         TicketStatus = "rac"
	StatusWaitingList TicketStatus = "waiting_list"
	StatusCancelled   TicketStatus = "cancelled"
)

// Ticket is one booking for a whole passenger group. created_at ordering
// decides promotion priority, oldest first.
type Ticket struct {
	ID uint `gorm:"primaryKey" json:"id"`

	PNR       string       `gorm:"column:pnr;size:16;uniqueIndex;not null" json:"pnr"`
	Status    TicketStatus `gorm:"size:16;not null;index" json:"status"`
	CreatedAt time.Time    `gorm:"index" json:"created_at"`
	TrainID   uint         `gorm:"index;not null" json:"train_id"`

	Passengers []Passenger `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE" json:"passengers"`
}
