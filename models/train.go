package models

import (
	"time"

	"gorm.io/datatypes"
)

type Train struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	Name                 string `gorm:"size:128;not null" json:"name"`
	TotalConfirmedBerths int    `gorm:"column:total_confirmed_berths;default:63" json:"total_confirmed_berths"`
	TotalRACBerths       int    `gorm:"column:total_rac_berths;default:9" json:"total_rac_berths"`
	TotalWaitingList     int    `gorm:"column:total_waiting_list;default:10" json:"total_waiting_list"`

	// Provisioning plan written once at creation (coach count, coach size,
	// per-type berth breakdown). Informational only.
	BerthLayout datatypes.JSON `gorm:"column:berth_layout" json:"berth_layout,omitempty"`

	Berths  []Berth  `gorm:"foreignKey:TrainID;constraint:OnDelete:CASCADE" json:"berths,omitempty"`
	Tickets []Ticket `gorm:"foreignKey:TrainID;constraint:OnDelete:CASCADE" json:"-"`
}

// TotalCoaches reports how many confirmed-class coaches the berth pool spans.
func (t *Train) TotalCoaches() int {
	if t.TotalConfirmedBerths <= 0 {
		return 0
	}
	coaches := t.TotalConfirmedBerths / BerthsPerCoach
	if t.TotalConfirmedBerths%BerthsPerCoach != 0 {
		coaches++
	}
	return coaches
}
