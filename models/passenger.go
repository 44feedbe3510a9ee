package models

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// MinBerthAge: passengers younger than this travel on a guardian's lap and
// never occupy a berth or count against capacity.
const MinBerthAge = 5

type Passenger struct {
	ID uint `gorm:"primaryKey" json:"id"`

	TicketID uint   `gorm:"index;not null" json:"-"`
	Name     string `gorm:"size:255;not null" json:"name"`
	Age      int    `gorm:"not null" json:"age"`
	Gender   Gender `gorm:"size:16;not null" json:"gender"`

	// nil = no berth needed, or none could be secured at booking time.
	BerthID    *uint `gorm:"index" json:"berth_id,omitempty"`
	NeedsBerth bool  `gorm:"default:true" json:"needs_berth"`

	Berth *Berth `gorm:"foreignKey:BerthID" json:"berth,omitempty"`
}
