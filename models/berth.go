package models

type BerthType string

const (
	BerthLower     BerthType = "lower"
	BerthMiddle    BerthType = "middle"
	BerthUpper     BerthType = "upper"
	BerthSideLower BerthType = "side_lower" // dedicated RAC pool
)

// BerthsPerCoach is the confirmed-class coach size used when provisioning
// the berth pool for a new train.
const BerthsPerCoach = 9

type Berth struct {
	ID uint `gorm:"primaryKey" json:"id"`

	TrainID     uint      `gorm:"index;not null" json:"train_id"`
	BerthNumber string    `gorm:"size:16;not null" json:"berth_number"`
	Type        BerthType `gorm:"size:16;not null;index" json:"type"`
	Coach       string    `gorm:"size:8;not null" json:"coach"`
	IsAvailable bool      `gorm:"default:true" json:"is_available"`
}
