package domain

import "time"

// Report is a counterfeit report submitted by a product holder.
// The resolution workflow lives outside this service; only submission
// and listing are handled here.
type Report struct {
	ID          int64     `gorm:"primaryKey" json:"id,string"`
	Serial      string    `gorm:"size:100;index" json:"serial"`
	Description string    `gorm:"size:2000" json:"description"`
	Contact     string    `gorm:"size:200" json:"contact"`
	Status      string    `gorm:"size:20;index;default:'open'" json:"status"` // open|closed
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Report) TableName() string {
	return "reports"
}
