package domain

import "time"

// ScanRecord is the append-only audit entry for one verification attempt.
// Rows are written once by the verification flow and never updated or
// deleted by it. CreatedAt is assigned by the storage layer on insert.
type ScanRecord struct {
	ID        int64     `gorm:"primaryKey" json:"id,string"`
	Serial    string    `gorm:"size:100;index" json:"serial"`
	Actor     *string   `gorm:"size:100" json:"actor,omitempty"` // nil for unauthenticated scans
	Status    string    `gorm:"size:20;index" json:"status"`
	Mode      string    `gorm:"size:20" json:"mode"`
	Flagged   bool      `gorm:"index" json:"flagged"`
	Reason    string    `gorm:"size:500" json:"reason"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName Specify table name
func (ScanRecord) TableName() string {
	return "scan_records"
}
