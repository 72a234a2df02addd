package domain

import "time"

// Product represents a registered physical product unit.
// Serial is the immutable business key printed next to the QR label.
// ManufactureDate and ExpiryDate are kept in their literal textual form
// ("2006-01-02") because the stored text is the fingerprint input; parsing
// happens only where a comparison against the clock is needed.
type Product struct {
	ID              int64     `gorm:"primaryKey" json:"id,string"`
	Serial          string    `gorm:"size:100;uniqueIndex" json:"serial"`
	Name            string    `gorm:"size:200;index" json:"name"`
	Brand           string    `gorm:"size:200;index" json:"brand"`
	ManufactureDate string    `gorm:"size:32" json:"manufacture_date"`
	ExpiryDate      string    `gorm:"size:32" json:"expiry_date"`
	Fingerprint     string    `gorm:"size:64;index" json:"fingerprint"`
	Token           string    `gorm:"type:text" json:"token"`
	Image           string    `gorm:"size:1024" json:"image"` // URL to product image (optional)
	Remark          string    `gorm:"size:500" json:"remark"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}
