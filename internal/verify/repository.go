package verify

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/veriseal/veriseal/internal/domain"
)

// ErrProductNotFound signals a terminal miss: no product is registered under
// the probed serial. Any other error from a repository is treated as a
// transient infrastructure failure and must not be folded into this one.
var ErrProductNotFound = errors.New("product not found")

// UnavailableError wraps a transient lookup or storage failure. Callers own
// retry and backoff policy; the service never maps this onto a verification
// status.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("verify: %s unavailable: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Retryable marks the error as safe to retry.
func (e *UnavailableError) Retryable() bool { return true }

// ProductRepository provides product lookup by serial.
type ProductRepository interface {
	// GetBySerial returns ErrProductNotFound when no product exists under
	// the serial; any other error is a transient failure.
	GetBySerial(ctx context.Context, serial string) (*domain.Product, error)
}

// GormProductRepository is the GORM implementation of ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GORM-based repository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) GetBySerial(ctx context.Context, serial string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).Where("serial = ?", serial).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
