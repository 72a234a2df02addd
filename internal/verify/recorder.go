package verify

import (
	"context"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/veriseal/veriseal/internal/domain"
	"github.com/veriseal/veriseal/pkg/common"
)

// Recorder appends scan records. Implementations must be append-only: the
// verification flow never updates or deletes a record once written.
type Recorder interface {
	Record(ctx context.Context, rec *domain.ScanRecord) error
}

// GormRecorder is the GORM implementation of Recorder
type GormRecorder struct {
	db *gorm.DB
}

// NewGormRecorder creates a new GORM-based scan recorder
func NewGormRecorder(db *gorm.DB) *GormRecorder {
	return &GormRecorder{db: db}
}

func (r *GormRecorder) Record(ctx context.Context, rec *domain.ScanRecord) error {
	if rec.ID == 0 {
		rec.ID = common.UUIDint64()
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

const recordWriteTimeout = 5 * time.Second

// AsyncRecorder wraps a Recorder with a worker pool so the verification
// response is never blocked on the audit write. Writes are best effort:
// a failed or dropped write is logged and the computed result stands.
type AsyncRecorder struct {
	inner Recorder
	pool  *ants.Pool
}

// NewAsyncRecorder creates an async recorder with the given pool size.
func NewAsyncRecorder(inner Recorder, poolSize int) (*AsyncRecorder, error) {
	if poolSize <= 0 {
		poolSize = 16
	}
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &AsyncRecorder{inner: inner, pool: pool}, nil
}

// Record submits the write to the pool. The request context is deliberately
// not propagated: a caller cancelling mid-flight should at worst lose the
// audit record, not poison an in-progress insert.
func (r *AsyncRecorder) Record(_ context.Context, rec *domain.ScanRecord) error {
	err := r.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordWriteTimeout)
		defer cancel()
		if err := r.inner.Record(ctx, rec); err != nil {
			zap.L().Warn("scan record write failed",
				zap.String("serial", rec.Serial),
				zap.String("status", rec.Status),
				zap.Error(err))
		}
	})
	if err != nil {
		// Pool saturated or released; fall back to an inline write so busy
		// periods degrade to synchronous recording instead of silent loss.
		ctx, cancel := context.WithTimeout(context.Background(), recordWriteTimeout)
		defer cancel()
		if werr := r.inner.Record(ctx, rec); werr != nil {
			zap.L().Warn("scan record fallback write failed",
				zap.String("serial", rec.Serial),
				zap.Error(werr))
		}
	}
	return nil
}

// Release shuts down the worker pool.
func (r *AsyncRecorder) Release() {
	r.pool.Release()
}
