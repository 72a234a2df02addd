package verify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/veriseal/veriseal/internal/domain"
	"github.com/veriseal/veriseal/internal/fingerprint"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database
	// and serializes concurrent recorder writes.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, serial string) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:              time.Now().UnixNano(),
		Serial:          serial,
		Name:            "Widget",
		Brand:           "Acme",
		ManufactureDate: "2024-01-01",
		ExpiryDate:      "2030-01-01",
	}
	p.Fingerprint = fingerprint.Compute(fingerprint.FromProduct(p))
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestGormProductRepositoryGetBySerial(t *testing.T) {
	db := newTestDB(t)
	seedProduct(t, db, "P-100")
	repo := NewGormProductRepository(db)

	p, err := repo.GetBySerial(context.Background(), "P-100")
	require.NoError(t, err)
	assert.Equal(t, "P-100", p.Serial)
	assert.Equal(t, "Acme", p.Brand)
}

func TestGormProductRepositoryNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)

	p, err := repo.GetBySerial(context.Background(), "NO-SUCH-ID")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGormRecorderAppends(t *testing.T) {
	db := newTestDB(t)
	recorder := NewGormRecorder(db)

	rec := &domain.ScanRecord{
		Serial:  "P-100",
		Status:  "original",
		Mode:    "cryptographic",
		Flagged: false,
		Reason:  "fingerprint matches registered product",
	}
	require.NoError(t, recorder.Record(context.Background(), rec))
	assert.NotZero(t, rec.ID)

	var stored domain.ScanRecord
	require.NoError(t, db.First(&stored, rec.ID).Error)
	assert.Equal(t, "P-100", stored.Serial)
	// Timestamp is assigned by the storage layer, not the caller.
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestServiceAgainstDatabase(t *testing.T) {
	db := newTestDB(t)
	p := seedProduct(t, db, "P-100")
	svc := NewService(NewGormProductRepository(db), NewGormRecorder(db))

	res, err := svc.Verify(context.Background(), "P-100", p.Fingerprint, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusOriginal, res.Status)

	res, err = svc.Verify(context.Background(), "NO-SUCH-ID", "", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, res.Status)

	var count int64
	require.NoError(t, db.Model(&domain.ScanRecord{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestAsyncRecorderDelivers(t *testing.T) {
	db := newTestDB(t)
	recorder, err := NewAsyncRecorder(NewGormRecorder(db), 4)
	require.NoError(t, err)
	defer recorder.Release()

	for i := 0; i < 10; i++ {
		rec := &domain.ScanRecord{Serial: "P-100", Status: "original"}
		require.NoError(t, recorder.Record(context.Background(), rec))
	}

	// Writes are asynchronous; poll briefly for them to land.
	deadline := time.Now().Add(3 * time.Second)
	for {
		var count int64
		require.NoError(t, db.Model(&domain.ScanRecord{}).Count(&count).Error)
		if count == 10 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 10 scan records, got %d", count)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
