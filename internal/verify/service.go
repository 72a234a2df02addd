// Package verify implements the authenticity decision procedure: given a
// serial and optionally a fingerprint decoded from a QR token, classify the
// attempt as original, fake, expired or unknown, and append one audit record
// per attempt.
package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	evbus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"github.com/veriseal/veriseal/internal/domain"
	"github.com/veriseal/veriseal/internal/fingerprint"
)

// TopicScanRecorded is published on the event bus after each verification
// with the resulting status string.
const TopicScanRecorded = "verify:scan:recorded"

// Result is the outcome of one verification attempt. Product is populated
// whenever the serial resolved to a registered product, including on fake
// and expired outcomes, so the caller can display what the label claims
// to be.
type Result struct {
	Status  Status          `json:"status"`
	Mode    Mode            `json:"mode"`
	Flagged bool            `json:"flagged"`
	Reason  string          `json:"reason"`
	Product *domain.Product `json:"product,omitempty"`
}

// Service is the verification engine. It is stateless across calls; products
// are read-only during verification and scan records are append-only, so
// concurrent calls need no coordination.
type Service struct {
	products ProductRepository
	recorder Recorder
	bus      evbus.Bus
	now      func() time.Time
}

// NewService creates a verification service.
func NewService(products ProductRepository, recorder Recorder) *Service {
	return &Service{
		products: products,
		recorder: recorder,
		now:      time.Now,
	}
}

// SetBus attaches an event bus notified after each recorded scan.
func (s *Service) SetBus(bus evbus.Bus) {
	s.bus = bus
}

// SetClock overrides the time source (used in tests).
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Verify classifies one verification attempt.
//
// Decision order: unknown serial, then expiry, then fingerprint comparison.
// Expiry wins over the fingerprint: an expired-but-genuine product reports
// expired, not original. With no fingerprint supplied the call degrades to
// an existence check (Mode == ModeExistence) and callers must treat the
// original status accordingly.
//
// A transient lookup failure returns a *UnavailableError instead of a
// status; only terminal outcomes produce a Result. Exactly one scan record
// is appended per Result, best effort.
func (s *Service) Verify(ctx context.Context, serial, suppliedFP string, actor *string) (*Result, error) {
	p, err := s.products.GetBySerial(ctx, serial)
	if err != nil && !errors.Is(err, ErrProductNotFound) {
		return nil, &UnavailableError{Op: "product lookup", Err: err}
	}

	res := s.classify(p, serial, suppliedFP)
	s.record(ctx, serial, actor, res)
	return res, nil
}

func (s *Service) classify(p *domain.Product, serial, suppliedFP string) *Result {
	mode := ModeExistence
	if suppliedFP != "" {
		mode = ModeCryptographic
	}

	if p == nil {
		return &Result{
			Status:  StatusUnknown,
			Mode:    mode,
			Flagged: true,
			Reason:  fmt.Sprintf("no product registered under serial %q", serial),
		}
	}

	if s.isExpired(p) {
		return &Result{
			Status:  StatusExpired,
			Mode:    mode,
			Flagged: true,
			Reason:  fmt.Sprintf("product expired on %s", p.ExpiryDate),
			Product: p,
		}
	}

	if suppliedFP == "" {
		return &Result{
			Status:  StatusOriginal,
			Mode:    ModeExistence,
			Flagged: false,
			Reason:  "serial exists in the registry; fingerprint not checked",
			Product: p,
		}
	}

	recomputed := fingerprint.Compute(fingerprint.FromProduct(p))
	if suppliedFP == recomputed && suppliedFP == p.Fingerprint {
		return &Result{
			Status:  StatusOriginal,
			Mode:    ModeCryptographic,
			Flagged: false,
			Reason:  "fingerprint matches registered product",
			Product: p,
		}
	}

	return &Result{
		Status:  StatusFake,
		Mode:    ModeCryptographic,
		Flagged: true,
		Reason:  "fingerprint does not match registered product",
		Product: p,
	}
}

// isExpired reports whether the stored expiry date is strictly before now.
// The date is validated when the product is written, so a parse failure here
// means corrupted data; it is logged and the product treated as not expired
// rather than silently flagged.
func (s *Service) isExpired(p *domain.Product) bool {
	if p.ExpiryDate == "" {
		return false
	}
	expiry, err := dateparse.ParseIn(p.ExpiryDate, s.now().Location())
	if err != nil {
		zap.L().Warn("unparsable expiry date on stored product",
			zap.String("serial", p.Serial),
			zap.String("expiry_date", p.ExpiryDate))
		return false
	}
	return expiry.Before(s.now())
}

func (s *Service) record(ctx context.Context, serial string, actor *string, res *Result) {
	rec := &domain.ScanRecord{
		Serial:  serial,
		Actor:   actor,
		Status:  res.Status.String(),
		Mode:    res.Mode.String(),
		Flagged: res.Flagged,
		Reason:  res.Reason,
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		// Best effort: the computed result already stands, the miss is
		// operational visibility only.
		zap.L().Warn("failed to append scan record",
			zap.String("serial", serial),
			zap.String("status", res.Status.String()),
			zap.Error(err))
	}
	if s.bus != nil {
		s.bus.Publish(TopicScanRecorded, res.Status.String())
	}
}
