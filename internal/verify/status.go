package verify

// Status classifies a single verification attempt.
type Status string

const (
	StatusOriginal Status = "original"
	StatusFake     Status = "fake"
	StatusExpired  Status = "expired"
	StatusUnknown  Status = "unknown"
)

// Mode distinguishes how strongly a verification attempt was checked.
// ModeExistence is the weak manual-entry path: the serial was looked up but
// no fingerprint was compared, so an original status in this mode carries no
// cryptographic guarantee.
type Mode string

const (
	ModeCryptographic Mode = "cryptographic"
	ModeExistence     Mode = "existence"
)

// Flagged reports whether a status marks the scan as suspect.
func (s Status) Flagged() bool {
	return s != StatusOriginal
}

func (s Status) String() string { return string(s) }

func (m Mode) String() string { return string(m) }
