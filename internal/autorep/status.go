package autorep

// Status is a reported job run status. The enumeration is closed: report
// values outside it are coerced to StatusUnknown with a diagnostic.
type Status string

const (
	StatusSuccess    Status = "SUCCESS"
	StatusFailure    Status = "FAILURE"
	StatusTerminated Status = "TERMINATED"
	StatusRunning    Status = "RUNNING"
	StatusActivated  Status = "ACTIVATED"
	StatusInactive   Status = "INACTIVE"
	StatusOnIce      Status = "ONICE"
	StatusUnknown    Status = "UNKNOWN"

	// StatusNoData is not a reportable status; it marks jobs absent from
	// the ingested report.
	StatusNoData Status = "NO_DATA"
)

// Terminal reports whether the status is a final run outcome.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure || s == StatusTerminated
}

// valid reports whether s is a member of the closed reportable enumeration.
func (s Status) valid() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusTerminated, StatusRunning,
		StatusActivated, StatusInactive, StatusOnIce, StatusUnknown:
		return true
	}
	return false
}

// defaultCodes maps the scheduler's two-letter report codes onto the
// enumeration. Full status words are also accepted (see mapStatus).
var defaultCodes = map[string]Status{
	"SU": StatusSuccess,
	"RU": StatusRunning,
	"FA": StatusFailure,
	"TE": StatusTerminated,
	"IN": StatusInactive,
	"AC": StatusActivated,
	"OI": StatusOnIce,
}

// fullWords accepts spelled-out status values, including the FAILED
// spelling some report variants emit.
var fullWords = map[string]Status{
	"SUCCESS":    StatusSuccess,
	"RUNNING":    StatusRunning,
	"FAILURE":    StatusFailure,
	"FAILED":     StatusFailure,
	"TERMINATED": StatusTerminated,
	"INACTIVE":   StatusInactive,
	"ACTIVATED":  StatusActivated,
	"ONICE":      StatusOnIce,
	"ON_ICE":     StatusOnIce,
	"UNKNOWN":    StatusUnknown,
}
