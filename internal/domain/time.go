package domain

import (
	"fmt"
	"time"
)

// Sentinel-2 ground-segment documents and filenames carry timestamps in three
// conventions: the compact filename form (20210305T103421), the XML metadata
// form (2021-03-05T10:34:21.024Z) and the Earth Explorer header form
// (UTC=2021-03-05T10:34:21). Validity stops additionally use all-9s sentinel
// values for an unbounded validity window.

// ValidityMax is the unbounded validity-stop value, substituted for the
// filename sentinel "99999999T999999" and the header sentinel
// "UTC=9999-99-99T99:99:99".
var ValidityMax = time.Date(9999, 12, 31, 23, 59, 59, 999999000, time.UTC)

// Sentinel values for an unbounded validity stop.
const (
	CompactStopSentinel = "99999999T999999"
	UTCStopSentinel     = "UTC=9999-99-99T99:99:99"
)

const compactTimeLayout = "20060102T150405"

var xmlTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999Z",
	"2006-01-02T15:04:05.999999999",
}

var utcTimeLayouts = []string{
	"UTC=2006-01-02T15:04:05.999999999",
	"UTC=2006-01-02T15:04:05",
}

// ParseCompactTime parses the compact filename timestamp form YYYYMMDDTHHMMSS.
func ParseCompactTime(s string) (time.Time, error) {
	t, err := time.Parse(compactTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("compact timestamp %q: %w", s, ErrInvalidInput)
	}
	return t, nil
}

// ParseCompactStop parses a compact validity stop, mapping the all-9s sentinel
// to ValidityMax.
func ParseCompactStop(s string) (time.Time, error) {
	if s == CompactStopSentinel {
		return ValidityMax, nil
	}
	return ParseCompactTime(s)
}

// ParseXMLTime parses an XML metadata timestamp (RFC 3339 style with optional
// fractional seconds and trailing Z).
func ParseXMLTime(s string) (time.Time, error) {
	for _, layout := range xmlTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("xml timestamp %q: %w", s, ErrInvalidInput)
}

// ParseUTCTime parses an Earth Explorer timestamp of the form
// UTC=YYYY-MM-DDTHH:MM:SS with optional fractional seconds.
func ParseUTCTime(s string) (time.Time, error) {
	for _, layout := range utcTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("utc timestamp %q: %w", s, ErrInvalidInput)
}

// ParseUTCStop parses an Earth Explorer validity stop, mapping the all-9s
// sentinel to ValidityMax.
func ParseUTCStop(s string) (time.Time, error) {
	if s == UTCStopSentinel {
		return ValidityMax, nil
	}
	return ParseUTCTime(s)
}
