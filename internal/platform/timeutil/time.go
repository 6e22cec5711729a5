// Package timeutil fixes the timestamp formats used by API payloads and logs.
package timeutil

import (
	"time"
)

// RFC3339Millis is the API timestamp format.
const RFC3339Millis = "2006-01-02T15:04:05.000Z"

// RFC3339Micros is the log timestamp format.
const RFC3339Micros = "2006-01-02T15:04:05.000000Z"

// Time marshals as UTC with exactly three fractional digits, e.g.
// "2026-10-19T10:30:00.000Z". Unmarshaling accepts any RFC 3339 value and
// leaves the receiver unchanged on JSON null.
type Time struct {
	time.Time
}

func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(RFC3339Millis) + `"`), nil
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Now returns the current time.
func Now() Time {
	return Time{Time: time.Now()}
}
