package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// MonthYearLayout is the wire format for month-granularity user input,
// e.g. "07-2025" for July 2025.
const MonthYearLayout = "01-2006"

const dateLayout = "2006-01-02"

// MonthDate is a date pinned to the first day of its calendar month, UTC.
// Day-of-month carries no meaning anywhere in the service and is discarded
// at every boundary.
type MonthDate struct {
	time.Time
}

// ParseMonthError reports a month-year string that could not be parsed,
// keeping the offending input for the caller.
type ParseMonthError struct {
	Input string
}

func (e *ParseMonthError) Error() string {
	return fmt.Sprintf("invalid month-year format: %q", e.Input)
}

// NewMonthDate returns the anchor date for the given month.
func NewMonthDate(year int, month time.Month) MonthDate {
	return MonthDate{time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)}
}

// MonthOf truncates an arbitrary instant to its month anchor.
func MonthOf(t time.Time) MonthDate {
	return NewMonthDate(t.Year(), t.Month())
}

// ParseMonthYear parses "MM-YYYY" into a month anchor. A full date that is
// already normalized ("2025-07-01") passes through, with any stray day
// truncated to the first. Everything else fails with ParseMonthError.
func ParseMonthYear(s string) (MonthDate, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(MonthYearLayout, s); err == nil {
		return MonthOf(t), nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return MonthOf(t), nil
	}
	return MonthDate{}, &ParseMonthError{Input: s}
}

// AddMonths steps the anchor forward (or back) by whole months.
func (m MonthDate) AddMonths(n int) MonthDate {
	return MonthOf(m.AddDate(0, n, 0))
}

func (m MonthDate) String() string {
	return m.Format(dateLayout)
}

func (m MonthDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.Format(dateLayout) + `"`), nil
}

func (m *MonthDate) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		return &ParseMonthError{Input: s}
	}
	parsed, err := ParseMonthYear(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Scan implements sql.Scanner. Stored dates are assumed normalized but are
// re-anchored to first-of-month UTC so values compare equal regardless of
// the driver's session location.
func (m *MonthDate) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*m = MonthOf(v)
		return nil
	case []byte:
		return m.scanString(string(v))
	case string:
		return m.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into MonthDate", src)
	}
}

func (m *MonthDate) scanString(s string) error {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("cannot scan %q into MonthDate: %w", s, err)
	}
	*m = MonthOf(t)
	return nil
}

// Value implements driver.Valuer.
func (m MonthDate) Value() (driver.Value, error) {
	return m.Time, nil
}

// MonthPatch is a tri-state month field for partial updates: absent from the
// body, explicit null, or a value. UnmarshalJSON only runs when the key is
// present, which is what flips Set.
type MonthPatch struct {
	Set   bool
	Month *MonthDate
}

func (p *MonthPatch) UnmarshalJSON(b []byte) error {
	p.Set = true
	if string(b) == "null" {
		p.Month = nil
		return nil
	}
	var m MonthDate
	if err := m.UnmarshalJSON(b); err != nil {
		return err
	}
	p.Month = &m
	return nil
}
