package model

import (
	"fmt"
	"time"
)

// ReferenceMonth identifies the YYYY-MM period a reconciliation run targets.
type ReferenceMonth string

const referenceMonthLayout = "2006-01"

// CurrentMonth returns the reference month containing now.
func CurrentMonth() ReferenceMonth {
	return ReferenceMonth(time.Now().Format(referenceMonthLayout))
}

// MonthOf returns the reference month containing t.
func MonthOf(t time.Time) ReferenceMonth {
	return ReferenceMonth(t.Format(referenceMonthLayout))
}

// ParseReferenceMonth validates a YYYY-MM string.
func ParseReferenceMonth(s string) (ReferenceMonth, error) {
	t, err := time.Parse(referenceMonthLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid reference month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

func (m ReferenceMonth) String() string {
	return string(m)
}

// Bounds returns the first instant of the month and the first instant of the
// next month, for half-open [start, end) range queries.
func (m ReferenceMonth) Bounds() (time.Time, time.Time, error) {
	start, err := time.Parse(referenceMonthLayout, string(m))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid reference month %q: %w", m, err)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// Contains reports whether t falls within the reference month.
func (m ReferenceMonth) Contains(t time.Time) bool {
	return MonthOf(t) == m
}
