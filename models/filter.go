package models

import (
	"errors"
	"time"
)

type Timestamp int64

func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t), 0)
}

var (
	ErrFilterTimeRange = errors.New("invalid: end time is before start time")
	ErrFilterStartPage = errors.New("invalid: start page must be positive")
)

// SearchFilter active date/page filter.
// Time range and start page are mutually exclusive, last write wins.
type SearchFilter struct {
	StartTime *Timestamp `json:"start_time"`
	EndTime   *Timestamp `json:"end_time"`
	StartPage *int       `json:"start_page"`
}

// IsTimeRange filter holds a time range
func (f *SearchFilter) IsTimeRange() bool {
	return f != nil && (f.StartTime != nil || f.EndTime != nil)
}

// IsStartPage filter holds a start page
func (f *SearchFilter) IsStartPage() bool {
	return f != nil && f.StartPage != nil
}

// FirstPage page number the next reload starts from
func (f *SearchFilter) FirstPage() int {
	if f.IsStartPage() {
		return *f.StartPage
	}

	return 1
}

// Validate reject invalid input before it can replace the active filter
func (f *SearchFilter) Validate() error {
	if f == nil {
		return nil
	}

	if f.StartTime != nil && f.EndTime != nil && *f.EndTime < *f.StartTime {
		return ErrFilterTimeRange
	}

	if f.StartPage != nil && *f.StartPage <= 0 {
		return ErrFilterStartPage
	}

	return nil
}
