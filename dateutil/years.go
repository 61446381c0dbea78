// Package dateutil provides year range handling.
package dateutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

// MinYear is the first year of the conference.
const MinYear = 1987

var (
	ErrStartYear = fmt.Errorf("start year must be %d or later", MinYear)
	ErrEndYear   = fmt.Errorf("end year must be %d or later", MinYear)
	ErrRange     = errors.New("start year must not be after end year")
)

// Interval groups start and end year, both inclusive.
type Interval struct {
	Start int
	End   int
}

// String renders an interval.
func (iv Interval) String() string {
	return fmt.Sprintf("%d-%d", iv.Start, iv.End)
}

// Validate checks if the interval is valid, i.e. both years are not before
// MinYear and start is not after end.
func (iv Interval) Validate() error {
	switch {
	case iv.Start < MinYear:
		return fmt.Errorf("%w, got %d", ErrStartYear, iv.Start)
	case iv.End < MinYear:
		return fmt.Errorf("%w, got %d", ErrEndYear, iv.End)
	case iv.Start > iv.End:
		return fmt.Errorf("%w, got %d > %d", ErrRange, iv.Start, iv.End)
	}
	return nil
}

// Years returns all years of the interval in ascending order.
func (iv Interval) Years() (result []int) {
	for y := iv.Start; y <= iv.End; y++ {
		result = append(result, y)
	}
	return result
}

// LastCompleteYear returns the last year, for which proceedings can be
// complete at time t, that is the year before t. Proceedings for a year appear
// in december of that year at the earliest.
func LastCompleteYear(t time.Time) int {
	return now.With(t).BeginningOfYear().Add(-1 * time.Second).Year()
}
