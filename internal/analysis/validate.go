package analysis

import (
	"errors"
	"fmt"
)

// Year bounds accepted for plots.
const (
	MinYear = 1900
	MaxYear = 2100
)

var (
	// ErrYearOutOfRange is returned for a year outside [MinYear, MaxYear].
	ErrYearOutOfRange = fmt.Errorf("year must be between %d and %d", MinYear, MaxYear)

	// ErrInvalidYearRange is returned when the start year is after the end year.
	ErrInvalidYearRange = errors.New("start year must not be after end year")

	// ErrInvalidMonth is returned for a month outside 1-12.
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
)

// ValidateYear checks that year is within the accepted bounds.
func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: got %d", ErrYearOutOfRange, year)
	}
	return nil
}

// ValidateYearRange checks a [from, to] year range.
func ValidateYearRange(from, to int) error {
	if err := ValidateYear(from); err != nil {
		return err
	}
	if err := ValidateYear(to); err != nil {
		return err
	}
	if from > to {
		return fmt.Errorf("%w: %d > %d", ErrInvalidYearRange, from, to)
	}
	return nil
}

// ValidateYearMonth checks a year and a 1-based month number.
func ValidateYearMonth(year, month int) error {
	if err := ValidateYear(year); err != nil {
		return err
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: got %d", ErrInvalidMonth, month)
	}
	return nil
}
