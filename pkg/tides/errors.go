package tides

import "fmt"

// NotFoundError is returned when the requested station has no forecast
// block in the upstream response (or is missing from the station table).
type NotFoundError struct {
	Station string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("station not found: %s", e.Station)
}

// MalformedDataError is returned when the upstream response is missing a
// field the transform requires.
type MalformedDataError struct {
	Message string
	Err     error
}

func (e *MalformedDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed forecast data: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("malformed forecast data: %s", e.Message)
}

func (e *MalformedDataError) Unwrap() error {
	return e.Err
}

// InvalidDaysError is returned for a day count outside the allowed range.
type InvalidDaysError struct {
	Days int
}

func (e *InvalidDaysError) Error() string {
	return fmt.Sprintf("day count %d out of range [%d, %d]", e.Days, MinDays, MaxDays)
}
