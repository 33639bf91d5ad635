// Package businessflow contains the core business logic and use cases for inventory reservation workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Catalog errors
	ErrShowNotFound    = errors.New("show not found")
	ErrShowInactive    = errors.New("show is inactive")
	ErrEpisodeNotFound = errors.New("episode not found")

	// Reservation errors
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrReservationNotPending = errors.New("reservation is not pending approval")
	ErrInvalidTransition     = errors.New("invalid reservation status transition")
	ErrInsufficientCapacity  = errors.New("insufficient slot capacity")
	ErrInvalidPlacementType  = errors.New("invalid placement type")
	ErrInvalidHoldCount      = errors.New("hold count out of range")
	ErrInvalidHoldTTL        = errors.New("hold TTL out of range")
	ErrSlotNumberOutOfRange  = errors.New("slot number exceeds configured slots")
	ErrOrderIDRequired       = errors.New("order ID is required")

	// Exclusivity errors
	ErrExclusivityConflict     = errors.New("category exclusivity conflict")
	ErrExclusivityRuleNotFound = errors.New("exclusivity rule not found")
	ErrRuleDatesInverted       = errors.New("rule start date is after end date")

	// Schedule binding errors
	ErrEmptySchedule      = errors.New("schedule contains no items")
	ErrScheduleIDRequired = errors.New("schedule ID is required")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsShowNotFound(err error) bool {
	return errors.Is(err, ErrShowNotFound)
}

func IsEpisodeNotFound(err error) bool {
	return errors.Is(err, ErrEpisodeNotFound)
}

func IsReservationNotFound(err error) bool {
	return errors.Is(err, ErrReservationNotFound)
}

func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

func IsInsufficientCapacity(err error) bool {
	return errors.Is(err, ErrInsufficientCapacity)
}

func IsExclusivityConflict(err error) bool {
	return errors.Is(err, ErrExclusivityConflict)
}

func IsExclusivityRuleNotFound(err error) bool {
	return errors.Is(err, ErrExclusivityRuleNotFound)
}

func IsNotFound(err error) bool {
	return IsShowNotFound(err) || IsEpisodeNotFound(err) || IsReservationNotFound(err) || IsExclusivityRuleNotFound(err)
}
