package trip

import (
	"errors"
	"fmt"
)

// ErrValidation wraps every input error caught before a network call.
var ErrValidation = errors.New("validation failed")

var (
	ErrCountryRequired        = errors.New("country is required")
	ErrCityRequired           = errors.New("city is required")
	ErrTitleRequired          = errors.New("meetup title is required")
	ErrDateRequired           = errors.New("start date is required")
	ErrDateRangeInverted      = errors.New("end date must not be before start date")
	ErrCapacityInverted       = errors.New("minimum participants must not exceed maximum")
	ErrCapacityInvalid        = errors.New("participant bounds must be at least 1")
	ErrCandidateDatesRequired = errors.New("at least one candidate date is required")
	ErrParticipantRequired    = errors.New("participant id is required")
)

var (
	ErrLoginRequired      = errors.New("login required")
	ErrNotOwner           = errors.New("only the owner can do this")
	ErrOwnTrip            = errors.New("owners cannot join their own trip")
	ErrNotRecruiting      = errors.New("trip is not recruiting")
	ErrAlreadyRecruiting  = errors.New("trip is already recruiting")
	ErrFull               = errors.New("trip is full")
	ErrAlreadyParticipant = errors.New("already a participant")
	ErrNotParticipant     = errors.New("not a participant")
	ErrNotMeetup          = errors.New("not a meetup")
	ErrUnknownDate        = errors.New("not a candidate date")
	ErrDuplicateDate      = errors.New("candidate date already proposed")
)

func invalid(cause error) error {
	return fmt.Errorf("%w: %w", ErrValidation, cause)
}
