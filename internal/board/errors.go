package board

import (
	"errors"

	"github.com/alecgard/tripboard/internal/ratelimit"
	"github.com/alecgard/tripboard/internal/remote"
	"github.com/alecgard/tripboard/internal/trip"
)

var (
	ErrTripNotFound = errors.New("trip not found")
	ErrNoProposal   = errors.New("candidate date has no proposal on the server")
)

// Class groups errors the way callers react to them.
type Class string

const (
	ClassNone       Class = ""
	ClassValidation Class = "validation"
	ClassLogin      Class = "login_required"
	ClassForbidden  Class = "forbidden"
	ClassConflict   Class = "conflict"
	ClassNotFound   Class = "not_found"
	ClassThrottled  Class = "throttled"
	ClassRemote     Class = "remote"
	ClassInternal   Class = "internal"
)

// Classify maps an error from any board operation onto a Class.
func Classify(err error) Class {
	var apiErr *remote.Error
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, trip.ErrValidation):
		return ClassValidation
	case errors.Is(err, trip.ErrLoginRequired):
		return ClassLogin
	case errors.Is(err, trip.ErrNotOwner), errors.Is(err, trip.ErrOwnTrip):
		return ClassForbidden
	case errors.Is(err, trip.ErrNotRecruiting),
		errors.Is(err, trip.ErrAlreadyRecruiting),
		errors.Is(err, trip.ErrFull),
		errors.Is(err, trip.ErrAlreadyParticipant),
		errors.Is(err, trip.ErrNotParticipant),
		errors.Is(err, trip.ErrNotMeetup),
		errors.Is(err, trip.ErrUnknownDate),
		errors.Is(err, trip.ErrDuplicateDate):
		return ClassConflict
	case errors.Is(err, ErrTripNotFound):
		return ClassNotFound
	case errors.Is(err, ratelimit.ErrThrottled):
		return ClassThrottled
	case errors.As(err, &apiErr), errors.Is(err, ErrNoProposal):
		return ClassRemote
	}
	return ClassInternal
}
