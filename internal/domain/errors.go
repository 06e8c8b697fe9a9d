package domain

import "errors"

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUserNotFound    = errors.New("user not found")
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrForbidden       = errors.New("only the host can end the meeting")
	ErrMeetingFull     = errors.New("meeting is full")
	ErrNotInMeeting    = errors.New("user is not in the meeting")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("concurrent update conflict")
)

// Kind is the external failure class of an error.
type Kind string

const (
	KindNone            Kind = ""
	KindUnauthenticated Kind = "unauthenticated"
	KindUserNotFound    Kind = "user_not_found"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindMeetingFull     Kind = "meeting_full"
	KindInvalidArgument Kind = "invalid_argument"
	KindConflict        Kind = "conflict"
	KindInternal        Kind = "internal"
)

// KindOf classifies err. Anything not wrapping a domain sentinel is internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrUserNotFound):
		return KindUserNotFound
	case errors.Is(err, ErrMeetingNotFound), errors.Is(err, ErrNotInMeeting):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrMeetingFull):
		return KindMeetingFull
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}
