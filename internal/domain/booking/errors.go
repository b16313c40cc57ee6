package booking

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")

	// ErrInvalidLink covers every failed guest lookup: unknown or expired token,
	// wrong PIN, unknown reference, mismatched email.
	ErrInvalidLink = errors.New("invalid or expired link")
)

func IsErrNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
func IsErrBadRequest(err error) bool  { return errors.Is(err, ErrBadRequest) }
func IsErrForbidden(err error) bool   { return errors.Is(err, ErrForbidden) }
func IsErrConflict(err error) bool    { return errors.Is(err, ErrConflict) }
func IsErrInvalidLink(err error) bool { return errors.Is(err, ErrInvalidLink) }
