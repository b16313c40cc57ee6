package accesstoken

import "errors"

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")
	ErrBadRequest    = errors.New("bad request")
)

func IsErrTokenNotFound(err error) bool { return errors.Is(err, ErrTokenNotFound) }
func IsErrTokenExpired(err error) bool  { return errors.Is(err, ErrTokenExpired) }
func IsErrBadRequest(err error) bool    { return errors.Is(err, ErrBadRequest) }

// IsErrInvalid covers every resolution failure. Callers facing guests should not
// tell the two cases apart.
func IsErrInvalid(err error) bool { return IsErrTokenNotFound(err) || IsErrTokenExpired(err) }
