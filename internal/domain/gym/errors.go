package gym

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrNotBookable = errors.New("gym is not accepting bookings")
)

func IsErrNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
func IsErrNotBookable(err error) bool { return errors.Is(err, ErrNotBookable) }
