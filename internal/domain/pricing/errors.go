package pricing

import "errors"

var (
	ErrInvalidDuration = errors.New("invalid duration")
	ErrNoRate          = errors.New("package has no usable rate")
	ErrNoOptions       = errors.New("package has no duration options")
	ErrUnknownMode     = errors.New("unknown pricing mode")
)
