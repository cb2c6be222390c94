package exception

import "github.com/yanun0323/errors"

// General errors
var (
	ErrInvalidArgument = errors.New("invalid argument")
)

// Argument errors, each a kind of ErrInvalidArgument so one Is check covers
// the whole family.
var (
	ErrInvalidSide  = errors.Wrap(ErrInvalidArgument, "invalid side")
	ErrInvalidLimit = errors.Wrap(ErrInvalidArgument, "limit should be 1 or more")
)

// Pipeline errors
var (
	ErrConnectionFailed = errors.New("pipeline: connection failed")
	ErrFeedClosed       = errors.New("feed: connection closed")
)
