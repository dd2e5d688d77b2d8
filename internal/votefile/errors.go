package votefile

import "errors"

// Sentinel kinds for votes file errors.
var (
	ErrParse              = errors.New("invalid votes file")
	ErrUnknownCandidate   = errors.New("unknown candidate")
	ErrDuplicateCandidate = errors.New("duplicate candidate")
	ErrCountsLength       = errors.New("wrong number of counts")
)
