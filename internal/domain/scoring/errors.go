package scoring

import "errors"

// Sentinel errors returned by the scoring model.
var (
	ErrNoCategories          = errors.New("sheet needs at least one category")
	ErrNoCandidates          = errors.New("sheet needs at least one candidate")
	ErrInvalidWeight         = errors.New("category weight must be positive")
	ErrInvalidCeiling        = errors.New("category max votes must not be negative")
	ErrCandidateOutOfRange   = errors.New("candidate index out of range")
	ErrCategoryOutOfRange    = errors.New("category index out of range")
	ErrInitialVotesDimension = errors.New("initial votes do not match sheet dimensions")
)
