package game

import "errors"

// Validation errors raised before any write reaches the shared store. They
// surface to the caller for display and are never retried automatically.
var (
	ErrNotYourTurn           = errors.New("not your turn")
	ErrNoRollsLeft           = errors.New("no rolls left this turn")
	ErrTooEarlyToScore       = errors.New("roll at least once before scoring")
	ErrCategoryAlreadyScored = errors.New("category already scored")
	ErrSessionFinished       = errors.New("game session is finished")
	ErrUnknownCategory       = errors.New("unknown category")
)
