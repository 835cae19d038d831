package room

import "errors"

// Validation errors raised before any write reaches the shared store.
var (
	ErrRoomFull       = errors.New("room is full")
	ErrAlreadyInRoom  = errors.New("player already in room")
	ErrNotInRoom      = errors.New("player is not in this room")
	ErrNotHost        = errors.New("only the host may do that")
	ErrNotAllReady    = errors.New("not all players are ready")
	ErrAlreadyStarted = errors.New("room is no longer waiting")
	ErrCannotKickHost = errors.New("the host cannot be kicked")
)
