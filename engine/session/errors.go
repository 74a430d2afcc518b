package session

import (
	"errors"

	"github.com/1siamBot/tactics-engine/engine/turn"
)

// Rejections. None of them change the world.
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrNotWalkable         = errors.New("tile not walkable")
	ErrNotNearFriendlyBase = errors.New("not near a friendly capture point")
	ErrUnknownKind         = errors.New("unknown unit kind")
	ErrNotOwned            = errors.New("unit not owned by the acting team")
	ErrNoUnit              = errors.New("no such unit")
	ErrBusy                = errors.New("session busy")
	ErrWrongPhase          = turn.ErrWrongPhase
)
