package player

import "errors"

// Sentinel errors classifying failures the HTTP layer maps to status codes.
var (
	ErrConfigMissing   = errors.New("player: required configuration missing")
	ErrInvalidArgument = errors.New("player: invalid argument")
	ErrSpawnFailure    = errors.New("player: failed to spawn subprocess")
)
