package tier

import "errors"

// Sentinel kinds for tier table errors.
var (
	ErrInvalidTable    = errors.New("invalid tier table")
	ErrInvalidMetadata = errors.New("invalid tier metadata")
)
