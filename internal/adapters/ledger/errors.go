package ledger

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrUnknownDriver = errors.New("unknown ledger driver")
	ErrNotFound      = errors.New("agent status not found")
	ErrRejected      = errors.New("ledger rejected update")
	ErrConfig        = errors.New("invalid ledger config")
	ErrReadback      = errors.New("ledger driver cannot read status back")
)
