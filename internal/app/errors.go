package service

import (
	"fmt"

	"github.com/nebulon/tierd/internal/adapters/ledger"
)

// ErrStatusUnsupported is returned by Status when the ledger backend cannot
// be read back.
var ErrStatusUnsupported = fmt.Errorf("status lookup: %w", ledger.ErrReadback)
