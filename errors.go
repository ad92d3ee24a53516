package stm

import (
	"errors"
	"fmt"
)

// AddressError reports a stripe address that violates the alignment or
// range contract. WriteTxn.Store also raises it, with the target
// address, when the stored value is not exactly one stripe long. It is
// a programmer error, not a transactional outcome,
// and is raised via panic on the hot load/store path rather than
// returned, matching the fail-fast contract in section 7 of the spec
// this engine implements.
type AddressError struct {
	Addr   uint64
	Size   uint64
	Stripe uint64
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("stm: address %d is not a valid stripe address (size=%d, stripe=%d)", e.Addr, e.Size, e.Stripe)
}

// ErrBadConfig is wrapped by NewMemory when the requested size or
// stripe width doesn't satisfy the power-of-two / divisibility
// constraints the engine requires.
var ErrBadConfig = errors.New("stm: invalid memory configuration")
