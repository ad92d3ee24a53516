package stm

// ReadTxn is a per-attempt, read-only transaction handle. It carries a
// snapshot version and a conflict flag; once poisoned by a conflict,
// every subsequent Load returns false until the driver starts a fresh
// attempt.
type ReadTxn struct {
	mem         *Memory
	readVersion uint64
	conflict    bool
}

func newReadTxn(mem *Memory) *ReadTxn {
	return &ReadTxn{mem: mem, readVersion: mem.readClock()}
}

// Load performs a stripe-aligned, double-checked read against shared
// memory. It returns (nil, false) if the transaction has already
// conflicted, or if this load detects one; the caller is expected to
// surrender to the driver (return Retry) in either case. Misaligned or
// out-of-range addresses panic rather than returning false: that is a
// contract violation, not a transactional outcome.
func (t *ReadTxn) Load(addr uint64) ([]byte, bool) {
	t.mem.checkAddr(addr)

	if t.conflict {
		return nil, false
	}

	// Pre-check: reject if the stripe is locked or newer than our
	// snapshot before we touch the bytes at all.
	if !t.mem.unlockedAndNotNewerThan(addr, t.readVersion) {
		t.conflict = true
		return nil, false
	}

	buf := make([]byte, t.mem.stripeSize)
	copy(buf, t.mem.stripeBytes(addr))

	// Post-check: the bytes we just copied are only trustworthy if the
	// stripe was still unlocked and unchanged throughout the copy.
	if !t.mem.unlockedAndNotNewerThan(addr, t.readVersion) {
		t.conflict = true
		return nil, false
	}

	return buf, true
}
