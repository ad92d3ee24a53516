package stm

// WriteTxn is a per-attempt, read-write transaction handle. It tracks a
// read-set (stripe addresses observed), a write-set (pending stripe
// replacements), and the list of stripe locks this attempt currently
// holds. Every exit path — commit, abort, or retry — must release
// everything in locked exactly once; the driver guarantees this via
// release, called through defer.
type WriteTxn struct {
	mem         *Memory
	readVersion uint64
	readSet     map[uint64]struct{}
	writeSet    map[uint64][]byte
	locked      []uint64
	conflict    bool
}

func newWriteTxn(mem *Memory) *WriteTxn {
	return &WriteTxn{mem: mem, readVersion: mem.readClock()}
}

// Store buffers val as the pending replacement for addr. Nothing is
// touched in shared memory and no validation is needed: later stores to
// the same address simply supersede earlier ones.
func (t *WriteTxn) Store(addr uint64, val []byte) {
	t.mem.checkAddr(addr)
	if uint64(len(val)) != t.mem.stripeSize {
		panic(&AddressError{Addr: addr, Size: t.mem.size, Stripe: t.mem.stripeSize})
	}
	if t.writeSet == nil {
		t.writeSet = make(map[uint64][]byte, 4)
	}
	t.writeSet[addr] = val
}

// Load returns the stripe at addr: the pending write-set value if this
// transaction already stored one (read-your-own-writes), otherwise a
// double-checked read against shared memory identical to ReadTxn.Load.
func (t *WriteTxn) Load(addr uint64) ([]byte, bool) {
	t.mem.checkAddr(addr)

	if t.conflict {
		return nil, false
	}

	if t.readSet == nil {
		t.readSet = make(map[uint64]struct{}, 4)
	}
	t.readSet[addr] = struct{}{}

	if v, ok := t.writeSet[addr]; ok {
		return v, true
	}

	if !t.mem.unlockedAndNotNewerThan(addr, t.readVersion) {
		t.conflict = true
		return nil, false
	}

	buf := make([]byte, t.mem.stripeSize)
	copy(buf, t.mem.stripeBytes(addr))

	if !t.mem.unlockedAndNotNewerThan(addr, t.readVersion) {
		t.conflict = true
		return nil, false
	}

	return buf, true
}

// lockWriteSet attempts to acquire every stripe lock in the write-set,
// recording each success in locked. try_lock never blocks, so the first
// failure simply means some other transaction got there first; the
// caller aborts this attempt and retries from scratch.
func (t *WriteTxn) lockWriteSet() bool {
	t.locked = make([]uint64, 0, len(t.writeSet))
	for addr := range t.writeSet {
		if !t.mem.tryLock(addr) {
			return false
		}
		t.locked = append(t.locked, addr)
	}
	return true
}

// validateReadSet re-checks every stripe this transaction read, now
// that its write-set stripes are locked. A stripe also in the
// write-set is checked against versionOf directly (we hold its lock,
// so only the version matters); any other stripe is checked with the
// same unlocked-and-not-newer-than predicate used during the read
// itself.
func (t *WriteTxn) validateReadSet() bool {
	for addr := range t.readSet {
		if _, isWrite := t.writeSet[addr]; isWrite {
			if t.mem.versionOf(addr) > t.readVersion {
				return false
			}
		} else if !t.mem.unlockedAndNotNewerThan(addr, t.readVersion) {
			return false
		}
	}
	return true
}

// writeBackAndPublish copies every pending write into shared memory and
// then stamps each written stripe's lock word with newVersion, which
// clears the lock bit as a side effect. locked is drained so release
// becomes a no-op afterward.
func (t *WriteTxn) writeBackAndPublish(newVersion uint64) {
	for addr, val := range t.writeSet {
		copy(t.mem.stripeBytes(addr), val)
	}
	// Every write must be visible before any reader can observe
	// newVersion; Go's atomic Store already carries the necessary
	// release semantics.
	for _, addr := range t.locked {
		t.mem.publish(addr, newVersion)
	}
	t.locked = t.locked[:0]
}

// release unlocks everything still held in locked. It is the
// transaction's sole unlock site after an aborted commit or an aborted
// attempt; after a successful commit locked is already empty, so it is
// a no-op. Callers invoke it via defer so every exit path is covered.
func (t *WriteTxn) release() {
	for _, addr := range t.locked {
		t.mem.unlock(addr)
	}
	t.locked = nil
}
