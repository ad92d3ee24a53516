package stm

// resultTag distinguishes the three outcomes a transaction body can
// signal to the driver.
type resultTag int

const (
	tagOk resultTag = iota
	tagRetry
	tagAbort
)

// Result is the tagged outcome a transaction body returns. Ok(v) carries
// a value to hand back to the caller; Retry makes the driver start a
// fresh attempt if the transaction itself conflicted, and otherwise
// ends the transaction with no value; Abort tells the driver to give up
// for good. Retry
// and Abort both currently resolve to "no value" from the caller's
// perspective, but are kept distinct so tests can assert which one a
// body meant.
type Result[T any] struct {
	tag resultTag
	val T
}

// Ok wraps a successful body result.
func Ok[T any](v T) Result[T] {
	return Result[T]{tag: tagOk, val: v}
}

// Retry asks the driver to retry this transaction. The driver retries
// only if the transaction has conflicted; otherwise it returns no value.
func Retry[T any]() Result[T] {
	return Result[T]{tag: tagRetry}
}

// Abort tells the driver to stop retrying and return no value.
func Abort[T any]() Result[T] {
	return Result[T]{tag: tagAbort}
}

// STM is a handle to one engine: one Memory and the transactions run
// against it. The zero value is not usable; construct with New.
type STM struct {
	mem *Memory
}

// New wraps mem in an engine ready to run transactions.
func New(mem *Memory) *STM {
	return &STM{mem: mem}
}

// Memory returns the engine's backing shared memory.
func (s *STM) Memory() *Memory { return s.mem }

// ReadTransaction runs body against a fresh read-only transaction,
// retrying whenever the load protocol detects a conflict. body is
// expected to be free of side effects other than ReadTxn.Load, since it
// may run more than once.
func ReadTransaction[T any](s *STM, body func(*ReadTxn) Result[T]) (T, bool) {
	for {
		txn := newReadTxn(s.mem)
		res := body(txn)

		switch res.tag {
		case tagAbort:
			var zero T
			return zero, false
		case tagRetry:
			if txn.conflict {
				continue
			}
			var zero T
			return zero, false
		default: // tagOk
			if txn.conflict {
				continue
			}
			return res.val, true
		}
	}
}

// WriteTransaction runs body against a fresh read-write transaction. On
// a conflict-free Ok result it runs the TL2 commit protocol: lock the
// write-set, bump the global clock, validate the read-set unless this
// writer is provably the only committer since its snapshot, write back,
// and publish new versions. Any failure along that path — lock
// contention or a failed validation — retries the whole attempt. body
// is expected to be free of side effects other than the transaction
// handle's Load/Store, since it may run more than once.
func WriteTransaction[T any](s *STM, body func(*WriteTxn) Result[T]) (T, bool) {
	for {
		val, ok, retry := writeAttempt(s, body)
		if retry {
			continue
		}
		return val, ok
	}
}

func writeAttempt[T any](s *STM, body func(*WriteTxn) Result[T]) (val T, ok bool, retry bool) {
	txn := newWriteTxn(s.mem)
	defer txn.release()

	res := body(txn)
	switch res.tag {
	case tagAbort:
		return val, false, false
	case tagRetry:
		if txn.conflict {
			return val, false, true
		}
		return val, false, false
	}

	// tagOk
	if txn.conflict {
		return val, false, true
	}
	if len(txn.writeSet) == 0 {
		// Read-only body: nothing to lock, validate, or publish.
		return res.val, true, false
	}

	if !txn.lockWriteSet() {
		return val, false, true
	}

	newVersion := s.mem.incGlobalClock()
	if newVersion != txn.readVersion+1 {
		// Some other writer committed between our snapshot and our
		// lock acquisition; our read-set might now be stale.
		if !txn.validateReadSet() {
			return val, false, true
		}
	}

	txn.writeBackAndPublish(newVersion)
	return res.val, true, false
}
