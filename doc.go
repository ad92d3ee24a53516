// Package stm implements Software Transactional Memory over a fixed-size
// byte-addressable region using the Transactional Locking II (TL2)
// algorithm. It is an alternative to hand-rolled mutexes for code that
// needs several loads and stores to take effect as a single atomic,
// isolated step.
//
// Create a Memory, wrap it in an STM, and run transactions against it:
//
//	mem, err := stm.NewMemory(512, 8)
//	if err != nil {
//		log.Fatal(err)
//	}
//	engine := stm.New(mem)
//
//	stm.WriteTransaction(engine, func(tx *stm.WriteTxn) stm.Result[struct{}] {
//		tx.Store(0, []byte{1, 2, 3, 4, 5, 6, 7, 8})
//		return stm.Ok(struct{}{})
//	})
//
//	got, ok := stm.ReadTransaction(engine, func(tx *stm.ReadTxn) stm.Result[[]byte] {
//		v, loaded := tx.Load(0)
//		if !loaded {
//			return stm.Retry[[]byte]()
//		}
//		return stm.Ok(v)
//	})
//
// A transaction body may run more than once: the driver retries it
// whenever the optimistic read it performed turns out to have raced with
// a concurrent commit. Bodies must therefore be free of externally
// visible side effects — anything that isn't a Load or Store on the
// transaction handle it was given may execute more than once.
//
// Retry vs. Abort. A body signals Retry when a Load reported a conflict;
// the driver then starts a fresh attempt. A Retry from a body whose
// transaction has not conflicted ends the transaction with no value. A
// body signals Abort to tell the driver to give up entirely. When no
// conflict occurred both resolve to "no value", but they are distinct
// tags so callers and tests can assert intent.
//
// This package does not provide durability, persistence, fairness
// between competing writers, or recovery from clock overflow. It is
// obstruction-free, not wait-free: under sufficiently heavy contention,
// writers can livelock, though none will deadlock, since stripe locks
// are acquired without ever blocking.
package stm
