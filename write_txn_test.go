package stm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteTxnReadYourOwnWrites(t *testing.T) {
	mem, err := NewMemory(512, 8)
	require.NoError(t, err)

	txn := newWriteTxn(mem)
	v, ok := txn.Load(0)
	require.True(t, ok)
	require.Equal(t, make([]byte, 8), v)

	written := []byte{9, 9, 9, 9, 9, 9, 9, 9}
	txn.Store(0, written)

	v, ok = txn.Load(0)
	require.True(t, ok)
	require.Equal(t, written, v)
}

func TestWriteTxnStorePanicsOnWrongLength(t *testing.T) {
	mem, err := NewMemory(512, 8)
	require.NoError(t, err)

	txn := newWriteTxn(mem)
	require.Panics(t, func() { txn.Store(0, []byte{1, 2, 3}) })
}

func TestWriteTxnLockWriteSetThenRelease(t *testing.T) {
	mem, err := NewMemory(512, 8)
	require.NoError(t, err)

	txn := newWriteTxn(mem)
	txn.Store(0, make([]byte, 8))
	txn.Store(8, make([]byte, 8))

	require.True(t, txn.lockWriteSet())
	require.False(t, mem.unlockedAndNotNewerThan(0, ^uint64(0)>>1))
	require.False(t, mem.unlockedAndNotNewerThan(8, ^uint64(0)>>1))

	txn.release()
	require.True(t, mem.unlockedAndNotNewerThan(0, 0))
	require.True(t, mem.unlockedAndNotNewerThan(8, 0))
}

func TestWriteTxnLockWriteSetFailsOnContention(t *testing.T) {
	mem, err := NewMemory(512, 8)
	require.NoError(t, err)
	require.True(t, mem.tryLock(8))

	txn := newWriteTxn(mem)
	txn.Store(0, make([]byte, 8))
	txn.Store(8, make([]byte, 8))

	require.False(t, txn.lockWriteSet())
	txn.release()
	// Stripe 0 may or may not have been locked depending on map
	// iteration order; either way release must leave nothing held by
	// this transaction.
	require.Empty(t, txn.locked)
}

func TestCommitLeavesNoLockHeldAfterAbort(t *testing.T) {
	mem, err := NewMemory(512, 8)
	require.NoError(t, err)
	engine := New(mem)

	_, ok := WriteTransaction(engine, func(tx *WriteTxn) Result[struct{}] {
		tx.Store(0, make([]byte, 8))
		return Abort[struct{}]()
	})
	require.False(t, ok)

	require.True(t, mem.unlockedAndNotNewerThan(0, 0))
}

func TestValidateReadSetRejectsStaleReadOfUnwrittenStripe(t *testing.T) {
	mem, err := NewMemory(512, 8)
	require.NoError(t, err)

	txn := newWriteTxn(mem)
	_, ok := txn.Load(8) // adds 8 to the read-set
	require.True(t, ok)
	txn.Store(0, make([]byte, 8))

	// Simulate a concurrent committer raising stripe 8's version.
	mem.locks[1].publish(mem.incGlobalClock())

	require.True(t, txn.lockWriteSet())
	require.False(t, txn.validateReadSet())
	txn.release()
}
