package arrow

// TransactionBatcher groups transfers into commit units of a fixed size.
//
// The engine rejects a nonzero transaction size at construction, so no
// running configuration reaches this type today; it defines the commit
// contract a transactional binding would consume. Commit failure is fatal
// and never retried.
type TransactionBatcher struct {
	size int
}

// NewTransactionBatcher creates a batcher committing every size transfers.
func NewTransactionBatcher(size int) *TransactionBatcher {
	return &TransactionBatcher{size: size}
}

// Enabled reports whether batching is in effect.
func (b *TransactionBatcher) Enabled() bool {
	return b.size > 0
}

// ShouldCommit reports whether the transfer with the given 1-based count
// ends a commit unit. A new transaction begins immediately after commit.
func (b *TransactionBatcher) ShouldCommit(count uint64) bool {
	if b.size <= 0 {
		return false
	}
	return count%uint64(b.size) == 0
}
