package domain

// Ledger is the append-only, index-addressed sequence of withdrawal
// requests of a lender queue, plus a logical head pointer.
//
// Indices are stable for the life of the ledger: a cancelled or settled
// row is zeroed in place, never removed or reindexed, so previously
// issued indices remain valid to query. Length only grows on append and
// Head only advances on settlement, with Head <= Length at all times.
type Ledger struct {
	Rows []WithdrawalRequest
	Head uint64
}

// Append adds a request to the end of the ledger and returns its index,
// monotonically increasing from 0.
func (l *Ledger) Append(req WithdrawalRequest) uint64 {
	l.Rows = append(l.Rows, req)
	return uint64(len(l.Rows)) - 1
}

// Get returns a copy of the row at the given absolute index.
func (l *Ledger) Get(index uint64) (*WithdrawalRequest, error) {
	if index >= l.Length() {
		return nil, ErrLedgerOutOfBounds
	}
	row := l.Rows[index]
	return &row, nil
}

// Tombstone zeroes the amount and shares of a row in place. It changes
// neither Length nor Head.
func (l *Ledger) Tombstone(index uint64) error {
	if index >= l.Length() {
		return ErrLedgerOutOfBounds
	}
	l.Rows[index].Amount = 0
	l.Rows[index].Shares = 0
	return nil
}

// AdvanceHead moves the head pointer forward by n settled rows.
func (l *Ledger) AdvanceHead(n uint64) error {
	if l.Head+n > l.Length() {
		return ErrLedgerHeadOverflow
	}
	l.Head += n
	return nil
}

// Length returns the total number of rows ever appended.
func (l *Ledger) Length() uint64 {
	return uint64(len(l.Rows))
}

// QueueLength returns the number of unsettled rows, ie. Length - Head.
func (l *Ledger) QueueLength() uint64 {
	return l.Length() - l.Head
}
