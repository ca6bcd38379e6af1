package domain

// Settlement strategy types selectable at queue creation.
const (
	// StrategyTypeDirectAsset redeems vault shares straight into the
	// queue's target asset.
	StrategyTypeDirectAsset = iota
	// StrategyTypePoolRedemption redeems vault shares into a receipt token
	// of a secondary pool, then redeems the receipt pro-rata against it.
	StrategyTypePoolRedemption
)

// LenderQueue defines the entity holding a FIFO withdrawal ledger along
// with the queue's configuration. Configuration mutations only affect
// future requests, never existing ledger rows.
type LenderQueue struct {
	// Name identifies the queue, unique within the engine.
	Name string
	// Target asset paid out on settlement. With the pool-redemption
	// strategy this is the receipt asset of the secondary pool.
	Asset string
	// Settlement strategy type, fixed at creation.
	StrategyType int
	// Current bonded native-currency fee demanded per new request.
	WithdrawalGasFee uint64
	// Floor on the asset-denominated amount of new requests.
	MinimumWithdrawalAmount uint64
	// The FIFO request ledger, exclusively owned by this queue.
	Ledger Ledger
}

// NewLenderQueue returns a new queue with the given settlement strategy
// and configuration and an empty ledger.
func NewLenderQueue(
	name, asset string, strategyType int, gasFee, minAmount uint64,
) (*LenderQueue, error) {
	if len(name) <= 0 {
		return nil, ErrQueueInvalidName
	}
	if len(asset) <= 0 {
		return nil, ErrQueueInvalidAsset
	}
	if !isValidStrategyType(strategyType) {
		return nil, ErrQueueInvalidStrategyType
	}

	return &LenderQueue{
		Name:                    name,
		Asset:                   asset,
		StrategyType:            strategyType,
		WithdrawalGasFee:        gasFee,
		MinimumWithdrawalAmount: minAmount,
	}, nil
}

// ValidateRequest checks a prospective withdrawal request against the
// queue's current configuration before any shares move.
func (q *LenderQueue) ValidateRequest(amount, feePaid uint64) error {
	if amount < q.MinimumWithdrawalAmount {
		return ErrQueueInsufficientAmount
	}
	if feePaid < q.WithdrawalGasFee {
		return InsufficientGasFeeError{
			Required: q.WithdrawalGasFee,
			Paid:     feePaid,
		}
	}
	return nil
}

// PushRequest appends a request for the given account to the ledger.
// gasFee is the bonded fee actually drawn for this request, recorded as
// the row's snapshot; the caller passes the fee it charged rather than
// having the row re-read the queue's configuration, so a concurrent fee
// change can never make the snapshot diverge from what custody received.
// It returns the new absolute index and the stored row.
func (q *LenderQueue) PushRequest(
	account string, shares, amount, gasFee uint64, now int64,
) (uint64, WithdrawalRequest) {
	row := WithdrawalRequest{
		Account:   account,
		Shares:    shares,
		Amount:    amount,
		Timestamp: now,
		GasFee:    gasFee,
	}
	index := q.Ledger.Append(row)
	return index, row
}

// CancelRequest tombstones the row at the given absolute index on behalf
// of caller and returns a copy of the row as it was before cancellation,
// so that the caller's shares and bonded fee can be refunded. Only rows
// from the ledger head onwards are eligible; the row's gas fee is zeroed
// along with amount and shares so a later settlement pass cannot pay the
// already-refunded fee a second time.
func (q *LenderQueue) CancelRequest(
	index uint64, caller string,
) (*WithdrawalRequest, error) {
	if index < q.Ledger.Head || index >= q.Ledger.Length() {
		return nil, WithdrawalRequestOutOfBoundsError{
			Index:       index,
			QueueLength: q.Ledger.QueueLength(),
		}
	}
	row := q.Ledger.Rows[index]
	// Ownership is checked before the inert state so a stranger probing
	// somebody else's index never learns whether it was already cancelled.
	if row.Account != caller {
		return nil, CallerIsNotRequestAccountError{
			Owner:  row.Account,
			Caller: caller,
		}
	}
	if row.IsInert() {
		return nil, ErrWithdrawalAlreadyInert
	}

	if err := q.Ledger.Tombstone(index); err != nil {
		return nil, err
	}
	q.Ledger.Rows[index].GasFee = 0

	return &row, nil
}

// PopBatch consumes the next count unsettled rows in strict FIFO order:
// it returns copies of the rows starting at the current head along with
// the head index itself, tombstones them and advances the head. The whole
// operation fails with no mutation when fewer than count unsettled rows
// remain.
func (q *LenderQueue) PopBatch(
	count uint64,
) (uint64, []WithdrawalRequest, error) {
	if available := q.Ledger.QueueLength(); count > available {
		return 0, nil, InsufficientWithdrawalCapacityError{
			Requested: count,
			Available: available,
		}
	}

	start := q.Ledger.Head
	rows := make([]WithdrawalRequest, 0, count)
	for i := start; i < start+count; i++ {
		rows = append(rows, q.Ledger.Rows[i])
		// nolint: errcheck
		q.Ledger.Tombstone(i)
		q.Ledger.Rows[i].GasFee = 0
	}
	// nolint: errcheck
	q.Ledger.AdvanceHead(count)

	return start, rows, nil
}

// WithdrawalQueueLength returns the number of unsettled rows.
func (q *LenderQueue) WithdrawalQueueLength() uint64 {
	return q.Ledger.QueueLength()
}

// BondedGasFees returns the total native fee still bonded to unsettled
// rows. Tombstoned rows carry a zero fee, so the sum counts only claims
// a cancellation or settlement can still pay out.
func (q *LenderQueue) BondedGasFees() uint64 {
	var total uint64
	for _, row := range q.Ledger.Rows[q.Ledger.Head:] {
		total += row.GasFee
	}
	return total
}

// ChangeWithdrawalGasFee updates the bonded fee demanded of future
// requests. Fees already snapshotted into ledger rows are unaffected.
func (q *LenderQueue) ChangeWithdrawalGasFee(fee uint64) {
	q.WithdrawalGasFee = fee
}

// ChangeMinimumWithdrawalAmount updates the amount floor for future
// requests.
func (q *LenderQueue) ChangeMinimumWithdrawalAmount(amount uint64) {
	q.MinimumWithdrawalAmount = amount
}

func isValidStrategyType(strategyType int) bool {
	return strategyType == StrategyTypeDirectAsset ||
		strategyType == StrategyTypePoolRedemption
}
