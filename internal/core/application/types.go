package application

import (
	"encoding/json"

	"github.com/consol-protocol/consold/internal/core/domain"
)

// Topic identifies a class of events published by the engine.
type Topic int

const (
	// WithdrawalRequestedTopic ...
	WithdrawalRequestedTopic Topic = iota
	// WithdrawalCancelledTopic ...
	WithdrawalCancelledTopic
	// WithdrawalProcessedTopic ...
	WithdrawalProcessedTopic
	// WithdrawalGasFeeSetTopic ...
	WithdrawalGasFeeSetTopic
	// MinimumWithdrawalAmountSetTopic ...
	MinimumWithdrawalAmountSetTopic
	// NativeGasWithdrawnTopic ...
	NativeGasWithdrawnTopic
)

var topicLabels = map[Topic]string{
	WithdrawalRequestedTopic:        "withdrawal_requested",
	WithdrawalCancelledTopic:        "withdrawal_cancelled",
	WithdrawalProcessedTopic:        "withdrawal_processed",
	WithdrawalGasFeeSetTopic:        "withdrawal_gas_fee_set",
	MinimumWithdrawalAmountSetTopic: "minimum_withdrawal_amount_set",
	NativeGasWithdrawnTopic:         "native_gas_withdrawn",
}

// Code returns the numeric code of the topic.
func (t Topic) Code() int {
	return int(t)
}

// Label returns the string label of the topic.
func (t Topic) Label() string {
	return topicLabels[t]
}

// Event payloads serialized to the pubsub service. The field order
// matters to external indexers and must not change.

type WithdrawalRequestedEvent struct {
	Queue     string `json:"queue"`
	Index     uint64 `json:"index"`
	Account   string `json:"account"`
	Shares    uint64 `json:"shares"`
	Amount    uint64 `json:"amount"`
	Timestamp int64  `json:"timestamp"`
	GasFee    uint64 `json:"gas_fee"`
}

type WithdrawalCancelledEvent struct {
	Queue     string `json:"queue"`
	Index     uint64 `json:"index"`
	Account   string `json:"account"`
	Shares    uint64 `json:"shares"`
	Amount    uint64 `json:"amount"`
	Timestamp int64  `json:"timestamp"`
	GasFee    uint64 `json:"gas_fee"`
}

type WithdrawalProcessedEvent struct {
	Queue            string `json:"queue"`
	Index            uint64 `json:"index"`
	Account          string `json:"account"`
	Shares           uint64 `json:"shares"`
	Amount           uint64 `json:"amount"`
	RequestTimestamp int64  `json:"request_timestamp"`
	GasFee           uint64 `json:"gas_fee"`
	SettleTimestamp  int64  `json:"settle_timestamp"`
}

type WithdrawalGasFeeSetEvent struct {
	Queue string `json:"queue"`
	Fee   uint64 `json:"fee"`
}

type MinimumWithdrawalAmountSetEvent struct {
	Queue  string `json:"queue"`
	Amount uint64 `json:"amount"`
}

type NativeGasWithdrawnEvent struct {
	Queue  string `json:"queue"`
	Amount uint64 `json:"amount"`
}

// WithdrawalRequestInfo is the portable view of a ledger row returned by
// the query surface.
type WithdrawalRequestInfo struct {
	Index     uint64
	Account   string
	Shares    uint64
	Amount    uint64
	Timestamp int64
	GasFee    uint64
}

func newWithdrawalRequestInfo(
	index uint64, row *domain.WithdrawalRequest,
) *WithdrawalRequestInfo {
	return &WithdrawalRequestInfo{
		Index:     index,
		Account:   row.Account,
		Shares:    row.Shares,
		Amount:    row.Amount,
		Timestamp: row.Timestamp,
		GasFee:    row.GasFee,
	}
}

func serializeEvent(event interface{}) string {
	buf, _ := json.Marshal(event)
	return string(buf)
}
