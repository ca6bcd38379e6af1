package application

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/consol-protocol/consold/internal/core/domain"
	"github.com/consol-protocol/consold/internal/core/ports"
)

// WithdrawalService defines the methods of the application layer for
// managing lender queues: request/cancel lifecycle, privileged
// configuration and the public query surface. Batch settlement is not
// part of this interface on purpose, it is reachable only through the
// ProcessorService.
type WithdrawalService interface {
	AddQueue(
		ctx context.Context, admin, name string,
		strategyType int, gasFee, minAmount uint64,
	) error
	RequestWithdrawal(
		ctx context.Context, queueName, account string,
		amount, feePaid uint64,
	) (*WithdrawalRequestInfo, error)
	CancelWithdrawal(
		ctx context.Context, queueName, account string, index uint64,
	) error
	SetWithdrawalGasFee(
		ctx context.Context, queueName, admin string, fee uint64,
	) error
	SetMinimumWithdrawalAmount(
		ctx context.Context, queueName, admin string, amount uint64,
	) error
	WithdrawNativeGas(
		ctx context.Context, queueName, admin, recipient string, amount uint64,
	) error
	WithdrawalQueueLength(ctx context.Context, queueName string) (uint64, error)
	WithdrawalQueue(
		ctx context.Context, queueName string, index uint64,
	) (*WithdrawalRequestInfo, error)
	WithdrawalGasFee(ctx context.Context, queueName string) (uint64, error)
	MinimumWithdrawalAmount(
		ctx context.Context, queueName string,
	) (uint64, error)
	Asset(ctx context.Context, queueName string) (string, error)
	Consol() ports.Vault
}

type withdrawalService struct {
	repoManager   ports.RepoManager
	vault         ports.Vault
	pool          ports.RedemptionPool
	bank          ports.Bank
	accessControl ports.AccessController
	pubsub        ports.SecurePubSub
}

// NewWithdrawalService is a constructor function for WithdrawalService.
// The redemption pool may be nil if no pool-redemption queue is ever
// added.
func NewWithdrawalService(
	repoManager ports.RepoManager,
	vault ports.Vault,
	pool ports.RedemptionPool,
	bank ports.Bank,
	accessControl ports.AccessController,
	pubsub ports.SecurePubSub,
) WithdrawalService {
	return &withdrawalService{
		repoManager:   repoManager,
		vault:         vault,
		pool:          pool,
		bank:          bank,
		accessControl: accessControl,
		pubsub:        pubsub,
	}
}

func (s *withdrawalService) AddQueue(
	ctx context.Context, admin, name string,
	strategyType int, gasFee, minAmount uint64,
) error {
	if err := s.accessControl.CheckRole(
		ctx, admin, ports.RoleQueueAdmin,
	); err != nil {
		return err
	}

	asset := s.vault.AssetID()
	if strategyType == domain.StrategyTypePoolRedemption {
		if s.pool == nil {
			return ErrMissingRedemptionPool
		}
		asset = s.pool.ReceiptAsset()
	}

	queue, err := domain.NewLenderQueue(
		name, asset, strategyType, gasFee, minAmount,
	)
	if err != nil {
		return err
	}

	if err := s.repoManager.LenderQueueRepository().AddQueue(
		ctx, queue,
	); err != nil {
		return err
	}

	log.Infof("added lender queue %s for asset %s", name, asset)
	return nil
}

// RequestWithdrawal enqueues a redemption claim for account. The amount
// of vault shares currently worth the requested amount is pulled from
// the account into the queue's custody, along with exactly the current
// bonded fee in native currency. feePaid only declares what the caller
// is willing to pay: any excess above the current fee is never drawn, so
// overpaying is harmless and nothing needs refunding.
func (s *withdrawalService) RequestWithdrawal(
	ctx context.Context, queueName, account string, amount, feePaid uint64,
) (*WithdrawalRequestInfo, error) {
	repo := s.repoManager.LenderQueueRepository()
	queue, err := repo.GetQueueByName(ctx, queueName)
	if err != nil {
		return nil, err
	}

	if err := queue.ValidateRequest(amount, feePaid); err != nil {
		return nil, err
	}
	// The fee validated, drawn and snapshotted must all come from this
	// one read. Re-reading the queue inside the update closure could see
	// a concurrent fee change and record a snapshot custody never
	// received.
	fee := queue.WithdrawalGasFee

	shares, err := s.vault.ConvertToShares(ctx, amount)
	if err != nil {
		return nil, err
	}

	custody := custodyAccount(queueName)
	if err := s.vault.TransferShares(
		ctx, account, custody, shares,
	); err != nil {
		return nil, err
	}
	if fee > 0 {
		if err := s.bank.Transfer(ctx, account, custody, fee); err != nil {
			return nil, err
		}
	}

	now := time.Now().Unix()
	var (
		index uint64
		row   domain.WithdrawalRequest
	)
	if err := repo.UpdateQueue(
		ctx, queueName, func(q *domain.LenderQueue) (*domain.LenderQueue, error) {
			index, row = q.PushRequest(account, shares, amount, fee, now)
			return q, nil
		},
	); err != nil {
		return nil, err
	}

	s.publish(WithdrawalRequestedTopic, WithdrawalRequestedEvent{
		Queue:     queueName,
		Index:     index,
		Account:   account,
		Shares:    shares,
		Amount:    amount,
		Timestamp: now,
		GasFee:    row.GasFee,
	})
	log.Debugf(
		"queue %s: request %d for account %s, %d shares locked",
		queueName, index, account, shares,
	)

	return newWithdrawalRequestInfo(index, &row), nil
}

// CancelWithdrawal tombstones the unsettled row at the given absolute
// index and refunds its owner: the locked shares themselves are returned
// at current value, so the requester absorbs any rebase since request
// time, plus the bonded fee snapshotted into the row.
func (s *withdrawalService) CancelWithdrawal(
	ctx context.Context, queueName, account string, index uint64,
) error {
	custody := custodyAccount(queueName)
	var row *domain.WithdrawalRequest
	if err := s.repoManager.LenderQueueRepository().UpdateQueue(
		ctx, queueName, func(q *domain.LenderQueue) (*domain.LenderQueue, error) {
			cancelled, err := q.CancelRequest(index, account)
			if err != nil {
				return nil, err
			}

			if err := s.vault.TransferShares(
				ctx, custody, account, cancelled.Shares,
			); err != nil {
				return nil, err
			}
			if cancelled.GasFee > 0 {
				if err := s.bank.Transfer(
					ctx, custody, account, cancelled.GasFee,
				); err != nil {
					return nil, err
				}
			}

			row = cancelled
			return q, nil
		},
	); err != nil {
		return err
	}

	s.publish(WithdrawalCancelledTopic, WithdrawalCancelledEvent{
		Queue:     queueName,
		Index:     index,
		Account:   account,
		Shares:    row.Shares,
		Amount:    row.Amount,
		Timestamp: row.Timestamp,
		GasFee:    row.GasFee,
	})
	log.Debugf(
		"queue %s: request %d cancelled, %d shares refunded to %s",
		queueName, index, row.Shares, account,
	)

	return nil
}

// processWithdrawalRequests settles the next count rows of the queue in
// strict FIFO order and pays the accumulated bonded fees to
// payoutCaller, the external account that triggered the batch. It is
// unexported so that it can only be reached through the
// ProcessorService and its reentrancy barrier.
func (s *withdrawalService) processWithdrawalRequests(
	ctx context.Context, queueName string, count uint64, payoutCaller string,
) error {
	custody := custodyAccount(queueName)
	settleTime := time.Now().Unix()
	events := make([]WithdrawalProcessedEvent, 0, count)

	if err := s.repoManager.LenderQueueRepository().UpdateQueue(
		ctx, queueName, func(q *domain.LenderQueue) (*domain.LenderQueue, error) {
			strategy, err := s.strategyForQueue(q, custody)
			if err != nil {
				return nil, err
			}

			start, rows, err := q.PopBatch(count)
			if err != nil {
				return nil, err
			}

			// No external transfer may happen before the whole batch is
			// known to fit: the ledger rollback on failure cannot undo a
			// redemption already performed, which would strand the
			// remaining claims with an emptied custody.
			var feeTotal, shareTotal uint64
			for _, row := range rows {
				feeTotal += row.GasFee
				shareTotal += row.Shares
			}
			if err := strategy.Preflight(ctx, shareTotal); err != nil {
				return nil, err
			}
			if feeTotal > 0 {
				balance, err := s.bank.Balance(ctx, custody)
				if err != nil {
					return nil, err
				}
				if balance < feeTotal {
					return nil, ErrCustodyShortfall
				}
			}

			for i, row := range rows {
				if _, err := strategy.Settle(
					ctx, row.Shares, row.Account,
				); err != nil {
					return nil, err
				}

				events = append(events, WithdrawalProcessedEvent{
					Queue:            queueName,
					Index:            start + uint64(i),
					Account:          row.Account,
					Shares:           row.Shares,
					Amount:           row.Amount,
					RequestTimestamp: row.Timestamp,
					GasFee:           row.GasFee,
					SettleTimestamp:  settleTime,
				})
			}

			if feeTotal > 0 {
				if err := s.bank.Transfer(
					ctx, custody, payoutCaller, feeTotal,
				); err != nil {
					return nil, err
				}
			}

			return q, nil
		},
	); err != nil {
		return err
	}

	for _, event := range events {
		s.publish(WithdrawalProcessedTopic, event)
	}
	log.Infof(
		"queue %s: settled %d requests, fees paid to %s",
		queueName, count, payoutCaller,
	)

	return nil
}

func (s *withdrawalService) SetWithdrawalGasFee(
	ctx context.Context, queueName, admin string, fee uint64,
) error {
	if err := s.accessControl.CheckRole(
		ctx, admin, ports.RoleQueueAdmin,
	); err != nil {
		return err
	}

	if err := s.repoManager.LenderQueueRepository().UpdateQueue(
		ctx, queueName, func(q *domain.LenderQueue) (*domain.LenderQueue, error) {
			q.ChangeWithdrawalGasFee(fee)
			return q, nil
		},
	); err != nil {
		return err
	}

	s.publish(WithdrawalGasFeeSetTopic, WithdrawalGasFeeSetEvent{
		Queue: queueName,
		Fee:   fee,
	})
	return nil
}

func (s *withdrawalService) SetMinimumWithdrawalAmount(
	ctx context.Context, queueName, admin string, amount uint64,
) error {
	if err := s.accessControl.CheckRole(
		ctx, admin, ports.RoleQueueAdmin,
	); err != nil {
		return err
	}

	if err := s.repoManager.LenderQueueRepository().UpdateQueue(
		ctx, queueName, func(q *domain.LenderQueue) (*domain.LenderQueue, error) {
			q.ChangeMinimumWithdrawalAmount(amount)
			return q, nil
		},
	); err != nil {
		return err
	}

	s.publish(MinimumWithdrawalAmountSetTopic, MinimumWithdrawalAmountSetEvent{
		Queue:  queueName,
		Amount: amount,
	})
	return nil
}

// WithdrawNativeGas sweeps native currency out of the queue's custody to
// the given recipient. Fees still bonded to unsettled requests are not
// sweepable, they are owed to a future cancellation refund or batch
// payout; only the custody balance above that sum can go.
func (s *withdrawalService) WithdrawNativeGas(
	ctx context.Context, queueName, admin, recipient string, amount uint64,
) error {
	if err := s.accessControl.CheckRole(
		ctx, admin, ports.RoleTreasury,
	); err != nil {
		return err
	}
	queue, err := s.repoManager.LenderQueueRepository().GetQueueByName(
		ctx, queueName,
	)
	if err != nil {
		return err
	}

	custody := custodyAccount(queueName)
	balance, err := s.bank.Balance(ctx, custody)
	if err != nil {
		return err
	}
	if bonded := queue.BondedGasFees(); balance < bonded ||
		balance-bonded < amount {
		return domain.FailedToWithdrawNativeGasError{Amount: amount}
	}
	if err := s.bank.Transfer(ctx, custody, recipient, amount); err != nil {
		return err
	}

	s.publish(NativeGasWithdrawnTopic, NativeGasWithdrawnEvent{
		Queue:  queueName,
		Amount: amount,
	})
	return nil
}

func (s *withdrawalService) WithdrawalQueueLength(
	ctx context.Context, queueName string,
) (uint64, error) {
	queue, err := s.repoManager.LenderQueueRepository().GetQueueByName(
		ctx, queueName,
	)
	if err != nil {
		return 0, err
	}
	return queue.WithdrawalQueueLength(), nil
}

func (s *withdrawalService) WithdrawalQueue(
	ctx context.Context, queueName string, index uint64,
) (*WithdrawalRequestInfo, error) {
	queue, err := s.repoManager.LenderQueueRepository().GetQueueByName(
		ctx, queueName,
	)
	if err != nil {
		return nil, err
	}
	row, err := queue.Ledger.Get(index)
	if err != nil {
		return nil, err
	}
	return newWithdrawalRequestInfo(index, row), nil
}

func (s *withdrawalService) WithdrawalGasFee(
	ctx context.Context, queueName string,
) (uint64, error) {
	queue, err := s.repoManager.LenderQueueRepository().GetQueueByName(
		ctx, queueName,
	)
	if err != nil {
		return 0, err
	}
	return queue.WithdrawalGasFee, nil
}

func (s *withdrawalService) MinimumWithdrawalAmount(
	ctx context.Context, queueName string,
) (uint64, error) {
	queue, err := s.repoManager.LenderQueueRepository().GetQueueByName(
		ctx, queueName,
	)
	if err != nil {
		return 0, err
	}
	return queue.MinimumWithdrawalAmount, nil
}

func (s *withdrawalService) Asset(
	ctx context.Context, queueName string,
) (string, error) {
	queue, err := s.repoManager.LenderQueueRepository().GetQueueByName(
		ctx, queueName,
	)
	if err != nil {
		return "", err
	}
	return queue.Asset, nil
}

func (s *withdrawalService) Consol() ports.Vault {
	return s.vault
}

func (s *withdrawalService) strategyForQueue(
	queue *domain.LenderQueue, custody string,
) (SettlementStrategy, error) {
	switch queue.StrategyType {
	case domain.StrategyTypeDirectAsset:
		return NewDirectAssetStrategy(s.vault, custody), nil
	case domain.StrategyTypePoolRedemption:
		if s.pool == nil {
			return nil, ErrMissingRedemptionPool
		}
		return NewPoolRedemptionStrategy(s.vault, s.pool, custody), nil
	default:
		return nil, ErrUnknownStrategy
	}
}

func (s *withdrawalService) publish(topic Topic, event interface{}) {
	if s.pubsub == nil {
		return
	}
	if err := s.pubsub.Publish(
		topic.Label(), serializeEvent(event),
	); err != nil {
		log.WithError(err).Warnf(
			"error while publishing %s event", topic.Label(),
		)
	}
}

// custodyAccount returns the account holding a queue's locked shares and
// bonded fees.
func custodyAccount(queueName string) string {
	return "consold/" + queueName
}
