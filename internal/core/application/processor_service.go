package application

import (
	"context"
	"sync"
)

// ProcessorService is the single permissionless entry point triggering
// batch settlement on any lender queue. It is stateless except for a
// transient per-queue barrier preventing a settlement strategy, whose
// external calls into the vault or pool could call back into the
// engine, from re-entering processing of the same queue mid-batch.
// Distinct queues process independently.
type ProcessorService interface {
	// Process settles the next count requests of the queue and pays the
	// accumulated bonded fees to caller.
	Process(
		ctx context.Context, queueName string, count uint64, caller string,
	) error
	// IsBlocked returns the account a queue is currently being processed
	// for, if any.
	IsBlocked(queueName string) (string, bool)
}

type batchSettler interface {
	processWithdrawalRequests(
		ctx context.Context, queueName string, count uint64,
		payoutCaller string,
	) error
}

type processorService struct {
	settler batchSettler

	lock    sync.Mutex
	blocked map[string]string
}

// NewProcessorService is a constructor function for ProcessorService,
// dispatching on the given withdrawal service.
func NewProcessorService(svc WithdrawalService) ProcessorService {
	return &processorService{
		settler: svc.(batchSettler),
		blocked: make(map[string]string),
	}
}

func (p *processorService) Process(
	ctx context.Context, queueName string, count uint64, caller string,
) error {
	if err := p.block(queueName, caller); err != nil {
		return err
	}
	// The barrier must be released on every exit path, including a
	// failing batch.
	defer p.unblock(queueName)

	return p.settler.processWithdrawalRequests(ctx, queueName, count, caller)
}

func (p *processorService) IsBlocked(queueName string) (string, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()

	blocker, blocked := p.blocked[queueName]
	return blocker, blocked
}

func (p *processorService) block(queueName, caller string) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if _, blocked := p.blocked[queueName]; blocked {
		return ErrQueueBlocked
	}
	p.blocked[queueName] = caller
	return nil
}

func (p *processorService) unblock(queueName string) {
	p.lock.Lock()
	defer p.lock.Unlock()

	delete(p.blocked, queueName)
}
