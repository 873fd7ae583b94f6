// Package memory 提供内存账本仓储，用于开发环境与测试。
// 通过每用户互斥锁 + 写时复制实现串行化与全有或全无的更新语义。
package memory

import (
	"context"
	"sync"

	"github.com/wyfcoding/lendingledger/internal/lending/domain"
)

// LedgerRepository 内存账本仓储。
type LedgerRepository struct {
	mu      sync.RWMutex
	ledgers map[string]*domain.UserLedger
	locks   map[string]*sync.Mutex
}

// NewLedgerRepository 创建内存账本仓储。
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		ledgers: make(map[string]*domain.UserLedger),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Create 创建新账本。
func (r *LedgerRepository) Create(ctx context.Context, ledger *domain.UserLedger) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ledgers[ledger.UserID]; ok {
		return domain.ErrLedgerExists
	}
	r.ledgers[ledger.UserID] = cloneLedger(ledger)
	return nil
}

// Get 返回账本快照。
func (r *LedgerRepository) Get(ctx context.Context, userID string) (*domain.UserLedger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ledger, ok := r.ledgers[userID]
	if !ok {
		return nil, domain.ErrLedgerNotFound
	}
	return cloneLedger(ledger), nil
}

// Update 在该用户的互斥锁内执行回调。回调在账本副本上操作，
// 成功时整体换入，失败时副本被丢弃，不留任何残余修改。
func (r *LedgerRepository) Update(ctx context.Context, userID string, fn func(ctx context.Context, ledger *domain.UserLedger) error) error {
	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	current, ok := r.ledgers[userID]
	r.mu.RUnlock()
	if !ok {
		return domain.ErrLedgerNotFound
	}

	working := cloneLedger(current)
	if err := fn(ctx, working); err != nil {
		return err
	}

	r.mu.Lock()
	r.ledgers[userID] = working
	r.mu.Unlock()
	return nil
}

func (r *LedgerRepository) userLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[userID] = lock
	}
	return lock
}

func cloneLedger(l *domain.UserLedger) *domain.UserLedger {
	clone := *l
	clone.Loans = make([]domain.Loan, len(l.Loans))
	copy(clone.Loans, l.Loans)
	return &clone
}
