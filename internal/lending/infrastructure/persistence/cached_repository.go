// Package persistence 组合仓储：主仓储负责一致性，Redis 缓存加速读路径。
package persistence

import (
	"context"

	"github.com/wyfcoding/lendingledger/internal/lending/domain"
	redisrepo "github.com/wyfcoding/lendingledger/internal/lending/infrastructure/persistence/redis"
)

// CachedLedgerRepository 带读缓存的账本仓储装饰器。
// 所有写操作透传给主仓储，成功后使缓存失效；Get 优先走缓存。
type CachedLedgerRepository struct {
	primary domain.LedgerRepository
	cache   *redisrepo.LedgerCache
}

// NewCachedLedgerRepository 创建带缓存的仓储。
func NewCachedLedgerRepository(primary domain.LedgerRepository, cache *redisrepo.LedgerCache) *CachedLedgerRepository {
	return &CachedLedgerRepository{primary: primary, cache: cache}
}

// Create 创建账本。
func (r *CachedLedgerRepository) Create(ctx context.Context, ledger *domain.UserLedger) error {
	return r.primary.Create(ctx, ledger)
}

// Get 先查缓存，未命中时回源并回填。缓存故障时降级为直读主仓储。
func (r *CachedLedgerRepository) Get(ctx context.Context, userID string) (*domain.UserLedger, error) {
	if cached, err := r.cache.Get(ctx, userID); err == nil && cached != nil {
		return cached, nil
	}

	ledger, err := r.primary.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 回填失败忽略，下次 Get 再试
	_ = r.cache.Set(ctx, ledger)
	return ledger, nil
}

// Update 透传给主仓储，提交成功后使缓存失效。
func (r *CachedLedgerRepository) Update(ctx context.Context, userID string, fn func(ctx context.Context, ledger *domain.UserLedger) error) error {
	if err := r.primary.Update(ctx, userID, fn); err != nil {
		return err
	}
	r.cache.Invalidate(ctx, userID)
	return nil
}
