// Package redis 账本读模型缓存。只加速 Get 查询，写路径永远直达主仓储。
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/lendingledger/internal/lending/domain"
	"github.com/wyfcoding/lendingledger/pkg/cache"
	"github.com/wyfcoding/lendingledger/pkg/logger"
)

const ledgerTTL = 5 * time.Minute

// LedgerCache 账本快照缓存。
type LedgerCache struct {
	cache *cache.RedisCache
}

// NewLedgerCache 创建账本缓存。
func NewLedgerCache(c *cache.RedisCache) *LedgerCache {
	return &LedgerCache{cache: c}
}

func ledgerKey(userID string) string {
	return fmt.Sprintf("lending:ledger:%s", userID)
}

// Get 读取缓存中的账本快照，未命中返回 (nil, nil)。
func (c *LedgerCache) Get(ctx context.Context, userID string) (*domain.UserLedger, error) {
	var ledger domain.UserLedger
	hit, err := c.cache.GetJSON(ctx, ledgerKey(userID), &ledger)
	if err != nil {
		return nil, err
	}
	if !hit {
		return nil, nil
	}
	return &ledger, nil
}

// Set 写入账本快照。
func (c *LedgerCache) Set(ctx context.Context, ledger *domain.UserLedger) error {
	return c.cache.SetJSON(ctx, ledgerKey(ledger.UserID), ledger, ledgerTTL)
}

// Invalidate 使账本快照失效，账本每次变更后调用。
func (c *LedgerCache) Invalidate(ctx context.Context, userID string) {
	if err := c.cache.Delete(ctx, ledgerKey(userID)); err != nil {
		// 缓存失效失败不阻塞主流程，最多让读模型旧 ledgerTTL
		logger.Warn(ctx, "failed to invalidate ledger cache", "user_id", userID, "error", err)
	}
}
