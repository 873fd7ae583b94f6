package custody

import (
	"context"
	"fmt"
	"sync"

	"github.com/wyfcoding/lendingledger/internal/lending/domain"
)

// MemoryGateway 内存托管网关，开发环境与测试使用。
// 注意：不参与数据库事务，只保证自身操作的原子性。
type MemoryGateway struct {
	mu       sync.Mutex
	balances map[string]uint64
}

// NewMemoryGateway 创建内存托管网关。
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{balances: make(map[string]uint64)}
}

func accountKey(account, asset string) string {
	return fmt.Sprintf("%s/%s", account, asset)
}

// EnsureAccount 开立账户，幂等。
func (g *MemoryGateway) EnsureAccount(ctx context.Context, account, asset string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := accountKey(account, asset)
	if _, ok := g.balances[key]; !ok {
		g.balances[key] = 0
	}
	return nil
}

// Transfer 划转资产，来源余额不足返回 ErrInsufficientFunds。
func (g *MemoryGateway) Transfer(ctx context.Context, asset, from, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	fromKey := accountKey(from, asset)
	if g.balances[fromKey] < amount {
		return domain.ErrInsufficientFunds
	}
	g.balances[fromKey] -= amount
	g.balances[accountKey(to, asset)] += amount
	return nil
}

// Mint 凭空增加余额，用于测试与开发环境的资金初始化。
func (g *MemoryGateway) Mint(ctx context.Context, account, asset string, amount uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.balances[accountKey(account, asset)] += amount
}

// Balance 查询余额。
func (g *MemoryGateway) Balance(account, asset string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balances[accountKey(account, asset)]
}
