package domain

import "context"

// LedgerRepository 账本仓储接口。
//
// Update 是并发契约的落点：实现必须保证对同一 userID 的回调串行执行，
// 且回调返回错误时账本不留下任何残余修改（全有或全无）。
// 不同用户之间的 Update 可以并行。
type LedgerRepository interface {
	// Create 创建新账本；同一用户重复创建返回 ErrLedgerExists。
	Create(ctx context.Context, ledger *UserLedger) error
	// Get 返回账本只读快照；不存在返回 ErrLedgerNotFound。
	Get(ctx context.Context, userID string) (*UserLedger, error)
	// Update 在串行化、原子的边界内加载并修改账本。
	// 回调收到的 ctx 携带事务（如有），供同事务的协作方实现共享。
	Update(ctx context.Context, userID string, fn func(ctx context.Context, ledger *UserLedger) error) error
}
