package domain

import "context"

// CustodyGateway 资产托管协作方：在账户之间划转资产。
// 每次余额变动调用且仅调用一次；实现必须与外层账本事务同失败同回滚。
// 来源账户余额不足时返回 ErrInsufficientFunds。
type CustodyGateway interface {
	// EnsureAccount 开立资产账户，已存在时幂等返回。
	EnsureAccount(ctx context.Context, account, asset string) error
	Transfer(ctx context.Context, asset, from, to string, amount uint64) error
}

// PriceOracle 报价协作方：按价格源 ID 返回抵押资产的当前整数报价。
// 每次放款恰好调用一次，调用间不得缓存。失败返回 ErrQuoteUnavailable。
type PriceOracle interface {
	LatestPrice(ctx context.Context, feedID string) (uint64, error)
}

// EventPublisher 通知协作方：账本事务提交后发布结构化事件。
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}
