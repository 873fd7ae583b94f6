// Package oracle 报价源客户端。
package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/wyfcoding/lendingledger/internal/lending/domain"
)

// HTTPOracle 基于 HTTP 的报价客户端。每次调用都实时拉取，绝不缓存报价。
type HTTPOracle struct {
	client *resty.Client
}

// NewHTTPOracle 创建 HTTP 报价客户端。
func NewHTTPOracle(baseURL string, timeout time.Duration) *HTTPOracle {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(100 * time.Millisecond)
	return &HTTPOracle{client: client}
}

type priceResponse struct {
	FeedID    string `json:"feed_id"`
	Price     uint64 `json:"price"`
	Timestamp int64  `json:"timestamp"`
}

// LatestPrice 拉取指定价格源的最新报价。任何传输或协议错误都映射为
// ErrQuoteUnavailable，放款流程据此整体失败。
func (o *HTTPOracle) LatestPrice(ctx context.Context, feedID string) (uint64, error) {
	var out priceResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("feed_id", feedID).
		Get("/api/v1/feeds/{feed_id}/latest")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("%w: feed %s returned status %d", domain.ErrQuoteUnavailable, feedID, resp.StatusCode())
	}
	return out.Price, nil
}

// StaticOracle 固定报价源，开发环境与测试使用。
type StaticOracle struct {
	price uint64
}

// NewStaticOracle 创建固定报价源。
func NewStaticOracle(price uint64) *StaticOracle {
	return &StaticOracle{price: price}
}

// LatestPrice 返回固定报价。
func (o *StaticOracle) LatestPrice(ctx context.Context, feedID string) (uint64, error) {
	return o.price, nil
}
