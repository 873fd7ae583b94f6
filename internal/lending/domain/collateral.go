package domain

// priceScale 报价的定点刻度：价格以稳定资产最小单位计价，放大 10000 倍。
const priceScale = 10_000

// RequiredCollateral 根据借款金额、LTV 档位和当前报价计算需要锁定的抵押数量。
//
// 计算必须逐步使用截断整数除法，且不可调整运算顺序：
//
//	required = (borrowAmount * 100) / (ltv * price / 10000)
//
// 报价为零、或分母向下取整为零时返回 ErrInvalidPrice，而不是执行除法。
func RequiredCollateral(borrowAmount uint64, ltv uint8, price uint64) (uint64, error) {
	if price == 0 {
		return 0, ErrInvalidPrice
	}
	denominator := uint64(ltv) * price / priceScale
	if denominator == 0 {
		return 0, ErrInvalidPrice
	}
	return borrowAmount * 100 / denominator, nil
}
