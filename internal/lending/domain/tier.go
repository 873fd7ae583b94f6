package domain

// loanTiers 固定的 LTV 档位表：LTV 百分比 → 年化利率百分比。
// 档位表是产品契约的一部分；贷款在放款时固化当时的 APY，之后不再复核。
var loanTiers = map[uint8]uint8{
	20: 0,
	25: 1,
	33: 5,
	50: 8,
}

// ValidateLTV 校验 LTV 档位并返回对应的年化利率。
// 不在档位表中的 LTV 返回 ErrInvalidLTV。
func ValidateLTV(ltv uint8) (uint8, error) {
	apy, ok := loanTiers[ltv]
	if !ok {
		return 0, ErrInvalidLTV
	}
	return apy, nil
}

// Tiers 返回档位表的副本，供只读展示使用。
func Tiers() map[uint8]uint8 {
	out := make(map[uint8]uint8, len(loanTiers))
	for ltv, apy := range loanTiers {
		out[ltv] = apy
	}
	return out
}
