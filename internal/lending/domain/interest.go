package domain

// SecondsPerYear 按 365 天折算的年秒数，用于单利计息。
const SecondsPerYear = 31_536_000

// Interest 计算自计息起点以来的单利（不复利），全程截断整数除法：
//
//	interest = elapsed * apy * principal / (SecondsPerYear * 100)
//
// now 早于计息起点时按零处理。
func Interest(principal uint64, apy uint8, originatedAt, now int64) uint64 {
	if now <= originatedAt {
		return 0
	}
	elapsed := uint64(now - originatedAt)
	return elapsed * uint64(apy) * principal / (SecondsPerYear * 100)
}
