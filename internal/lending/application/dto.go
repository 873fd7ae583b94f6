package application

import "github.com/wyfcoding/lendingledger/internal/lending/domain"

// LoanView 贷款视图，应计利息与应还总额在读取时刻计算。
type LoanView struct {
	LoanID          uint64 `json:"loan_id"`
	Principal       uint64 `json:"principal"`
	APY             uint8  `json:"apy"`
	LTV             uint8  `json:"ltv"`
	Collateral      uint64 `json:"collateral"`
	OriginatedAt    int64  `json:"originated_at"`
	AccruedInterest uint64 `json:"accrued_interest"`
	TotalOwed       uint64 `json:"total_owed"`
}

// LedgerView 账本视图。
type LedgerView struct {
	UserID            string     `json:"user_id"`
	CollateralBalance uint64     `json:"collateral_balance"`
	BorrowedBalance   uint64     `json:"borrowed_balance"`
	Loans             []LoanView `json:"loans"`
}

func newLedgerView(ledger *domain.UserLedger, now int64) *LedgerView {
	view := &LedgerView{
		UserID:            ledger.UserID,
		CollateralBalance: ledger.CollateralBalance,
		BorrowedBalance:   ledger.BorrowedBalance,
		Loans:             make([]LoanView, 0, len(ledger.Loans)),
	}
	for i := range ledger.Loans {
		loan := &ledger.Loans[i]
		interest := domain.Interest(loan.Principal, loan.APY, loan.OriginatedAt, now)
		view.Loans = append(view.Loans, LoanView{
			LoanID:          loan.LoanID,
			Principal:       loan.Principal,
			APY:             loan.APY,
			LTV:             loan.LTV,
			Collateral:      loan.Collateral,
			OriginatedAt:    loan.OriginatedAt,
			AccruedInterest: interest,
			TotalOwed:       loan.Principal + interest,
		})
	}
	return view
}
