package domain

import (
	"gorm.io/gorm"
)

// UserLedger 用户账本聚合根：抵押余额、借款余额与该用户的全部在贷记录。
// 金额一律使用对应资产的最小单位（uint64）。
// 对同一账本的所有修改必须在仓储的 Update 边界内串行化执行。
type UserLedger struct {
	gorm.Model
	// 用户 ID（业务主键）
	UserID string `gorm:"column:user_id;type:varchar(64);uniqueIndex;not null" json:"user_id"`
	// 未锁定的抵押资产余额。放款时扣减，全额还清时返还；部分还款不动抵押。
	CollateralBalance uint64 `gorm:"column:collateral_balance;not null;default:0" json:"collateral_balance"`
	// 已借出的稳定资产余额
	BorrowedBalance uint64 `gorm:"column:borrowed_balance;not null;default:0" json:"borrowed_balance"`
	// 贷款序号，单调递增，贷款 ID 的唯一来源，永不复用
	LoanSequence uint64 `gorm:"column:loan_sequence;not null;default:0" json:"loan_sequence"`
	// 在贷记录，按贷款 ID 唯一
	Loans []Loan `gorm:"foreignKey:LedgerID" json:"loans"`
}

func (UserLedger) TableName() string { return "user_ledgers" }

// Loan 单笔在贷记录。创建后仅还款可修改（本金减少、计息起点重置），
// 全额还清时整条移除；抵押不存在部分释放。
type Loan struct {
	gorm.Model
	// 所属账本
	LedgerID uint `gorm:"column:ledger_id;index;not null" json:"-"`
	// 账本内唯一的贷款 ID，取自 LoanSequence
	LoanID uint64 `gorm:"column:loan_id;not null" json:"loan_id"`
	// 当前计息窗口的起点（Unix 秒）；部分还款时重置
	OriginatedAt int64 `gorm:"column:originated_at;not null" json:"originated_at"`
	// 仍在计息的未偿本金
	Principal uint64 `gorm:"column:principal;not null" json:"principal"`
	// 放款时按档位固化的年化利率（百分比），终身不变
	APY uint8 `gorm:"column:apy;not null" json:"apy"`
	// 锁定在本笔贷款上的抵押数量，放款时固定
	Collateral uint64 `gorm:"column:collateral;not null" json:"collateral"`
	// 放款时选择并通过校验的 LTV 百分比（审计字段）
	LTV uint8 `gorm:"column:ltv;not null" json:"ltv"`
}

func (Loan) TableName() string { return "loans" }

// RepaymentOutcome 还款结果。
type RepaymentOutcome struct {
	LoanID             uint64 `json:"loan_id"`
	PaymentAmount      uint64 `json:"payment_amount"`
	Full               bool   `json:"full"`
	CollateralReturned uint64 `json:"collateral_returned"`
	InterestPaid       uint64 `json:"interest_paid"`
	RemainingPrincipal uint64 `json:"remaining_principal"`
}

// NewUserLedger 创建空账本。
func NewUserLedger(userID string) *UserLedger {
	return &UserLedger{
		UserID: userID,
		Loans:  []Loan{},
	}
}

// CreditCollateral 入金：无条件增加抵押余额（托管转账确认后调用）。
func (l *UserLedger) CreditCollateral(amount uint64) {
	l.CollateralBalance += amount
}

// DebitCollateral 出金：扣减未锁定的抵押余额，余额不足返回 ErrInsufficientCollateral。
func (l *UserLedger) DebitCollateral(amount uint64) error {
	if l.CollateralBalance < amount {
		return ErrInsufficientCollateral
	}
	l.CollateralBalance -= amount
	return nil
}

// Loan 按贷款 ID 查找在贷记录。
func (l *UserLedger) Loan(loanID uint64) (*Loan, bool) {
	for i := range l.Loans {
		if l.Loans[i].LoanID == loanID {
			return &l.Loans[i], true
		}
	}
	return nil, false
}

// Originate 放款：校验抵押充足后分配新贷款 ID，锁定抵押并记入借款余额。
// collateral 为按报价计算出的必需抵押数量。
func (l *UserLedger) Originate(now int64, borrowAmount uint64, apy uint8, collateral uint64, ltv uint8) (*Loan, error) {
	if l.CollateralBalance < collateral {
		return nil, ErrInsufficientCollateral
	}

	l.LoanSequence++
	loan := Loan{
		LedgerID:     l.ID,
		LoanID:       l.LoanSequence,
		OriginatedAt: now,
		Principal:    borrowAmount,
		APY:          apy,
		Collateral:   collateral,
		LTV:          ltv,
	}
	l.Loans = append(l.Loans, loan)

	l.CollateralBalance -= collateral
	l.BorrowedBalance += borrowAmount

	return &l.Loans[len(l.Loans)-1], nil
}

// Repay 还款。payment 超过当前应还总额（本金+应计利息）时拒绝。
//
// 全额还清：释放抵押、移除贷款。
// 部分还款：利息优先冲抵，剩余本金按参考公式截断计算，计息起点重置为 now；
// 某些金额下未付利息会被并入新本金，属于既定的结转行为。
func (l *UserLedger) Repay(loanID uint64, payment uint64, now int64) (*RepaymentOutcome, error) {
	idx := -1
	for i := range l.Loans {
		if l.Loans[i].LoanID == loanID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrLoanNotFound
	}

	loan := &l.Loans[idx]
	interest := Interest(loan.Principal, loan.APY, loan.OriginatedAt, now)
	totalOwed := loan.Principal + interest

	if payment > totalOwed {
		return nil, ErrRepaymentTooHigh
	}

	l.BorrowedBalance -= payment

	if payment == totalOwed {
		outcome := &RepaymentOutcome{
			LoanID:             loanID,
			PaymentAmount:      payment,
			Full:               true,
			CollateralReturned: loan.Collateral,
			InterestPaid:       interest,
		}
		l.CollateralBalance += loan.Collateral
		l.Loans = append(l.Loans[:idx], l.Loans[idx+1:]...)
		return outcome, nil
	}

	remaining := totalOwed - payment
	var remainingPrincipal uint64
	if remaining > interest {
		remainingPrincipal = remaining - interest
	}
	principalPaid := loan.Principal - remainingPrincipal
	var interestPaid uint64
	if payment > principalPaid {
		interestPaid = payment - principalPaid
	}

	loan.Principal = remainingPrincipal
	loan.OriginatedAt = now

	return &RepaymentOutcome{
		LoanID:             loanID,
		PaymentAmount:      payment,
		Full:               false,
		InterestPaid:       interestPaid,
		RemainingPrincipal: remainingPrincipal,
	}, nil
}
