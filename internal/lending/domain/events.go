package domain

// 事件主题，账本事务提交后发布。
const (
	TopicLoanCreated      = "lending.loan.created"
	TopicLoanRepaid       = "lending.loan.repaid"
	TopicPartialRepayment = "lending.loan.partially_repaid"
)

// LoanCreatedEvent 放款成功事件。
type LoanCreatedEvent struct {
	LoanID       uint64 `json:"loan_id"`
	Borrower     string `json:"borrower"`
	BorrowAmount uint64 `json:"borrow_amount"`
	Collateral   uint64 `json:"collateral"`
	LTV          uint8  `json:"ltv"`
	APY          uint8  `json:"apy"`
	CreatedAt    int64  `json:"created_at"`
}

// LoanRepaidEvent 全额还清事件。
type LoanRepaidEvent struct {
	LoanID             uint64 `json:"loan_id"`
	Borrower           string `json:"borrower"`
	PaymentAmount      uint64 `json:"payment_amount"`
	CollateralReturned uint64 `json:"collateral_returned"`
	InterestPaid       uint64 `json:"interest_paid"`
	RepaidAt           int64  `json:"repaid_at"`
}

// PartialRepaymentEvent 部分还款事件。
type PartialRepaymentEvent struct {
	LoanID             uint64 `json:"loan_id"`
	Borrower           string `json:"borrower"`
	PaymentAmount      uint64 `json:"payment_amount"`
	RemainingPrincipal uint64 `json:"remaining_principal"`
	InterestPaid       uint64 `json:"interest_paid"`
	RepaidAt           int64  `json:"repaid_at"`
}
