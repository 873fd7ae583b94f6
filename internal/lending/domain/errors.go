package domain

import "errors"

var (
	ErrInvalidLTV             = errors.New("invalid LTV ratio")
	ErrInsufficientCollateral = errors.New("insufficient collateral for loan")
	ErrLoanNotFound           = errors.New("loan not found")
	ErrRepaymentTooHigh       = errors.New("repayment amount exceeds total owed")
	ErrInsufficientFunds      = errors.New("insufficient funds for transfer")
	ErrQuoteUnavailable       = errors.New("price quote unavailable")
	ErrInvalidPrice           = errors.New("price too small to size collateral")
	ErrLedgerNotFound         = errors.New("user ledger not found")
	ErrLedgerExists           = errors.New("user ledger already exists")
)
