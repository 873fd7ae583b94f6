package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNow = int64(1_700_000_000)

func fundedLedger(collateral uint64) *UserLedger {
	l := NewUserLedger("alice")
	l.CreditCollateral(collateral)
	return l
}

func TestDebitCollateral(t *testing.T) {
	l := fundedLedger(5000)

	require.NoError(t, l.DebitCollateral(2000))
	assert.Equal(t, uint64(3000), l.CollateralBalance)

	err := l.DebitCollateral(3001)
	assert.ErrorIs(t, err, ErrInsufficientCollateral)
	assert.Equal(t, uint64(3000), l.CollateralBalance)
}

func TestOriginate(t *testing.T) {
	l := fundedLedger(6000)

	loan, err := l.Originate(testNow, 1000, 0, 5000, 20)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), loan.LoanID)
	assert.Equal(t, testNow, loan.OriginatedAt)
	assert.Equal(t, uint64(1000), loan.Principal)
	assert.Equal(t, uint8(0), loan.APY)
	assert.Equal(t, uint64(5000), loan.Collateral)
	assert.Equal(t, uint8(20), loan.LTV)

	assert.Equal(t, uint64(1000), l.CollateralBalance)
	assert.Equal(t, uint64(1000), l.BorrowedBalance)
	assert.Equal(t, uint64(1), l.LoanSequence)
	assert.Len(t, l.Loans, 1)
}

func TestOriginateInsufficientCollateral(t *testing.T) {
	l := fundedLedger(4999)

	_, err := l.Originate(testNow, 1000, 0, 5000, 20)
	assert.ErrorIs(t, err, ErrInsufficientCollateral)

	// nothing may have moved
	assert.Equal(t, uint64(4999), l.CollateralBalance)
	assert.Equal(t, uint64(0), l.BorrowedBalance)
	assert.Equal(t, uint64(0), l.LoanSequence)
	assert.Empty(t, l.Loans)
}

func TestRepayFullAtOrigination(t *testing.T) {
	l := fundedLedger(6000)
	_, err := l.Originate(testNow, 1000, 0, 5000, 20)
	require.NoError(t, err)

	outcome, err := l.Repay(1, 1000, testNow)
	require.NoError(t, err)

	assert.True(t, outcome.Full)
	assert.Equal(t, uint64(5000), outcome.CollateralReturned)
	assert.Equal(t, uint64(0), outcome.InterestPaid)

	assert.Equal(t, uint64(6000), l.CollateralBalance)
	assert.Equal(t, uint64(0), l.BorrowedBalance)
	assert.Empty(t, l.Loans)
}

func TestRepayUnknownLoan(t *testing.T) {
	l := fundedLedger(6000)
	_, err := l.Repay(42, 100, testNow)
	assert.ErrorIs(t, err, ErrLoanNotFound)
}

func TestRepayTooHighLeavesStateUntouched(t *testing.T) {
	l := fundedLedger(6000)
	_, err := l.Originate(testNow, 1000, 0, 5000, 20)
	require.NoError(t, err)

	_, err = l.Repay(1, 1001, testNow)
	assert.ErrorIs(t, err, ErrRepaymentTooHigh)

	assert.Equal(t, uint64(1000), l.CollateralBalance)
	assert.Equal(t, uint64(1000), l.BorrowedBalance)
	require.Len(t, l.Loans, 1)
	assert.Equal(t, uint64(1000), l.Loans[0].Principal)
	assert.Equal(t, testNow, l.Loans[0].OriginatedAt)
}

func TestRepayPartialPrincipalOnly(t *testing.T) {
	l := fundedLedger(6000)
	_, err := l.Originate(testNow, 1000, 0, 5000, 20)
	require.NoError(t, err)

	later := testNow + 3600
	outcome, err := l.Repay(1, 400, later)
	require.NoError(t, err)

	assert.False(t, outcome.Full)
	assert.Equal(t, uint64(600), outcome.RemainingPrincipal)
	assert.Equal(t, uint64(0), outcome.InterestPaid)
	assert.Equal(t, uint64(0), outcome.CollateralReturned)

	// collateral stays locked on partial repayment
	assert.Equal(t, uint64(1000), l.CollateralBalance)
	assert.Equal(t, uint64(600), l.BorrowedBalance)
	require.Len(t, l.Loans, 1)
	assert.Equal(t, uint64(600), l.Loans[0].Principal)
	assert.Equal(t, later, l.Loans[0].OriginatedAt)
	assert.Equal(t, uint64(5000), l.Loans[0].Collateral)
}

// elapsedFor100 is the elapsed time after which an 8% loan of principal 1000
// has accrued exactly 100 units of interest.
const elapsedFor100 = int64(100) * SecondsPerYear * 100 / (8 * 1000)

func TestRepayPartialInterestFirst(t *testing.T) {
	l := fundedLedger(6000)
	_, err := l.Originate(testNow, 1000, 8, 5000, 50)
	require.NoError(t, err)

	later := testNow + elapsedFor100
	require.Equal(t, uint64(100), Interest(1000, 8, testNow, later))

	// total owed 1100; paying 1090 leaves 10, all of it unpaid interest:
	// remaining principal floors at 0 and 90 of the payment counts as interest.
	outcome, err := l.Repay(1, 1090, later)
	require.NoError(t, err)

	assert.False(t, outcome.Full)
	assert.Equal(t, uint64(0), outcome.RemainingPrincipal)
	assert.Equal(t, uint64(90), outcome.InterestPaid)

	require.Len(t, l.Loans, 1)
	assert.Equal(t, uint64(0), l.Loans[0].Principal)
	assert.Equal(t, later, l.Loans[0].OriginatedAt)

	// a zero-principal loan owes nothing and closes with a zero payment
	final, err := l.Repay(1, 0, later+3600)
	require.NoError(t, err)
	assert.True(t, final.Full)
	assert.Equal(t, uint64(5000), final.CollateralReturned)
	assert.Empty(t, l.Loans)
}

func TestRepayPartialCapitalizesUnpaidInterest(t *testing.T) {
	l := fundedLedger(6000)
	_, err := l.Originate(testNow, 1000, 8, 5000, 50)
	require.NoError(t, err)

	later := testNow + elapsedFor100

	// total owed 1100; paying 50 leaves 1050, of which 100 is interest,
	// so the new principal is 950: 50 of unpaid interest has been
	// capitalized into principal. This carry-over is intentional.
	outcome, err := l.Repay(1, 50, later)
	require.NoError(t, err)

	assert.False(t, outcome.Full)
	assert.Equal(t, uint64(950), outcome.RemainingPrincipal)
	assert.Equal(t, uint64(0), outcome.InterestPaid)
	assert.Equal(t, uint64(950), l.Loans[0].Principal)
}

func TestRepeatedPartialRepaymentsConverge(t *testing.T) {
	l := fundedLedger(6000)
	_, err := l.Originate(testNow, 1000, 8, 5000, 50)
	require.NoError(t, err)

	now := testNow
	for i := 0; i < 100; i++ {
		loan, ok := l.Loan(1)
		require.True(t, ok)

		now += 3600
		interest := Interest(loan.Principal, loan.APY, loan.OriginatedAt, now)
		totalOwed := loan.Principal + interest

		payment := uint64(100)
		if payment >= totalOwed {
			outcome, err := l.Repay(1, totalOwed, now)
			require.NoError(t, err)
			require.True(t, outcome.Full)
			break
		}

		_, err := l.Repay(1, payment, now)
		require.NoError(t, err)
	}

	assert.Empty(t, l.Loans, "repeated partial repayments must eventually close the loan")
	assert.Equal(t, uint64(6000), l.CollateralBalance)
	assert.Equal(t, uint64(0), l.BorrowedBalance)
}

func TestLoanIDsNeverReused(t *testing.T) {
	l := fundedLedger(20000)

	loan1, err := l.Originate(testNow, 1000, 0, 5000, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), loan1.LoanID)

	_, err = l.Repay(1, 1000, testNow)
	require.NoError(t, err)

	loan2, err := l.Originate(testNow, 1000, 0, 5000, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), loan2.LoanID)
}
