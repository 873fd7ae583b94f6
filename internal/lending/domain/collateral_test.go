package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredCollateralReferenceValue(t *testing.T) {
	// (1000 * 100) / (20 * 10000 / 10000) = 100000 / 20 = 5000
	required, err := RequiredCollateral(1000, 20, 10000)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), required)
}

func TestRequiredCollateralTruncatesEachStep(t *testing.T) {
	// denominator = 33 * 15000 / 10000 = 49 (truncated from 49.5),
	// required = 100000 / 49 = 2040. A reordered computation would give 2020.
	required, err := RequiredCollateral(1000, 33, 15000)
	require.NoError(t, err)
	assert.Equal(t, uint64(2040), required)
}

func TestRequiredCollateralTable(t *testing.T) {
	tests := []struct {
		name   string
		borrow uint64
		ltv    uint8
		price  uint64
		want   uint64
	}{
		{name: "tier 33 even price", borrow: 1000, ltv: 33, price: 10000, want: 3030},
		{name: "tier 50", borrow: 1000, ltv: 50, price: 10000, want: 2000},
		{name: "tier 25", borrow: 500, ltv: 25, price: 20000, want: 1000},
		{name: "zero borrow", borrow: 0, ltv: 20, price: 10000, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			required, err := RequiredCollateral(tt.borrow, tt.ltv, tt.price)
			require.NoError(t, err)
			assert.Equal(t, tt.want, required)
		})
	}
}

func TestRequiredCollateralDegeneratePrice(t *testing.T) {
	_, err := RequiredCollateral(1000, 20, 0)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	// 20 * 400 / 10000 floors to 0: must refuse the division.
	_, err = RequiredCollateral(1000, 20, 400)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}
