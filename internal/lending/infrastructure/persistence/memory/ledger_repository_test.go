package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/lendingledger/internal/lending/domain"
)

func TestCreateAndGet(t *testing.T) {
	repo := NewLedgerRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, domain.NewUserLedger("alice")))

	err := repo.Create(ctx, domain.NewUserLedger("alice"))
	assert.ErrorIs(t, err, domain.ErrLedgerExists)

	ledger, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", ledger.UserID)

	_, err = repo.Get(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrLedgerNotFound)
}

func TestGetReturnsSnapshot(t *testing.T) {
	repo := NewLedgerRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, domain.NewUserLedger("alice")))

	ledger, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	ledger.CreditCollateral(9999)

	fresh, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), fresh.CollateralBalance)
}

func TestUpdateFailureLeavesStateUntouched(t *testing.T) {
	repo := NewLedgerRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, domain.NewUserLedger("alice")))

	boom := errors.New("boom")
	err := repo.Update(ctx, "alice", func(ctx context.Context, l *domain.UserLedger) error {
		l.CreditCollateral(5000)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ledger, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), ledger.CollateralBalance)
}

func TestUpdateSerializesPerUser(t *testing.T) {
	repo := NewLedgerRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, domain.NewUserLedger("alice")))

	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.Update(ctx, "alice", func(ctx context.Context, l *domain.UserLedger) error {
				l.CreditCollateral(1)
				return nil
			})
		}()
	}
	wg.Wait()

	ledger, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(workers), ledger.CollateralBalance)
}

func TestUpdateUnknownUser(t *testing.T) {
	repo := NewLedgerRepository()
	err := repo.Update(context.Background(), "ghost", func(ctx context.Context, l *domain.UserLedger) error {
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrLedgerNotFound)
}
