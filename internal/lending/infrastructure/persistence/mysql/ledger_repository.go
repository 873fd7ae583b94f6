// Package mysql 基于 GORM 的账本仓储实现。
// Update 在单个数据库事务内对账本行加排它锁，保证同一用户的操作串行化；
// 事务通过 context 传递，托管网关等协作方可加入同一事务。
package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/lendingledger/internal/lending/domain"
	pkgdb "github.com/wyfcoding/lendingledger/pkg/db"
)

// LedgerRepository MySQL 账本仓储。
type LedgerRepository struct {
	db *pkgdb.DB
}

// NewLedgerRepository 创建 MySQL 账本仓储。
func NewLedgerRepository(db *pkgdb.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Create 创建新账本，用户 ID 冲突时返回 ErrLedgerExists。
func (r *LedgerRepository) Create(ctx context.Context, ledger *domain.UserLedger) error {
	tx := pkgdb.TxFrom(ctx, r.db.DB)
	if err := tx.Create(ledger).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrLedgerExists
		}
		return fmt.Errorf("create ledger: %w", err)
	}
	return nil
}

// Get 读取账本及其全部在贷记录。
func (r *LedgerRepository) Get(ctx context.Context, userID string) (*domain.UserLedger, error) {
	tx := pkgdb.TxFrom(ctx, r.db.DB)

	var ledger domain.UserLedger
	err := tx.Where("user_id = ?", userID).First(&ledger).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLedgerNotFound
		}
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	if err := tx.Where("ledger_id = ?", ledger.ID).Order("loan_id").Find(&ledger.Loans).Error; err != nil {
		return nil, fmt.Errorf("load loans: %w", err)
	}
	return &ledger, nil
}

// Update 在事务中锁定账本行，执行回调后把账本与贷款行写回。
// 回调返回错误时整个事务回滚，数据库状态与调用前一致。
func (r *LedgerRepository) Update(ctx context.Context, userID string, fn func(ctx context.Context, ledger *domain.UserLedger) error) error {
	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		var ledger domain.UserLedger
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&ledger).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrLedgerNotFound
			}
			return fmt.Errorf("lock ledger: %w", err)
		}

		if err := tx.Where("ledger_id = ?", ledger.ID).Order("loan_id").Find(&ledger.Loans).Error; err != nil {
			return fmt.Errorf("load loans: %w", err)
		}

		if err := fn(pkgdb.NewTxContext(ctx, tx), &ledger); err != nil {
			return err
		}

		return r.flush(tx, &ledger)
	})
}

// flush 把内存中的账本状态同步回数据库：余额字段更新、贷款行插入或更新、
// 已还清的贷款行删除。
func (r *LedgerRepository) flush(tx *gorm.DB, ledger *domain.UserLedger) error {
	err := tx.Model(&domain.UserLedger{}).
		Where("id = ?", ledger.ID).
		Updates(map[string]any{
			"collateral_balance": ledger.CollateralBalance,
			"borrowed_balance":   ledger.BorrowedBalance,
			"loan_sequence":      ledger.LoanSequence,
		}).Error
	if err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}

	kept := make([]uint64, 0, len(ledger.Loans))
	for i := range ledger.Loans {
		loan := &ledger.Loans[i]
		loan.LedgerID = ledger.ID
		if err := tx.Save(loan).Error; err != nil {
			return fmt.Errorf("save loan %d: %w", loan.LoanID, err)
		}
		kept = append(kept, loan.LoanID)
	}

	del := tx.Where("ledger_id = ?", ledger.ID)
	if len(kept) > 0 {
		del = del.Where("loan_id NOT IN ?", kept)
	}
	if err := del.Delete(&domain.Loan{}).Error; err != nil {
		return fmt.Errorf("delete repaid loans: %w", err)
	}
	return nil
}
