// Package custody 资产托管网关实现。
// MySQL 实现把余额存为 decimal 列，划转通过 context 中的事务执行，
// 与账本更新同提交同回滚。
package custody

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/lendingledger/internal/lending/domain"
	pkgdb "github.com/wyfcoding/lendingledger/pkg/db"
)

// AssetAccount 托管资产账户。余额以最小单位计，decimal 列避免驱动层的浮点转换。
type AssetAccount struct {
	gorm.Model
	Account string          `gorm:"column:account;type:varchar(128);uniqueIndex:idx_account_asset;not null"`
	Asset   string          `gorm:"column:asset;type:varchar(32);uniqueIndex:idx_account_asset;not null"`
	Balance decimal.Decimal `gorm:"column:balance;type:decimal(32,0);not null"`
}

func (AssetAccount) TableName() string { return "asset_accounts" }

// MySQLGateway 基于 GORM 的托管网关。
type MySQLGateway struct {
	db *pkgdb.DB
}

// NewMySQLGateway 创建 MySQL 托管网关。
func NewMySQLGateway(db *pkgdb.DB) *MySQLGateway {
	return &MySQLGateway{db: db}
}

// EnsureAccount 开立资产账户，已存在时不做任何修改。
func (g *MySQLGateway) EnsureAccount(ctx context.Context, account, asset string) error {
	tx := pkgdb.TxFrom(ctx, g.db.DB)
	acct := AssetAccount{Account: account, Asset: asset, Balance: decimal.Zero}
	err := tx.Where("account = ? AND asset = ?", account, asset).FirstOrCreate(&acct).Error
	if err != nil {
		return fmt.Errorf("ensure account %s/%s: %w", account, asset, err)
	}
	return nil
}

// Transfer 在两个账户之间划转资产。两行按固定顺序加锁避免死锁；
// 来源余额不足返回 ErrInsufficientFunds，调用方的事务据此回滚。
func (g *MySQLGateway) Transfer(ctx context.Context, asset, from, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}

	tx := pkgdb.TxFrom(ctx, g.db.DB)
	amt := decimal.NewFromUint64(amount)

	first, second := from, to
	if second < first {
		first, second = second, first
	}
	for _, account := range []string{first, second} {
		var acct AssetAccount
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("account = ? AND asset = ?", account, asset).
			First(&acct).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("custody account %s/%s not found: %w", account, asset, domain.ErrInsufficientFunds)
			}
			return fmt.Errorf("lock custody account %s/%s: %w", account, asset, err)
		}
		if account == from && acct.Balance.LessThan(amt) {
			return domain.ErrInsufficientFunds
		}
	}

	err := tx.Model(&AssetAccount{}).
		Where("account = ? AND asset = ?", from, asset).
		Update("balance", gorm.Expr("balance - ?", amt)).Error
	if err != nil {
		return fmt.Errorf("debit %s/%s: %w", from, asset, err)
	}

	err = tx.Model(&AssetAccount{}).
		Where("account = ? AND asset = ?", to, asset).
		Update("balance", gorm.Expr("balance + ?", amt)).Error
	if err != nil {
		return fmt.Errorf("credit %s/%s: %w", to, asset, err)
	}
	return nil
}
