// Package application 借贷账本应用服务：编排仓储、托管、报价与事件发布。
// 所有账本变更都在仓储的 Update 边界内执行，托管划转通过 context 加入
// 同一事务；事件只在提交成功后发布。
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/lendingledger/internal/lending/domain"
	"github.com/wyfcoding/lendingledger/pkg/logger"
	"github.com/wyfcoding/lendingledger/pkg/metrics"
)

// 托管账户命名约定。抵押资产存入金库账户，稳定资产从资金池放出。
const (
	PoolAccount  = "pool"
	VaultAccount = "vault"
)

// UserAccount 返回用户在托管侧的账户 ID。
func UserAccount(userID string) string {
	return "user:" + userID
}

// Assets 借贷业务的资产与价格源配置。
type Assets struct {
	Collateral  string
	Stable      string
	PriceFeedID string
}

// LendingService 借贷账本应用服务。
type LendingService struct {
	repo      domain.LedgerRepository
	custody   domain.CustodyGateway
	oracle    domain.PriceOracle
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	assets    Assets
	now       func() int64
}

// NewLendingService 创建应用服务。
func NewLendingService(
	repo domain.LedgerRepository,
	custody domain.CustodyGateway,
	oracle domain.PriceOracle,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	assets Assets,
) *LendingService {
	return &LendingService{
		repo:      repo,
		custody:   custody,
		oracle:    oracle,
		publisher: publisher,
		metrics:   m,
		assets:    assets,
		now:       func() int64 { return time.Now().Unix() },
	}
}

// OpenAccount 初始化用户：创建空账本并开立两种资产的托管账户。
// 账本已存在时返回 ErrLedgerExists。
func (s *LendingService) OpenAccount(ctx context.Context, userID string) error {
	if err := s.repo.Create(ctx, domain.NewUserLedger(userID)); err != nil {
		return err
	}

	account := UserAccount(userID)
	if err := s.custody.EnsureAccount(ctx, account, s.assets.Collateral); err != nil {
		return err
	}
	if err := s.custody.EnsureAccount(ctx, account, s.assets.Stable); err != nil {
		return err
	}

	logger.Info(ctx, "account opened", "user_id", userID)
	return nil
}

// DepositCollateral 把抵押资产从用户托管账户转入金库并记入账本余额。
func (s *LendingService) DepositCollateral(ctx context.Context, userID string, amount uint64) error {
	err := s.repo.Update(ctx, userID, func(ctx context.Context, ledger *domain.UserLedger) error {
		if err := s.custody.Transfer(ctx, s.assets.Collateral, UserAccount(userID), VaultAccount, amount); err != nil {
			return err
		}
		ledger.CreditCollateral(amount)
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "collateral deposited", "user_id", userID, "amount", amount)
	return nil
}

// WithdrawCollateral 提取未锁定的抵押：扣减账本余额并从金库转回用户账户。
func (s *LendingService) WithdrawCollateral(ctx context.Context, userID string, amount uint64) error {
	err := s.repo.Update(ctx, userID, func(ctx context.Context, ledger *domain.UserLedger) error {
		if err := ledger.DebitCollateral(amount); err != nil {
			return err
		}
		return s.custody.Transfer(ctx, s.assets.Collateral, VaultAccount, UserAccount(userID), amount)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "collateral withdrawn", "user_id", userID, "amount", amount)
	return nil
}

// Originate 放款。可附带一笔抵押入金（depositAmount > 0 时先划转入金库），
// 随后拉取实时报价、按档位校验 LTV、计算必需抵押并锁定，最后把借款
// 从资金池划转给用户。任一步失败时整笔操作回滚，账本与托管均不变。
func (s *LendingService) Originate(ctx context.Context, userID string, depositAmount, borrowAmount uint64, ltv uint8) (*LoanView, error) {
	apy, err := domain.ValidateLTV(ltv)
	if err != nil {
		return nil, err
	}

	var created domain.Loan
	err = s.repo.Update(ctx, userID, func(ctx context.Context, ledger *domain.UserLedger) error {
		if depositAmount > 0 {
			if err := s.custody.Transfer(ctx, s.assets.Collateral, UserAccount(userID), VaultAccount, depositAmount); err != nil {
				return err
			}
			ledger.CreditCollateral(depositAmount)
		}

		price, err := s.oracle.LatestPrice(ctx, s.assets.PriceFeedID)
		if err != nil {
			return err
		}

		required, err := domain.RequiredCollateral(borrowAmount, ltv, price)
		if err != nil {
			return err
		}

		loan, err := ledger.Originate(s.now(), borrowAmount, apy, required, ltv)
		if err != nil {
			return err
		}

		if err := s.custody.Transfer(ctx, s.assets.Stable, PoolAccount, UserAccount(userID), borrowAmount); err != nil {
			return err
		}

		created = *loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.TopicLoanCreated, userID, domain.LoanCreatedEvent{
		LoanID:       created.LoanID,
		Borrower:     userID,
		BorrowAmount: created.Principal,
		Collateral:   created.Collateral,
		LTV:          created.LTV,
		APY:          created.APY,
		CreatedAt:    created.OriginatedAt,
	})
	s.metrics.LoansOriginatedTotal.Inc()
	s.metrics.LoansActive.Inc()

	logger.Info(ctx, "loan originated",
		"user_id", userID,
		"loan_id", created.LoanID,
		"borrow_amount", created.Principal,
		"collateral", created.Collateral,
		"ltv", created.LTV,
	)

	return &LoanView{
		LoanID:       created.LoanID,
		Principal:    created.Principal,
		APY:          created.APY,
		LTV:          created.LTV,
		Collateral:   created.Collateral,
		OriginatedAt: created.OriginatedAt,
		TotalOwed:    created.Principal,
	}, nil
}

// Repay 还款。支付额超出应还总额时拒绝；恰好等于时关闭贷款并释放抵押，
// 小于时利息优先冲抵、减记本金并重置计息起点。稳定资产从用户账户划回资金池。
func (s *LendingService) Repay(ctx context.Context, userID string, loanID, payment uint64) (*domain.RepaymentOutcome, error) {
	var outcome *domain.RepaymentOutcome
	err := s.repo.Update(ctx, userID, func(ctx context.Context, ledger *domain.UserLedger) error {
		result, err := ledger.Repay(loanID, payment, s.now())
		if err != nil {
			return err
		}
		if payment > 0 {
			if err := s.custody.Transfer(ctx, s.assets.Stable, UserAccount(userID), PoolAccount, payment); err != nil {
				return err
			}
		}
		outcome = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	repaidAt := s.now()
	if outcome.Full {
		s.publish(ctx, domain.TopicLoanRepaid, userID, domain.LoanRepaidEvent{
			LoanID:             outcome.LoanID,
			Borrower:           userID,
			PaymentAmount:      outcome.PaymentAmount,
			CollateralReturned: outcome.CollateralReturned,
			InterestPaid:       outcome.InterestPaid,
			RepaidAt:           repaidAt,
		})
		s.metrics.LoansRepaidTotal.Inc()
		s.metrics.LoansActive.Dec()
	} else {
		s.publish(ctx, domain.TopicPartialRepayment, userID, domain.PartialRepaymentEvent{
			LoanID:             outcome.LoanID,
			Borrower:           userID,
			PaymentAmount:      outcome.PaymentAmount,
			RemainingPrincipal: outcome.RemainingPrincipal,
			InterestPaid:       outcome.InterestPaid,
			RepaidAt:           repaidAt,
		})
		s.metrics.PartialRepayments.Inc()
	}

	logger.Info(ctx, "loan repayment applied",
		"user_id", userID,
		"loan_id", outcome.LoanID,
		"payment", outcome.PaymentAmount,
		"full", outcome.Full,
	)
	return outcome, nil
}

// GetLedger 查询账本视图，应计利息按当前时刻计算。
func (s *LendingService) GetLedger(ctx context.Context, userID string) (*LedgerView, error) {
	ledger, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newLedgerView(ledger, s.now()), nil
}

// Tiers 返回可用的 LTV 档位表。
func (s *LendingService) Tiers() map[uint8]uint8 {
	return domain.Tiers()
}

// FundPool 向资金池注入稳定资产，来源账户余额不足时失败。
func (s *LendingService) FundPool(ctx context.Context, source string, amount uint64) error {
	if err := s.custody.EnsureAccount(ctx, PoolAccount, s.assets.Stable); err != nil {
		return err
	}
	if err := s.custody.Transfer(ctx, s.assets.Stable, source, PoolAccount, amount); err != nil {
		return fmt.Errorf("fund pool: %w", err)
	}

	s.metrics.PoolFundingTotal.Add(float64(amount))
	logger.Info(ctx, "pool funded", "source", source, "amount", amount)
	return nil
}

// publish 发布事件；发布失败只记日志，账本状态已提交不回滚。
func (s *LendingService) publish(ctx context.Context, topic, key string, payload any) {
	if err := s.publisher.Publish(ctx, topic, key, payload); err != nil {
		logger.Error(ctx, "failed to publish event", "topic", topic, "key", key, "error", err)
	}
}
