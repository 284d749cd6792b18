package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	walletDefaultCurrency = "XOF"
)

// WalletService 钱包服务
// 余额只通过流水变动：每次变动都写入一条带唯一参考号的 WalletTransaction。
type WalletService struct {
	walletRepo repository.WalletRepository
	currency   string
}

// WalletCreditInput 事务内入账输入
type WalletCreditInput struct {
	ProfileID   uint
	Amount      models.Money
	Currency    string
	TxnType     string
	Reference   string
	Description string
	CampaignID  *uint
	ProofID     *uint
}

// WalletDebitInput 事务内扣款输入
type WalletDebitInput struct {
	ProfileID   uint
	Amount      models.Money
	Currency    string
	TxnType     string
	Reference   string
	Description string
	CampaignID  *uint
}

// WalletDepositInput 管理员确认充值输入
type WalletDepositInput struct {
	ProfileID     uint
	Amount        models.Money
	PaymentMethod string
	ExternalRef   string
	Remark        string
}

// WalletWithdrawalInput 提现申请输入
type WalletWithdrawalInput struct {
	ProfileID     uint
	Amount        models.Money
	PaymentMethod string
	Remark        string
}

// NewWalletService 创建钱包服务
func NewWalletService(walletRepo repository.WalletRepository, currency string) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
		currency:   normalizeWalletCurrency(currency),
	}
}

// Currency 平台结算币种
func (s *WalletService) Currency() string {
	return s.currency
}

// GetAccount 获取钱包账户（不存在时自动创建）
func (s *WalletService) GetAccount(profileID uint) (*models.WalletAccount, error) {
	if profileID == 0 {
		return nil, ErrWalletAccountNotFound
	}
	return s.getOrCreateAccount(profileID)
}

// ListTransactions 查询钱包流水
func (s *WalletService) ListTransactions(filter repository.WalletTransactionListFilter) ([]models.WalletTransaction, int64, error) {
	return s.walletRepo.ListTransactions(filter)
}

// ListAccounts 管理端查询钱包账户
func (s *WalletService) ListAccounts(filter repository.WalletAccountListFilter) ([]models.WalletAccount, int64, error) {
	return s.walletRepo.ListAccounts(filter)
}

// EnsureAccountInTx 在事务内确保档案钱包存在
func (s *WalletService) EnsureAccountInTx(tx *gorm.DB, profileID uint) (*models.WalletAccount, error) {
	if profileID == 0 {
		return nil, ErrWalletAccountNotFound
	}
	return s.ensureAccountForUpdate(s.walletRepo.WithTx(tx), profileID, time.Now())
}

// CreditInTx 在事务内执行钱包入账并写入唯一参考号流水
// 同一参考号重复调用直接返回已有流水，不会重复入账。
func (s *WalletService) CreditInTx(tx *gorm.DB, input WalletCreditInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	if tx == nil {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	if input.ProfileID == 0 {
		return nil, nil, ErrWalletAccountNotFound
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, ErrWalletInvalidAmount
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	txnType := strings.TrimSpace(input.TxnType)
	if txnType == "" {
		txnType = constants.WalletTxnTypeDeposit
	}
	now := time.Now()
	repo := s.walletRepo.WithTx(tx)

	exists, err := repo.GetTransactionByReference(reference)
	if err != nil {
		return nil, nil, err
	}
	if exists != nil {
		account, accountErr := s.ensureAccountForUpdate(repo, input.ProfileID, now)
		if accountErr != nil {
			return nil, nil, accountErr
		}
		return account, exists, nil
	}

	account, err := s.ensureAccountForUpdate(repo, input.ProfileID, now)
	if err != nil {
		return nil, nil, err
	}
	before := account.Balance.Decimal.Round(2)
	after := before.Add(amount).Round(2)
	account.Balance = models.NewMoneyFromDecimal(after)
	switch txnType {
	case constants.WalletTxnTypeEarning:
		account.TotalEarned = models.NewMoneyFromDecimal(account.TotalEarned.Decimal.Add(amount))
	case constants.WalletTxnTypeReferralBonus:
		account.TotalReferral = models.NewMoneyFromDecimal(account.TotalReferral.Decimal.Add(amount))
	}
	account.UpdatedAt = now
	if err := repo.UpdateAccount(account); err != nil {
		return nil, nil, ErrWalletAccountUpdateFailed
	}

	txn := &models.WalletTransaction{
		ProfileID:     input.ProfileID,
		Type:          txnType,
		Direction:     constants.WalletTxnDirectionIn,
		Status:        constants.WalletTxnStatusCompleted,
		Amount:        models.NewMoneyFromDecimal(amount),
		BalanceBefore: models.NewMoneyFromDecimal(before),
		BalanceAfter:  models.NewMoneyFromDecimal(after),
		Currency:      s.resolveCurrency(input.Currency),
		Reference:     reference,
		Description:   cleanWalletRemark(input.Description, "Crédit portefeuille"),
		CampaignID:    input.CampaignID,
		ProofID:       input.ProofID,
		ProcessedAt:   &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	return account, txn, nil
}

// DebitInTx 在事务内扣减余额并写入支出流水，余额不足时返回 ErrWalletInsufficientBalance
func (s *WalletService) DebitInTx(tx *gorm.DB, input WalletDebitInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	if tx == nil {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	if input.ProfileID == 0 {
		return nil, nil, ErrWalletAccountNotFound
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, ErrWalletInvalidAmount
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	txnType := strings.TrimSpace(input.TxnType)
	if txnType == "" {
		txnType = constants.WalletTxnTypePayment
	}
	now := time.Now()
	repo := s.walletRepo.WithTx(tx)

	exists, err := repo.GetTransactionByReference(reference)
	if err != nil {
		return nil, nil, err
	}
	if exists != nil {
		account, accountErr := s.ensureAccountForUpdate(repo, input.ProfileID, now)
		if accountErr != nil {
			return nil, nil, accountErr
		}
		return account, exists, nil
	}

	account, err := s.ensureAccountForUpdate(repo, input.ProfileID, now)
	if err != nil {
		return nil, nil, err
	}
	before := account.Balance.Decimal.Round(2)
	after := before.Sub(amount).Round(2)
	if after.LessThan(decimal.Zero) {
		return nil, nil, ErrWalletInsufficientBalance
	}
	account.Balance = models.NewMoneyFromDecimal(after)
	account.TotalSpent = models.NewMoneyFromDecimal(account.TotalSpent.Decimal.Add(amount))
	account.UpdatedAt = now
	if err := repo.UpdateAccount(account); err != nil {
		return nil, nil, ErrWalletAccountUpdateFailed
	}

	txn := &models.WalletTransaction{
		ProfileID:     input.ProfileID,
		Type:          txnType,
		Direction:     constants.WalletTxnDirectionOut,
		Status:        constants.WalletTxnStatusCompleted,
		Amount:        models.NewMoneyFromDecimal(amount),
		BalanceBefore: models.NewMoneyFromDecimal(before),
		BalanceAfter:  models.NewMoneyFromDecimal(after),
		Currency:      s.resolveCurrency(input.Currency),
		Reference:     reference,
		Description:   cleanWalletRemark(input.Description, "Débit portefeuille"),
		CampaignID:    input.CampaignID,
		ProcessedAt:   &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	return account, txn, nil
}

// Deposit 管理员确认线下充值（mobile money 等）到账
func (s *WalletService) Deposit(input WalletDepositInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	if input.ProfileID == 0 {
		return nil, nil, ErrWalletAccountNotFound
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, ErrWalletInvalidAmount
	}
	reference := buildWalletReference("deposit", input.ProfileID)
	if external := strings.TrimSpace(input.ExternalRef); external != "" {
		reference = fmt.Sprintf("deposit:%s", external)
	}
	var account *models.WalletAccount
	var txn *models.WalletTransaction
	err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		var err error
		account, txn, err = s.CreditInTx(tx, WalletCreditInput{
			ProfileID:   input.ProfileID,
			Amount:      models.NewMoneyFromDecimal(amount),
			TxnType:     constants.WalletTxnTypeDeposit,
			Reference:   reference,
			Description: cleanWalletRemark(input.Remark, "Dépôt confirmé"),
		})
		if err != nil {
			return err
		}
		if method := strings.TrimSpace(input.PaymentMethod); method != "" && txn.PaymentMethod == "" {
			txn.PaymentMethod = method
			if err := s.walletRepo.WithTx(tx).UpdateTransaction(txn); err != nil {
				return ErrWalletTransactionCreateFailed
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Infow("wallet_deposit_confirmed", "profile_id", input.ProfileID, "amount", amount.StringFixed(2), "reference", reference)
	return account, txn, nil
}

// RequestWithdrawal 提现申请：可用余额转入冻结，流水状态 pending
func (s *WalletService) RequestWithdrawal(input WalletWithdrawalInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	if input.ProfileID == 0 {
		return nil, nil, ErrWalletAccountNotFound
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, ErrWalletInvalidAmount
	}
	var accountResult *models.WalletAccount
	var txnResult *models.WalletTransaction
	if err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.walletRepo.WithTx(tx)
		now := time.Now()
		account, err := s.ensureAccountForUpdate(repo, input.ProfileID, now)
		if err != nil {
			return err
		}
		before := account.Balance.Decimal.Round(2)
		after := before.Sub(amount).Round(2)
		if after.LessThan(decimal.Zero) {
			return ErrWalletInsufficientBalance
		}
		account.Balance = models.NewMoneyFromDecimal(after)
		account.PendingBalance = models.NewMoneyFromDecimal(account.PendingBalance.Decimal.Add(amount))
		account.UpdatedAt = now
		if err := repo.UpdateAccount(account); err != nil {
			return ErrWalletAccountUpdateFailed
		}

		txn := &models.WalletTransaction{
			ProfileID:     input.ProfileID,
			Type:          constants.WalletTxnTypeWithdrawal,
			Direction:     constants.WalletTxnDirectionOut,
			Status:        constants.WalletTxnStatusPending,
			Amount:        models.NewMoneyFromDecimal(amount),
			BalanceBefore: models.NewMoneyFromDecimal(before),
			BalanceAfter:  models.NewMoneyFromDecimal(after),
			Currency:      s.currency,
			Reference:     buildWalletReference("withdrawal", input.ProfileID),
			Description:   cleanWalletRemark(input.Remark, "Demande de retrait"),
			PaymentMethod: strings.TrimSpace(input.PaymentMethod),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return ErrWalletTransactionCreateFailed
		}
		accountResult = account
		txnResult = txn
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return accountResult, txnResult, nil
}

// CompleteWithdrawal 管理员确认提现已打款，释放冻结金额
func (s *WalletService) CompleteWithdrawal(txnID uint) (*models.WalletTransaction, error) {
	return s.settleWithdrawal(txnID, constants.WalletTxnStatusCompleted, "")
}

// CancelWithdrawal 管理员取消提现，冻结金额退回可用余额
func (s *WalletService) CancelWithdrawal(txnID uint, reason string) (*models.WalletTransaction, error) {
	return s.settleWithdrawal(txnID, constants.WalletTxnStatusCancelled, reason)
}

func (s *WalletService) settleWithdrawal(txnID uint, status, reason string) (*models.WalletTransaction, error) {
	var txnResult *models.WalletTransaction
	if err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.walletRepo.WithTx(tx)
		txn, err := repo.GetTransactionByIDForUpdate(txnID)
		if err != nil {
			return err
		}
		if txn == nil || txn.Type != constants.WalletTxnTypeWithdrawal {
			return ErrWalletTransactionNotFound
		}
		if txn.Status != constants.WalletTxnStatusPending {
			return ErrWalletTransactionStatusInvalid
		}
		now := time.Now()
		account, err := s.ensureAccountForUpdate(repo, txn.ProfileID, now)
		if err != nil {
			return err
		}
		amount := txn.Amount.Decimal.Round(2)
		pending := account.PendingBalance.Decimal.Sub(amount).Round(2)
		if pending.LessThan(decimal.Zero) {
			pending = decimal.Zero
		}
		account.PendingBalance = models.NewMoneyFromDecimal(pending)
		if status == constants.WalletTxnStatusCancelled {
			account.Balance = models.NewMoneyFromDecimal(account.Balance.Decimal.Add(amount))
			if remark := strings.TrimSpace(reason); remark != "" {
				txn.Description = remark
			}
		} else {
			account.TotalSpent = models.NewMoneyFromDecimal(account.TotalSpent.Decimal.Add(amount))
		}
		account.UpdatedAt = now
		if err := repo.UpdateAccount(account); err != nil {
			return ErrWalletAccountUpdateFailed
		}

		txn.Status = status
		txn.ProcessedAt = &now
		txn.UpdatedAt = now
		if err := repo.UpdateTransaction(txn); err != nil {
			return ErrWalletTransactionCreateFailed
		}
		txnResult = txn
		return nil
	}); err != nil {
		return nil, err
	}
	return txnResult, nil
}

// Reconcile 对账：返回累计收益与收益流水之和不一致的账户
func (s *WalletService) Reconcile() ([]repository.WalletMismatchRow, error) {
	rows, err := s.walletRepo.ListEarningMismatches()
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		logger.Warnw("wallet_reconcile_mismatch",
			"profile_id", row.ProfileID,
			"total_earned", row.TotalEarned,
			"ledger_earned", row.LedgerEarned,
		)
	}
	return rows, nil
}

func (s *WalletService) getOrCreateAccount(profileID uint) (*models.WalletAccount, error) {
	account, err := s.walletRepo.GetAccountByProfileID(profileID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	now := time.Now()
	account = s.newAccount(profileID, now)
	if err := s.walletRepo.CreateAccount(account); err != nil {
		created, queryErr := s.walletRepo.GetAccountByProfileID(profileID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrWalletAccountCreateFailed
	}
	return account, nil
}

func (s *WalletService) ensureAccountForUpdate(repo *repository.GormWalletRepository, profileID uint, now time.Time) (*models.WalletAccount, error) {
	account, err := repo.GetAccountByProfileIDForUpdate(profileID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = s.newAccount(profileID, now)
	if err := repo.CreateAccount(account); err != nil {
		created, queryErr := repo.GetAccountByProfileIDForUpdate(profileID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrWalletAccountCreateFailed
	}
	return account, nil
}

func (s *WalletService) newAccount(profileID uint, now time.Time) *models.WalletAccount {
	zero := models.NewMoneyFromDecimal(decimal.Zero)
	return &models.WalletAccount{
		ProfileID:      profileID,
		Currency:       s.currency,
		Balance:        zero,
		PendingBalance: zero,
		TotalEarned:    zero,
		TotalSpent:     zero,
		TotalReferral:  zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *WalletService) resolveCurrency(currency string) string {
	if strings.TrimSpace(currency) == "" {
		return s.currency
	}
	return normalizeWalletCurrency(currency)
}

func normalizeWalletCurrency(currency string) string {
	normalized := strings.ToUpper(strings.TrimSpace(currency))
	if normalized == "" {
		return walletDefaultCurrency
	}
	return normalized
}

func cleanWalletRemark(raw string, fallback string) string {
	remark := strings.TrimSpace(raw)
	if remark == "" {
		return fallback
	}
	return remark
}

func buildWalletReference(prefix string, id uint) string {
	normalized := strings.TrimSpace(prefix)
	if normalized == "" {
		normalized = "wallet"
	}
	return fmt.Sprintf("%s:%d:%d", normalized, id, time.Now().UnixNano())
}

func proofEarningReference(proofID uint) string {
	return fmt.Sprintf("proof:%d:earning", proofID)
}

func campaignPaymentReference(campaignID uint) string {
	return fmt.Sprintf("campaign:%d:payment", campaignID)
}

func referralBonusReference(referralID uint) string {
	return fmt.Sprintf("referral:%d:bonus", referralID)
}
