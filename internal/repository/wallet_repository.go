package repository

import (
	"errors"
	"strings"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository 钱包数据访问接口
type WalletRepository interface {
	GetAccountByProfileID(profileID uint) (*models.WalletAccount, error)
	GetAccountByProfileIDForUpdate(profileID uint) (*models.WalletAccount, error)
	CreateAccount(account *models.WalletAccount) error
	UpdateAccount(account *models.WalletAccount) error
	ListAccounts(filter WalletAccountListFilter) ([]models.WalletAccount, int64, error)
	CreateTransaction(txn *models.WalletTransaction) error
	UpdateTransaction(txn *models.WalletTransaction) error
	GetTransactionByReference(reference string) (*models.WalletTransaction, error)
	GetTransactionByIDForUpdate(id uint) (*models.WalletTransaction, error)
	ListTransactions(filter WalletTransactionListFilter) ([]models.WalletTransaction, int64, error)
	ListEarningMismatches() ([]WalletMismatchRow, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormWalletRepository
}

// WalletMismatchRow 累计收益与收益流水不一致的账户
type WalletMismatchRow struct {
	ProfileID    uint
	TotalEarned  float64
	LedgerEarned float64
}

// GormWalletRepository GORM 钱包仓储实现
type GormWalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository 创建钱包仓储
func NewWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWalletRepository) WithTx(tx *gorm.DB) *GormWalletRepository {
	if tx == nil {
		return r
	}
	return &GormWalletRepository{db: tx}
}

// Transaction 执行事务
func (r *GormWalletRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetAccountByProfileID 按档案获取钱包账户
func (r *GormWalletRepository) GetAccountByProfileID(profileID uint) (*models.WalletAccount, error) {
	if profileID == 0 {
		return nil, nil
	}
	var account models.WalletAccount
	if err := r.db.Where("profile_id = ?", profileID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetAccountByProfileIDForUpdate 按档案加锁获取钱包账户
func (r *GormWalletRepository) GetAccountByProfileIDForUpdate(profileID uint) (*models.WalletAccount, error) {
	if profileID == 0 {
		return nil, nil
	}
	var account models.WalletAccount
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("profile_id = ?", profileID).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// CreateAccount 创建钱包账户
func (r *GormWalletRepository) CreateAccount(account *models.WalletAccount) error {
	return r.db.Create(account).Error
}

// UpdateAccount 更新钱包账户
func (r *GormWalletRepository) UpdateAccount(account *models.WalletAccount) error {
	return r.db.Save(account).Error
}

// ListAccounts 分页查询钱包账户
func (r *GormWalletRepository) ListAccounts(filter WalletAccountListFilter) ([]models.WalletAccount, int64, error) {
	query := r.db.Model(&models.WalletAccount{})
	if filter.ProfileID != 0 {
		query = query.Where("profile_id = ?", filter.ProfileID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var accounts []models.WalletAccount
	if err := query.Order("id desc").Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// CreateTransaction 创建钱包流水
func (r *GormWalletRepository) CreateTransaction(txn *models.WalletTransaction) error {
	return r.db.Create(txn).Error
}

// UpdateTransaction 更新钱包流水（仅用于提现状态流转）
func (r *GormWalletRepository) UpdateTransaction(txn *models.WalletTransaction) error {
	return r.db.Save(txn).Error
}

// GetTransactionByReference 按参考号获取流水
func (r *GormWalletRepository) GetTransactionByReference(reference string) (*models.WalletTransaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var txn models.WalletTransaction
	if err := r.db.Where("reference = ?", reference).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// GetTransactionByIDForUpdate 加锁获取流水
func (r *GormWalletRepository) GetTransactionByIDForUpdate(id uint) (*models.WalletTransaction, error) {
	if id == 0 {
		return nil, nil
	}
	var txn models.WalletTransaction
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// ListTransactions 分页查询钱包流水
func (r *GormWalletRepository) ListTransactions(filter WalletTransactionListFilter) ([]models.WalletTransaction, int64, error) {
	query := r.db.Model(&models.WalletTransaction{})
	if filter.ProfileID != 0 {
		query = query.Where("profile_id = ?", filter.ProfileID)
	}
	if filter.CampaignID != 0 {
		query = query.Where("campaign_id = ?", filter.CampaignID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var txns []models.WalletTransaction
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// ListEarningMismatches 对账：累计收益与已完成收益流水之和不一致的账户
func (r *GormWalletRepository) ListEarningMismatches() ([]WalletMismatchRow, error) {
	ledger := r.db.Model(&models.WalletTransaction{}).
		Select("profile_id, COALESCE(SUM(amount), 0) AS ledger_earned").
		Where("type = ? AND status = ?", constants.WalletTxnTypeEarning, constants.WalletTxnStatusCompleted).
		Group("profile_id")

	var rows []WalletMismatchRow
	if err := r.db.Table("wallet_accounts").
		Select("wallet_accounts.profile_id AS profile_id, wallet_accounts.total_earned AS total_earned, COALESCE(ledger.ledger_earned, 0) AS ledger_earned").
		Joins("LEFT JOIN (?) AS ledger ON ledger.profile_id = wallet_accounts.profile_id", ledger).
		Where("ROUND(wallet_accounts.total_earned, 2) <> ROUND(COALESCE(ledger.ledger_earned, 0), 2)").
		Order("wallet_accounts.profile_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
