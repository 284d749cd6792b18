package repository

import (
	"errors"
	"time"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProofRepository 发布凭证数据访问接口
type ProofRepository interface {
	Create(proof *models.Proof) error
	GetByID(id uint) (*models.Proof, error)
	GetByIDForUpdate(id uint) (*models.Proof, error)
	GetByApplicationID(applicationID uint) (*models.Proof, error)
	UpdateFields(id uint, fields map[string]interface{}) error
	List(filter ProofListFilter) ([]models.Proof, int64, error)
	CountApprovedByBroadcaster(broadcasterID uint) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormProofRepository
}

// GormProofRepository GORM 实现
type GormProofRepository struct {
	db *gorm.DB
}

// NewProofRepository 创建凭证仓库
func NewProofRepository(db *gorm.DB) *GormProofRepository {
	return &GormProofRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProofRepository) WithTx(tx *gorm.DB) *GormProofRepository {
	if tx == nil {
		return r
	}
	return &GormProofRepository{db: tx}
}

// Transaction 执行事务
func (r *GormProofRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建凭证
func (r *GormProofRepository) Create(proof *models.Proof) error {
	return r.db.Omit(clause.Associations).Create(proof).Error
}

// GetByID 根据 ID 获取凭证
func (r *GormProofRepository) GetByID(id uint) (*models.Proof, error) {
	if id == 0 {
		return nil, nil
	}
	var proof models.Proof
	if err := r.db.Preload("Campaign").Preload("Broadcaster").First(&proof, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &proof, nil
}

// GetByIDForUpdate 加锁获取凭证
func (r *GormProofRepository) GetByIDForUpdate(id uint) (*models.Proof, error) {
	if id == 0 {
		return nil, nil
	}
	var proof models.Proof
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&proof, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &proof, nil
}

// GetByApplicationID 根据申请获取凭证
func (r *GormProofRepository) GetByApplicationID(applicationID uint) (*models.Proof, error) {
	var proof models.Proof
	if err := r.db.Where("application_id = ?", applicationID).First(&proof).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &proof, nil
}

// UpdateFields 按字段更新凭证
func (r *GormProofRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	if id == 0 || len(fields) == 0 {
		return nil
	}
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now()
	}
	return r.db.Model(&models.Proof{}).Where("id = ?", id).Updates(fields).Error
}

// List 分页查询凭证
func (r *GormProofRepository) List(filter ProofListFilter) ([]models.Proof, int64, error) {
	query := r.db.Model(&models.Proof{})
	if filter.BroadcasterID != 0 {
		query = query.Where("broadcaster_id = ?", filter.BroadcasterID)
	}
	if filter.CampaignID != 0 {
		query = query.Where("campaign_id = ?", filter.CampaignID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var proofs []models.Proof
	if err := query.Preload("Campaign").Preload("Broadcaster").
		Order("created_at DESC").Order("id DESC").
		Find(&proofs).Error; err != nil {
		return nil, 0, err
	}
	return proofs, total, nil
}

// CountApprovedByBroadcaster 统计播主已通过的凭证
func (r *GormProofRepository) CountApprovedByBroadcaster(broadcasterID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Proof{}).
		Where("broadcaster_id = ? AND status = ?", broadcasterID, constants.ProofStatusApproved).
		Count(&total).Error
	return total, err
}
