package repository

import (
	"errors"
	"time"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplicationRepository 投放申请数据访问接口
type ApplicationRepository interface {
	Create(application *models.CampaignApplication) error
	GetByID(id uint) (*models.CampaignApplication, error)
	GetByIDForUpdate(id uint) (*models.CampaignApplication, error)
	GetByPair(campaignID, broadcasterID uint) (*models.CampaignApplication, error)
	UpdateFields(id uint, fields map[string]interface{}) error
	List(filter ApplicationListFilter) ([]models.CampaignApplication, int64, error)
	AppliedCampaignIDs(broadcasterID uint, campaignIDs []uint) (map[uint]bool, error)
	ListOverdue(acceptedBefore time.Time, limit int) ([]models.CampaignApplication, error)
	MarkDeadlineFlagged(id uint, at time.Time) (bool, error)
	WithTx(tx *gorm.DB) *GormApplicationRepository
}

// GormApplicationRepository GORM 实现
type GormApplicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository 创建申请仓库
func NewApplicationRepository(db *gorm.DB) *GormApplicationRepository {
	return &GormApplicationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormApplicationRepository) WithTx(tx *gorm.DB) *GormApplicationRepository {
	if tx == nil {
		return r
	}
	return &GormApplicationRepository{db: tx}
}

// Create 创建申请
func (r *GormApplicationRepository) Create(application *models.CampaignApplication) error {
	return r.db.Omit(clause.Associations).Create(application).Error
}

// GetByID 根据 ID 获取申请（含活动）
func (r *GormApplicationRepository) GetByID(id uint) (*models.CampaignApplication, error) {
	if id == 0 {
		return nil, nil
	}
	var application models.CampaignApplication
	if err := r.db.Preload("Campaign").First(&application, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &application, nil
}

// GetByIDForUpdate 加锁获取申请
func (r *GormApplicationRepository) GetByIDForUpdate(id uint) (*models.CampaignApplication, error) {
	if id == 0 {
		return nil, nil
	}
	var application models.CampaignApplication
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&application, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &application, nil
}

// GetByPair 按活动与播主获取申请
func (r *GormApplicationRepository) GetByPair(campaignID, broadcasterID uint) (*models.CampaignApplication, error) {
	var application models.CampaignApplication
	if err := r.db.Where("campaign_id = ? AND broadcaster_id = ?", campaignID, broadcasterID).
		First(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &application, nil
}

// UpdateFields 按字段更新申请
func (r *GormApplicationRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	if id == 0 || len(fields) == 0 {
		return nil
	}
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now()
	}
	return r.db.Model(&models.CampaignApplication{}).Where("id = ?", id).Updates(fields).Error
}

// List 分页查询申请
func (r *GormApplicationRepository) List(filter ApplicationListFilter) ([]models.CampaignApplication, int64, error) {
	query := r.db.Model(&models.CampaignApplication{})
	if filter.BroadcasterID != 0 {
		query = query.Where("campaign_applications.broadcaster_id = ?", filter.BroadcasterID)
	}
	if filter.CampaignID != 0 {
		query = query.Where("campaign_applications.campaign_id = ?", filter.CampaignID)
	}
	if filter.AdvertiserID != 0 {
		query = query.Joins("JOIN campaigns ON campaigns.id = campaign_applications.campaign_id").
			Where("campaigns.advertiser_id = ?", filter.AdvertiserID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("campaign_applications.status IN ?", filter.Statuses)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var applications []models.CampaignApplication
	if err := query.
		Select("campaign_applications.*").
		Preload("Campaign").
		Preload("Broadcaster").
		Preload("Proof").
		Order("campaign_applications.applied_at DESC").
		Order("campaign_applications.id DESC").
		Find(&applications).Error; err != nil {
		return nil, 0, err
	}
	return applications, total, nil
}

// AppliedCampaignIDs 返回播主已申请过的活动集合
func (r *GormApplicationRepository) AppliedCampaignIDs(broadcasterID uint, campaignIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(campaignIDs))
	if broadcasterID == 0 || len(campaignIDs) == 0 {
		return result, nil
	}
	var ids []uint
	if err := r.db.Model(&models.CampaignApplication{}).
		Where("broadcaster_id = ? AND campaign_id IN ?", broadcasterID, campaignIDs).
		Pluck("campaign_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

// ListOverdue 获取超过凭证截止时间仍未上传凭证且未标记的申请
func (r *GormApplicationRepository) ListOverdue(acceptedBefore time.Time, limit int) ([]models.CampaignApplication, error) {
	query := r.db.Model(&models.CampaignApplication{}).
		Preload("Campaign").
		Where("status = ? AND proof_uploaded = ? AND deadline_flagged_at IS NULL AND accepted_at IS NOT NULL AND accepted_at <= ?",
			constants.ApplicationStatusAccepted, false, acceptedBefore).
		Order("accepted_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var applications []models.CampaignApplication
	if err := query.Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

// MarkDeadlineFlagged 标记超时（仅首次生效）
func (r *GormApplicationRepository) MarkDeadlineFlagged(id uint, at time.Time) (bool, error) {
	result := r.db.Model(&models.CampaignApplication{}).
		Where("id = ? AND deadline_flagged_at IS NULL", id).
		Updates(map[string]interface{}{
			"deadline_flagged_at": at,
			"updated_at":          at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

