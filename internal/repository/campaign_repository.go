package repository

import (
	"errors"
	"time"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var campaignSortableColumns = []string{"created_at", "cost_per_view", "budget", "target_views", "start_date"}

// CampaignRepository 广告活动数据访问接口
type CampaignRepository interface {
	Create(campaign *models.Campaign) error
	GetByID(id uint) (*models.Campaign, error)
	GetByIDForUpdate(id uint) (*models.Campaign, error)
	UpdateFields(id uint, fields map[string]interface{}) error
	List(filter CampaignListFilter) ([]models.Campaign, Page, error)
	ListAvailable() ([]models.Campaign, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormCampaignRepository
}

// GormCampaignRepository GORM 实现
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository 创建活动仓库
func NewCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCampaignRepository) WithTx(tx *gorm.DB) *GormCampaignRepository {
	if tx == nil {
		return r
	}
	return &GormCampaignRepository{db: tx}
}

// Transaction 执行事务
func (r *GormCampaignRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建活动
func (r *GormCampaignRepository) Create(campaign *models.Campaign) error {
	return r.db.Omit(clause.Associations).Create(campaign).Error
}

// GetByID 根据 ID 获取活动
func (r *GormCampaignRepository) GetByID(id uint) (*models.Campaign, error) {
	if id == 0 {
		return nil, nil
	}
	var campaign models.Campaign
	if err := r.db.First(&campaign, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

// GetByIDForUpdate 加锁获取活动
func (r *GormCampaignRepository) GetByIDForUpdate(id uint) (*models.Campaign, error) {
	if id == 0 {
		return nil, nil
	}
	var campaign models.Campaign
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&campaign, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

// UpdateFields 按字段更新活动
func (r *GormCampaignRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	if id == 0 || len(fields) == 0 {
		return nil
	}
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now()
	}
	return r.db.Model(&models.Campaign{}).Where("id = ?", id).Updates(fields).Error
}

// List 分页查询活动
func (r *GormCampaignRepository) List(filter CampaignListFilter) ([]models.Campaign, Page, error) {
	filters := map[string]interface{}{}
	if filter.AdvertiserID != 0 {
		filters["advertiser_id"] = filter.AdvertiserID
	}
	if len(filter.Statuses) == 1 {
		filters["status"] = filter.Statuses[0]
	} else if len(filter.Statuses) > 1 {
		filters["status"] = filter.Statuses
	}
	if filter.Approved != nil {
		filters["admin_approved"] = *filter.Approved
	}
	query := PageQuery{
		Page:          filter.Page,
		Limit:         filter.PageSize,
		SortBy:        filter.SortBy,
		SortOrder:     filter.SortOrder,
		Filters:       filters,
		Search:        filter.Search,
		SearchColumns: []string{"title", "description"},
	}
	return Paginate[models.Campaign](r.db.Model(&models.Campaign{}), query, campaignSortableColumns, "Advertiser")
}

// ListAvailable 获取所有可投放活动（已审核、进行中、仍有剩余浏览量）
// 定向匹配在服务层完成。
func (r *GormCampaignRepository) ListAvailable() ([]models.Campaign, error) {
	var campaigns []models.Campaign
	if err := r.db.Model(&models.Campaign{}).
		Where("status = ? AND admin_approved = ? AND current_views < target_views", constants.CampaignStatusActive, true).
		Order("created_at DESC").
		Order("id DESC").
		Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

