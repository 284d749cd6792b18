package repository

import (
	"errors"
	"time"

	"github.com/adstatus-next/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository 站内通知数据访问接口
type NotificationRepository interface {
	CreateBatch(items []models.Notification) error
	GetByID(id uint) (*models.Notification, error)
	List(filter NotificationListFilter) ([]models.Notification, int64, error)
	CountUnread(profileID uint) (int64, error)
	MarkRead(profileID, id uint, at time.Time) (bool, error)
	MarkAllRead(profileID uint, at time.Time) (int64, error)
	Delete(profileID, id uint) (bool, error)
}

// GormNotificationRepository GORM 实现
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓库
func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// CreateBatch 批量写入通知
func (r *GormNotificationRepository) CreateBatch(items []models.Notification) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.CreateInBatches(items, 100).Error
}

// GetByID 根据 ID 获取通知
func (r *GormNotificationRepository) GetByID(id uint) (*models.Notification, error) {
	var item models.Notification
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// List 分页查询通知
func (r *GormNotificationRepository) List(filter NotificationListFilter) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{}).Where("profile_id = ?", filter.ProfileID)
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var items []models.Notification
	if err := query.Order("created_at DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CountUnread 统计未读通知
func (r *GormNotificationRepository) CountUnread(profileID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Notification{}).
		Where("profile_id = ? AND is_read = ?", profileID, false).
		Count(&total).Error
	return total, err
}

// MarkRead 标记单条已读
func (r *GormNotificationRepository) MarkRead(profileID, id uint, at time.Time) (bool, error) {
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND profile_id = ?", id, profileID).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkAllRead 标记全部已读
func (r *GormNotificationRepository) MarkAllRead(profileID uint, at time.Time) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("profile_id = ? AND is_read = ?", profileID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return result.RowsAffected, result.Error
}

// Delete 删除通知（软删除）
func (r *GormNotificationRepository) Delete(profileID, id uint) (bool, error) {
	result := r.db.Where("id = ? AND profile_id = ?", id, profileID).Delete(&models.Notification{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
