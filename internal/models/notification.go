package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification 站内通知
type Notification struct {
	ID        uint              `gorm:"primarykey" json:"id"`                             // 主键
	ProfileID uint              `gorm:"index;not null" json:"profile_id"`                 // 接收人档案ID
	Type      string            `gorm:"type:varchar(40);index;not null" json:"type"`      // 通知类型
	Title     string            `gorm:"type:varchar(200);not null" json:"title"`          // 标题
	Message   string            `gorm:"type:text" json:"message"`                         // 内容
	Data      datatypes.JSONMap `json:"data"`                                             // 附加数据
	IsRead    bool              `gorm:"not null;default:false;index" json:"is_read"`      // 是否已读
	ReadAt    *time.Time        `json:"read_at"`                                          // 已读时间
	CreatedAt time.Time         `gorm:"index" json:"created_at"`                          // 创建时间
	DeletedAt gorm.DeletedAt    `gorm:"index" json:"-"`                                   // 软删除时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
