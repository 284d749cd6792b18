package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/i18n"
	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/notifier"
	"github.com/adstatus-next/internal/queue"
	"github.com/adstatus-next/internal/repository"

	"gorm.io/datatypes"
)

// NotifyInput 单条通知
type NotifyInput struct {
	ProfileID uint
	Type      string
	// MessageKey 为空时使用 notification.{type}.message
	MessageKey string
	Args       []interface{}
	Data       map[string]interface{}
}

// NotificationService 站内通知与外发推送
// 通知失败只记录日志，不影响触发通知的业务流程。
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	profileRepo      repository.ProfileRepository
	queueClient      *queue.Client
	pusher           notifier.Pusher
	adminChatID      string
}

// NewNotificationService 创建通知服务
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	profileRepo repository.ProfileRepository,
	queueClient *queue.Client,
	pusher notifier.Pusher,
	adminChatID string,
) *NotificationService {
	if pusher == nil {
		pusher = notifier.NopPusher{}
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		profileRepo:      profileRepo,
		queueClient:      queueClient,
		pusher:           pusher,
		adminChatID:      strings.TrimSpace(adminChatID),
	}
}

// Notify 持久化通知并异步外发
func (s *NotificationService) Notify(ctx context.Context, inputs ...NotifyInput) {
	if s == nil || len(inputs) == 0 {
		return
	}
	items := make([]models.Notification, 0, len(inputs))
	for _, input := range inputs {
		if input.ProfileID == 0 || strings.TrimSpace(input.Type) == "" {
			continue
		}
		items = append(items, s.render(input))
	}
	if len(items) == 0 {
		return
	}
	if err := s.notificationRepo.CreateBatch(items); err != nil {
		logger.Warnw("notification_persist_failed", "type", items[0].Type, "count", len(items), "error", err)
		return
	}
	for i := range items {
		s.dispatchAsync(ctx, items[i].ID)
	}
}

// NotifyAdmins 向全部启用的管理员发送通知
func (s *NotificationService) NotifyAdmins(ctx context.Context, input NotifyInput) {
	if s == nil {
		return
	}
	adminIDs, err := s.profileRepo.ListActiveIDsByRole(constants.RoleAdmin)
	if err != nil {
		logger.Warnw("notification_admin_lookup_failed", "type", input.Type, "error", err)
		return
	}
	inputs := make([]NotifyInput, 0, len(adminIDs))
	for _, id := range adminIDs {
		item := input
		item.ProfileID = id
		inputs = append(inputs, item)
	}
	s.Notify(ctx, inputs...)

	if s.adminChatID != "" && s.pusher.Enabled() {
		rendered := s.renderLocale(input, i18n.DefaultLocale)
		text := rendered.Title + "\n" + rendered.Message
		go func() {
			if err := s.pusher.Push(context.Background(), s.adminChatID, text); err != nil {
				logger.Warnw("notification_admin_push_failed", "type", input.Type, "error", err)
			}
		}()
	}
}

// Dispatch 外发单条通知（由队列 worker 调用）
func (s *NotificationService) Dispatch(ctx context.Context, payload queue.NotificationDispatchPayload) error {
	if s == nil || payload.NotificationID == 0 {
		return nil
	}
	if !s.pusher.Enabled() {
		return nil
	}
	notification, err := s.notificationRepo.GetByID(payload.NotificationID)
	if err != nil {
		return err
	}
	if notification == nil {
		return nil
	}
	profile, err := s.profileRepo.GetByID(notification.ProfileID)
	if err != nil {
		return err
	}
	if profile == nil || !profile.IsActive || strings.TrimSpace(profile.TelegramChatID) == "" {
		return nil
	}
	text := notification.Title + "\n" + notification.Message
	if err := s.pusher.Push(ctx, profile.TelegramChatID, text); err != nil {
		return fmt.Errorf("push notification %d failed: %w", notification.ID, err)
	}
	logger.Debugw("notification_pushed", "notification_id", notification.ID, "profile_id", profile.ID)
	return nil
}

// List 查询收件箱
func (s *NotificationService) List(filter repository.NotificationListFilter) ([]models.Notification, int64, error) {
	if filter.ProfileID == 0 {
		return nil, 0, ErrProfileNotFound
	}
	return s.notificationRepo.List(filter)
}

// UnreadCount 未读数量
func (s *NotificationService) UnreadCount(profileID uint) (int64, error) {
	return s.notificationRepo.CountUnread(profileID)
}

// MarkRead 标记单条已读
func (s *NotificationService) MarkRead(profileID, id uint) error {
	ok, err := s.notificationRepo.MarkRead(profileID, id, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead 全部标记已读
func (s *NotificationService) MarkAllRead(profileID uint) (int64, error) {
	return s.notificationRepo.MarkAllRead(profileID, time.Now())
}

// Delete 删除通知
func (s *NotificationService) Delete(profileID, id uint) error {
	ok, err := s.notificationRepo.Delete(profileID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) dispatchAsync(ctx context.Context, notificationID uint) {
	payload := queue.NotificationDispatchPayload{NotificationID: notificationID}
	if s.queueClient != nil && s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueNotificationDispatch(payload); err != nil {
			logger.Warnw("notification_enqueue_failed", "notification_id", notificationID, "error", err)
		}
		return
	}
	if !s.pusher.Enabled() {
		return
	}
	go func() {
		if err := s.Dispatch(context.WithoutCancel(ctx), payload); err != nil {
			logger.Warnw("notification_dispatch_failed", "notification_id", notificationID, "error", err)
		}
	}()
}

func (s *NotificationService) render(input NotifyInput) models.Notification {
	locale := i18n.DefaultLocale
	if s.profileRepo != nil {
		if profile, err := s.profileRepo.GetByID(input.ProfileID); err == nil && profile != nil && profile.Language != "" {
			locale = i18n.NormalizeLocale(profile.Language)
		}
	}
	return s.renderLocale(input, locale)
}

func (s *NotificationService) renderLocale(input NotifyInput, locale string) models.Notification {
	notificationType := strings.TrimSpace(input.Type)
	messageKey := strings.TrimSpace(input.MessageKey)
	if messageKey == "" {
		messageKey = "notification." + notificationType + ".message"
	}
	var data datatypes.JSONMap
	if len(input.Data) > 0 {
		data = datatypes.JSONMap(input.Data)
	}
	return models.Notification{
		ProfileID: input.ProfileID,
		Type:      notificationType,
		Title:     i18n.T(locale, "notification."+notificationType+".title"),
		Message:   i18n.Sprintf(locale, messageKey, input.Args...),
		Data:      data,
		CreatedAt: time.Now(),
	}
}
