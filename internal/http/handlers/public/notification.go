package public

import (
	"strconv"

	"github.com/adstatus-next/internal/http/handlers/shared"
	"github.com/adstatus-next/internal/http/response"
	"github.com/adstatus-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListNotifications 站内通知列表
func (h *Handler) ListNotifications(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))
	items, total, err := h.NotificationService.List(repository.NotificationListFilter{
		Page:       page,
		PageSize:   pageSize,
		ProfileID:  profile.ID,
		UnreadOnly: unreadOnly,
		Type:       c.Query("type"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, items, shared.BuildPagination(page, pageSize, total))
}

// GetUnreadNotificationCount 未读通知数
func (h *Handler) GetUnreadNotificationCount(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	count, err := h.NotificationService.UnreadCount(profile.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"unread": count})
}

// MarkNotificationRead 标记单条已读
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.NotificationService.MarkRead(profile.ID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"read": true})
}

// MarkAllNotificationsRead 全部标记已读
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	updated, err := h.NotificationService.MarkAllRead(profile.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": updated})
}

// DeleteNotification 删除通知
func (h *Handler) DeleteNotification(c *gin.Context) {
	profile, ok := shared.MustProfile(c)
	if !ok {
		return
	}
	id, ok := shared.ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.NotificationService.Delete(profile.ID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
