package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/queue"
	"github.com/adstatus-next/internal/repository"
)

type recordingPusher struct {
	mu     sync.Mutex
	chats  []string
	texts  []string
	failed error
}

func (p *recordingPusher) Push(_ context.Context, chatID, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed != nil {
		return p.failed
	}
	p.chats = append(p.chats, chatID)
	p.texts = append(p.texts, text)
	return nil
}

func (p *recordingPusher) Enabled() bool { return true }

func (env *serviceTestEnv) latestNotification(t *testing.T, profileID uint) models.Notification {
	t.Helper()
	var row models.Notification
	if err := env.db.Where("profile_id = ?", profileID).Order("id desc").First(&row).Error; err != nil {
		t.Fatalf("load notification failed: %v", err)
	}
	return row
}

func TestNotificationRendersProfileLanguage(t *testing.T) {
	env := setupServiceTest(t)
	english := env.createProfile(t, constants.RoleAdvertiser, "+22995000001", func(p *models.Profile) {
		p.Language = "en"
	})
	french := env.createProfile(t, constants.RoleAdvertiser, "+22995000002", nil)

	env.notifications.Notify(context.Background(),
		NotifyInput{ProfileID: english.ID, Type: constants.NotificationCampaignValidated, Args: []interface{}{"Promo"}},
		NotifyInput{ProfileID: french.ID, Type: constants.NotificationCampaignValidated, Args: []interface{}{"Promo"}},
		NotifyInput{Type: constants.NotificationCampaignValidated},
	)

	en := env.latestNotification(t, english.ID)
	if en.Title != "Campaign approved" || en.Message != "Your campaign \"Promo\" was approved and is now active." {
		t.Fatalf("unexpected english notification: %q / %q", en.Title, en.Message)
	}
	fr := env.latestNotification(t, french.ID)
	if fr.Title != "Campagne validée" {
		t.Fatalf("default locale should be french, got %q", fr.Title)
	}
	var total int64
	if err := env.db.Model(&models.Notification{}).Count(&total).Error; err != nil {
		t.Fatalf("count notifications failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("input without profile should be skipped, got %d rows", total)
	}
}

func TestNotificationInboxOperations(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.createProfile(t, constants.RoleBroadcaster, "+22995000010", nil)
	stranger := env.createProfile(t, constants.RoleBroadcaster, "+22995000011", nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		env.notifications.Notify(ctx, NotifyInput{ProfileID: owner.ID, Type: constants.NotificationCampaignValidated, Args: []interface{}{"C"}})
	}
	if _, _, err := env.notifications.List(repository.NotificationListFilter{}); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("list without profile want ErrProfileNotFound, got %v", err)
	}
	items, total, err := env.notifications.List(repository.NotificationListFilter{ProfileID: owner.ID, Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list notifications failed: %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("want 2 of 3 notifications, got %d of %d", len(items), total)
	}

	target := items[0].ID
	if err := env.notifications.MarkRead(stranger.ID, target); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("foreign mark read want ErrNotificationNotFound, got %v", err)
	}
	if err := env.notifications.MarkRead(owner.ID, target); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	if unread, err := env.notifications.UnreadCount(owner.ID); err != nil || unread != 2 {
		t.Fatalf("unread want 2, got %d (%v)", unread, err)
	}
	if updated, err := env.notifications.MarkAllRead(owner.ID); err != nil || updated != 2 {
		t.Fatalf("mark all read want 2, got %d (%v)", updated, err)
	}
	if unread, err := env.notifications.UnreadCount(owner.ID); err != nil || unread != 0 {
		t.Fatalf("unread want 0, got %d (%v)", unread, err)
	}

	if err := env.notifications.Delete(stranger.ID, target); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("foreign delete want ErrNotificationNotFound, got %v", err)
	}
	if err := env.notifications.Delete(owner.ID, target); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, total, _ := env.notifications.List(repository.NotificationListFilter{ProfileID: owner.ID, Page: 1, PageSize: 20}); total != 2 {
		t.Fatalf("total after delete want 2, got %d", total)
	}
}

func TestNotificationNotifyAdminsFanOut(t *testing.T) {
	env := setupServiceTest(t)
	first := env.createProfile(t, constants.RoleAdmin, "+22995000020", nil)
	second := env.createProfile(t, constants.RoleAdmin, "+22995000021", nil)
	inactive := env.createProfile(t, constants.RoleAdmin, "+22995000022", nil)
	if err := env.profileRepo.UpdateFields(inactive.ID, map[string]interface{}{"is_active": false}); err != nil {
		t.Fatalf("deactivate admin failed: %v", err)
	}

	env.notifications.NotifyAdmins(context.Background(), NotifyInput{Type: constants.NotificationCampaignValidated, Args: []interface{}{"X"}})

	for _, id := range []uint{first.ID, second.ID} {
		if got := env.countNotifications(t, id, constants.NotificationCampaignValidated); got != 1 {
			t.Fatalf("admin %d should receive one notification, got %d", id, got)
		}
	}
	if got := env.countNotifications(t, inactive.ID, constants.NotificationCampaignValidated); got != 0 {
		t.Fatalf("inactive admin should be skipped, got %d", got)
	}
}

func TestNotificationDispatchPushesToTelegramChat(t *testing.T) {
	env := setupServiceTest(t)
	linked := env.createProfile(t, constants.RoleBroadcaster, "+22995000030", func(p *models.Profile) {
		p.TelegramChatID = "777"
	})
	unlinked := env.createProfile(t, constants.RoleBroadcaster, "+22995000031", nil)
	ctx := context.Background()

	env.notifications.Notify(ctx,
		NotifyInput{ProfileID: linked.ID, Type: constants.NotificationCampaignValidated, Args: []interface{}{"Promo"}},
		NotifyInput{ProfileID: unlinked.ID, Type: constants.NotificationCampaignValidated, Args: []interface{}{"Promo"}},
	)
	linkedRow := env.latestNotification(t, linked.ID)
	unlinkedRow := env.latestNotification(t, unlinked.ID)

	pusher := &recordingPusher{}
	dispatcher := NewNotificationService(env.notificationRepo, env.profileRepo, nil, pusher, "")

	if err := dispatcher.Dispatch(ctx, queue.NotificationDispatchPayload{NotificationID: linkedRow.ID}); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if err := dispatcher.Dispatch(ctx, queue.NotificationDispatchPayload{NotificationID: unlinkedRow.ID}); err != nil {
		t.Fatalf("dispatch without chat should be skipped, got %v", err)
	}
	if err := dispatcher.Dispatch(ctx, queue.NotificationDispatchPayload{NotificationID: 99999}); err != nil {
		t.Fatalf("missing notification should be ignored, got %v", err)
	}
	if len(pusher.chats) != 1 || pusher.chats[0] != "777" {
		t.Fatalf("want one push to chat 777, got %v", pusher.chats)
	}
	if pusher.texts[0] != linkedRow.Title+"\n"+linkedRow.Message {
		t.Fatalf("unexpected push text: %q", pusher.texts[0])
	}

	pusher.failed = errors.New("telegram down")
	if err := dispatcher.Dispatch(ctx, queue.NotificationDispatchPayload{NotificationID: linkedRow.ID}); err == nil {
		t.Fatalf("push failure should be returned for retry")
	}
}
