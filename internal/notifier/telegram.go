package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/adstatus-next/internal/logger"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// ChatLinker 将 Telegram 会话绑定到档案（以推荐码识别）
type ChatLinker interface {
	LinkTelegramChat(ctx context.Context, referralCode, chatID string) error
}

// TelegramPusher 基于 Telegram Bot 的推送
type TelegramPusher struct {
	bot    *bot.Bot
	linker ChatLinker
}

// NewTelegramPusher 创建 Telegram 推送，linker 为空时不处理 /start 绑定
func NewTelegramPusher(token string, linker ChatLinker) (*TelegramPusher, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	pusher := &TelegramPusher{linker: linker}
	b, err := bot.New(token, bot.WithDefaultHandler(pusher.handleUpdate), bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot failed: %w", err)
	}
	pusher.bot = b
	return pusher, nil
}

// Start 开始长轮询（阻塞至 ctx 结束）
func (p *TelegramPusher) Start(ctx context.Context) {
	if p == nil || p.bot == nil {
		return
	}
	logger.Infow("telegram_bot_polling_started")
	p.bot.Start(ctx)
}

// Enabled 是否可用
func (p *TelegramPusher) Enabled() bool {
	return p != nil && p.bot != nil
}

// Push 发送文本消息
func (p *TelegramPusher) Push(ctx context.Context, chatID, text string) error {
	if !p.Enabled() {
		return nil
	}
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil
	}
	return SafeCall("telegram_push", func() error {
		_, err := p.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   text,
		})
		return err
	})
}

func (p *TelegramPusher) handleUpdate(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
	if update == nil || update.Message == nil {
		return
	}
	text := strings.TrimSpace(update.Message.Text)
	if !strings.HasPrefix(text, "/start") {
		return
	}
	chatID := fmt.Sprint(update.Message.Chat.ID)
	code := strings.TrimSpace(strings.TrimPrefix(text, "/start"))
	if code == "" || p.linker == nil {
		p.reply(ctx, b, chatID, "Envoyez /start suivi de votre code de parrainage AdStatus pour recevoir vos notifications.")
		return
	}
	if err := p.linker.LinkTelegramChat(ctx, code, chatID); err != nil {
		logger.Warnw("telegram_chat_link_failed", "chat_id", chatID, "error", err)
		p.reply(ctx, b, chatID, "Code inconnu. Vérifiez votre code de parrainage dans l'application.")
		return
	}
	logger.Infow("telegram_chat_linked", "chat_id", chatID)
	p.reply(ctx, b, chatID, "Notifications AdStatus activées.")
}

func (p *TelegramPusher) reply(ctx context.Context, b *bot.Bot, chatID, text string) {
	_ = SafeCall("telegram_reply", func() error {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
		return err
	})
}
