// Package telegram sends operational events to a Telegram ops chat.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"

	"github.com/taskmint-app/taskmint/internal/domain"
)

const maxMessageLen = 4096

// Notifier posts ops events (task lifecycle, settlement failures) to a
// configured chat. A nil Notifier is valid and drops everything, so
// callers never need to guard.
type Notifier struct {
	bot    *bot.Bot
	chatID int64
}

func NewNotifier(b *bot.Bot, chatID int64) *Notifier {
	if b == nil || chatID == 0 {
		return nil
	}
	return &Notifier{bot: b, chatID: chatID}
}

func (n *Notifier) send(message string) {
	if n == nil {
		return
	}

	if len([]rune(message)) > maxMessageLen {
		message = string([]rune(message)[:maxMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      message,
		ParseMode: "Markdown",
	})
	if err != nil {
		slog.Error("failed to send ops notification", "error", err)
	}
}

func (n *Notifier) TaskCreated(task domain.Task) {
	creator := "official"
	if task.CreatorID != nil {
		creator = fmt.Sprintf("user %d", *task.CreatorID)
	}
	n.send(fmt.Sprintf("📋 *Task Created*\n\n*ID:* `%d`\n*Creator:* %s\n*Reward:* %d pts\n*Escrow:* %d pts",
		task.ID, creator, task.RewardPerCompletion, task.EscrowBalance))
}

func (n *Notifier) TaskClosed(taskID int64, reason string) {
	n.send(fmt.Sprintf("🔒 *Task Closed*\n\n*ID:* `%d`\n*Reason:* %s", taskID, reason))
}

func (n *Notifier) SettlementError(taskID, userID int64, err error) {
	n.send(fmt.Sprintf("❌ *Settlement Error*\n\n*Task:* `%d`\n*User:* `%d`\n*Error:* `%s`\n*Time:* %s",
		taskID, userID, err.Error(), time.Now().Format("2006-01-02 15:04:05")))
}
