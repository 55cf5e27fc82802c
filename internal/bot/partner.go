package bot

import (
	"context"
	"fmt"
	"strings"

	"lifequest_bot/internal/service"
	"lifequest_bot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// PartnerNotifier tells the partner account about rewards that involve them.
type PartnerNotifier struct {
	api       Sender
	partnerID int64
}

func NewPartnerNotifier(api Sender, partnerID int64) *PartnerNotifier {
	return &PartnerNotifier{api: api, partnerID: partnerID}
}

// Notify implements service.Notifier. The message is sent in the background
// and failures are only logged.
func (n *PartnerNotifier) Notify(_ context.Context, event service.Event) {
	if n.partnerID == 0 || n.partnerID == event.UserID {
		return
	}

	var texts []string
	for _, r := range event.Rewards {
		if r.Partner {
			texts = append(texts, r.Text)
		}
	}
	if len(texts) == 0 {
		return
	}

	msg := tgbotapi.NewMessage(n.partnerID, fmt.Sprintf("💌 A reward involving you just dropped:\n\n%s", esc(strings.Join(texts, "\n"))))
	msg.ParseMode = tgbotapi.ModeHTML
	go func() {
		if _, err := n.api.Send(msg); err != nil {
			logger.Logger().Warn("failed to notify partner", zap.Int64("partner_id", n.partnerID), zap.Error(err))
		}
	}()
}
