package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"lifequest_bot/internal/middleware"
	"lifequest_bot/internal/model"
	"lifequest_bot/internal/service"
	"lifequest_bot/pkg/auth"
	"lifequest_bot/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of *tgbotapi.BotAPI the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Config struct {
	Token      string  `mapstructure:"token"`
	Mode       string  `mapstructure:"mode"`
	WebhookURL string  `mapstructure:"webhookURL"`
	PartnerID  int64   `mapstructure:"partnerID"`
	AllowedIDs []int64 `mapstructure:"allowedIDs"`
	Debug      bool    `mapstructure:"debug"`
}

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Bot turns Telegram updates into engine calls and renders the results as
// inline-keyboard screens.
type Bot struct {
	api     Sender
	ps      service.ProgressionServiceI
	allow   *auth.Allowlist
	limiter *middleware.RateLimiter
}

func New(api Sender, ps service.ProgressionServiceI, allow *auth.Allowlist, limiter *middleware.RateLimiter) *Bot {
	return &Bot{
		api:     api,
		ps:      ps,
		allow:   allow,
		limiter: limiter,
	}
}

// Poll handles updates until ctx is done or the channel closes.
func (b *Bot) Poll(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		case <-ctx.Done():
			return
		}
	}
}

// Webhook accepts updates pushed by Telegram.
func (b *Bot) Webhook() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}

		var update tgbotapi.Update
		if err := json.Unmarshal(body, &update); err != nil {
			logger.Logger().Info("malformed webhook update", zap.Error(err))
			c.Status(http.StatusBadRequest)
			return
		}

		b.HandleUpdate(c.Request.Context(), update)
		c.Status(http.StatusOK)
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || !msg.IsCommand() {
		return
	}
	log := logger.Logger().With(zap.Int64("telegram_id", msg.From.ID))

	if !b.allow.Allowed(msg.From.ID) {
		log.Info("message from a user outside the allow-list")
		b.send(msg.Chat.ID, view{text: "This game is private."})
		return
	}
	if !b.limiter.Allow(msg.From.ID) {
		return
	}

	switch msg.Command() {
	case "start":
		user, err := b.ps.Start(ctx, msg.From.ID)
		if err != nil {
			log.Error("failed to start", zap.Error(err))
			b.send(msg.Chat.ID, view{text: failureText(err)})
			return
		}
		b.send(msg.Chat.ID, renderWelcome(user))
	case "menu":
		b.send(msg.Chat.ID, renderMainMenu())
	}
}

// handleCallback routes "kind:arg" callback data.
func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	id := q.From.ID
	log := logger.Logger().With(zap.Int64("telegram_id", id), zap.String("data", q.Data))

	if !b.allow.Allowed(id) {
		log.Info("callback from a user outside the allow-list")
		b.answer(q.ID, "This game is private.", true)
		return
	}
	if !b.limiter.Allow(id) {
		b.answer(q.ID, "Slow down a little 🙂", false)
		return
	}

	kind, arg, _ := strings.Cut(q.Data, ":")
	var (
		v      view
		notice string
		err    error
	)
	switch kind {
	case "menu":
		v, err = b.menu(ctx, id, arg)
	case "level":
		v, err = b.level(ctx, id, arg)
	case "quest":
		var quest *service.QuestView
		if quest, err = b.ps.Quest(ctx, id, arg); err == nil {
			v = renderQuest(quest)
		}
	case "complete":
		var res *service.QuestCompletion
		if res, err = b.ps.CompleteQuest(ctx, id, arg); err == nil {
			v = renderCompletion(res)
			notice = fmt.Sprintf("+%d coins", res.Coins)
		}
	case "daily":
		v, notice, err = b.toggleDaily(ctx, id, arg)
	case "box":
		v, notice, err = b.openBox(ctx, id, arg)
	case "choice":
		var choice *model.PendingChoice
		if choice, err = b.ps.Choice(ctx, id, arg); err == nil {
			v = renderChoice(choice)
		}
	case "pick":
		v, err = b.pick(ctx, id, arg)
	case "use":
		v, notice, err = b.use(ctx, id, arg)
	case "reset":
		v, err = b.reset(ctx, id, arg)
	default:
		b.answer(q.ID, "Unknown action", false)
		return
	}

	if err != nil {
		if !errors.Is(err, errBadData) && !isExpected(err) {
			log.Error("callback failed", zap.Error(err))
		}
		b.answer(q.ID, failureText(err), true)
		return
	}

	b.answer(q.ID, notice, false)
	if q.Message != nil {
		b.edit(q.Message.Chat.ID, q.Message.MessageID, v)
	}
}

var errBadData = errors.New("malformed callback data")

func (b *Bot) menu(ctx context.Context, id int64, arg string) (view, error) {
	switch arg {
	case "main":
		return renderMainMenu(), nil
	case "quests":
		levels, err := b.ps.Levels(ctx, id)
		if err != nil {
			return view{}, err
		}
		return renderLevels(levels), nil
	case "dailies":
		board, err := b.ps.Dailies(ctx, id)
		if err != nil {
			return view{}, err
		}
		return renderDailies(board, ""), nil
	case "boxes":
		shelf, err := b.ps.Boxes(ctx, id)
		if err != nil {
			return view{}, err
		}
		return renderBoxes(shelf), nil
	case "rewards":
		inv, err := b.ps.Inventory(ctx, id)
		if err != nil {
			return view{}, err
		}
		return renderInventory(inv), nil
	case "profile":
		profile, err := b.ps.Profile(ctx, id)
		if err != nil {
			return view{}, err
		}
		return renderProfile(profile), nil
	}
	return view{}, errBadData
}

func (b *Bot) level(ctx context.Context, id int64, arg string) (view, error) {
	number, err := strconv.Atoi(arg)
	if err != nil {
		return view{}, errBadData
	}
	level, err := b.ps.Level(ctx, id, number)
	if err != nil {
		return view{}, err
	}
	return renderLevel(level), nil
}

func (b *Bot) toggleDaily(ctx context.Context, id int64, code string) (view, string, error) {
	res, err := b.ps.ToggleDaily(ctx, id, code)
	if err != nil {
		return view{}, "", err
	}
	board, err := b.ps.Dailies(ctx, id)
	if err != nil {
		return view{}, "", err
	}
	return renderDailies(board, toggleHeader(res)), fmt.Sprintf("%+d coins", res.Delta), nil
}

func (b *Bot) openBox(ctx context.Context, id int64, arg string) (view, string, error) {
	tier, err := strconv.Atoi(arg)
	if err != nil {
		return view{}, "", errBadData
	}
	res, err := b.ps.BuyBox(ctx, id, model.BoxTier(tier))
	if err != nil {
		return view{}, "", err
	}
	return renderOpening(res), fmt.Sprintf("d100 = %d", res.Roll), nil
}

func (b *Bot) pick(ctx context.Context, id int64, arg string) (view, error) {
	token, rawIndex, ok := strings.Cut(arg, ":")
	if !ok {
		return view{}, errBadData
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		return view{}, errBadData
	}
	res, err := b.ps.PickReward(ctx, id, token, index)
	if err != nil {
		return view{}, err
	}
	return renderPick(res), nil
}

func (b *Bot) use(ctx context.Context, id int64, arg string) (view, string, error) {
	rewardID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return view{}, "", errBadData
	}
	reward, err := b.ps.MarkRewardUsed(ctx, id, rewardID)
	if err != nil {
		return view{}, "", err
	}
	inv, err := b.ps.Inventory(ctx, id)
	if err != nil {
		return view{}, "", err
	}
	return renderInventory(inv), "Enjoy: " + reward.Text, nil
}

func (b *Bot) reset(ctx context.Context, id int64, arg string) (view, error) {
	switch arg {
	case "confirm":
		return renderResetConfirm(), nil
	case "do":
		user, err := b.ps.Reset(ctx, id)
		if err != nil {
			return view{}, err
		}
		return renderReset(user), nil
	}
	return view{}, errBadData
}

func isExpected(err error) bool {
	return errors.Is(err, service.ErrNotFound) ||
		errors.Is(err, service.ErrAlreadyDone) ||
		errors.Is(err, service.ErrAlreadyUsed) ||
		errors.Is(err, service.ErrLocked) ||
		errors.Is(err, service.ErrInsufficientFunds)
}

// failureText is the short alert shown for a failed action.
func failureText(err error) string {
	var locked *service.LockedError
	switch {
	case errors.As(err, &locked):
		return "🔒 Locked: " + lockText(locked)
	case errors.Is(err, service.ErrAlreadyDone):
		return "Already done ✅"
	case errors.Is(err, service.ErrAlreadyUsed):
		return "This reward was already used"
	case errors.Is(err, service.ErrInsufficientFunds):
		return "Not enough coins 😢"
	case errors.Is(err, service.ErrChoiceNotFound):
		return "This offer is no longer available"
	case errors.Is(err, service.ErrNotFound), errors.Is(err, errBadData):
		return "Unknown action"
	case errors.Is(err, service.ErrStorage):
		return "Something went wrong, try again in a moment"
	}
	return "Something went wrong"
}

func (b *Bot) answer(callbackID, text string, alert bool) {
	cfg := tgbotapi.NewCallback(callbackID, text)
	cfg.ShowAlert = alert && text != ""
	if _, err := b.api.Request(cfg); err != nil {
		logger.Logger().Warn("failed to answer callback", zap.Error(err))
	}
}

func (b *Bot) send(chatID int64, v view) {
	msg := tgbotapi.NewMessage(chatID, v.text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(v.markup.InlineKeyboard) > 0 {
		msg.ReplyMarkup = v.markup
	}
	if _, err := b.api.Send(msg); err != nil {
		logger.Logger().Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) edit(chatID int64, messageID int, v view) {
	msg := tgbotapi.NewEditMessageText(chatID, messageID, v.text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(v.markup.InlineKeyboard) > 0 {
		msg.ReplyMarkup = &v.markup
	}
	if _, err := b.api.Send(msg); err != nil {
		logger.Logger().Warn("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
