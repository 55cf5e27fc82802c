package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lifequest_bot/internal/middleware"
	"lifequest_bot/internal/model"
	"lifequest_bot/internal/service"
	"lifequest_bot/internal/service/mocks"
	"lifequest_bot/pkg/auth"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const userID int64 = 42

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) lastAnswer(t *testing.T) tgbotapi.CallbackConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	answer, ok := f.requests[len(f.requests)-1].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	return answer
}

func (f *fakeSender) lastEdit(t *testing.T) tgbotapi.EditMessageTextConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	edit, ok := f.sent[len(f.sent)-1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	return edit
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func callback(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: userID}},
	}}
}

func command(text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}

func newTestBot(ps service.ProgressionServiceI, allow []int64) (*Bot, *fakeSender) {
	sender := &fakeSender{}
	return New(sender, ps, auth.NewAllowlist(allow), middleware.NewRateLimiter(middleware.RateLimitConfig{})), sender
}

func TestStartCommand(t *testing.T) {
	ps := &mocks.MockProgressionService{}
	ps.On("Start", mock.Anything, userID).Return(&model.User{TelegramID: userID, Balance: 0}, nil)

	b, sender := newTestBot(ps, nil)
	b.HandleUpdate(context.Background(), command("/start"))

	require.Equal(t, 1, sender.count())
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "LifeQuest")
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	ps.AssertExpectations(t)
}

func TestCompleteCallback(t *testing.T) {
	tests := []struct {
		name       string
		mockSetup  func(m *mocks.MockProgressionService)
		wantAnswer string
		wantAlert  bool
		wantEdit   string
	}{
		{
			name: "Choice offered",
			mockSetup: func(m *mocks.MockProgressionService) {
				m.On("CompleteQuest", mock.Anything, userID, "3.1").Return(&service.QuestCompletion{
					Quest:   model.Quest{Code: "3.1", Level: 3, Title: "Close the $500 debt", Rarity: model.RarityEpic, Coins: 15},
					Coins:   15,
					Balance: 40,
					Choice:  &model.PendingChoice{Token: "tok", Options: []string{"Weekend trip", "New video game"}},
				}, nil)
			},
			wantAnswer: "+15 coins",
			wantEdit:   "Choose your reward",
		},
		{
			name: "Locked",
			mockSetup: func(m *mocks.MockProgressionService) {
				m.On("CompleteQuest", mock.Anything, userID, "3.1").Return(nil, &service.LockedError{Code: "3.1", Reason: service.LockEarlierLevel, Level: 2})
			},
			wantAnswer: "finish level 2 first",
			wantAlert:  true,
		},
		{
			name: "Already done",
			mockSetup: func(m *mocks.MockProgressionService) {
				m.On("CompleteQuest", mock.Anything, userID, "3.1").Return(nil, service.ErrAlreadyDone)
			},
			wantAnswer: "Already done",
			wantAlert:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := &mocks.MockProgressionService{}
			tt.mockSetup(ps)
			b, sender := newTestBot(ps, nil)

			b.HandleUpdate(context.Background(), callback("complete:3.1"))

			answer := sender.lastAnswer(t)
			assert.Contains(t, answer.Text, tt.wantAnswer)
			assert.Equal(t, tt.wantAlert, answer.ShowAlert)
			if tt.wantEdit != "" {
				edit := sender.lastEdit(t)
				assert.Contains(t, edit.Text, tt.wantEdit)
				require.NotNil(t, edit.ReplyMarkup)
				assert.Equal(t, "pick:tok:1", *edit.ReplyMarkup.InlineKeyboard[1][0].CallbackData)
			} else {
				assert.Equal(t, 0, sender.count())
			}
			ps.AssertExpectations(t)
		})
	}
}

func TestPickAndMalformedCallbacks(t *testing.T) {
	ps := &mocks.MockProgressionService{}
	ps.On("PickReward", mock.Anything, userID, "tok", 1).Return(&service.RewardPick{
		Reward:  model.Reward{Text: "New video game"},
		Balance: 40,
	}, nil)
	b, sender := newTestBot(ps, nil)

	b.HandleUpdate(context.Background(), callback("pick:tok:1"))
	assert.Contains(t, sender.lastEdit(t).Text, "New video game")

	for _, data := range []string{"pick:tok", "box:big", "level:x", "menu:nowhere", "bogus"} {
		b.HandleUpdate(context.Background(), callback(data))
		assert.Equal(t, "Unknown action", sender.lastAnswer(t).Text, data)
	}
	ps.AssertExpectations(t)
}

func TestDailyToggleCallback(t *testing.T) {
	ps := &mocks.MockProgressionService{}
	ps.On("ToggleDaily", mock.Anything, userID, "small").Return(&service.DailyToggle{
		Task:       model.DailyTask{Code: "small", Title: "Small task", Coins: 2},
		Done:       true,
		Delta:      2,
		Balance:    2,
		Suggestion: "Wash one mug.",
	}, nil)
	ps.On("Dailies", mock.Anything, userID).Return(&service.DailyBoard{
		Day:     "2025-03-01",
		Balance: 2,
		Tasks:   []model.DailyState{{Task: model.DailyTask{Code: "small", Title: "Small task", Coins: 2}, Done: true}},
	}, nil)
	b, sender := newTestBot(ps, nil)

	b.HandleUpdate(context.Background(), callback("daily:small"))

	assert.Equal(t, "+2 coins", sender.lastAnswer(t).Text)
	edit := sender.lastEdit(t)
	assert.Contains(t, edit.Text, "Wash one mug.")
	assert.Equal(t, "✅ Small task (+2)", edit.ReplyMarkup.InlineKeyboard[0][0].Text)
	ps.AssertExpectations(t)
}

func TestAllowlistBlocksStrangers(t *testing.T) {
	ps := &mocks.MockProgressionService{}
	b, sender := newTestBot(ps, []int64{1})

	b.HandleUpdate(context.Background(), callback("menu:profile"))
	assert.Equal(t, "This game is private.", sender.lastAnswer(t).Text)

	b.HandleUpdate(context.Background(), command("/start"))
	ps.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
	ps.AssertNotCalled(t, "Profile", mock.Anything, mock.Anything)
}

func TestResetFlow(t *testing.T) {
	ps := &mocks.MockProgressionService{}
	ps.On("Reset", mock.Anything, userID).Return(&model.User{TelegramID: userID}, nil).Once()
	b, sender := newTestBot(ps, nil)

	b.HandleUpdate(context.Background(), callback("reset:confirm"))
	assert.Equal(t, "reset:do", *sender.lastEdit(t).ReplyMarkup.InlineKeyboard[0][0].CallbackData)
	ps.AssertNotCalled(t, "Reset", mock.Anything, mock.Anything)

	b.HandleUpdate(context.Background(), callback("reset:do"))
	assert.Contains(t, sender.lastEdit(t).Text, "fresh start")
	ps.AssertExpectations(t)
}

func TestPollStopsWithContext(t *testing.T) {
	ps := &mocks.MockProgressionService{}
	b, sender := newTestBot(ps, nil)

	updates := make(chan tgbotapi.Update, 1)
	updates <- callback("menu:main")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Poll(ctx, updates)
		close(done)
	}()

	require.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poll did not stop")
	}
}

func TestWebhook(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ps := &mocks.MockProgressionService{}
	b, sender := newTestBot(ps, nil)

	r := gin.New()
	r.POST("/telegram/webhook", b.Webhook())

	body := `{"update_id":1,"callback_query":{"id":"cb","from":{"id":42},"data":"menu:main","message":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}}`
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, sender.lastEdit(t).Text, "Main menu")

	req = httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPartnerNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := NewPartnerNotifier(sender, 99)

	n.Notify(context.Background(), service.Event{UserID: userID, Rewards: []model.Reward{{Text: "Coffee date"}}})
	n.Notify(context.Background(), service.Event{UserID: userID, Rewards: []model.Reward{{Text: "Date he organizes", Partner: true}}})

	require.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, 5*time.Millisecond)
	msg := sender.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(99), msg.ChatID)
	assert.Contains(t, msg.Text, "Date he organizes")

	NewPartnerNotifier(sender, 0).Notify(context.Background(), service.Event{Rewards: []model.Reward{{Partner: true}}})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, sender.count())
}
