package bot

import (
	"testing"
	"time"

	"lifequest_bot/internal/model"
	"lifequest_bot/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		done, total int
		want        string
	}{
		{0, 0, "░░░░░░░░░░"},
		{0, 11, "░░░░░░░░░░"},
		{5, 11, "█████░░░░░"},
		{11, 11, "██████████"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, progressBar(tt.done, tt.total))
	}
}

func TestRenderEscapesUserText(t *testing.T) {
	v := renderInventory(&service.Inventory{
		Recent: []model.Reward{{ID: 1, Origin: "lootbox:2", Tier: model.TierMiddle, Rarity: model.RarityUncommon, Text: "<b>Cake</b> & tea", CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}},
		Active: []model.Reward{{ID: 1, Text: "<b>Cake</b> & tea"}},
	})

	assert.Contains(t, v.text, "&lt;b&gt;Cake&lt;/b&gt; &amp; tea")
	assert.Contains(t, v.text, "Box Middle Happiness")
	assert.Equal(t, "use:1", *v.markup.InlineKeyboard[0][0].CallbackData)
}

func TestRenderQuestLock(t *testing.T) {
	v := renderQuest(&service.QuestView{
		Quest:  model.Quest{Code: "2.4", Level: 2, Title: "Earn more than $100", Rarity: model.RarityRare, Coins: 10},
		Status: model.QuestLocked,
		Lock:   &service.LockedError{Code: "2.4", Reason: service.LockPrerequisite, Prerequisite: "2.3"},
	})

	assert.Contains(t, v.text, "finish 2.3 first")
	assert.Len(t, v.markup.InlineKeyboard, 1, "locked quests only get a back button")

	v = renderQuest(&service.QuestView{Quest: model.Quest{Code: "2.3", Level: 2}, Status: model.QuestActive})
	assert.Equal(t, "complete:2.3", *v.markup.InlineKeyboard[0][0].CallbackData)
}
