package api

import (
	"net/http"
	"strconv"

	"lifequest_bot/internal/model"
	"lifequest_bot/internal/service"

	"github.com/gin-gonic/gin"
)

type questRoutes struct {
	ps service.ProgressionServiceI
}

func NewQuestRoutes(handler *gin.RouterGroup, ps service.ProgressionServiceI) {
	r := &questRoutes{ps: ps}

	levels := handler.Group("/levels")
	{
		levels.GET("", r.ListLevels)
		levels.GET("/:level", r.GetLevel)
	}

	quests := handler.Group("/quests")
	{
		quests.GET("/:code", r.GetQuest)
		quests.POST("/:code/complete", r.CompleteQuest)
	}
}

func (r *questRoutes) ListLevels(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}

	levels, err := r.ps.Levels(c.Request.Context(), id)
	if err != nil {
		respondError(c, id, "list levels", err)
		return
	}

	out := make([]LevelResponse, 0, len(levels))
	for _, level := range levels {
		out = append(out, toLevel(level, false))
	}
	c.JSON(http.StatusOK, out)
}

func (r *questRoutes) GetLevel(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}

	number, err := strconv.Atoi(c.Param("level"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid level"})
		return
	}

	level, err := r.ps.Level(c.Request.Context(), id, number)
	if err != nil {
		respondError(c, id, "get level", err)
		return
	}
	c.JSON(http.StatusOK, toLevel(*level, true))
}

func (r *questRoutes) GetQuest(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}

	quest, err := r.ps.Quest(c.Request.Context(), id, c.Param("code"))
	if err != nil {
		respondError(c, id, "get quest", err)
		return
	}
	c.JSON(http.StatusOK, toQuest(*quest))
}

func (r *questRoutes) CompleteQuest(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := r.ps.CompleteQuest(c.Request.Context(), id, c.Param("code"))
	if err != nil {
		respondError(c, id, "complete quest", err)
		return
	}

	out := CompletionResponse{
		Quest:    toQuest(service.QuestView{Quest: res.Quest, Status: model.QuestDone}),
		Coins:    res.Coins,
		Balance:  res.Balance,
		Rewards:  toRewards(res.Rewards),
		Choice:   toChoice(res.Choice),
		Unlocked: res.Unlocked,
	}
	if out.Unlocked == nil {
		out.Unlocked = []string{}
	}
	if res.LevelFinal != nil {
		out.LevelFinal = &LevelFinalBody{
			Level:   res.LevelFinal.Level,
			Coins:   res.LevelFinal.Coins,
			Rewards: toRewards(res.LevelFinal.Rewards),
		}
	}
	c.JSON(http.StatusOK, out)
}
