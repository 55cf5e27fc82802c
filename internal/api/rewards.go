package api

import (
	"net/http"

	"lifequest_bot/internal/service"

	"github.com/gin-gonic/gin"
)

type rewardRoutes struct {
	ps service.ProgressionServiceI
}

func NewRewardRoutes(handler *gin.RouterGroup, ps service.ProgressionServiceI) {
	r := &rewardRoutes{ps: ps}

	rewards := handler.Group("/rewards")
	{
		rewards.GET("", r.GetInventory)
		rewards.POST("/:id/use", r.MarkUsed)
	}

	choices := handler.Group("/choices")
	{
		choices.GET("/:token", r.GetChoice)
		choices.POST("/:token/pick", r.Pick)
	}
}

func (r *rewardRoutes) GetInventory(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}

	inv, err := r.ps.Inventory(c.Request.Context(), id)
	if err != nil {
		respondError(c, id, "get inventory", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active": toRewards(inv.Active),
		"recent": toRewards(inv.Recent),
	})
}

func (r *rewardRoutes) MarkUsed(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}
	rewardID, ok := intParam(c, "id")
	if !ok {
		return
	}

	reward, err := r.ps.MarkRewardUsed(c.Request.Context(), id, rewardID)
	if err != nil {
		respondError(c, id, "mark reward used", err)
		return
	}
	c.JSON(http.StatusOK, toReward(*reward))
}

func (r *rewardRoutes) GetChoice(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}

	choice, err := r.ps.Choice(c.Request.Context(), id, c.Param("token"))
	if err != nil {
		respondError(c, id, "get choice", err)
		return
	}
	c.JSON(http.StatusOK, toChoice(choice))
}

func (r *rewardRoutes) Pick(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Index *int `json:"index" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index is required"})
		return
	}

	pick, err := r.ps.PickReward(c.Request.Context(), id, c.Param("token"), *req.Index)
	if err != nil {
		respondError(c, id, "pick reward", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reward": toReward(pick.Reward), "balance": pick.Balance})
}
