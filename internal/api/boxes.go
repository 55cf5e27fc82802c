package api

import (
	"net/http"
	"strconv"

	"lifequest_bot/internal/model"
	"lifequest_bot/internal/service"

	"github.com/gin-gonic/gin"
)

type boxRoutes struct {
	ps service.ProgressionServiceI
}

func NewBoxRoutes(handler *gin.RouterGroup, ps service.ProgressionServiceI) {
	r := &boxRoutes{ps: ps}
	h := handler.Group("/boxes")
	{
		h.GET("", r.ListBoxes)
		h.POST("/:tier/open", r.OpenBox)
	}
}

func (r *boxRoutes) ListBoxes(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}

	shelf, err := r.ps.Boxes(c.Request.Context(), id)
	if err != nil {
		respondError(c, id, "list boxes", err)
		return
	}

	out := make([]BoxResponse, 0, len(shelf.Boxes))
	for _, box := range shelf.Boxes {
		out = append(out, BoxResponse{Tier: int(box.Tier), Name: box.Name, Cost: box.Cost, Affordable: box.Affordable})
	}
	c.JSON(http.StatusOK, gin.H{"balance": shelf.Balance, "boxes": out})
}

func (r *boxRoutes) OpenBox(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}

	tier, err := strconv.Atoi(c.Param("tier"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tier"})
		return
	}

	res, err := r.ps.BuyBox(c.Request.Context(), id, model.BoxTier(tier))
	if err != nil {
		respondError(c, id, "buy box", err)
		return
	}

	out := OpeningResponse{
		Tier:    int(res.Tier),
		Cost:    res.Cost,
		Roll:    res.Roll,
		Balance: res.Balance,
		Rewards: toRewards(res.Rewards),
	}
	if res.MiniEvent != nil {
		out.MiniEvent = &MiniEventResponse{Title: res.MiniEvent.Title, Text: res.MiniEvent.Text}
	}
	c.JSON(http.StatusOK, out)
}
