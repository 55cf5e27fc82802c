package api

import (
	"net/http"

	"lifequest_bot/internal/service"

	"github.com/gin-gonic/gin"
)

type dailyRoutes struct {
	ps service.ProgressionServiceI
}

func NewDailyRoutes(handler *gin.RouterGroup, ps service.ProgressionServiceI) {
	r := &dailyRoutes{ps: ps}
	h := handler.Group("/dailies")
	{
		h.GET("", r.GetBoard)
		h.POST("/:code/toggle", r.Toggle)
	}
}

func (r *dailyRoutes) GetBoard(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}

	board, err := r.ps.Dailies(c.Request.Context(), id)
	if err != nil {
		respondError(c, id, "list dailies", err)
		return
	}

	out := DailyBoardResponse{Day: board.Day, Balance: board.Balance, Tasks: make([]DailyTaskResponse, 0, len(board.Tasks))}
	for _, state := range board.Tasks {
		out.Tasks = append(out.Tasks, DailyTaskResponse{
			Code:     state.Task.Code,
			Title:    state.Task.Title,
			Coins:    state.Task.Coins,
			Examples: state.Task.Examples,
			Done:     state.Done,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (r *dailyRoutes) Toggle(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := r.ps.ToggleDaily(c.Request.Context(), id, c.Param("code"))
	if err != nil {
		respondError(c, id, "toggle daily", err)
		return
	}

	c.JSON(http.StatusOK, ToggleResponse{
		Code:       res.Task.Code,
		Day:        res.Day,
		Done:       res.Done,
		Delta:      res.Delta,
		Balance:    res.Balance,
		Suggestion: res.Suggestion,
	})
}
