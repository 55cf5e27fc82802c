package api

import (
	"net/http"
	"strconv"

	"lifequest_bot/internal/service"

	"github.com/gin-gonic/gin"
)

type profileRoutes struct {
	ps service.ProgressionServiceI
}

func NewProfileRoutes(handler *gin.RouterGroup, ps service.ProgressionServiceI) {
	r := &profileRoutes{ps: ps}

	handler.GET("/profile", r.GetProfile)
	handler.GET("/transactions", r.ListTransactions)
	handler.POST("/reset", r.Reset)
}

func (r *profileRoutes) GetProfile(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := r.ps.Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, id, "get profile", err)
		return
	}

	out := ProfileResponse{
		TelegramID:    profile.User.TelegramID,
		Balance:       profile.User.Balance,
		ApartmentDone: profile.Apartment.Done,
		ApartmentAll:  profile.Apartment.Total,
		RarityCounts:  make(map[string]int, len(profile.RarityCounts)),
		TotalRewards:  profile.TotalRewards,
		ActiveRewards: profile.ActiveRewards,
	}
	for _, level := range profile.Levels {
		out.Levels = append(out.Levels, toLevel(level, false))
	}
	for rarity, n := range profile.RarityCounts {
		out.RarityCounts[rarity.String()] = n
	}

	c.JSON(http.StatusOK, out)
}

func (r *profileRoutes) ListTransactions(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	txs, err := r.ps.Transactions(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, id, "list transactions", err)
		return
	}

	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, TransactionResponse{Amount: tx.Amount, Reason: tx.Reason, CreatedAt: tx.CreatedAt})
	}
	c.JSON(http.StatusOK, out)
}

// Reset requires {"confirm": true} so a stray request cannot wipe progress.
func (r *profileRoutes) Reset(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !req.Confirm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reset must be confirmed"})
		return
	}

	user, err := r.ps.Reset(c.Request.Context(), id)
	if err != nil {
		respondError(c, id, "reset", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": user.Balance})
}
