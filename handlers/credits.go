package handlers

import (
	"net/http"

	"classbook/middleware"
	"classbook/services/credit"
	"classbook/utils"

	"github.com/gin-gonic/gin"
)

type CreditHandler struct {
	Ledger credit.Ledger
}

func NewCreditHandler(ledger credit.Ledger) *CreditHandler {
	return &CreditHandler{Ledger: ledger}
}

// GetMine handles GET /api/credits.
func (h *CreditHandler) GetMine(c *gin.Context) {
	userID := middleware.UserID(c)
	ctx := c.Request.Context()

	total, err := h.Ledger.GetUserCredits(ctx, userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	pkgs, err := h.Ledger.ListPackages(ctx, userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"credits": total, "packages": pkgs})
}
