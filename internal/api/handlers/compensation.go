package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/hoops-valuation/internal/services"
	"github.com/stitts-dev/hoops-valuation/internal/valuation"
	"github.com/stitts-dev/hoops-valuation/pkg/utils"
)

type CompensationHandler struct {
	service *services.ValuationService
}

func NewCompensationHandler(service *services.ValuationService) *CompensationHandler {
	return &CompensationHandler{
		service: service,
	}
}

// GetCompensation returns a player's salary for a season
func (h *CompensationHandler) GetCompensation(c *gin.Context) {
	playerID := c.Param("playerId")
	season := c.Query("season")
	if err := valuation.ValidateSeasonID(season); err != nil {
		utils.SendValidationError(c, "Invalid season", err.Error())
		return
	}

	rec, ok, err := h.service.Compensation(c.Request.Context(), playerID, season)
	if err != nil {
		sendError(c, err)
		return
	}
	if !ok {
		utils.SendNotFound(c, "No salary on record for this player and season")
		return
	}
	utils.SendSuccess(c, rec)
}

// ReloadCompensation rebuilds the salary index from its source
func (h *CompensationHandler) ReloadCompensation(c *gin.Context) {
	table, err := h.service.ReloadCompensation(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}
	utils.SendSuccess(c, gin.H{
		"records":  table.Len(),
		"built_at": table.BuiltAt().Format(time.RFC3339Nano),
	})
}
