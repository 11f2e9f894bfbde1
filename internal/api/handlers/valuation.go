package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/hoops-valuation/internal/api/middleware"
	"github.com/stitts-dev/hoops-valuation/internal/services"
	"github.com/stitts-dev/hoops-valuation/internal/valuation"
	"github.com/stitts-dev/hoops-valuation/pkg/utils"
)

const maxBatchSize = 1000

type ValuationHandler struct {
	service *services.ValuationService
}

func NewValuationHandler(service *services.ValuationService) *ValuationHandler {
	return &ValuationHandler{
		service: service,
	}
}

// ValuationRequest values one supplied history against an optional
// population of other players' surplus values.
type ValuationRequest struct {
	valuation.PlayerInput
	Population []float64 `json:"population"`
}

type BatchValuationRequest struct {
	Season  string                  `json:"season"`
	Players []valuation.PlayerInput `json:"players"`
}

// ValuatePlayerHistory values a history posted by the caller
func (h *ValuationHandler) ValuatePlayerHistory(c *gin.Context) {
	var req ValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	result, err := h.service.ValuateInput(c.Request.Context(), req.PlayerInput, req.Population)
	if err != nil {
		sendError(c, err)
		return
	}
	utils.SendSuccess(c, result)
}

// ValuateBatch values posted histories as one comparison population
func (h *ValuationHandler) ValuateBatch(c *gin.Context) {
	var req BatchValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if len(req.Players) == 0 {
		utils.SendValidationError(c, "No players supplied", "players must not be empty")
		return
	}
	if len(req.Players) > maxBatchSize {
		utils.SendValidationError(c, "Batch too large", fmt.Sprintf("at most %d players per request", maxBatchSize))
		return
	}

	inputs := make([]valuation.PlayerInput, len(req.Players))
	for i, in := range req.Players {
		if in.Season == "" {
			in.Season = req.Season
		}
		inputs[i] = in
	}

	results, err := h.service.ValuateInputs(c.Request.Context(), inputs)
	if err != nil {
		sendError(c, err)
		return
	}
	utils.SendSuccessWithMeta(c, results, &utils.Meta{
		Total:     len(results),
		Season:    req.Season,
		RequestID: c.GetString(middleware.RequestIDKey),
	})
}

// GetPlayerValuation fetches a player's history and values it
func (h *ValuationHandler) GetPlayerValuation(c *gin.Context) {
	playerID := c.Param("id")
	season := c.Query("season")
	if season == "" {
		utils.SendValidationError(c, "Missing season", "season query parameter is required")
		return
	}

	age := 0
	if raw := c.Query("age"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.SendValidationError(c, "Invalid age", err.Error())
			return
		}
		age = parsed
	}

	result, cached, err := h.service.ValuatePlayer(c.Request.Context(), playerID, season, age)
	if err != nil {
		sendError(c, err)
		return
	}
	utils.SendSuccessWithMeta(c, result, &utils.Meta{
		Season:    season,
		Cached:    cached,
		RequestID: c.GetString(middleware.RequestIDKey),
	})
}

// ValuateSeason values every stored player of a season
func (h *ValuationHandler) ValuateSeason(c *gin.Context) {
	season := c.Param("season")

	out, err := h.service.ValuateSeason(c.Request.Context(), season)
	if err != nil {
		sendError(c, err)
		return
	}
	utils.SendSuccessWithMeta(c, out, &utils.Meta{
		Total:     len(out.Results),
		Failed:    len(out.Skipped),
		Season:    season,
		RequestID: c.GetString(middleware.RequestIDKey),
	})
}

// GetConstants returns the fixed weights and calibration anchors
func (h *ValuationHandler) GetConstants(c *gin.Context) {
	utils.SendSuccess(c, valuation.Constants())
}
