package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/hoops-valuation/internal/api/middleware"
	"github.com/stitts-dev/hoops-valuation/internal/compensation"
	"github.com/stitts-dev/hoops-valuation/internal/providers"
	"github.com/stitts-dev/hoops-valuation/internal/services"
	"github.com/stitts-dev/hoops-valuation/internal/valuation"
	"github.com/stitts-dev/hoops-valuation/pkg/logger"
	"github.com/stitts-dev/hoops-valuation/pkg/utils"
)

// sendError maps service and engine errors onto the response envelope.
func sendError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, valuation.ErrMissingPlayerID),
		errors.Is(err, valuation.ErrInvalidSeason),
		errors.Is(err, valuation.ErrNegativeStat),
		errors.Is(err, valuation.ErrInvalidStat),
		errors.Is(err, valuation.ErrInvalidAge):
		utils.SendValidationError(c, "Invalid valuation input", err.Error())
	case errors.Is(err, services.ErrNoRoster):
		utils.SendValidationError(c, "Season valuation is not available", err.Error())
	case errors.Is(err, providers.ErrPlayerNotFound):
		utils.SendNotFound(c, "Player not found")
	case errors.Is(err, services.ErrUpstreamUnavailable):
		utils.SendUnavailable(c, "Stats provider is temporarily unavailable")
	case errors.Is(err, services.ErrHistoryFetch):
		utils.SendUpstreamError(c, "Failed to fetch player history", err.Error())
	case errors.Is(err, compensation.ErrMalformedRecord):
		utils.SendUpstreamError(c, "Compensation feed is malformed", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		utils.SendError(c, http.StatusGatewayTimeout, utils.NewAppError(utils.ErrCodeUpstream, "Request timed out"))
	default:
		logger.WithRequestID(c.GetString(middleware.RequestIDKey)).
			WithError(err).
			Error("Unhandled valuation error")
		utils.SendInternalError(c, "Valuation failed")
	}
}
