package api

import (
	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/hoops-valuation/internal/api/handlers"
	"github.com/stitts-dev/hoops-valuation/internal/services"
)

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, valuationService *services.ValuationService) {
	valuationHandler := handlers.NewValuationHandler(valuationService)
	compensationHandler := handlers.NewCompensationHandler(valuationService)

	// Valuation endpoints
	group.POST("/valuations", valuationHandler.ValuatePlayerHistory)
	group.POST("/valuations/batch", valuationHandler.ValuateBatch)
	group.GET("/players/:id/valuation", valuationHandler.GetPlayerValuation)
	group.POST("/seasons/:season/valuations", valuationHandler.ValuateSeason)
	group.GET("/valuation/constants", valuationHandler.GetConstants)

	// Compensation endpoints
	group.GET("/compensation/:playerId", compensationHandler.GetCompensation)
	group.POST("/compensation/reload", compensationHandler.ReloadCompensation)
}

// NewRouter builds the gin engine with middleware, the health probe and
// the versioned API group.
func NewRouter(valuationService *services.ValuationService, health *handlers.HealthHandler, middlewares ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares...)

	router.GET("/health", health.GetHealth)

	apiV1 := router.Group("/api/v1")
	SetupRoutes(apiV1, valuationService)
	return router
}
