package router

import (
	"captionSelector/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetSelectionRoutes(api *echo.Group, handler *rest.SelectionHandler) {
	creators := api.Group("/creators/:creator_id")
	creators.POST("/selections", handler.SelectCaptions)
	creators.GET("/recency", handler.GetRecency)

	api.GET("/plan", handler.PlanTiers)
}

func SetAdminRoutes(api *echo.Group, handler *rest.AdminHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	admin := api.Group("/admin", authRequired, adminOnly)

	admin.GET("/restrictions/:creator_id", handler.GetRestriction)
	admin.PUT("/restrictions/:creator_id", handler.PublishRestriction)
	admin.GET("/selection-config/:creator_id", handler.GetConfig)
	admin.PUT("/selection-config/:creator_id", handler.UpsertConfig)
}
