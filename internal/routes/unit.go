package routes

import (
	"equipment-tracker/internal/controllers"
	"equipment-tracker/pkg/middleware"

	"github.com/labstack/echo/v4"
)

func runUnitRouter(secure *echo.Group, unitCtrl *controllers.UnitController, authMW *middleware.AuthMiddleware) {
	unitGroup := secure.Group("/units")
	{
		unitGroup.GET("", unitCtrl.GetUnits)
		unitGroup.GET("/:id", unitCtrl.FindUnit)
		unitGroup.POST("", unitCtrl.CreateUnit, authMW.RequireAdmin)
		unitGroup.PUT("/:id", unitCtrl.UpdateUnit, authMW.RequireAdmin)
		unitGroup.DELETE("/:id", unitCtrl.DeleteUnit, authMW.RequireAdmin)
		unitGroup.PUT("/:id/head", unitCtrl.AssignHead, authMW.RequireAdmin)
		unitGroup.DELETE("/:id/head", unitCtrl.UnassignHead, authMW.RequireAdmin)
	}
}
