package routes

import (
	"equipment-tracker/internal/controllers"
	"equipment-tracker/pkg/middleware"

	"github.com/labstack/echo/v4"
)

func runEquipmentRouter(secure *echo.Group, equipmentCtrl *controllers.EquipmentController, authMW *middleware.AuthMiddleware) {
	equipmentGroup := secure.Group("/equipments")
	{
		equipmentGroup.GET("", equipmentCtrl.GetEquipments)
		equipmentGroup.GET("/check_id_number", equipmentCtrl.CheckIDNumber)
		equipmentGroup.GET("/:id", equipmentCtrl.FindEquipment)
		equipmentGroup.POST("", equipmentCtrl.CreateEquipment)
		equipmentGroup.PUT("/:id", equipmentCtrl.UpdateEquipment)
		equipmentGroup.DELETE("/:id", equipmentCtrl.DeleteEquipment, authMW.RequireAdmin)
		equipmentGroup.PUT("/:id/calibrate", equipmentCtrl.Calibrate)
		equipmentGroup.PUT("/:id/maintain", equipmentCtrl.Maintain)
	}
}
