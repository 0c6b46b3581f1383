package routes

import (
	"equipment-tracker/internal/controllers"
	"equipment-tracker/pkg/middleware"

	"github.com/labstack/echo/v4"
)

func runNotificationRouter(secure *echo.Group, notificationCtrl *controllers.NotificationController, authMW *middleware.AuthMiddleware) {
	secure.POST("/notifications/run", notificationCtrl.Run, authMW.RequireAdmin)
}
