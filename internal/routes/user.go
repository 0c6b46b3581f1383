package routes

import (
	"equipment-tracker/internal/controllers"
	"equipment-tracker/pkg/middleware"

	"github.com/labstack/echo/v4"
)

func runUserRouter(secure *echo.Group, userCtrl *controllers.UserController, authMW *middleware.AuthMiddleware) {
	userGroup := secure.Group("/users")
	{
		userGroup.GET("", userCtrl.GetUsers)
		userGroup.GET("/:id", userCtrl.FindUser)
		userGroup.PUT("/:id/role", userCtrl.UpdateUserRole, authMW.RequireAdmin)
		userGroup.DELETE("/:id", userCtrl.DeleteUser, authMW.RequireAdmin)
	}
}
