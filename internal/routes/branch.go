package routes

import (
	"equipment-tracker/internal/controllers"
	"equipment-tracker/pkg/middleware"

	"github.com/labstack/echo/v4"
)

func runBranchRouter(secure *echo.Group, branchCtrl *controllers.BranchController, authMW *middleware.AuthMiddleware) {
	branchGroup := secure.Group("/branches")
	{
		branchGroup.GET("", branchCtrl.GetBranches)
		branchGroup.GET("/:id", branchCtrl.FindBranch)
		branchGroup.POST("", branchCtrl.CreateBranch, authMW.RequireAdmin)
		branchGroup.PUT("/:id", branchCtrl.UpdateBranch, authMW.RequireAdmin)
		branchGroup.DELETE("/:id", branchCtrl.DeleteBranch, authMW.RequireAdmin)
	}
}
