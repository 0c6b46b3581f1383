package routes

import (
	"equipment-tracker/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runReportRouter(secure *echo.Group, reportCtrl *controllers.ReportController) {
	secure.GET("/reports/register", reportCtrl.GetRegister)
}
