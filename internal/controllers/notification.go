package controllers

import (
	"net/http"

	"equipment-tracker/internal/scheduler"
	"equipment-tracker/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type NotificationController struct {
	scheduler *scheduler.Scheduler
	logger    *zap.Logger
}

func NewNotificationController(sched *scheduler.Scheduler, logger *zap.Logger) *NotificationController {
	return &NotificationController{
		scheduler: sched,
		logger:    logger,
	}
}

// Run запускает обход уведомлений вручную, вне расписания.
// Если фоновый обход уже идёт, запрос не ставится в очередь.
func (c *NotificationController) Run(ctx echo.Context) error {
	started := c.scheduler.RunOnce(ctx.Request().Context())
	if !started {
		c.logger.Warn("ручной запуск обхода пропущен: предыдущий ещё выполняется")
		return ctx.JSON(http.StatusConflict, map[string]interface{}{
			"status":  false,
			"message": "Обход уже выполняется, повторный запуск пропущен",
		})
	}

	return utils.SuccessResponse(ctx, map[string]bool{"started": true},
		"Обход уведомлений выполнен", http.StatusOK)
}
