package controllers

import (
	"net/http"

	"equipment-tracker/internal/dto"
	"equipment-tracker/internal/services"
	apperrors "equipment-tracker/pkg/errors"
	"equipment-tracker/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type UnitController struct {
	unitService services.UnitServiceInterface
	logger      *zap.Logger
}

func NewUnitController(service services.UnitServiceInterface, logger *zap.Logger) *UnitController {
	return &UnitController{
		unitService: service,
		logger:      logger,
	}
}

func (c *UnitController) GetUnits(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, total, err := c.unitService.GetUnits(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("GetUnits: ошибка при получении списка подразделений", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Список подразделений успешно получен", http.StatusOK, total)
}

func (c *UnitController) FindUnit(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.unitService.FindUnit(ctx.Request().Context(), id)
	if err != nil {
		c.logger.Error("FindUnit: ошибка при поиске подразделения", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Подразделение успешно найдено", http.StatusOK)
}

func (c *UnitController) CreateUnit(ctx echo.Context) error {
	var payload dto.CreateUnitDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(
			ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных в теле запроса", err, nil),
			c.logger,
		)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.unitService.CreateUnit(ctx.Request().Context(), payload)
	if err != nil {
		c.logger.Error("CreateUnit: ошибка при создании подразделения", zap.Any("payload", payload), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Подразделение успешно создано", http.StatusCreated)
}

func (c *UnitController) UpdateUnit(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateUnitDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(
			ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных в теле запроса", err, nil),
			c.logger,
		)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.unitService.UpdateUnit(ctx.Request().Context(), id, payload)
	if err != nil {
		c.logger.Error("UpdateUnit: ошибка при обновлении подразделения", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Подразделение успешно обновлено", http.StatusOK)
}

func (c *UnitController) DeleteUnit(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.unitService.DeleteUnit(ctx.Request().Context(), id); err != nil {
		c.logger.Error("DeleteUnit: ошибка при удалении подразделения", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, struct{}{}, "Подразделение успешно удалено", http.StatusOK)
}

// AssignHead назначает ответственного за подразделение.
func (c *UnitController) AssignHead(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.AssignHeadDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(
			ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных в теле запроса", err, nil),
			c.logger,
		)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.unitService.AssignHead(ctx.Request().Context(), id, payload)
	if err != nil {
		c.logger.Error("AssignHead: ошибка при назначении ответственного",
			zap.Uint64("unitID", id), zap.Uint64("userID", payload.UserID), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Ответственный успешно назначен", http.StatusOK)
}

// UnassignHead снимает ответственного с подразделения.
func (c *UnitController) UnassignHead(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.unitService.UnassignHead(ctx.Request().Context(), id)
	if err != nil {
		c.logger.Error("UnassignHead: ошибка при снятии ответственного", zap.Uint64("unitID", id), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Ответственный снят с подразделения", http.StatusOK)
}
