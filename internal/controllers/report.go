package controllers

import (
	"fmt"
	"net/http"
	"time"

	"equipment-tracker/internal/dto"
	"equipment-tracker/internal/services"
	"equipment-tracker/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(service services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{
		reportService: service,
		logger:        logger,
	}
}

var registerHeaders = []string{
	"№", "Наименование", "Инв. номер", "Подразделение", "Филиал", "Кол-во",
	"Дата поверки", "След. поверка", "Статус поверки",
	"Дата ТО", "След. ТО", "Статус ТО",
}

func registerRowToSlice(item dto.ReportItemDTO) []interface{} {
	return []interface{}{
		item.EquipmentID, item.Name, item.IDNumber, item.UnitName, item.BranchName, item.Quantity,
		item.CalibrationDate, item.NextCalibrationDate, item.CalibrationStatus,
		item.MaintenanceDate, item.NextMaintenanceDate, item.MaintenanceStatus,
	}
}

// GetRegister отдаёт реестр оборудования: JSON по умолчанию, XLSX при format=xlsx.
func (c *ReportController) GetRegister(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	if ctx.QueryParam("format") == "xlsx" {
		// Для выгрузки пагинация не применяется.
		filter.WithPagination = false
	}

	items, total, err := c.reportService.GetRegister(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("GetRegister: ошибка при формировании реестра", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if ctx.QueryParam("format") == "xlsx" {
		return c.respondWithXLSX(ctx, items)
	}

	return utils.SuccessResponse(ctx, items, "Реестр оборудования успешно сформирован", http.StatusOK, total)
}

func (c *ReportController) respondWithXLSX(ctx echo.Context, data []dto.ReportItemDTO) error {
	f := excelize.NewFile()
	sheet := "Реестр оборудования"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &registerHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "L1", style)

	for i, item := range data {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := registerRowToSlice(item)
		f.SetSheetRow(sheet, cell, &row)
	}
	f.SetColWidth(sheet, "B", "B", 30)
	f.SetColWidth(sheet, "C", "E", 20)
	f.SetColWidth(sheet, "G", "L", 16)

	fileName := fmt.Sprintf("equipment_register_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}
