package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"equipment-tracker/internal/dto"
	"equipment-tracker/internal/repositories"
	"equipment-tracker/pkg/types"
	"equipment-tracker/pkg/utils"
)

type ReportServiceInterface interface {
	// GetRegister возвращает реестр оборудования со статусами на текущую дату.
	GetRegister(ctx context.Context, filter types.Filter) ([]dto.ReportItemDTO, uint64, error)
}

type reportService struct {
	equipmentRepo repositories.EquipmentRepositoryInterface
	logger        *zap.Logger
}

func NewReportService(
	equipmentRepo repositories.EquipmentRepositoryInterface,
	logger *zap.Logger,
) ReportServiceInterface {
	return &reportService{
		equipmentRepo: equipmentRepo,
		logger:        logger,
	}
}

func (s *reportService) GetRegister(ctx context.Context, filter types.Filter) ([]dto.ReportItemDTO, uint64, error) {
	equipments, total, err := s.equipmentRepo.GetEquipments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	today := time.Now()
	items := make([]dto.ReportItemDTO, 0, len(equipments))
	for i := range equipments {
		e := &equipments[i]
		item := dto.ReportItemDTO{
			EquipmentID:         e.ID,
			Name:                e.Name,
			IDNumber:            e.IDNumber,
			Quantity:            e.Quantity,
			CalibrationDate:     utils.FormatDatePtr(e.CalibrationDate),
			NextCalibrationDate: utils.FormatDatePtr(e.NextCalibrationDate),
			CalibrationStatus:   string(e.CalibrationStatus(today)),
			MaintenanceDate:     utils.FormatDatePtr(e.MaintenanceDate),
			NextMaintenanceDate: utils.FormatDatePtr(e.NextMaintenanceDate),
			MaintenanceStatus:   string(e.MaintenanceStatus(today)),
		}
		if e.Unit != nil {
			item.UnitName = e.Unit.Name
			if e.Unit.Branch != nil {
				item.BranchName = e.Unit.Branch.Name
			}
		}
		items = append(items, item)
	}

	return items, total, nil
}
