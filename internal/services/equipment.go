package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"equipment-tracker/internal/dto"
	"equipment-tracker/internal/entities"
	"equipment-tracker/internal/repositories"
	"equipment-tracker/internal/schedule"
	apperrors "equipment-tracker/pkg/errors"
	"equipment-tracker/pkg/types"
	"equipment-tracker/pkg/utils"
)

type EquipmentServiceInterface interface {
	GetEquipments(ctx context.Context, filter types.Filter) ([]dto.EquipmentDTO, uint64, error)
	FindEquipment(ctx context.Context, id uint64) (*dto.EquipmentDTO, error)
	CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*dto.EquipmentDTO, error)
	UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*dto.EquipmentDTO, error)
	DeleteEquipment(ctx context.Context, id uint64) error
	// Calibrate / Maintain фиксируют проведённую поверку или техобслуживание:
	// обновляют исходную дату и пересчитывают производную.
	Calibrate(ctx context.Context, id uint64, payload dto.ServiceDateDTO) (*dto.EquipmentDTO, error)
	Maintain(ctx context.Context, id uint64, payload dto.ServiceDateDTO) (*dto.EquipmentDTO, error)
	IsIDNumberTaken(ctx context.Context, idNumber string, excludeID uint64) (bool, error)
}

type EquipmentService struct {
	equipmentRepo repositories.EquipmentRepositoryInterface
	txManager     repositories.TxManagerInterface
	logger        *zap.Logger
}

func NewEquipmentService(
	equipmentRepo repositories.EquipmentRepositoryInterface,
	txManager repositories.TxManagerInterface,
	logger *zap.Logger,
) EquipmentServiceInterface {
	return &EquipmentService{
		equipmentRepo: equipmentRepo,
		txManager:     txManager,
		logger:        logger,
	}
}

// -----------------------------------------------------------
// МАППИНГ
// -----------------------------------------------------------

func mapEquipmentToDTO(e *entities.Equipment, today time.Time) dto.EquipmentDTO {
	out := dto.EquipmentDTO{
		ID:           e.ID,
		Name:         e.Name,
		Manufacturer: e.Manufacturer,
		Model:        e.Model,
		SerialNumber: e.SerialNumber,
		IDNumber:     e.IDNumber,
		Description:  e.Description,
		Quantity:     e.Quantity,
		UnitID:       e.UnitID,

		CalibrationFrequency: string(e.CalibrationFrequency),
		CalibrationDate:      utils.FormatDatePtr(e.CalibrationDate),
		NextCalibrationDate:  utils.FormatDatePtr(e.NextCalibrationDate),
		CalibrationStatus:    string(e.CalibrationStatus(today)),

		MaintenanceFrequency: string(e.MaintenanceFrequency),
		MaintenanceDate:      utils.FormatDatePtr(e.MaintenanceDate),
		NextMaintenanceDate:  utils.FormatDatePtr(e.NextMaintenanceDate),
		MaintenanceStatus:    string(e.MaintenanceStatus(today)),
	}

	if e.Unit != nil {
		out.UnitName = e.Unit.Name
		if e.Unit.Branch != nil {
			out.BranchID = e.Unit.Branch.ID
			out.BranchName = e.Unit.Branch.Name
		}
	}

	out.Parameters = make([]dto.EquipmentParameterDTO, 0, len(e.Parameters))
	for _, p := range e.Parameters {
		out.Parameters = append(out.Parameters, dto.EquipmentParameterDTO{
			Name:  p.Name,
			Value: p.Value,
		})
	}

	if e.CreatedAt != nil {
		out.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	if e.UpdatedAt != nil {
		out.UpdatedAt = e.UpdatedAt.Format(time.RFC3339)
	}

	return out
}

func mapParamDTOs(equipmentID uint64, params []dto.EquipmentParameterDTO) []entities.EquipmentParameter {
	out := make([]entities.EquipmentParameter, 0, len(params))
	for _, p := range params {
		out = append(out, entities.EquipmentParameter{
			EquipmentID: equipmentID,
			Name:        p.Name,
			Value:       p.Value,
		})
	}
	return out
}

// -----------------------------------------------------------
// ЧТЕНИЕ
// -----------------------------------------------------------

func (s *EquipmentService) GetEquipments(ctx context.Context, filter types.Filter) ([]dto.EquipmentDTO, uint64, error) {
	equipments, total, err := s.equipmentRepo.GetEquipments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	today := time.Now()
	result := make([]dto.EquipmentDTO, 0, len(equipments))
	for i := range equipments {
		result = append(result, mapEquipmentToDTO(&equipments[i], today))
	}
	return result, total, nil
}

func (s *EquipmentService) FindEquipment(ctx context.Context, id uint64) (*dto.EquipmentDTO, error) {
	equipment, err := s.equipmentRepo.FindEquipment(ctx, id)
	if err != nil {
		return nil, err
	}

	params, err := s.equipmentRepo.GetParameters(ctx, id)
	if err != nil {
		return nil, err
	}
	equipment.Parameters = params

	result := mapEquipmentToDTO(equipment, time.Now())
	return &result, nil
}

func (s *EquipmentService) IsIDNumberTaken(ctx context.Context, idNumber string, excludeID uint64) (bool, error) {
	return s.equipmentRepo.IsIDNumberTaken(ctx, idNumber, excludeID)
}

// -----------------------------------------------------------
// СОЗДАНИЕ / ОБНОВЛЕНИЕ
// -----------------------------------------------------------

func (s *EquipmentService) CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*dto.EquipmentDTO, error) {
	taken, err := s.equipmentRepo.IsIDNumberTaken(ctx, payload.IDNumber, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrDuplicateIDNumber
	}

	calDate, err := utils.ParseDatePtr(payload.CalibrationDate)
	if err != nil {
		return nil, apperrors.ErrBadRequest
	}
	mntDate, err := utils.ParseDatePtr(payload.MaintenanceDate)
	if err != nil {
		return nil, apperrors.ErrBadRequest
	}

	quantity := payload.Quantity
	if quantity == 0 {
		quantity = 1
	}

	equipment := entities.Equipment{
		Name:         payload.Name,
		Manufacturer: payload.Manufacturer,
		Model:        payload.Model,
		SerialNumber: payload.SerialNumber,
		IDNumber:     payload.IDNumber,
		Description:  payload.Description,
		Quantity:     quantity,
		UnitID:       payload.UnitID,

		CalibrationFrequency: schedule.Frequency(payload.CalibrationFrequency),
		CalibrationDate:      calDate,
		MaintenanceFrequency: schedule.Frequency(payload.MaintenanceFrequency),
		MaintenanceDate:      mntDate,
	}
	equipment.RecomputeNextDates()

	var newID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		newID, err = s.equipmentRepo.CreateEquipment(ctx, tx, equipment)
		if err != nil {
			return err
		}
		if len(payload.Parameters) > 0 {
			return s.equipmentRepo.ReplaceParameters(ctx, tx, newID, mapParamDTOs(newID, payload.Parameters))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("оборудование создано",
		zap.Uint64("equipmentID", newID),
		zap.String("idNumber", payload.IDNumber))

	return s.FindEquipment(ctx, newID)
}

func (s *EquipmentService) UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*dto.EquipmentDTO, error) {
	equipment, err := s.equipmentRepo.FindEquipment(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload.IDNumber.Valid && payload.IDNumber.String != equipment.IDNumber {
		taken, err := s.equipmentRepo.IsIDNumberTaken(ctx, payload.IDNumber.String, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.ErrDuplicateIDNumber
		}
		equipment.IDNumber = payload.IDNumber.String
	}

	if payload.Name.Valid {
		equipment.Name = payload.Name.String
	}
	if payload.Manufacturer.Valid {
		equipment.Manufacturer = utils.StringPtr(payload.Manufacturer.String)
	}
	if payload.Model.Valid {
		equipment.Model = utils.StringPtr(payload.Model.String)
	}
	if payload.SerialNumber.Valid {
		equipment.SerialNumber = utils.StringPtr(payload.SerialNumber.String)
	}
	if payload.Description.Valid {
		equipment.Description = utils.StringPtr(payload.Description.String)
	}
	if payload.Quantity.Valid {
		equipment.Quantity = payload.Quantity.Int
	}
	if payload.UnitID.Valid {
		equipment.UnitID = payload.UnitID.Uint64
	}

	if payload.CalibrationFrequency.Valid {
		equipment.CalibrationFrequency = schedule.Frequency(payload.CalibrationFrequency.String)
	}
	if payload.CalibrationDate.Valid {
		calDate, err := utils.ParseDatePtr(payload.CalibrationDate.String)
		if err != nil {
			return nil, apperrors.ErrBadRequest
		}
		equipment.CalibrationDate = calDate
	}
	if payload.MaintenanceFrequency.Valid {
		equipment.MaintenanceFrequency = schedule.Frequency(payload.MaintenanceFrequency.String)
	}
	if payload.MaintenanceDate.Valid {
		mntDate, err := utils.ParseDatePtr(payload.MaintenanceDate.String)
		if err != nil {
			return nil, apperrors.ErrBadRequest
		}
		equipment.MaintenanceDate = mntDate
	}

	// Производные даты всегда пересчитываются из исходных полей,
	// даже если менялись только частоты.
	equipment.RecomputeNextDates()

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.equipmentRepo.UpdateEquipment(ctx, tx, id, *equipment); err != nil {
			return err
		}
		if payload.Parameters != nil {
			// Набор параметров заменяется целиком.
			return s.equipmentRepo.ReplaceParameters(ctx, tx, id, mapParamDTOs(id, *payload.Parameters))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.FindEquipment(ctx, id)
}

func (s *EquipmentService) DeleteEquipment(ctx context.Context, id uint64) error {
	return s.equipmentRepo.DeleteEquipment(ctx, id)
}

// -----------------------------------------------------------
// ОТМЕТКИ ОБ ОБСЛУЖИВАНИИ
// -----------------------------------------------------------

func (s *EquipmentService) Calibrate(ctx context.Context, id uint64, payload dto.ServiceDateDTO) (*dto.EquipmentDTO, error) {
	return s.recordService(ctx, id, payload, true)
}

func (s *EquipmentService) Maintain(ctx context.Context, id uint64, payload dto.ServiceDateDTO) (*dto.EquipmentDTO, error) {
	return s.recordService(ctx, id, payload, false)
}

func (s *EquipmentService) recordService(ctx context.Context, id uint64, payload dto.ServiceDateDTO, calibration bool) (*dto.EquipmentDTO, error) {
	equipment, err := s.equipmentRepo.FindEquipment(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	serviceDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if payload.Date != "" {
		parsed, err := utils.ParseDatePtr(payload.Date)
		if err != nil {
			return nil, apperrors.ErrBadRequest
		}
		serviceDate = *parsed
	}

	// Новая отметка не может быть раньше уже записанной даты обслуживания.
	prev := equipment.MaintenanceDate
	if calibration {
		prev = equipment.CalibrationDate
	}
	if prev != nil && serviceDate.Before(*prev) {
		return nil, apperrors.ErrServiceDateInPast
	}

	if calibration {
		equipment.CalibrationDate = &serviceDate
	} else {
		equipment.MaintenanceDate = &serviceDate
	}
	equipment.RecomputeNextDates()

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.equipmentRepo.UpdateEquipment(ctx, tx, id, *equipment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("отметка об обслуживании записана",
		zap.Uint64("equipmentID", id),
		zap.Bool("calibration", calibration),
		zap.Time("serviceDate", serviceDate))

	return s.FindEquipment(ctx, id)
}
