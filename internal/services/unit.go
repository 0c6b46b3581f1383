package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"equipment-tracker/internal/dto"
	"equipment-tracker/internal/entities"
	"equipment-tracker/internal/repositories"
	"equipment-tracker/pkg/constants"
	apperrors "equipment-tracker/pkg/errors"
	"equipment-tracker/pkg/types"
)

type UnitServiceInterface interface {
	GetUnits(ctx context.Context, filter types.Filter) ([]dto.UnitDTO, uint64, error)
	FindUnit(ctx context.Context, id uint64) (*dto.UnitDTO, error)
	CreateUnit(ctx context.Context, payload dto.CreateUnitDTO) (*dto.UnitDTO, error)
	UpdateUnit(ctx context.Context, id uint64, payload dto.UpdateUnitDTO) (*dto.UnitDTO, error)
	DeleteUnit(ctx context.Context, id uint64) error
	AssignHead(ctx context.Context, unitID uint64, payload dto.AssignHeadDTO) (*dto.UnitDTO, error)
	UnassignHead(ctx context.Context, unitID uint64) (*dto.UnitDTO, error)
}

type UnitService struct {
	unitRepo  repositories.UnitRepositoryInterface
	userRepo  repositories.UserRepositoryInterface
	txManager repositories.TxManagerInterface
	logger    *zap.Logger
}

func NewUnitService(
	unitRepo repositories.UnitRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	txManager repositories.TxManagerInterface,
	logger *zap.Logger,
) UnitServiceInterface {
	return &UnitService{
		unitRepo:  unitRepo,
		userRepo:  userRepo,
		txManager: txManager,
		logger:    logger,
	}
}

func mapUnitToDTO(u *entities.Unit) dto.UnitDTO {
	out := dto.UnitDTO{
		ID:         u.ID,
		Name:       u.Name,
		BranchID:   u.BranchID,
		HeadUserID: u.HeadUserID,
		HeadName:   u.HeadName,
		HeadEmail:  u.HeadEmail,
	}
	if u.Branch != nil {
		out.BranchName = u.Branch.Name
	}
	if u.CreatedAt != nil {
		out.CreatedAt = u.CreatedAt.Format(time.RFC3339)
	}
	if u.UpdatedAt != nil {
		out.UpdatedAt = u.UpdatedAt.Format(time.RFC3339)
	}
	return out
}

func (s *UnitService) GetUnits(ctx context.Context, filter types.Filter) ([]dto.UnitDTO, uint64, error) {
	units, total, err := s.unitRepo.GetUnits(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]dto.UnitDTO, 0, len(units))
	for i := range units {
		result = append(result, mapUnitToDTO(&units[i]))
	}
	return result, total, nil
}

func (s *UnitService) FindUnit(ctx context.Context, id uint64) (*dto.UnitDTO, error) {
	unit, err := s.unitRepo.FindUnit(ctx, id)
	if err != nil {
		return nil, err
	}
	result := mapUnitToDTO(unit)
	return &result, nil
}

func (s *UnitService) CreateUnit(ctx context.Context, payload dto.CreateUnitDTO) (*dto.UnitDTO, error) {
	newID, err := s.unitRepo.CreateUnit(ctx, entities.Unit{
		Name:     payload.Name,
		BranchID: payload.BranchID,
	})
	if err != nil {
		return nil, err
	}
	return s.FindUnit(ctx, newID)
}

func (s *UnitService) UpdateUnit(ctx context.Context, id uint64, payload dto.UpdateUnitDTO) (*dto.UnitDTO, error) {
	unit, err := s.unitRepo.FindUnit(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload.Name.Valid {
		unit.Name = payload.Name.String
	}
	if payload.BranchID.Valid {
		unit.BranchID = payload.BranchID.Uint64
	}

	if err := s.unitRepo.UpdateUnit(ctx, id, *unit); err != nil {
		return nil, err
	}
	return s.FindUnit(ctx, id)
}

func (s *UnitService) DeleteUnit(ctx context.Context, id uint64) error {
	return s.unitRepo.DeleteUnit(ctx, id)
}

// AssignHead назначает ответственного за подразделение.
// У подразделения не более одного ответственного, у пользователя — не более
// одного подразделения: прежняя привязка пользователя снимается в той же транзакции.
func (s *UnitService) AssignHead(ctx context.Context, unitID uint64, payload dto.AssignHeadDTO) (*dto.UnitDTO, error) {
	user, err := s.userRepo.FindUser(ctx, payload.UserID)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		currentHead, err := s.unitRepo.LockHead(ctx, tx, unitID)
		if err != nil {
			return err
		}
		if currentHead != nil && *currentHead != user.ID {
			return apperrors.ErrUnitHasHead
		}

		if err := s.unitRepo.ClearHeadForUser(ctx, tx, user.ID); err != nil {
			return err
		}
		return s.unitRepo.SetHead(ctx, tx, unitID, &user.ID)
	})
	if err != nil {
		return nil, err
	}

	// Роль повышается до ответственного, админа не трогаем.
	if user.Role == constants.RoleUser {
		if err := s.userRepo.UpdateUserRole(ctx, user.ID, constants.RoleHOU); err != nil {
			s.logger.Warn("не удалось обновить роль ответственного",
				zap.Uint64("userID", user.ID), zap.Error(err))
		}
	}

	s.logger.Info("назначен ответственный за подразделение",
		zap.Uint64("unitID", unitID),
		zap.Uint64("userID", user.ID))

	return s.FindUnit(ctx, unitID)
}

func (s *UnitService) UnassignHead(ctx context.Context, unitID uint64) (*dto.UnitDTO, error) {
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.unitRepo.LockHead(ctx, tx, unitID); err != nil {
			return err
		}
		return s.unitRepo.SetHead(ctx, tx, unitID, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ответственный за подразделение снят", zap.Uint64("unitID", unitID))
	return s.FindUnit(ctx, unitID)
}
