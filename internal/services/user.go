package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"equipment-tracker/internal/dto"
	"equipment-tracker/internal/entities"
	"equipment-tracker/internal/repositories"
	"equipment-tracker/pkg/constants"
	apperrors "equipment-tracker/pkg/errors"
	"equipment-tracker/pkg/types"
)

type UserServiceInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error)
	FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error)
	UpdateUserRole(ctx context.Context, actorID uint64, id uint64, payload dto.UpdateUserRoleDTO) (*dto.UserDTO, error)
	DeleteUser(ctx context.Context, actorID uint64, id uint64) error
}

type UserService struct {
	userRepo repositories.UserRepositoryInterface
	logger   *zap.Logger
}

func NewUserService(userRepo repositories.UserRepositoryInterface, logger *zap.Logger) UserServiceInterface {
	return &UserService{userRepo: userRepo, logger: logger}
}

func mapUserToDTO(u *entities.User) dto.UserDTO {
	out := dto.UserDTO{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		UnitID:   u.UnitID,
	}
	if u.CreatedAt != nil {
		out.CreatedAt = u.CreatedAt.Format(time.RFC3339)
	}
	return out
}

func (s *UserService) GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error) {
	users, total, err := s.userRepo.GetUsers(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		result = append(result, mapUserToDTO(&users[i]))
	}
	return result, total, nil
}

func (s *UserService) FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	result := mapUserToDTO(user)
	return &result, nil
}

func (s *UserService) UpdateUserRole(ctx context.Context, actorID uint64, id uint64, payload dto.UpdateUserRoleDTO) (*dto.UserDTO, error) {
	// Администратор не может менять собственную роль.
	if actorID == id {
		return nil, apperrors.ErrSelfAction
	}
	if !constants.IsValidRole(payload.Role) {
		return nil, apperrors.ErrBadRequest
	}

	if err := s.userRepo.UpdateUserRole(ctx, id, payload.Role); err != nil {
		return nil, err
	}

	s.logger.Info("роль пользователя изменена",
		zap.Uint64("userID", id),
		zap.String("role", payload.Role),
		zap.Uint64("actorID", actorID))

	return s.FindUser(ctx, id)
}

func (s *UserService) DeleteUser(ctx context.Context, actorID uint64, id uint64) error {
	if actorID == id {
		return apperrors.ErrSelfAction
	}

	target, err := s.userRepo.FindUser(ctx, id)
	if err != nil {
		return err
	}
	// Учётные записи администраторов удалению не подлежат.
	if target.Role == constants.RoleAdmin {
		return apperrors.ErrForbidden
	}

	return s.userRepo.DeleteUser(ctx, id)
}
