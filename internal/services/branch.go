package services

import (
	"context"
	"time"

	"equipment-tracker/internal/dto"
	"equipment-tracker/internal/entities"
	"equipment-tracker/internal/repositories"
	"equipment-tracker/pkg/types"
	"equipment-tracker/pkg/utils"
)

type BranchServiceInterface interface {
	GetBranches(ctx context.Context, filter types.Filter) ([]dto.BranchDTO, uint64, error)
	FindBranch(ctx context.Context, id uint64) (*dto.BranchDTO, error)
	CreateBranch(ctx context.Context, payload dto.CreateBranchDTO) (*dto.BranchDTO, error)
	UpdateBranch(ctx context.Context, id uint64, payload dto.UpdateBranchDTO) (*dto.BranchDTO, error)
	DeleteBranch(ctx context.Context, id uint64) error
}

type BranchService struct {
	branchRepository repositories.BranchRepositoryInterface
}

func NewBranchService(branchRepository repositories.BranchRepositoryInterface) BranchServiceInterface {
	return &BranchService{
		branchRepository: branchRepository,
	}
}

func mapBranchToDTO(b *entities.Branch) dto.BranchDTO {
	out := dto.BranchDTO{
		ID:      b.ID,
		Name:    b.Name,
		Address: b.Address,
	}
	if b.CreatedAt != nil {
		out.CreatedAt = b.CreatedAt.Format(time.RFC3339)
	}
	if b.UpdatedAt != nil {
		out.UpdatedAt = b.UpdatedAt.Format(time.RFC3339)
	}
	return out
}

func (s *BranchService) GetBranches(ctx context.Context, filter types.Filter) ([]dto.BranchDTO, uint64, error) {
	branches, total, err := s.branchRepository.GetBranches(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]dto.BranchDTO, 0, len(branches))
	for i := range branches {
		result = append(result, mapBranchToDTO(&branches[i]))
	}
	return result, total, nil
}

func (s *BranchService) FindBranch(ctx context.Context, id uint64) (*dto.BranchDTO, error) {
	branch, err := s.branchRepository.FindBranch(ctx, id)
	if err != nil {
		return nil, err
	}
	result := mapBranchToDTO(branch)
	return &result, nil
}

func (s *BranchService) CreateBranch(ctx context.Context, payload dto.CreateBranchDTO) (*dto.BranchDTO, error) {
	newID, err := s.branchRepository.CreateBranch(ctx, entities.Branch{
		Name:    payload.Name,
		Address: payload.Address,
	})
	if err != nil {
		return nil, err
	}
	return s.FindBranch(ctx, newID)
}

func (s *BranchService) UpdateBranch(ctx context.Context, id uint64, payload dto.UpdateBranchDTO) (*dto.BranchDTO, error) {
	branch, err := s.branchRepository.FindBranch(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload.Name.Valid {
		branch.Name = payload.Name.String
	}
	if payload.Address.Valid {
		branch.Address = utils.StringPtr(payload.Address.String)
	}

	if err := s.branchRepository.UpdateBranch(ctx, id, *branch); err != nil {
		return nil, err
	}
	return s.FindBranch(ctx, id)
}

func (s *BranchService) DeleteBranch(ctx context.Context, id uint64) error {
	return s.branchRepository.DeleteBranch(ctx, id)
}
