package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"equipment-tracker/internal/dto"
	"equipment-tracker/internal/entities"
	"equipment-tracker/internal/repositories"
	"equipment-tracker/pkg/constants"
	apperrors "equipment-tracker/pkg/errors"
	"equipment-tracker/pkg/types"
)

type fakeUnitRepo struct {
	units       map[uint64]*entities.Unit
	clearedFor  []uint64
	setHeadCall []struct {
		unitID uint64
		userID *uint64
	}
}

func newFakeUnitRepo() *fakeUnitRepo {
	return &fakeUnitRepo{units: make(map[uint64]*entities.Unit)}
}

func (f *fakeUnitRepo) GetUnits(ctx context.Context, filter types.Filter) ([]entities.Unit, uint64, error) {
	return nil, 0, nil
}
func (f *fakeUnitRepo) FindUnit(ctx context.Context, id uint64) (*entities.Unit, error) {
	if u, ok := f.units[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, apperrors.ErrNotFound
}
func (f *fakeUnitRepo) CreateUnit(ctx context.Context, unit entities.Unit) (uint64, error) {
	id := uint64(len(f.units) + 1)
	unit.ID = id
	f.units[id] = &unit
	return id, nil
}
func (f *fakeUnitRepo) UpdateUnit(ctx context.Context, id uint64, unit entities.Unit) error {
	if _, ok := f.units[id]; !ok {
		return apperrors.ErrNotFound
	}
	unit.ID = id
	f.units[id] = &unit
	return nil
}
func (f *fakeUnitRepo) DeleteUnit(ctx context.Context, id uint64) error {
	delete(f.units, id)
	return nil
}
func (f *fakeUnitRepo) LockHead(ctx context.Context, q repositories.Querier, unitID uint64) (*uint64, error) {
	u, ok := f.units[unitID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return u.HeadUserID, nil
}
func (f *fakeUnitRepo) ClearHeadForUser(ctx context.Context, q repositories.Querier, userID uint64) error {
	f.clearedFor = append(f.clearedFor, userID)
	for _, u := range f.units {
		if u.HeadUserID != nil && *u.HeadUserID == userID {
			u.HeadUserID = nil
		}
	}
	return nil
}
func (f *fakeUnitRepo) SetHead(ctx context.Context, q repositories.Querier, unitID uint64, userID *uint64) error {
	f.setHeadCall = append(f.setHeadCall, struct {
		unitID uint64
		userID *uint64
	}{unitID, userID})
	f.units[unitID].HeadUserID = userID
	return nil
}

func uintPtr(v uint64) *uint64 { return &v }

func newUnitServiceForTest(unitRepo *fakeUnitRepo, userRepo *fakeUserRepo) UnitServiceInterface {
	return NewUnitService(unitRepo, userRepo, &fakeTxManager{}, zap.NewNop())
}

func TestAssignHead_Success(t *testing.T) {
	unitRepo := newFakeUnitRepo()
	unitRepo.units[1] = &entities.Unit{ID: 1, Name: "Лаборатория", BranchID: 1}
	userRepo := &fakeUserRepo{users: map[uint64]*entities.User{
		7: {ID: 7, Username: "petrov", Email: "petrov@x.com", Role: constants.RoleUser},
	}}

	svc := newUnitServiceForTest(unitRepo, userRepo)

	res, err := svc.AssignHead(context.Background(), 1, dto.AssignHeadDTO{UserID: 7})
	require.NoError(t, err)

	require.NotNil(t, res.HeadUserID)
	assert.Equal(t, uint64(7), *res.HeadUserID)
	assert.Contains(t, unitRepo.clearedFor, uint64(7), "прежняя привязка пользователя снимается")
	assert.Equal(t, constants.RoleHOU, userRepo.roleUpdates[7], "роль повышается до ответственного")
}

func TestAssignHead_RejectsOccupiedUnit(t *testing.T) {
	unitRepo := newFakeUnitRepo()
	unitRepo.units[1] = &entities.Unit{ID: 1, Name: "Лаборатория", BranchID: 1, HeadUserID: uintPtr(3)}
	userRepo := &fakeUserRepo{users: map[uint64]*entities.User{
		7: {ID: 7, Username: "petrov", Email: "petrov@x.com", Role: constants.RoleUser},
	}}

	svc := newUnitServiceForTest(unitRepo, userRepo)

	_, err := svc.AssignHead(context.Background(), 1, dto.AssignHeadDTO{UserID: 7})
	assert.ErrorIs(t, err, apperrors.ErrUnitHasHead)
	assert.Empty(t, unitRepo.setHeadCall, "назначение не должно было произойти")
}

func TestAssignHead_ReassignSameUserIsIdempotent(t *testing.T) {
	unitRepo := newFakeUnitRepo()
	unitRepo.units[1] = &entities.Unit{ID: 1, Name: "Лаборатория", BranchID: 1, HeadUserID: uintPtr(7)}
	userRepo := &fakeUserRepo{users: map[uint64]*entities.User{
		7: {ID: 7, Username: "petrov", Email: "petrov@x.com", Role: constants.RoleHOU},
	}}

	svc := newUnitServiceForTest(unitRepo, userRepo)

	res, err := svc.AssignHead(context.Background(), 1, dto.AssignHeadDTO{UserID: 7})
	require.NoError(t, err)
	require.NotNil(t, res.HeadUserID)
	assert.Equal(t, uint64(7), *res.HeadUserID)
}

func TestAssignHead_MovesUserBetweenUnits(t *testing.T) {
	unitRepo := newFakeUnitRepo()
	unitRepo.units[1] = &entities.Unit{ID: 1, Name: "Старая", BranchID: 1, HeadUserID: uintPtr(7)}
	unitRepo.units[2] = &entities.Unit{ID: 2, Name: "Новая", BranchID: 1}
	userRepo := &fakeUserRepo{users: map[uint64]*entities.User{
		7: {ID: 7, Username: "petrov", Email: "petrov@x.com", Role: constants.RoleHOU},
	}}

	svc := newUnitServiceForTest(unitRepo, userRepo)

	res, err := svc.AssignHead(context.Background(), 2, dto.AssignHeadDTO{UserID: 7})
	require.NoError(t, err)

	require.NotNil(t, res.HeadUserID)
	assert.Equal(t, uint64(7), *res.HeadUserID)
	assert.Nil(t, unitRepo.units[1].HeadUserID, "пользователь может возглавлять не более одного подразделения")
}

func TestUnassignHead(t *testing.T) {
	unitRepo := newFakeUnitRepo()
	unitRepo.units[1] = &entities.Unit{ID: 1, Name: "Лаборатория", BranchID: 1, HeadUserID: uintPtr(7)}
	userRepo := &fakeUserRepo{}

	svc := newUnitServiceForTest(unitRepo, userRepo)

	res, err := svc.UnassignHead(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, res.HeadUserID)
}
