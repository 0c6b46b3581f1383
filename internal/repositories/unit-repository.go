package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"equipment-tracker/internal/entities"
	apperrors "equipment-tracker/pkg/errors"
	"equipment-tracker/pkg/types"
	"equipment-tracker/pkg/utils"
)

var unitMap = map[string]string{
	"id":         "u.id",
	"name":       "u.name",
	"branch_id":  "u.branch_id",
	"created_at": "u.created_at",
}

type UnitRepositoryInterface interface {
	GetUnits(ctx context.Context, filter types.Filter) ([]entities.Unit, uint64, error)
	FindUnit(ctx context.Context, id uint64) (*entities.Unit, error)
	CreateUnit(ctx context.Context, unit entities.Unit) (uint64, error)
	UpdateUnit(ctx context.Context, id uint64, unit entities.Unit) error
	DeleteUnit(ctx context.Context, id uint64) error
	// LockHead читает head_user_id с блокировкой строки (FOR UPDATE) —
	// используется внутри транзакции назначения ответственного.
	LockHead(ctx context.Context, q Querier, unitID uint64) (*uint64, error)
	ClearHeadForUser(ctx context.Context, q Querier, userID uint64) error
	SetHead(ctx context.Context, q Querier, unitID uint64, userID *uint64) error
}

type UnitRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUnitRepository(storage *pgxpool.Pool, logger *zap.Logger) UnitRepositoryInterface {
	return &UnitRepository{storage: storage, logger: logger}
}

func scanUnit(row pgx.Row) (*entities.Unit, error) {
	var u entities.Unit
	var b entities.Branch
	var headUserID sql.NullInt64
	var headEmail, headName sql.NullString

	err := row.Scan(
		&u.ID, &u.Name, &u.BranchID, &headUserID,
		&u.CreatedAt, &u.UpdatedAt,
		&b.ID, &b.Name,
		&headEmail, &headName,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования unit: %w", err)
	}

	u.HeadUserID = utils.NullInt64ToUint64Ptr(headUserID)
	u.HeadEmail = utils.NullStringToStrPtr(headEmail)
	u.HeadName = utils.NullStringToStrPtr(headName)
	u.Branch = &b

	return &u, nil
}

func baseUnitSelect() sq.SelectBuilder {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	return psql.Select(
		"u.id", "u.name", "u.branch_id", "u.head_user_id",
		"u.created_at", "u.updated_at",
		"b.id", "b.name",
		"hu.email", "hu.username",
	).From("units AS u").
		Join("branches b ON u.branch_id = b.id").
		LeftJoin("users hu ON u.head_user_id = hu.id")
}

func (r *UnitRepository) GetUnits(ctx context.Context, filter types.Filter) ([]entities.Unit, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			return b.Where(sq.ILike{"u.name": "%" + filter.Search + "%"})
		}
		return b
	}

	countBuilder := applySearch(psql.Select("COUNT(u.id)").From("units AS u"))
	for field, value := range filter.Filter {
		if col, ok := unitMap[field]; ok {
			countBuilder = countBuilder.Where(sq.Eq{col: value})
		}
	}

	var total uint64
	sqlCount, argsCount, _ := countBuilder.ToSql()
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Unit{}, 0, nil
	}

	baseBuilder := applySearch(baseUnitSelect())
	for field, value := range filter.Filter {
		if col, ok := unitMap[field]; ok {
			baseBuilder = baseBuilder.Where(sq.Eq{col: value})
		}
	}
	baseBuilder = baseBuilder.OrderBy("u.id")

	if filter.WithPagination {
		baseBuilder = baseBuilder.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}

	query, args, err := baseBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	units := make([]entities.Unit, 0, filter.Limit)
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, 0, err
		}
		units = append(units, *unit)
	}

	return units, total, nil
}

func (r *UnitRepository) FindUnit(ctx context.Context, id uint64) (*entities.Unit, error) {
	query, args, err := baseUnitSelect().Where(sq.Eq{"u.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanUnit(r.storage.QueryRow(ctx, query, args...))
}

func (r *UnitRepository) CreateUnit(ctx context.Context, unit entities.Unit) (uint64, error) {
	var newID uint64
	err := r.storage.QueryRow(ctx,
		`INSERT INTO units (name, branch_id, created_at, updated_at) VALUES ($1, $2, NOW(), NOW()) RETURNING id`,
		unit.Name, unit.BranchID,
	).Scan(&newID)
	return newID, err
}

func (r *UnitRepository) UpdateUnit(ctx context.Context, id uint64, unit entities.Unit) error {
	result, err := r.storage.Exec(ctx,
		`UPDATE units SET name = $1, branch_id = $2, updated_at = NOW() WHERE id = $3`,
		unit.Name, unit.BranchID, id,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UnitRepository) DeleteUnit(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM units WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// -----------------------------------------------------------
// НАЗНАЧЕНИЕ ОТВЕТСТВЕННОГО (в транзакции)
// -----------------------------------------------------------

func (r *UnitRepository) LockHead(ctx context.Context, q Querier, unitID uint64) (*uint64, error) {
	var headUserID sql.NullInt64
	err := q.QueryRow(ctx, `SELECT head_user_id FROM units WHERE id = $1 FOR UPDATE`, unitID).Scan(&headUserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return utils.NullInt64ToUint64Ptr(headUserID), nil
}

func (r *UnitRepository) ClearHeadForUser(ctx context.Context, q Querier, userID uint64) error {
	_, err := q.Exec(ctx, `UPDATE units SET head_user_id = NULL, updated_at = NOW() WHERE head_user_id = $1`, userID)
	return err
}

func (r *UnitRepository) SetHead(ctx context.Context, q Querier, unitID uint64, userID *uint64) error {
	result, err := q.Exec(ctx, `UPDATE units SET head_user_id = $1, updated_at = NOW() WHERE id = $2`, userID, unitID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
