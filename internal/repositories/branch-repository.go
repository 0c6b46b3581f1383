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

type BranchRepositoryInterface interface {
	GetBranches(ctx context.Context, filter types.Filter) ([]entities.Branch, uint64, error)
	FindBranch(ctx context.Context, id uint64) (*entities.Branch, error)
	CreateBranch(ctx context.Context, branch entities.Branch) (uint64, error)
	UpdateBranch(ctx context.Context, id uint64, branch entities.Branch) error
	DeleteBranch(ctx context.Context, id uint64) error
}

type BranchRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewBranchRepository(storage *pgxpool.Pool, logger *zap.Logger) BranchRepositoryInterface {
	return &BranchRepository{storage: storage, logger: logger}
}

func scanBranch(row pgx.Row) (*entities.Branch, error) {
	var b entities.Branch
	var address sql.NullString

	err := row.Scan(&b.ID, &b.Name, &address, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования branch: %w", err)
	}

	b.Address = utils.NullStringToStrPtr(address)
	return &b, nil
}

func (r *BranchRepository) GetBranches(ctx context.Context, filter types.Filter) ([]entities.Branch, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			return b.Where(sq.ILike{"b.name": "%" + filter.Search + "%"})
		}
		return b
	}

	var total uint64
	sqlCount, argsCount, _ := applySearch(psql.Select("COUNT(b.id)").From("branches AS b")).ToSql()
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Branch{}, 0, nil
	}

	baseBuilder := applySearch(psql.Select(
		"b.id", "b.name", "b.address", "b.created_at", "b.updated_at",
	).From("branches AS b")).OrderBy("b.id")

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

	branches := make([]entities.Branch, 0, filter.Limit)
	for rows.Next() {
		branch, err := scanBranch(rows)
		if err != nil {
			return nil, 0, err
		}
		branches = append(branches, *branch)
	}

	return branches, total, nil
}

func (r *BranchRepository) FindBranch(ctx context.Context, id uint64) (*entities.Branch, error) {
	return scanBranch(r.storage.QueryRow(ctx,
		`SELECT b.id, b.name, b.address, b.created_at, b.updated_at FROM branches b WHERE b.id = $1`, id))
}

func (r *BranchRepository) CreateBranch(ctx context.Context, branch entities.Branch) (uint64, error) {
	var newID uint64
	err := r.storage.QueryRow(ctx,
		`INSERT INTO branches (name, address, created_at, updated_at) VALUES ($1, $2, NOW(), NOW()) RETURNING id`,
		branch.Name, branch.Address,
	).Scan(&newID)
	return newID, err
}

func (r *BranchRepository) UpdateBranch(ctx context.Context, id uint64, branch entities.Branch) error {
	result, err := r.storage.Exec(ctx,
		`UPDATE branches SET name = $1, address = $2, updated_at = NOW() WHERE id = $3`,
		branch.Name, branch.Address, id,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *BranchRepository) DeleteBranch(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM branches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
