package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"equipment-tracker/internal/entities"
	"equipment-tracker/pkg/constants"
	apperrors "equipment-tracker/pkg/errors"
	"equipment-tracker/pkg/types"
	"equipment-tracker/pkg/utils"
)

type UserRepositoryInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error)
	FindUser(ctx context.Context, id uint64) (*entities.User, error)
	FindUserByLogin(ctx context.Context, login string) (*entities.User, error)
	CreateUser(ctx context.Context, user entities.User) (uint64, error)
	UpdateUserRole(ctx context.Context, id uint64, role string) error
	DeleteUser(ctx context.Context, id uint64) error
	CountUsers(ctx context.Context) (uint64, error)
	GetAdminEmails(ctx context.Context) ([]string, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

const userColumns = `u.id, u.username, u.email, u.role, u.password_hash, u.unit_id, u.created_at, u.updated_at`

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	var unitID sql.NullInt64

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.Password, &unitID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования user: %w", err)
	}

	u.UnitID = utils.NullInt64ToUint64Ptr(unitID)
	return &u, nil
}

func (r *UserRepository) GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applyFilters := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pattern := "%" + filter.Search + "%"
			b = b.Where(sq.Or{
				sq.ILike{"u.username": pattern},
				sq.ILike{"u.email": pattern},
			})
		}
		if role, ok := filter.Filter["role"]; ok {
			b = b.Where(sq.Eq{"u.role": role})
		}
		return b
	}

	var total uint64
	sqlCount, argsCount, _ := applyFilters(psql.Select("COUNT(u.id)").From("users AS u")).ToSql()
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.User{}, 0, nil
	}

	baseBuilder := applyFilters(psql.Select(
		"u.id", "u.username", "u.email", "u.role", "u.password_hash", "u.unit_id", "u.created_at", "u.updated_at",
	).From("users AS u")).OrderBy("u.id")

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

	users := make([]entities.User, 0, filter.Limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}

	return users, total, nil
}

func (r *UserRepository) FindUser(ctx context.Context, id uint64) (*entities.User, error) {
	return scanUser(r.storage.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users u WHERE u.id = $1`, userColumns), id))
}

// FindUserByLogin ищет пользователя по username или email.
func (r *UserRepository) FindUserByLogin(ctx context.Context, login string) (*entities.User, error) {
	return scanUser(r.storage.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users u WHERE u.username = $1 OR u.email = $1`, userColumns), login))
}

func (r *UserRepository) CreateUser(ctx context.Context, user entities.User) (uint64, error) {
	var newID uint64
	err := r.storage.QueryRow(ctx,
		`INSERT INTO users (username, email, role, password_hash, unit_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING id`,
		user.Username, user.Email, user.Role, user.Password, user.UnitID,
	).Scan(&newID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, apperrors.ErrUserAlreadyExists
		}
		return 0, err
	}
	return newID, nil
}

func (r *UserRepository) UpdateUserRole(ctx context.Context, id uint64, role string) error {
	result, err := r.storage.Exec(ctx,
		`UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, role, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) DeleteUser(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) CountUsers(ctx context.Context) (uint64, error) {
	var total uint64
	err := r.storage.QueryRow(ctx, `SELECT COUNT(id) FROM users`).Scan(&total)
	return total, err
}

// GetAdminEmails возвращает адреса всех администраторов для рассылки уведомлений.
func (r *UserRepository) GetAdminEmails(ctx context.Context) ([]string, error) {
	rows, err := r.storage.Query(ctx,
		`SELECT email FROM users WHERE role = $1 ORDER BY email`, constants.RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}
