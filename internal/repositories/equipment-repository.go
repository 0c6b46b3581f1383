package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"equipment-tracker/internal/entities"
	"equipment-tracker/internal/schedule"
	apperrors "equipment-tracker/pkg/errors"
	"equipment-tracker/pkg/types"
	"equipment-tracker/pkg/utils"
)

// ЕДИНАЯ КАРТА ПОЛЕЙ (Фильтр + Сортировка)
var equipmentMap = map[string]string{
	"id":                    "e.id",
	"name":                  "e.name",
	"manufacturer":          "e.manufacturer",
	"serial_number":         "e.serial_number",
	"id_number":             "e.id_number",
	"unit_id":               "e.unit_id",
	"calibration_date":      "e.calibration_date",
	"next_calibration_date": "e.next_calibration_date",
	"maintenance_date":      "e.maintenance_date",
	"next_maintenance_date": "e.next_maintenance_date",
	"created_at":            "e.created_at",
}

type EquipmentRepositoryInterface interface {
	GetEquipments(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error)
	FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error)
	CreateEquipment(ctx context.Context, q Querier, equipment entities.Equipment) (uint64, error)
	UpdateEquipment(ctx context.Context, q Querier, id uint64, equipment entities.Equipment) error
	DeleteEquipment(ctx context.Context, id uint64) error
	ReplaceParameters(ctx context.Context, q Querier, equipmentID uint64, params []entities.EquipmentParameter) error
	GetParameters(ctx context.Context, equipmentID uint64) ([]entities.EquipmentParameter, error)
	IsIDNumberTaken(ctx context.Context, idNumber string, excludeID uint64) (bool, error)
	// FindMaintenanceDue / FindCalibrationDue возвращают оборудование, у которого
	// соответствующая производная дата не пуста и не позже horizon.
	// Нижней границы нет: просроченное всегда попадает в выборку.
	FindMaintenanceDue(ctx context.Context, horizon time.Time) ([]entities.Equipment, error)
	FindCalibrationDue(ctx context.Context, horizon time.Time) ([]entities.Equipment, error)
}

type EquipmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEquipmentRepository(storage *pgxpool.Pool, logger *zap.Logger) EquipmentRepositoryInterface {
	return &EquipmentRepository{storage: storage, logger: logger}
}

// -----------------------------------------------------------
// SCAN
// -----------------------------------------------------------

const equipmentColumns = `
	e.id, e.name, e.manufacturer, e.model, e.serial_number, e.id_number,
	e.description, e.quantity, e.unit_id,
	e.calibration_frequency, e.calibration_date, e.next_calibration_date,
	e.maintenance_frequency, e.maintenance_date, e.next_maintenance_date,
	e.created_at, e.updated_at,
	u.id, u.name, u.branch_id, b.id, b.name,
	hu.email, hu.username`

func scanEquipment(row pgx.Row) (*entities.Equipment, error) {
	var e entities.Equipment
	var u entities.Unit
	var b entities.Branch

	var manufacturer, model, serialNumber, description sql.NullString
	var calDate, nextCalDate, mntDate, nextMntDate sql.NullTime
	var calFreq, mntFreq string
	var headEmail, headName sql.NullString

	err := row.Scan(
		&e.ID, &e.Name, &manufacturer, &model, &serialNumber, &e.IDNumber,
		&description, &e.Quantity, &e.UnitID,
		&calFreq, &calDate, &nextCalDate,
		&mntFreq, &mntDate, &nextMntDate,
		&e.CreatedAt, &e.UpdatedAt,
		&u.ID, &u.Name, &u.BranchID, &b.ID, &b.Name,
		&headEmail, &headName,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования equipment: %w", err)
	}

	e.Manufacturer = utils.NullStringToStrPtr(manufacturer)
	e.Model = utils.NullStringToStrPtr(model)
	e.SerialNumber = utils.NullStringToStrPtr(serialNumber)
	e.Description = utils.NullStringToStrPtr(description)
	e.CalibrationFrequency = schedule.Frequency(calFreq)
	e.MaintenanceFrequency = schedule.Frequency(mntFreq)
	e.CalibrationDate = utils.NullTimeToTimePtr(calDate)
	e.NextCalibrationDate = utils.NullTimeToTimePtr(nextCalDate)
	e.MaintenanceDate = utils.NullTimeToTimePtr(mntDate)
	e.NextMaintenanceDate = utils.NullTimeToTimePtr(nextMntDate)

	u.HeadEmail = utils.NullStringToStrPtr(headEmail)
	u.HeadName = utils.NullStringToStrPtr(headName)
	u.Branch = &b
	e.Unit = &u

	return &e, nil
}

func baseEquipmentSelect() sq.SelectBuilder {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	return psql.Select(equipmentColumns).
		From("equipments AS e").
		Join("units u ON e.unit_id = u.id").
		Join("branches b ON u.branch_id = b.id").
		LeftJoin("users hu ON u.head_user_id = hu.id")
}

// -----------------------------------------------------------
// GET (Список)
// -----------------------------------------------------------

func (r *EquipmentRepository) GetEquipments(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			return b.Where(sq.Or{
				sq.ILike{"e.name": pat},
				sq.ILike{"e.id_number": pat},
				sq.ILike{"e.serial_number": pat},
				sq.ILike{"e.manufacturer": pat},
			})
		}
		return b
	}

	applyFilters := func(b sq.SelectBuilder) sq.SelectBuilder {
		for field, value := range filter.Filter {
			if col, ok := equipmentMap[field]; ok {
				b = b.Where(sq.Eq{col: value})
			}
		}
		return b
	}

	// 1. COUNT
	countBuilder := psql.Select("COUNT(e.id)").
		From("equipments AS e").
		Join("units u ON e.unit_id = u.id")
	countBuilder = applySearch(countBuilder)
	countBuilder = applyFilters(countBuilder)

	var total uint64
	sqlCount, argsCount, _ := countBuilder.ToSql()
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Equipment{}, 0, nil
	}

	// 2. SELECT
	baseBuilder := baseEquipmentSelect()
	baseBuilder = applySearch(baseBuilder)
	baseBuilder = applyFilters(baseBuilder)

	if len(filter.Sort) == 0 {
		baseBuilder = baseBuilder.OrderBy("e.id DESC")
	} else {
		for field, dir := range filter.Sort {
			if col, ok := equipmentMap[field]; ok {
				baseBuilder = baseBuilder.OrderBy(col + " " + dir)
			}
		}
	}

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

	equipments := make([]entities.Equipment, 0, filter.Limit)
	for rows.Next() {
		equipment, err := scanEquipment(rows)
		if err != nil {
			return nil, 0, err
		}
		equipments = append(equipments, *equipment)
	}

	return equipments, total, nil
}

// -----------------------------------------------------------
// FIND ONE
// -----------------------------------------------------------

func (r *EquipmentRepository) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	query, args, err := baseEquipmentSelect().Where(sq.Eq{"e.id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	equipment, err := scanEquipment(r.storage.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}

	params, err := r.GetParameters(ctx, id)
	if err != nil {
		return nil, err
	}
	equipment.Parameters = params

	return equipment, nil
}

// -----------------------------------------------------------
// DUE-SET QUERY
// -----------------------------------------------------------

func (r *EquipmentRepository) findDue(ctx context.Context, dateColumn string, horizon time.Time) ([]entities.Equipment, error) {
	query, args, err := baseEquipmentSelect().
		Where(sq.NotEq{dateColumn: nil}).
		Where(sq.LtOrEq{dateColumn: horizon}).
		OrderBy(dateColumn + " ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	due := make([]entities.Equipment, 0)
	for rows.Next() {
		equipment, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, *equipment)
	}

	return due, rows.Err()
}

func (r *EquipmentRepository) FindMaintenanceDue(ctx context.Context, horizon time.Time) ([]entities.Equipment, error) {
	return r.findDue(ctx, "e.next_maintenance_date", horizon)
}

func (r *EquipmentRepository) FindCalibrationDue(ctx context.Context, horizon time.Time) ([]entities.Equipment, error) {
	return r.findDue(ctx, "e.next_calibration_date", horizon)
}

// -----------------------------------------------------------
// CRUD
// -----------------------------------------------------------

func (r *EquipmentRepository) CreateEquipment(ctx context.Context, q Querier, equipment entities.Equipment) (uint64, error) {
	query := `
		INSERT INTO equipments (
			name, manufacturer, model, serial_number, id_number, description, quantity, unit_id,
			calibration_frequency, calibration_date, next_calibration_date,
			maintenance_frequency, maintenance_date, next_maintenance_date,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING id
	`
	var newID uint64
	err := q.QueryRow(ctx, query,
		equipment.Name, equipment.Manufacturer, equipment.Model, equipment.SerialNumber,
		equipment.IDNumber, equipment.Description, equipment.Quantity, equipment.UnitID,
		string(equipment.CalibrationFrequency), equipment.CalibrationDate, equipment.NextCalibrationDate,
		string(equipment.MaintenanceFrequency), equipment.MaintenanceDate, equipment.NextMaintenanceDate,
	).Scan(&newID)

	if err != nil && isUniqueViolation(err) {
		return 0, apperrors.ErrDuplicateIDNumber
	}

	return newID, err
}

func (r *EquipmentRepository) UpdateEquipment(ctx context.Context, q Querier, id uint64, equipment entities.Equipment) error {
	query := `
		UPDATE equipments
		SET name = $1, manufacturer = $2, model = $3, serial_number = $4, id_number = $5,
		    description = $6, quantity = $7, unit_id = $8,
		    calibration_frequency = $9, calibration_date = $10, next_calibration_date = $11,
		    maintenance_frequency = $12, maintenance_date = $13, next_maintenance_date = $14,
		    updated_at = NOW()
		WHERE id = $15
	`
	result, err := q.Exec(ctx, query,
		equipment.Name, equipment.Manufacturer, equipment.Model, equipment.SerialNumber,
		equipment.IDNumber, equipment.Description, equipment.Quantity, equipment.UnitID,
		string(equipment.CalibrationFrequency), equipment.CalibrationDate, equipment.NextCalibrationDate,
		string(equipment.MaintenanceFrequency), equipment.MaintenanceDate, equipment.NextMaintenanceDate,
		id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateIDNumber
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *EquipmentRepository) DeleteEquipment(ctx context.Context, id uint64) error {
	// Параметры удаляются каскадом (FK ON DELETE CASCADE).
	result, err := r.storage.Exec(ctx, `DELETE FROM equipments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// -----------------------------------------------------------
// PARAMETERS (замена целиком)
// -----------------------------------------------------------

func (r *EquipmentRepository) ReplaceParameters(ctx context.Context, q Querier, equipmentID uint64, params []entities.EquipmentParameter) error {
	if _, err := q.Exec(ctx, `DELETE FROM equipment_parameters WHERE equipment_id = $1`, equipmentID); err != nil {
		return fmt.Errorf("не удалось очистить параметры оборудования: %w", err)
	}

	for _, p := range params {
		_, err := q.Exec(ctx,
			`INSERT INTO equipment_parameters (equipment_id, parameter_name, parameter_value) VALUES ($1, $2, $3)`,
			equipmentID, p.Name, p.Value,
		)
		if err != nil {
			return fmt.Errorf("не удалось сохранить параметр оборудования: %w", err)
		}
	}

	return nil
}

func (r *EquipmentRepository) GetParameters(ctx context.Context, equipmentID uint64) ([]entities.EquipmentParameter, error) {
	rows, err := r.storage.Query(ctx,
		`SELECT id, equipment_id, parameter_name, parameter_value FROM equipment_parameters WHERE equipment_id = $1 ORDER BY id`,
		equipmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	params := make([]entities.EquipmentParameter, 0)
	for rows.Next() {
		var p entities.EquipmentParameter
		if err := rows.Scan(&p.ID, &p.EquipmentID, &p.Name, &p.Value); err != nil {
			return nil, err
		}
		params = append(params, p)
	}

	return params, rows.Err()
}

func (r *EquipmentRepository) IsIDNumberTaken(ctx context.Context, idNumber string, excludeID uint64) (bool, error) {
	var exists bool
	err := r.storage.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM equipments WHERE id_number = $1 AND id <> $2)`,
		idNumber, excludeID,
	).Scan(&exists)
	return exists, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
