package repositories

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"equipment-tracker/internal/entities"
	"equipment-tracker/internal/schedule"
	apperrors "equipment-tracker/pkg/errors"
)

var testPool *pgxpool.Pool

// TestMain подключается к тестовой БД и применяет миграции.
// Без TEST_DATABASE_URL интеграционные тесты пропускаются.
func TestMain(m *testing.M) {
	testDbUrl := os.Getenv("TEST_DATABASE_URL")
	if testDbUrl != "" {
		var err error
		testPool, err = pgxpool.New(context.Background(), testDbUrl)
		if err != nil {
			log.Fatalf("Не удалось подключиться к тестовой БД: %v", err)
		}
		applyMigrations(testDbUrl)
	}

	code := m.Run()
	if testPool != nil {
		testPool.Close()
	}
	os.Exit(code)
}

func applyMigrations(dsn string) {
	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		log.Fatalf("Не удалось открыть соединение для миграций: %v", err)
	}
	defer sqlDB.Close()

	if err := goose.Up(sqlDB, "../../migrations"); err != nil {
		log.Fatalf("Не удалось применить миграции: %v", err)
	}
}

func requirePool(t *testing.T) {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL не задан, интеграционный тест пропущен")
	}
}

// cleanupTables очищает таблицы для обеспечения изоляции тестов.
func cleanupTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`TRUNCATE TABLE equipment_parameters, equipments, users, units, branches RESTART IDENTITY CASCADE;`)
	require.NoError(t, err, "Не удалось очистить таблицы")
}

// seedData создает филиал, подразделение и ответственного для тестов.
func seedData(t *testing.T, pool *pgxpool.Pool) (branchID, unitID, headID uint64) {
	t.Helper()
	ctx := context.Background()

	err := pool.QueryRow(ctx, `INSERT INTO branches (name) VALUES ('Главный филиал') RETURNING id`).Scan(&branchID)
	require.NoError(t, err)

	err = pool.QueryRow(ctx, `INSERT INTO units (name, branch_id) VALUES ('Лаборатория', $1) RETURNING id`, branchID).Scan(&unitID)
	require.NoError(t, err)

	err = pool.QueryRow(ctx,
		`INSERT INTO users (username, email, role, password_hash) VALUES ('head', 'head@x.com', 'hou', 'x') RETURNING id`,
	).Scan(&headID)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `UPDATE units SET head_user_id = $1 WHERE id = $2`, headID, unitID)
	require.NoError(t, err)

	return
}

func createTestEquipment(t *testing.T, repo EquipmentRepositoryInterface, unitID uint64, idNumber string, nextMnt *time.Time) uint64 {
	t.Helper()
	ctx := context.Background()

	eq := entities.Equipment{
		Name:                 "Осциллограф",
		IDNumber:             idNumber,
		Quantity:             1,
		UnitID:               unitID,
		MaintenanceFrequency: schedule.FrequencyAnnual,
		NextMaintenanceDate:  nextMnt,
	}

	var newID uint64
	tx, err := testPool.Begin(ctx)
	require.NoError(t, err)
	newID, err = repo.CreateEquipment(ctx, tx, eq)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	return newID
}

func TestEquipmentRepository_Integration_CreateAndFind(t *testing.T) {
	requirePool(t)
	cleanupTables(t, testPool)
	_, unitID, _ := seedData(t, testPool)

	repo := NewEquipmentRepository(testPool, zap.NewNop())
	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	id := createTestEquipment(t, repo, unitID, "INV-100", &due)

	found, err := repo.FindEquipment(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, "Осциллограф", found.Name)
	assert.Equal(t, "INV-100", found.IDNumber)
	require.NotNil(t, found.Unit)
	assert.Equal(t, "Лаборатория", found.Unit.Name)
	require.NotNil(t, found.Unit.HeadEmail, "email ответственного должен подтягиваться джойном")
	assert.Equal(t, "head@x.com", *found.Unit.HeadEmail)
}

func TestEquipmentRepository_Integration_DuplicateIDNumber(t *testing.T) {
	requirePool(t)
	cleanupTables(t, testPool)
	_, unitID, _ := seedData(t, testPool)

	repo := NewEquipmentRepository(testPool, zap.NewNop())
	createTestEquipment(t, repo, unitID, "INV-200", nil)

	ctx := context.Background()
	tx, err := testPool.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	_, err = repo.CreateEquipment(ctx, tx, entities.Equipment{
		Name:     "Дубль",
		IDNumber: "INV-200",
		Quantity: 1,
		UnitID:   unitID,
	})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateIDNumber)
}

func TestEquipmentRepository_Integration_FindMaintenanceDue(t *testing.T) {
	requirePool(t)
	cleanupTables(t, testPool)
	_, unitID, _ := seedData(t, testPool)

	repo := NewEquipmentRepository(testPool, zap.NewNop())
	today := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	overdue := today.AddDate(0, 0, -40)
	inWindow := today.AddDate(0, 0, 15)
	edge := today.AddDate(0, 0, 30)
	beyond := today.AddDate(0, 0, 31)

	overdueID := createTestEquipment(t, repo, unitID, "INV-301", &overdue)
	inWindowID := createTestEquipment(t, repo, unitID, "INV-302", &inWindow)
	edgeID := createTestEquipment(t, repo, unitID, "INV-303", &edge)
	createTestEquipment(t, repo, unitID, "INV-304", &beyond)
	createTestEquipment(t, repo, unitID, "INV-305", nil) // без производной даты

	horizon := today.AddDate(0, 0, 30)
	due, err := repo.FindMaintenanceDue(context.Background(), horizon)
	require.NoError(t, err)

	ids := make([]uint64, 0, len(due))
	for _, eq := range due {
		ids = append(ids, eq.ID)
	}
	assert.ElementsMatch(t, []uint64{overdueID, inWindowID, edgeID}, ids,
		"просроченное и граница входят, за горизонтом и без даты - нет")
}

func TestEquipmentRepository_Integration_ReplaceParameters(t *testing.T) {
	requirePool(t)
	cleanupTables(t, testPool)
	_, unitID, _ := seedData(t, testPool)

	repo := NewEquipmentRepository(testPool, zap.NewNop())
	id := createTestEquipment(t, repo, unitID, "INV-400", nil)
	ctx := context.Background()

	replace := func(params []entities.EquipmentParameter) {
		tx, err := testPool.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, repo.ReplaceParameters(ctx, tx, id, params))
		require.NoError(t, tx.Commit(ctx))
	}

	replace([]entities.EquipmentParameter{
		{EquipmentID: id, Name: "Диапазон", Value: "0-100 МГц"},
		{EquipmentID: id, Name: "Выход", Value: "50 Ом"},
	})

	params, err := repo.GetParameters(ctx, id)
	require.NoError(t, err)
	require.Len(t, params, 2)

	replace([]entities.EquipmentParameter{
		{EquipmentID: id, Name: "Диапазон", Value: "0-200 МГц"},
	})

	params, err = repo.GetParameters(ctx, id)
	require.NoError(t, err)
	require.Len(t, params, 1, "набор заменяется целиком")
	assert.Equal(t, "0-200 МГц", params[0].Value)
}

func TestEquipmentRepository_Integration_FindNotFound(t *testing.T) {
	requirePool(t)
	cleanupTables(t, testPool)

	repo := NewEquipmentRepository(testPool, zap.NewNop())
	_, err := repo.FindEquipment(context.Background(), 99999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
