package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-tracker/internal/controllers"
	"equipment-tracker/internal/repositories"
	"equipment-tracker/internal/scheduler"
	"equipment-tracker/internal/services"
	"equipment-tracker/pkg/config"
	"equipment-tracker/pkg/middleware"
	"equipment-tracker/pkg/service"
)

// InitRouter собирает весь граф зависимостей и регистрирует маршруты.
func InitRouter(
	e *echo.Echo,
	dbConn *pgxpool.Pool,
	redisClient *redis.Client,
	jwtSvc service.JWTService,
	sched *scheduler.Scheduler,
	logger *zap.Logger,
	cfg *config.Config,
) {
	logger.Info("InitRouter: Начало создания маршрутов")

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)
	txManager := repositories.NewTxManager(dbConn)

	// --- РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(dbConn, logger)
	branchRepo := repositories.NewBranchRepository(dbConn, logger)
	unitRepo := repositories.NewUnitRepository(dbConn, logger)
	equipmentRepo := repositories.NewEquipmentRepository(dbConn, logger)

	// --- СЕРВИСЫ ---
	authService := services.NewAuthService(userRepo, jwtSvc, logger)
	userService := services.NewUserService(userRepo, logger)
	branchService := services.NewBranchService(branchRepo)
	unitService := services.NewUnitService(unitRepo, userRepo, txManager, logger)
	equipmentService := services.NewEquipmentService(equipmentRepo, txManager, logger)
	reportService := services.NewReportService(equipmentRepo, logger)

	// --- КОНТРОЛЛЕРЫ ---
	authCtrl := controllers.NewAuthController(authService, logger)
	userCtrl := controllers.NewUserController(userService, logger)
	branchCtrl := controllers.NewBranchController(branchService, logger)
	unitCtrl := controllers.NewUnitController(unitService, logger)
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, logger)
	reportCtrl := controllers.NewReportController(reportService, logger)
	notificationCtrl := controllers.NewNotificationController(sched, logger)

	// --- РОУТЕРЫ ---
	secureGroup := api.Group("", authMW.Auth)

	runAuthRouter(api, authCtrl, authMW)
	runUserRouter(secureGroup, userCtrl, authMW)
	runBranchRouter(secureGroup, branchCtrl, authMW)
	runUnitRouter(secureGroup, unitCtrl, authMW)
	runEquipmentRouter(secureGroup, equipmentCtrl, authMW)
	runReportRouter(secureGroup, reportCtrl)
	runNotificationRouter(secureGroup, notificationCtrl, authMW)

	logger.Info("InitRouter: Создание маршрутов завершено")
}
