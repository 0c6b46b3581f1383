// Файл: main.go

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"equipment-tracker/internal/repositories"
	"equipment-tracker/internal/routes"
	"equipment-tracker/internal/scheduler"
	"equipment-tracker/internal/services"
	"equipment-tracker/pkg/config"
	"equipment-tracker/pkg/customvalidator"
	"equipment-tracker/pkg/database/postgresql"
	apperrors "equipment-tracker/pkg/errors"
	applogger "equipment-tracker/pkg/logger"
	"equipment-tracker/pkg/mailer"
	"equipment-tracker/pkg/service"
	"equipment-tracker/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func runMigrations(dsn string, logger *zap.Logger) {
	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		logger.Fatal("не удалось открыть соединение для миграций", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := goose.Up(sqlDB, "migrations"); err != nil {
		logger.Fatal("не удалось применить миграции", zap.Error(err))
	}
	logger.Info("миграции применены")
}

func main() {
	e := echo.New()
	logger := applogger.NewLogger()

	cfg := config.New()

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("!!! ОБНАРУЖЕНА ПАНИКА (PANIC) !!!",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err, nil)
				utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{"Content-Disposition"},
	}))

	v := validator.New()
	if err := customvalidator.RegisterCustomValidations(v); err != nil {
		logger.Fatal("Ошибка регистрации кастомных правил валидации", zap.Error(err))
	}
	e.Validator = utils.NewValidator(v)

	runMigrations(cfg.Postgres.DSN, logger)

	dbConn := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbConn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Fatal("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}

	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL, logger)

	// Почта: без учётных данных SMTP работаем в режиме имитации.
	var mailSender mailer.MailerInterface
	if cfg.SMTP.Username != "" {
		mailSender = mailer.NewSMTPMailer(cfg.SMTP, logger)
	} else {
		logger.Warn("SMTP не настроен, письма будут только логироваться")
		mailSender = mailer.NewMockMailer(logger)
	}

	// Фоновая рассылка живёт отдельно от графа запросов и использует свои
	// экземпляры репозиториев поверх того же пула.
	equipmentRepo := repositories.NewEquipmentRepository(dbConn, logger)
	userRepo := repositories.NewUserRepository(dbConn, logger)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	notifier := services.NewNotifierService(equipmentRepo, userRepo, cacheRepo, mailSender, cfg.Notify, logger)
	sched := scheduler.NewScheduler(notifier, cfg.Notify.Interval, logger)

	schedCtx, schedCancel := context.WithCancel(context.Background())
	sched.Start(schedCtx)

	routes.InitRouter(e, dbConn, redisClient, jwtSvc, sched, logger, cfg)

	go func() {
		logger.Info("🚀 Сервер запущен", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("получен сигнал остановки, завершаем работу")

	schedCancel()
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка при остановке сервера", zap.Error(err))
	}
}
