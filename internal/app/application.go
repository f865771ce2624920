package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fitlearn/classhub/internal/config"
	"github.com/fitlearn/classhub/internal/meet"
	"github.com/fitlearn/classhub/internal/registry"
	"github.com/fitlearn/classhub/internal/repository"
	"github.com/fitlearn/classhub/internal/repository/base"
	"github.com/fitlearn/classhub/internal/service"
)

// Application собирает зависимости в готовый набор сервисов.
// Транспорт (HTTP, gRPC, бот) навешивается поверх снаружи.
type Application struct {
	Allocations *service.AllocationService
	Schedules   *service.ScheduleService
	Enrollments *service.EnrollmentService
	Courses     *service.CourseService
	Registry    *registry.Registry
	Scheduler   *Scheduler

	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New поднимает пул, применяет миграции и собирает сервисы
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Application, error) {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	migrator, err := NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		pool.Close()
		return nil, err
	}
	migrator.Close()

	db := base.NewDB(pool)
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	contentRepo := repository.NewClassContentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	connRegistry := registry.New(logger)

	var provisioner meet.Provisioner
	if cfg.MeetAPIURL != "" {
		provisioner = meet.NewClient(cfg.MeetAPIURL, cfg.MeetAPIKey, time.Duration(cfg.MeetTimeoutSec)*time.Second)
	} else {
		logger.Warn("MEET_API_URL is not set, meeting provisioning disabled")
	}

	enrollments := service.NewEnrollmentService(db, userRepo, courseRepo, enrollmentRepo, contentRepo, scheduleRepo, logger)

	return &Application{
		Allocations: service.NewAllocationService(db, userRepo, courseRepo, enrollmentRepo, scheduleRepo, contentRepo, provisioner, connRegistry, logger),
		Schedules:   service.NewScheduleService(db, userRepo, courseRepo, contentRepo, scheduleRepo, enrollments, connRegistry, logger),
		Enrollments: enrollments,
		Courses:     service.NewCourseService(db, userRepo, courseRepo, contentRepo, logger),
		Registry:    connRegistry,
		Scheduler:   NewScheduler(connRegistry, logger),
		pool:        pool,
		logger:      logger,
	}, nil
}

// Close останавливает фоновые задачи и закрывает соединения
func (a *Application) Close() {
	a.Scheduler.Stop()
	a.Registry.Close()
	a.pool.Close()
}
