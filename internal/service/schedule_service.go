package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fitlearn/classhub/internal/model"
	"github.com/fitlearn/classhub/internal/registry"
)

// ProgressTracker пересчитывает завершённость записи на курс
type ProgressTracker interface {
	RecomputeProgress(ctx context.Context, studentID, courseID, trainerID int64) (bool, error)
}

// ScheduleService управляет жизненным циклом назначенных занятий:
// scheduled -> {scheduled, completed, cancelled}, completed и
// cancelled терминальны
type ScheduleService struct {
	store     Store
	users     UserStore
	courses   CourseStore
	contents  ContentStore
	schedules ScheduleStore
	conflicts *ConflictChecker
	progress  ProgressTracker
	notifier  Notifier
	logger    *zap.Logger
}

func NewScheduleService(
	store Store,
	users UserStore,
	courses CourseStore,
	contents ContentStore,
	schedules ScheduleStore,
	progress ProgressTracker,
	notifier Notifier,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		store:     store,
		users:     users,
		courses:   courses,
		contents:  contents,
		schedules: schedules,
		conflicts: NewConflictChecker(schedules),
		progress:  progress,
		notifier:  notifier,
		logger:    logger,
	}
}

// Update применяет частичное обновление занятия. Актор должен быть
// его тренером или студентом. Перенос даты/времени повторно проходит
// проверку окна (само занятие из неё исключается). Перевод в completed
// запускает пересчёт завершённости записи на курс.
func (s *ScheduleService) Update(ctx context.Context, id int64, patch model.SchedulePatch, actorID int64) (*model.ClassSchedule, error) {
	schedule, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, &NotFoundError{Entity: "schedule"}
	}

	if schedule.TrainerID != actorID && schedule.StudentID != actorID {
		return nil, &ForbiddenError{Reason: "access denied"}
	}

	date := schedule.ScheduledDate
	timeOfDay := schedule.ScheduledTime
	if patch.ScheduledDate != nil {
		if date, err = normalizeDate(*patch.ScheduledDate); err != nil {
			return nil, err
		}
	}
	if patch.ScheduledTime != nil {
		if timeOfDay, err = normalizeTimeOfDay(*patch.ScheduledTime); err != nil {
			return nil, err
		}
	}
	rescheduled := date != schedule.ScheduledDate || timeOfDay != schedule.ScheduledTime

	status := schedule.Status
	if patch.Status != nil {
		status = *patch.Status
		switch status {
		case model.ScheduleStatusScheduled, model.ScheduleStatusCompleted, model.ScheduleStatusCancelled:
		default:
			return nil, &ValidationError{Message: "invalid schedule status"}
		}
	}
	// Терминальные статусы не меняются и не переносятся
	if schedule.Status != model.ScheduleStatusScheduled && (status != schedule.Status || rescheduled) {
		return nil, &ValidationError{Message: "schedule is not active"}
	}

	err = s.store.InTx(ctx, func(ctx context.Context) error {
		if rescheduled {
			if err := s.store.LockKeys(ctx, schedule.TrainerID, schedule.StudentID); err != nil {
				return err
			}

			conflict, err := s.conflicts.HasConflict(ctx, date, timeOfDay, schedule.TrainerID, schedule.StudentID, schedule.ID)
			if err != nil {
				return err
			}
			if conflict {
				return &ConflictError{Date: date, Time: timeOfDay}
			}
		}

		schedule.ScheduledDate = date
		schedule.ScheduledTime = timeOfDay
		schedule.Status = status
		if patch.Notes != nil {
			schedule.Notes = *patch.Notes
		}

		return s.schedules.Update(ctx, schedule)
	})
	if err != nil {
		return nil, err
	}

	if status == model.ScheduleStatusCompleted {
		if _, err := s.progress.RecomputeProgress(ctx, schedule.StudentID, schedule.CourseID, schedule.TrainerID); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Schedule updated",
		zap.Int64("schedule_id", schedule.ID),
		zap.Int64("actor_id", actorID),
		zap.String("status", string(schedule.Status)),
		zap.Bool("rescheduled", rescheduled),
	)

	s.notifyParties(schedule, "schedule_updated")

	return s.enrich(ctx, schedule)
}

// Delete жёстко удаляет занятие, разрешено только тренеру.
// Удаление не реактивирует уже завершённую запись на курс.
func (s *ScheduleService) Delete(ctx context.Context, id, actorID int64) error {
	schedule, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if schedule == nil {
		return &NotFoundError{Entity: "schedule"}
	}

	if schedule.TrainerID != actorID {
		return &ForbiddenError{Reason: "only trainer can delete"}
	}

	if err := s.schedules.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Schedule deleted",
		zap.Int64("schedule_id", id),
		zap.Int64("trainer_id", actorID),
	)

	s.notifyParties(schedule, "schedule_deleted")

	return nil
}

// Get возвращает занятие со связанными данными, доступно только
// его участникам
func (s *ScheduleService) Get(ctx context.Context, id, actorID int64) (*model.ClassSchedule, error) {
	schedule, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, &NotFoundError{Entity: "schedule"}
	}

	if schedule.TrainerID != actorID && schedule.StudentID != actorID {
		return nil, &ForbiddenError{Reason: "access denied"}
	}

	return s.enrich(ctx, schedule)
}

// ListByStudent возвращает занятия студента по возрастанию даты и времени
func (s *ScheduleService) ListByStudent(ctx context.Context, studentID int64) ([]*model.ClassSchedule, error) {
	return s.schedules.List(ctx, model.ScheduleFilter{StudentID: &studentID})
}

// ListByTrainer возвращает занятия тренера по возрастанию даты и времени
func (s *ScheduleService) ListByTrainer(ctx context.Context, trainerID int64) ([]*model.ClassSchedule, error) {
	return s.schedules.List(ctx, model.ScheduleFilter{TrainerID: &trainerID})
}

// TrainerReport месячная сводка тренера
type TrainerReport struct {
	TrainerID       int64                  `json:"trainer_id"`
	Month           string                 `json:"month"` // "2006-01"
	TotalCompleted  int                    `json:"total_completed"`
	TotalCancelled  int                    `json:"total_cancelled"`
	StudentsHandled int                    `json:"students_handled"`
	RecentCompleted []*model.ClassSchedule `json:"recent_completed"`
}

const recentCompletedLimit = 5

// Report собирает сводку тренера за календарный месяц: число
// завершённых и отменённых занятий, уникальные студенты и последние
// завершённые занятия
func (s *ScheduleService) Report(ctx context.Context, trainerID int64, year int, month time.Month) (*TrainerReport, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	schedules, err := s.schedules.List(ctx, model.ScheduleFilter{
		TrainerID: &trainerID,
		DateFrom:  start.Format("2006-01-02"),
		DateTo:    end.Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}

	report := &TrainerReport{
		TrainerID: trainerID,
		Month:     start.Format("2006-01"),
	}

	students := make(map[int64]bool)
	var completed []*model.ClassSchedule
	for _, schedule := range schedules {
		students[schedule.StudentID] = true
		switch schedule.Status {
		case model.ScheduleStatusCompleted:
			report.TotalCompleted++
			completed = append(completed, schedule)
		case model.ScheduleStatusCancelled:
			report.TotalCancelled++
		}
	}
	report.StudentsHandled = len(students)

	// Последние завершённые: выборка уже по возрастанию, берём хвост
	if len(completed) > recentCompletedLimit {
		completed = completed[len(completed)-recentCompletedLimit:]
	}
	for i := len(completed) - 1; i >= 0; i-- {
		report.RecentCompleted = append(report.RecentCompleted, completed[i])
	}

	return report, nil
}

// enrich подтягивает связанные сущности занятия
func (s *ScheduleService) enrich(ctx context.Context, schedule *model.ClassSchedule) (*model.ClassSchedule, error) {
	if schedule.Class == nil {
		content, err := s.contents.GetByID(ctx, schedule.ClassID)
		if err != nil {
			return nil, err
		}
		schedule.Class = content
	}

	if schedule.Course == nil {
		course, err := s.courses.GetByID(ctx, schedule.CourseID)
		if err != nil {
			return nil, err
		}
		schedule.Course = course
	}

	if schedule.Student == nil {
		student, err := s.users.GetByID(ctx, schedule.StudentID)
		if err != nil {
			return nil, err
		}
		schedule.Student = student
	}

	if schedule.Trainer == nil {
		trainer, err := s.users.GetByID(ctx, schedule.TrainerID)
		if err != nil {
			return nil, err
		}
		schedule.Trainer = trainer
	}

	return schedule, nil
}

func (s *ScheduleService) notifyParties(schedule *model.ClassSchedule, eventType string) {
	if s.notifier == nil {
		return
	}

	event := registry.Event{Type: eventType, Payload: schedule}
	s.notifier.Notify(schedule.StudentID, event)
	s.notifier.Notify(schedule.TrainerID, event)
}
