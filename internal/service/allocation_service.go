package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/fitlearn/classhub/internal/meet"
	"github.com/fitlearn/classhub/internal/model"
	"github.com/fitlearn/classhub/internal/registry"
	"github.com/fitlearn/classhub/internal/repository/base"
)

// AllocationService назначает занятия студентам в рамках лимита курса
type AllocationService struct {
	store       Store
	users       UserStore
	courses     CourseStore
	enrollments EnrollmentStore
	schedules   ScheduleStore
	conflicts   *ConflictChecker
	capacity    *CapacityGate
	contents    *ContentMaterializer
	meet        meet.Provisioner // nil — провижининг встреч выключен
	notifier    Notifier
	logger      *zap.Logger
}

func NewAllocationService(
	store Store,
	users UserStore,
	courses CourseStore,
	enrollments EnrollmentStore,
	schedules ScheduleStore,
	contents ContentStore,
	provisioner meet.Provisioner,
	notifier Notifier,
	logger *zap.Logger,
) *AllocationService {
	return &AllocationService{
		store:       store,
		users:       users,
		courses:     courses,
		enrollments: enrollments,
		schedules:   schedules,
		conflicts:   NewConflictChecker(schedules),
		capacity:    NewCapacityGate(schedules),
		contents:    NewContentMaterializer(contents),
		meet:        provisioner,
		notifier:    notifier,
		logger:      logger,
	}
}

// AllocationInput параметры назначения одного занятия
type AllocationInput struct {
	StudentID        int64
	CourseID         int64
	ScheduledDate    string
	ScheduledTime    string
	Notes            string
	ClassTitle       string
	ClassDescription string
	ClassDuration    int
}

// Allocate назначает студенту занятие у тренера.
//
// Проверки по порядку, каждая со своим типом ошибки: существование
// тренера, студента и курса (NotFoundError), запись на курс
// (ForbiddenError), окно ±1 час (ConflictError), лимит курса
// (CapacityError). Затем материализуется план занятия с номером
// scheduledCount+1 и создаётся занятие. Встреча у внешнего провайдера
// создаётся best-effort уже после коммита: при ошибке занятие
// остаётся без ссылки.
//
// Проверки лимита и окна выполняются в одной транзакции под
// advisory-локами обоих участников, поэтому конкурентные назначения
// не пробивают ни лимит, ни окно.
func (s *AllocationService) Allocate(ctx context.Context, trainerID int64, in AllocationInput) (*model.ClassSchedule, error) {
	date, err := normalizeDate(in.ScheduledDate)
	if err != nil {
		return nil, err
	}
	timeOfDay, err := normalizeTimeOfDay(in.ScheduledTime)
	if err != nil {
		return nil, err
	}

	trainer, err := s.users.GetByID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if trainer == nil {
		return nil, &NotFoundError{Entity: "trainer"}
	}

	student, err := s.users.GetByID(ctx, in.StudentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, &NotFoundError{Entity: "student"}
	}

	course, err := s.courses.GetByID(ctx, in.CourseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, &NotFoundError{Entity: "course"}
	}

	var schedule *model.ClassSchedule

	// Узкий retry только на deadlock/serialization failure
	backoff := retry.WithMaxRetries(2, retry.NewConstant(50*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		txErr := s.store.InTx(ctx, func(ctx context.Context) error {
			schedule, err = s.allocateTx(ctx, trainer, student, course, date, timeOfDay, in)
			return err
		})
		if base.IsRetryable(txErr) {
			return retry.RetryableError(txErr)
		}
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.attachMeeting(ctx, schedule)

	s.logger.Info("Class allocated",
		zap.Int64("schedule_id", schedule.ID),
		zap.Int64("student_id", student.ID),
		zap.Int64("trainer_id", trainer.ID),
		zap.Int64("course_id", course.ID),
		zap.Int("order", schedule.Class.Order),
		zap.String("date", date),
		zap.String("time", timeOfDay),
	)

	s.notifyParties(schedule, "class_allocated")

	return schedule, nil
}

// allocateTx выполняется внутри транзакции
func (s *AllocationService) allocateTx(ctx context.Context, trainer, student *model.User, course *model.Course, date, timeOfDay string, in AllocationInput) (*model.ClassSchedule, error) {
	// Сериализуем все назначения с участием этих же пользователей:
	// общий лок закрывает гонки и по лимиту, и по окну
	if err := s.store.LockKeys(ctx, trainer.ID, student.ID); err != nil {
		return nil, err
	}

	enrollment, err := s.enrollments.GetByTriple(ctx, student.ID, course.ID, trainer.ID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, &ForbiddenError{Reason: "student is not enrolled"}
	}

	conflict, err := s.conflicts.HasConflict(ctx, date, timeOfDay, trainer.ID, student.ID, 0)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, &ConflictError{Date: date, Time: timeOfDay}
	}

	remaining, scheduled, err := s.capacity.Remaining(ctx, student.ID, course.ID, course.TotalClasses)
	if err != nil {
		return nil, err
	}
	if remaining <= 0 {
		return nil, &CapacityError{Scheduled: scheduled, Total: course.TotalClasses}
	}

	order := scheduled + 1
	content, err := s.contents.Resolve(ctx, course, order, ContentOverrides{
		Title:       in.ClassTitle,
		Description: in.ClassDescription,
		Content:     in.ClassDescription,
		Duration:    in.ClassDuration,
	})
	if err != nil {
		return nil, err
	}

	schedule := &model.ClassSchedule{
		TrainerID:     trainer.ID,
		StudentID:     student.ID,
		ClassID:       content.ID,
		CourseID:      course.ID,
		ScheduledDate: date,
		ScheduledTime: timeOfDay,
		Status:        model.ScheduleStatusScheduled,
		Notes:         in.Notes,
	}

	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, err
	}

	// Первое занятие переводит запись из trainer_assigned в active
	if enrollment.Status == model.EnrollmentStatusTrainerAssigned {
		if err := s.enrollments.Activate(ctx, enrollment.ID); err != nil {
			return nil, err
		}
	}

	schedule.Class = content
	schedule.Student = student
	schedule.Trainer = trainer

	return schedule, nil
}

// attachMeeting создаёт встречу у внешнего провайдера и дописывает
// ссылку в уже закоммиченное занятие. Внешний вызов намеренно вынесен
// за транзакцию: медленный провайдер не держит advisory-локи. Любая
// ошибка логируется, занятие остаётся без ссылки.
func (s *AllocationService) attachMeeting(ctx context.Context, schedule *model.ClassSchedule) {
	meeting := s.provisionMeeting(ctx, schedule.Trainer, schedule.Student, schedule.Class, schedule.ScheduledDate, schedule.ScheduledTime)
	if meeting == nil {
		return
	}

	schedule.MeetLink = &meeting.MeetLink
	schedule.MeetEventID = &meeting.EventID

	if err := s.schedules.Update(ctx, schedule); err != nil {
		s.logger.Warn("Failed to save meeting link",
			zap.Int64("schedule_id", schedule.ID),
			zap.Error(err),
		)
		schedule.MeetLink = nil
		schedule.MeetEventID = nil
	}
}

// provisionMeeting создаёт встречу best-effort: любая ошибка внешнего
// сервиса логируется и не влияет на создание занятия
func (s *AllocationService) provisionMeeting(ctx context.Context, trainer, student *model.User, content *model.ClassContent, date, timeOfDay string) *meet.Meeting {
	if s.meet == nil {
		return nil
	}

	meeting, err := s.meet.CreateMeeting(ctx, trainer, student, content, date, timeOfDay)
	if err != nil {
		s.logger.Warn("Meeting provisioning failed, scheduling without link",
			zap.Int64("trainer_id", trainer.ID),
			zap.Int64("student_id", student.ID),
			zap.String("date", date),
			zap.String("time", timeOfDay),
			zap.Error(err),
		)
		return nil
	}

	return meeting
}

// BulkAllocate назначает занятия пакетом. Строки обрабатываются
// независимо и последовательно: ошибка строки попадает в Failed и не
// останавливает остальные. Нумерация строк в отчёте — index+2
// (строка 1 занята заголовком файла импорта).
func (s *AllocationService) BulkAllocate(ctx context.Context, trainerID int64, rows []model.BulkAllocationRow) (*model.BulkResult, error) {
	if len(rows) == 0 {
		return nil, &ValidationError{Message: "invalid allocations data"}
	}

	trainer, err := s.users.GetByID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if trainer == nil {
		return nil, &NotFoundError{Entity: "trainer"}
	}

	result := &model.BulkResult{}

	for i, row := range rows {
		rowNum := i + 2

		if row.StudentID == 0 || row.CourseID == 0 || row.ClassTitle == "" || row.ScheduledDate == "" || row.ScheduledTime == "" {
			s.failRow(result, rowNum, row, fmt.Errorf("missing required fields"))
			continue
		}

		schedule, err := s.Allocate(ctx, trainerID, AllocationInput{
			StudentID:     row.StudentID,
			CourseID:      row.CourseID,
			ScheduledDate: row.ScheduledDate,
			ScheduledTime: row.ScheduledTime,
			Notes:         row.Notes,
			ClassTitle:    row.ClassTitle,
			ClassDuration: row.Duration,
		})
		if err != nil {
			s.failRow(result, rowNum, row, err)
			continue
		}

		result.Successful = append(result.Successful, model.BulkRowSuccess{
			Row:           rowNum,
			StudentID:     row.StudentID,
			ClassTitle:    row.ClassTitle,
			ScheduledDate: schedule.ScheduledDate,
			ScheduleID:    schedule.ID,
		})
		result.SuccessCount++
	}

	s.logger.Info("Bulk allocation completed",
		zap.Int64("trainer_id", trainerID),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailureCount),
	)

	return result, nil
}

func (s *AllocationService) failRow(result *model.BulkResult, rowNum int, row model.BulkAllocationRow, err error) {
	result.Failed = append(result.Failed, model.BulkRowFailure{
		Row:   rowNum,
		Data:  row,
		Error: err.Error(),
	})
	result.FailureCount++
}

func (s *AllocationService) notifyParties(schedule *model.ClassSchedule, eventType string) {
	if s.notifier == nil {
		return
	}

	event := registry.Event{Type: eventType, Payload: schedule}
	s.notifier.Notify(schedule.StudentID, event)
	s.notifier.Notify(schedule.TrainerID, event)
}
