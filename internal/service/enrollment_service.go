package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fitlearn/classhub/internal/model"
	"github.com/fitlearn/classhub/internal/repository/base"
)

// EnrollmentService управляет записями на курсы и выводит их
// завершённость из фактического состояния занятий
type EnrollmentService struct {
	store       Store
	users       UserStore
	courses     CourseStore
	enrollments EnrollmentStore
	contents    ContentStore
	schedules   ScheduleStore
	logger      *zap.Logger
}

func NewEnrollmentService(
	store Store,
	users UserStore,
	courses CourseStore,
	enrollments EnrollmentStore,
	contents ContentStore,
	schedules ScheduleStore,
	logger *zap.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		store:       store,
		users:       users,
		courses:     courses,
		enrollments: enrollments,
		contents:    contents,
		schedules:   schedules,
		logger:      logger,
	}
}

// EnrollInput параметры записи студента на курс
type EnrollInput struct {
	StudentName string
	StudentID   int64
	CourseID    int64
	TrainerID   int64
	OptionID    *int64
	Amount      int
}

// Enroll записывает студента на курс к тренеру.
// Повторная запись той же тройки — ошибка валидации.
func (s *EnrollmentService) Enroll(ctx context.Context, in EnrollInput) (*model.Enrollment, error) {
	if strings.TrimSpace(in.StudentName) == "" || in.StudentID == 0 || in.TrainerID == 0 {
		return nil, &ValidationError{Message: "student name, student ID, and trainer ID required"}
	}

	course, err := s.courses.GetByID(ctx, in.CourseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, &NotFoundError{Entity: "course"}
	}

	trainer, err := s.users.GetByID(ctx, in.TrainerID)
	if err != nil {
		return nil, err
	}
	if trainer == nil {
		return nil, &NotFoundError{Entity: "trainer"}
	}

	existing, err := s.enrollments.GetByTriple(ctx, in.StudentID, in.CourseID, in.TrainerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ValidationError{Message: "already enrolled"}
	}

	enrollment := &model.Enrollment{
		StudentID:   in.StudentID,
		CourseID:    in.CourseID,
		TrainerID:   in.TrainerID,
		StudentName: strings.TrimSpace(in.StudentName),
		Status:      model.EnrollmentStatusTrainerAssigned,
		OptionID:    in.OptionID,
		Amount:      in.Amount,
	}

	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		// Гонка двух одинаковых записей упирается в уникальную тройку
		if base.IsUniqueViolation(err) {
			return nil, &ValidationError{Message: "already enrolled"}
		}
		return nil, err
	}

	s.logger.Info("Student enrolled",
		zap.Int64("enrollment_id", enrollment.ID),
		zap.Int64("student_id", in.StudentID),
		zap.Int64("course_id", in.CourseID),
		zap.Int64("trainer_id", in.TrainerID),
	)

	return enrollment, nil
}

// RecomputeProgress пересчитывает прогресс тройки (студент, курс,
// тренер) и переводит запись в completed, когда лимит курса выбран и
// все занятия завершены. Возвращает true только при самом переходе:
// повторные вызовы после завершения ничего не меняют.
func (s *EnrollmentService) RecomputeProgress(ctx context.Context, studentID, courseID, trainerID int64) (bool, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return false, err
	}
	if course == nil {
		return false, nil
	}

	enrollment, err := s.enrollments.GetByTriple(ctx, studentID, courseID, trainerID)
	if err != nil {
		return false, err
	}
	if enrollment == nil {
		return false, nil
	}

	scheduled, completed, err := s.schedules.CountByTriple(ctx, studentID, courseID, trainerID)
	if err != nil {
		return false, err
	}

	remaining := course.TotalClasses - scheduled
	if remaining < 0 {
		remaining = 0
	}

	if remaining != 0 || completed < course.TotalClasses {
		return false, nil
	}

	transitioned, err := s.enrollments.MarkCompleted(ctx, enrollment.ID)
	if err != nil {
		return false, err
	}

	if transitioned {
		s.logger.Info("Enrollment completed",
			zap.Int64("enrollment_id", enrollment.ID),
			zap.Int64("student_id", studentID),
			zap.Int64("course_id", courseID),
			zap.Int64("trainer_id", trainerID),
			zap.Int("total_classes", course.TotalClasses),
			zap.Int("completed", completed),
		)
	}

	return transitioned, nil
}

// CourseProgress прогресс студента по одному курсу
type CourseProgress struct {
	Course         *model.Course     `json:"course"`
	Enrollment     *model.Enrollment `json:"enrollment"`
	ScheduledCount int               `json:"scheduled_count"`
	CompletedCount int               `json:"completed_count"`
	Remaining      int               `json:"remaining"`
	Classes        []ClassProgress   `json:"classes"`
}

// ClassProgress план занятия со статусом его назначения.
// Статус "pending" означает, что занятие ещё не назначено.
type ClassProgress struct {
	Content        *model.ClassContent  `json:"content"`
	ScheduleStatus model.ScheduleStatus `json:"schedule_status"`
}

const schedulePending model.ScheduleStatus = "pending"

// StudentProgress собирает прогресс студента по всем его записям
func (s *EnrollmentService) StudentProgress(ctx context.Context, studentID int64) ([]*CourseProgress, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var progress []*CourseProgress
	for _, enrollment := range enrollments {
		courseProgress, err := s.courseProgress(ctx, enrollment)
		if err != nil {
			return nil, err
		}
		if courseProgress == nil {
			continue
		}
		progress = append(progress, courseProgress)
	}

	return progress, nil
}

// courseProgress считает прогресс одной записи, nil если курс удалён
func (s *EnrollmentService) courseProgress(ctx context.Context, enrollment *model.Enrollment) (*CourseProgress, error) {
	course, err := s.courses.GetByID(ctx, enrollment.CourseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, nil
	}

	scheduled, completed, err := s.schedules.CountByTriple(ctx, enrollment.StudentID, course.ID, enrollment.TrainerID)
	if err != nil {
		return nil, err
	}

	remaining := course.TotalClasses - scheduled
	if remaining < 0 {
		remaining = 0
	}

	contents, err := s.contents.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	statusByClass, err := s.scheduleStatuses(ctx, enrollment.StudentID, course.ID)
	if err != nil {
		return nil, err
	}

	classes := make([]ClassProgress, 0, len(contents))
	for _, content := range contents {
		status, ok := statusByClass[content.ID]
		if !ok {
			status = schedulePending
		}
		classes = append(classes, ClassProgress{Content: content, ScheduleStatus: status})
	}

	return &CourseProgress{
		Course:         course,
		Enrollment:     enrollment,
		ScheduledCount: scheduled,
		CompletedCount: completed,
		Remaining:      remaining,
		Classes:        classes,
	}, nil
}

// TrainerStudent студент в сводке тренера со всеми его записями
// к этому тренеру
type TrainerStudent struct {
	Student *model.User       `json:"student"`
	Courses []*CourseProgress `json:"courses"`
}

// StudentsForTrainer собирает студентов тренера с прогрессом по каждой
// записи. Записи одного студента на разные курсы группируются,
// порядок студентов — по их первой записи в выборке.
func (s *EnrollmentService) StudentsForTrainer(ctx context.Context, trainerID int64) ([]*TrainerStudent, error) {
	enrollments, err := s.enrollments.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if len(enrollments) == 0 {
		return nil, nil
	}

	seen := make(map[int64]bool)
	var studentIDs []int64
	for _, enrollment := range enrollments {
		if !seen[enrollment.StudentID] {
			seen[enrollment.StudentID] = true
			studentIDs = append(studentIDs, enrollment.StudentID)
		}
	}

	users, err := s.users.GetByIDs(ctx, studentIDs)
	if err != nil {
		return nil, err
	}
	usersByID := make(map[int64]*model.User, len(users))
	for _, user := range users {
		usersByID[user.ID] = user
	}

	byStudent := make(map[int64]*TrainerStudent)
	var students []*TrainerStudent
	for _, enrollment := range enrollments {
		student, ok := usersByID[enrollment.StudentID]
		if !ok {
			continue
		}

		courseProgress, err := s.courseProgress(ctx, enrollment)
		if err != nil {
			return nil, err
		}
		if courseProgress == nil {
			continue
		}

		entry, ok := byStudent[student.ID]
		if !ok {
			entry = &TrainerStudent{Student: student}
			byStudent[student.ID] = entry
			students = append(students, entry)
		}
		entry.Courses = append(entry.Courses, courseProgress)
	}

	return students, nil
}

func (s *EnrollmentService) scheduleStatuses(ctx context.Context, studentID, courseID int64) (map[int64]model.ScheduleStatus, error) {
	schedules, err := s.schedules.List(ctx, model.ScheduleFilter{
		StudentID: &studentID,
		CourseID:  &courseID,
	})
	if err != nil {
		return nil, err
	}

	statuses := make(map[int64]model.ScheduleStatus, len(schedules))
	for _, schedule := range schedules {
		statuses[schedule.ClassID] = schedule.Status
	}
	return statuses, nil
}

// TrainersForStudent возвращает тренеров, у которых студент записан
// хотя бы на один курс
func (s *EnrollmentService) TrainersForStudent(ctx context.Context, studentID int64) ([]*model.User, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var ids []int64
	for _, enrollment := range enrollments {
		if !seen[enrollment.TrainerID] {
			seen[enrollment.TrainerID] = true
			ids = append(ids, enrollment.TrainerID)
		}
	}

	if len(ids) == 0 {
		return nil, nil
	}

	return s.users.GetByIDs(ctx, ids)
}
