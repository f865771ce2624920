package service

import (
	"context"

	"github.com/fitlearn/classhub/internal/model"
	"github.com/fitlearn/classhub/internal/registry"
)

// Store даёт сервисам транзакции и advisory-локи поверх хранилища
type Store interface {
	// InTx выполняет fn в одной транзакции
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	// LockKeys сериализует конкурентные операции по общим ключам
	// до конца текущей транзакции
	LockKeys(ctx context.Context, keys ...int64) error
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error)
}

type CourseStore interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	List(ctx context.Context) ([]*model.Course, error)
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id int64) error
	ReplaceOptions(ctx context.Context, courseID int64, options []*model.CoursePriceOption) error
	GetOptions(ctx context.Context, courseID int64) ([]*model.CoursePriceOption, error)
}

type ContentStore interface {
	Upsert(ctx context.Context, content *model.ClassContent) error
	GetByID(ctx context.Context, id int64) (*model.ClassContent, error)
	ListByCourse(ctx context.Context, courseID int64) ([]*model.ClassContent, error)
}

type EnrollmentStore interface {
	Create(ctx context.Context, enrollment *model.Enrollment) error
	GetByTriple(ctx context.Context, studentID, courseID, trainerID int64) (*model.Enrollment, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*model.Enrollment, error)
	ListByTrainer(ctx context.Context, trainerID int64) ([]*model.Enrollment, error)
	MarkCompleted(ctx context.Context, id int64) (bool, error)
	Activate(ctx context.Context, id int64) error
}

type ScheduleStore interface {
	Create(ctx context.Context, schedule *model.ClassSchedule) error
	GetByID(ctx context.Context, id int64) (*model.ClassSchedule, error)
	Update(ctx context.Context, schedule *model.ClassSchedule) error
	Delete(ctx context.Context, id int64) error
	CountActive(ctx context.Context, studentID, courseID int64) (int, error)
	CountByTriple(ctx context.Context, studentID, courseID, trainerID int64) (scheduled, completed int, err error)
	ExistsConflict(ctx context.Context, date, from, to string, trainerID, studentID, excludeID int64) (bool, error)
	List(ctx context.Context, filter model.ScheduleFilter) ([]*model.ClassSchedule, error)
}

// Notifier доставляет события подключённым пользователям best-effort
type Notifier interface {
	Notify(userID int64, event registry.Event)
}
