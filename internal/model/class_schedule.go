package model

import "time"

type ScheduleStatus string

const (
	ScheduleStatusScheduled ScheduleStatus = "scheduled"
	ScheduleStatusCompleted ScheduleStatus = "completed" // терминальный
	ScheduleStatusCancelled ScheduleStatus = "cancelled" // терминальный
)

// ClassSchedule назначенное занятие: студент, тренер и план занятия
// привязаны к дате и времени.
//
// ScheduledDate хранится как "2006-01-02", ScheduledTime как "15:04:05"
// с ведущими нулями — лексикографический порядок совпадает с временным.
type ClassSchedule struct {
	ID            int64          `json:"id"`
	TrainerID     int64          `json:"trainer_id"`
	StudentID     int64          `json:"student_id"`
	ClassID       int64          `json:"class_id"`
	CourseID      int64          `json:"course_id"`
	ScheduledDate string         `json:"scheduled_date"`
	ScheduledTime string         `json:"scheduled_time"`
	Status        ScheduleStatus `json:"status"`
	Notes         string         `json:"notes"`
	MeetLink      *string        `json:"meet_link"`      // nil если провижининг встречи не удался
	MeetEventID   *string        `json:"meet_event_id"`  // id события у внешнего провайдера
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	Class   *ClassContent `json:"class,omitempty"`
	Student *User         `json:"student,omitempty"`
	Trainer *User         `json:"trainer,omitempty"`
	Course  *Course       `json:"course,omitempty"`
}

// IsActive считается ли занятие при подсчёте лимита курса
func (s *ClassSchedule) IsActive() bool {
	return s.Status != ScheduleStatusCancelled
}

// SchedulePatch частичное обновление занятия, nil-поля не трогаются
type SchedulePatch struct {
	ScheduledDate *string         `json:"scheduled_date"`
	ScheduledTime *string         `json:"scheduled_time"`
	Status        *ScheduleStatus `json:"status"`
	Notes         *string         `json:"notes"`
}

// ScheduleFilter набор необязательных фильтров для выборки занятий.
// Применяются только заполненные поля.
type ScheduleFilter struct {
	StudentID *int64
	TrainerID *int64
	CourseID  *int64
	Status    *ScheduleStatus
	DateFrom  string // включительно, "2006-01-02"
	DateTo    string // включительно
	Limit     int
	Offset    int
}
