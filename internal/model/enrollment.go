package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentStatusTrainerAssigned EnrollmentStatus = "trainer_assigned" // тренер назначен, занятия ещё не идут
	EnrollmentStatusActive          EnrollmentStatus = "active"
	EnrollmentStatusCompleted       EnrollmentStatus = "completed" // терминальный статус
)

// Enrollment запись студента на курс у конкретного тренера.
// Тройка (StudentID, CourseID, TrainerID) уникальна.
type Enrollment struct {
	ID          int64            `json:"id"`
	StudentID   int64            `json:"student_id"`
	CourseID    int64            `json:"course_id"`
	TrainerID   int64            `json:"trainer_id"`
	StudentName string           `json:"student_name"`
	Status      EnrollmentStatus `json:"status"`
	OptionID    *int64           `json:"option_id"` // выбранный тариф, может быть nil
	Amount      int              `json:"amount"`
	CompletedAt *time.Time       `json:"completed_at"`
	CreatedAt   time.Time        `json:"created_at"`

	// Дополнительные поля для удобства (не из БД)
	Course  *Course `json:"course,omitempty"`
	Student *User   `json:"student,omitempty"`
}
