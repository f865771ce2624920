package repository

import (
	"context"
	"fmt"

	"github.com/fitlearn/classhub/internal/model"
	"github.com/fitlearn/classhub/internal/repository/base"
)

type EnrollmentRepository struct {
	db *base.DB
}

func NewEnrollmentRepository(db *base.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, student_id, course_id, trainer_id, student_name, status, option_id, amount, completed_at, created_at`

func scanEnrollment(row interface{ Scan(...any) error }) (*model.Enrollment, error) {
	var e model.Enrollment
	err := row.Scan(
		&e.ID,
		&e.StudentID,
		&e.CourseID,
		&e.TrainerID,
		&e.StudentName,
		&e.Status,
		&e.OptionID,
		&e.Amount,
		&e.CompletedAt,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create создаёт запись на курс
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *model.Enrollment) error {
	query := `
		INSERT INTO enrollments (student_id, course_id, trainer_id, student_name, status, option_id, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.Querier(ctx).QueryRow(
		ctx, query,
		enrollment.StudentID,
		enrollment.CourseID,
		enrollment.TrainerID,
		enrollment.StudentName,
		enrollment.Status,
		enrollment.OptionID,
		enrollment.Amount,
	).Scan(&enrollment.ID, &enrollment.CreatedAt)

	if err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}

	return nil
}

// GetByTriple получает запись по тройке (student, course, trainer)
func (r *EnrollmentRepository) GetByTriple(ctx context.Context, studentID, courseID, trainerID int64) (*model.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE student_id = $1 AND course_id = $2 AND trainer_id = $3
	`

	enrollment, err := scanEnrollment(r.db.Querier(ctx).QueryRow(ctx, query, studentID, courseID, trainerID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}

	return enrollment, nil
}

// ListByStudent получает все записи студента, новые первыми
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE student_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, studentID)
}

// ListByTrainer получает все записи к тренеру, новые первыми
func (r *EnrollmentRepository) ListByTrainer(ctx context.Context, trainerID int64) ([]*model.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE trainer_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, trainerID)
}

func (r *EnrollmentRepository) list(ctx context.Context, query string, args ...any) ([]*model.Enrollment, error) {
	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*model.Enrollment
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollments = append(enrollments, enrollment)
	}

	return enrollments, nil
}

// MarkCompleted переводит запись в статус completed и ставит completed_at.
// Уже завершённые записи не трогаются — повторный вызов ничего не меняет.
// Возвращает true, если переход состоялся именно сейчас.
func (r *EnrollmentRepository) MarkCompleted(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE enrollments
		SET status = 'completed', completed_at = now()
		WHERE id = $1 AND status <> 'completed'
	`

	result, err := r.db.Querier(ctx).Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark enrollment completed: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Activate переводит запись из trainer_assigned в active.
// Завершённые записи не реактивируются.
func (r *EnrollmentRepository) Activate(ctx context.Context, id int64) error {
	query := `
		UPDATE enrollments
		SET status = 'active'
		WHERE id = $1 AND status = 'trainer_assigned'
	`

	if _, err := r.db.Querier(ctx).Exec(ctx, query, id); err != nil {
		return fmt.Errorf("activate enrollment: %w", err)
	}

	return nil
}
