package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fitlearn/classhub/internal/model"
	"github.com/fitlearn/classhub/internal/repository/base"
)

type ScheduleRepository struct {
	db *base.DB
}

func NewScheduleRepository(db *base.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, trainer_id, student_id, class_id, course_id, scheduled_date, scheduled_time, status, notes, meet_link, meet_event_id, created_at, updated_at`

func scanSchedule(row interface{ Scan(...any) error }) (*model.ClassSchedule, error) {
	var s model.ClassSchedule
	err := row.Scan(
		&s.ID,
		&s.TrainerID,
		&s.StudentID,
		&s.ClassID,
		&s.CourseID,
		&s.ScheduledDate,
		&s.ScheduledTime,
		&s.Status,
		&s.Notes,
		&s.MeetLink,
		&s.MeetEventID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create создаёт занятие
func (r *ScheduleRepository) Create(ctx context.Context, schedule *model.ClassSchedule) error {
	query := `
		INSERT INTO class_schedules (trainer_id, student_id, class_id, course_id, scheduled_date, scheduled_time, status, notes, meet_link, meet_event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Querier(ctx).QueryRow(
		ctx, query,
		schedule.TrainerID,
		schedule.StudentID,
		schedule.ClassID,
		schedule.CourseID,
		schedule.ScheduledDate,
		schedule.ScheduledTime,
		schedule.Status,
		schedule.Notes,
		schedule.MeetLink,
		schedule.MeetEventID,
	).Scan(&schedule.ID, &schedule.CreatedAt, &schedule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}

	return nil
}

// GetByID получает занятие по ID
func (r *ScheduleRepository) GetByID(ctx context.Context, id int64) (*model.ClassSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM class_schedules WHERE id = $1`

	schedule, err := scanSchedule(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get schedule by id: %w", err)
	}

	return schedule, nil
}

// Update сохраняет изменяемые поля занятия
func (r *ScheduleRepository) Update(ctx context.Context, schedule *model.ClassSchedule) error {
	query := `
		UPDATE class_schedules
		SET scheduled_date = $1, scheduled_time = $2, status = $3, notes = $4,
		    meet_link = $5, meet_event_id = $6, updated_at = now()
		WHERE id = $7
		RETURNING updated_at
	`

	err := r.db.Querier(ctx).QueryRow(
		ctx, query,
		schedule.ScheduledDate,
		schedule.ScheduledTime,
		schedule.Status,
		schedule.Notes,
		schedule.MeetLink,
		schedule.MeetEventID,
		schedule.ID,
	).Scan(&schedule.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("schedule not found")
		}
		return fmt.Errorf("update schedule: %w", err)
	}

	return nil
}

// Delete удаляет занятие
func (r *ScheduleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM class_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("schedule not found")
	}

	return nil
}

// CountActive считает неотменённые занятия пары (студент, курс).
// Лимит курса общий для всех тренеров студента, поэтому тренером
// выборка не ограничивается.
func (r *ScheduleRepository) CountActive(ctx context.Context, studentID, courseID int64) (int, error) {
	query := `
		SELECT count(*)
		FROM class_schedules
		WHERE student_id = $1 AND course_id = $2 AND status <> 'cancelled'
	`

	var count int
	if err := r.db.Querier(ctx).QueryRow(ctx, query, studentID, courseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active schedules: %w", err)
	}

	return count, nil
}

// CountByTriple считает неотменённые и завершённые занятия тройки
// (студент, курс, тренер) одним запросом
func (r *ScheduleRepository) CountByTriple(ctx context.Context, studentID, courseID, trainerID int64) (scheduled, completed int, err error) {
	query := `
		SELECT
			count(*) FILTER (WHERE status <> 'cancelled'),
			count(*) FILTER (WHERE status = 'completed')
		FROM class_schedules
		WHERE student_id = $1 AND course_id = $2 AND trainer_id = $3
	`

	if err := r.db.Querier(ctx).QueryRow(ctx, query, studentID, courseID, trainerID).Scan(&scheduled, &completed); err != nil {
		return 0, 0, fmt.Errorf("count schedules by triple: %w", err)
	}

	return scheduled, completed, nil
}

// ExistsConflict проверяет, есть ли в эту дату неотменённое занятие
// тренера или студента со временем в окне [from, to] (границы
// включительно). excludeID исключает само переносимое занятие.
func (r *ScheduleRepository) ExistsConflict(ctx context.Context, date, from, to string, trainerID, studentID, excludeID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM class_schedules
			WHERE scheduled_date = $1
			  AND scheduled_time BETWEEN $2 AND $3
			  AND (trainer_id = $4 OR student_id = $5)
			  AND status <> 'cancelled'
			  AND id <> $6
		)
	`

	var exists bool
	if err := r.db.Querier(ctx).QueryRow(ctx, query, date, from, to, trainerID, studentID, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check schedule conflict: %w", err)
	}

	return exists, nil
}

// List получает занятия по заполненным фильтрам,
// по возрастанию даты и времени
func (r *ScheduleRepository) List(ctx context.Context, filter model.ScheduleFilter) ([]*model.ClassSchedule, error) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.StudentID != nil {
		add("student_id = $%d", *filter.StudentID)
	}
	if filter.TrainerID != nil {
		add("trainer_id = $%d", *filter.TrainerID)
	}
	if filter.CourseID != nil {
		add("course_id = $%d", *filter.CourseID)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.DateFrom != "" {
		add("scheduled_date >= $%d", filter.DateFrom)
	}
	if filter.DateTo != "" {
		add("scheduled_date <= $%d", filter.DateTo)
	}

	query := `SELECT ` + scheduleColumns + ` FROM class_schedules`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY scheduled_date ASC, scheduled_time ASC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*model.ClassSchedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	return schedules, nil
}
