package repository

import (
	"context"
	"fmt"

	"github.com/fitlearn/classhub/internal/model"
	"github.com/fitlearn/classhub/internal/repository/base"
)

type CourseRepository struct {
	db *base.DB
}

func NewCourseRepository(db *base.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, trainer_id, title, description, thumbnail, total_classes, rating, duration, created_at, updated_at`

func scanCourse(row interface{ Scan(...any) error }) (*model.Course, error) {
	var course model.Course
	err := row.Scan(
		&course.ID,
		&course.TrainerID,
		&course.Title,
		&course.Description,
		&course.Thumbnail,
		&course.TotalClasses,
		&course.Rating,
		&course.Duration,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// Create создаёт новый курс
func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	query := `
		INSERT INTO courses (trainer_id, title, description, thumbnail, total_classes, rating, duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Querier(ctx).QueryRow(
		ctx, query,
		course.TrainerID,
		course.Title,
		course.Description,
		course.Thumbnail,
		course.TotalClasses,
		course.Rating,
		course.Duration,
	).Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create course: %w", err)
	}

	return nil
}

// GetByID получает курс по ID
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`

	course, err := scanCourse(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get course by id: %w", err)
	}

	return course, nil
}

// List получает все курсы, новые первыми
func (r *CourseRepository) List(ctx context.Context) ([]*model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses ORDER BY created_at DESC`

	rows, err := r.db.Querier(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []*model.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, course)
	}

	return courses, nil
}

// Update обновляет курс
func (r *CourseRepository) Update(ctx context.Context, course *model.Course) error {
	query := `
		UPDATE courses
		SET trainer_id = $1, title = $2, description = $3, thumbnail = $4,
		    total_classes = $5, rating = $6, duration = $7, updated_at = now()
		WHERE id = $8
		RETURNING updated_at
	`

	err := r.db.Querier(ctx).QueryRow(
		ctx, query,
		course.TrainerID,
		course.Title,
		course.Description,
		course.Thumbnail,
		course.TotalClasses,
		course.Rating,
		course.Duration,
		course.ID,
	).Scan(&course.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("course not found")
		}
		return fmt.Errorf("update course: %w", err)
	}

	return nil
}

// Delete удаляет курс вместе с занятиями и записями (ON DELETE CASCADE)
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("course not found")
	}

	return nil
}

// ReplaceOptions заменяет тарифы курса новым набором
func (r *CourseRepository) ReplaceOptions(ctx context.Context, courseID int64, options []*model.CoursePriceOption) error {
	q := r.db.Querier(ctx)

	if _, err := q.Exec(ctx, `DELETE FROM course_price_options WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("delete course options: %w", err)
	}

	query := `
		INSERT INTO course_price_options (course_id, name, price, sessions)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for _, opt := range options {
		opt.CourseID = courseID
		if err := q.QueryRow(ctx, query, courseID, opt.Name, opt.Price, opt.Sessions).Scan(&opt.ID); err != nil {
			return fmt.Errorf("insert course option: %w", err)
		}
	}

	return nil
}

// GetOptions получает тарифы курса
func (r *CourseRepository) GetOptions(ctx context.Context, courseID int64) ([]*model.CoursePriceOption, error) {
	query := `
		SELECT id, course_id, name, price, sessions
		FROM course_price_options
		WHERE course_id = $1
		ORDER BY price ASC
	`

	rows, err := r.db.Querier(ctx).Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("get course options: %w", err)
	}
	defer rows.Close()

	var options []*model.CoursePriceOption
	for rows.Next() {
		var opt model.CoursePriceOption
		if err := rows.Scan(&opt.ID, &opt.CourseID, &opt.Name, &opt.Price, &opt.Sessions); err != nil {
			return nil, fmt.Errorf("scan course option: %w", err)
		}
		options = append(options, &opt)
	}

	return options, nil
}
