package repository

import (
	"context"
	"fmt"

	"github.com/fitlearn/classhub/internal/model"
	"github.com/fitlearn/classhub/internal/repository/base"
)

type ClassContentRepository struct {
	db *base.DB
}

func NewClassContentRepository(db *base.DB) *ClassContentRepository {
	return &ClassContentRepository{db: db}
}

const classContentColumns = `id, course_id, title, description, content, "order", duration, is_dynamic, thumbnail, created_at, updated_at`

func scanClassContent(row interface{ Scan(...any) error }) (*model.ClassContent, error) {
	var c model.ClassContent
	err := row.Scan(
		&c.ID,
		&c.CourseID,
		&c.Title,
		&c.Description,
		&c.Content,
		&c.Order,
		&c.Duration,
		&c.IsDynamic,
		&c.Thumbnail,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Upsert создаёт план занятия для пары (course_id, "order") или обновляет
// существующий. Пустые поля не затирают заполненные: при создании вместо
// них подставляются дефолты, при обновлении остаются старые значения.
// Уникальный индекс по паре гарантирует ровно одну запись при
// конкурентных вызовах.
func (r *ClassContentRepository) Upsert(ctx context.Context, content *model.ClassContent) error {
	query := `
		INSERT INTO class_contents (course_id, title, description, content, "order", duration, is_dynamic, thumbnail)
		VALUES (
			$1,
			COALESCE(NULLIF($2, ''), format('Class %s - %s', $5, (SELECT title FROM courses WHERE id = $1))),
			COALESCE(NULLIF($3, ''), format('Scheduled Class %s', $5)),
			$4,
			$5,
			CASE WHEN $6 > 0 THEN $6 ELSE $7 END,
			$8,
			''
		)
		ON CONFLICT (course_id, "order") DO UPDATE SET
			title       = COALESCE(NULLIF($2, ''), class_contents.title),
			description = COALESCE(NULLIF($3, ''), class_contents.description),
			content     = COALESCE(NULLIF($4, ''), class_contents.content),
			duration    = CASE WHEN $6 > 0 THEN $6 ELSE class_contents.duration END,
			updated_at  = now()
		RETURNING ` + classContentColumns

	updated, err := scanClassContent(r.db.Querier(ctx).QueryRow(
		ctx, query,
		content.CourseID,
		content.Title,
		content.Description,
		content.Content,
		content.Order,
		content.Duration,
		model.DefaultClassDuration,
		content.IsDynamic,
	))
	if err != nil {
		return fmt.Errorf("upsert class content: %w", err)
	}

	*content = *updated
	return nil
}

// GetByCourseOrder получает план занятия по паре (course_id, "order")
func (r *ClassContentRepository) GetByCourseOrder(ctx context.Context, courseID int64, order int) (*model.ClassContent, error) {
	query := `SELECT ` + classContentColumns + ` FROM class_contents WHERE course_id = $1 AND "order" = $2`

	content, err := scanClassContent(r.db.Querier(ctx).QueryRow(ctx, query, courseID, order))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get class content: %w", err)
	}

	return content, nil
}

// GetByID получает план занятия по ID
func (r *ClassContentRepository) GetByID(ctx context.Context, id int64) (*model.ClassContent, error) {
	query := `SELECT ` + classContentColumns + ` FROM class_contents WHERE id = $1`

	content, err := scanClassContent(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get class content by id: %w", err)
	}

	return content, nil
}

// ListByCourse получает все планы занятий курса по порядку
func (r *ClassContentRepository) ListByCourse(ctx context.Context, courseID int64) ([]*model.ClassContent, error) {
	query := `SELECT ` + classContentColumns + ` FROM class_contents WHERE course_id = $1 ORDER BY "order" ASC`

	rows, err := r.db.Querier(ctx).Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("list class contents: %w", err)
	}
	defer rows.Close()

	var contents []*model.ClassContent
	for rows.Next() {
		content, err := scanClassContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan class content: %w", err)
		}
		contents = append(contents, content)
	}

	return contents, nil
}
