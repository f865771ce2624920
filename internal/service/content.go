package service

import (
	"context"

	"github.com/fitlearn/classhub/internal/model"
)

// ContentOverrides поля плана занятия, заданные при аллокации.
// Пустые значения не затирают уже сохранённые.
type ContentOverrides struct {
	Title       string
	Description string
	Content     string
	Duration    int
}

// ContentMaterializer находит или создаёт план занятия по паре
// (курс, порядковый номер)
type ContentMaterializer struct {
	contents ContentStore
}

func NewContentMaterializer(contents ContentStore) *ContentMaterializer {
	return &ContentMaterializer{contents: contents}
}

// Resolve материализует план занятия для порядкового номера order.
// Новая запись получает is_dynamic=true и дефолтные заголовок, описание
// и длительность; у существующей обновляются только непустые overrides.
// Конкурентные вызовы для одной пары сходятся к одной записи: слияние
// атомарно в хранилище.
func (m *ContentMaterializer) Resolve(ctx context.Context, course *model.Course, order int, overrides ContentOverrides) (*model.ClassContent, error) {
	content := &model.ClassContent{
		CourseID:    course.ID,
		Title:       overrides.Title,
		Description: overrides.Description,
		Content:     overrides.Content,
		Order:       order,
		Duration:    overrides.Duration,
		IsDynamic:   true,
	}

	if err := m.contents.Upsert(ctx, content); err != nil {
		return nil, err
	}

	return content, nil
}
