package model

import "time"

const DefaultClassDuration = 60 // минут

// ClassContent план занятия с порядковым номером внутри курса.
// Пара (CourseID, Order) уникальна: запись либо создана заранее,
// либо материализуется движком аллокации при первом назначении.
type ClassContent struct {
	ID          int64     `json:"id"`
	CourseID    int64     `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Order       int       `json:"order"` // нумерация с 1
	Duration    int       `json:"duration"`
	IsDynamic   bool      `json:"is_dynamic"` // создан движком, а не автором курса
	Thumbnail   string    `json:"thumbnail"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
