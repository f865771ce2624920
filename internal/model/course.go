package model

import "time"

type Course struct {
	ID           int64     `json:"id"`
	TrainerID    *int64    `json:"trainer_id"` // тренер-владелец, nil пока не назначен
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Thumbnail    string    `json:"thumbnail"` // ключ в объектном хранилище, ссылку собирает внешний слой
	TotalClasses int       `json:"total_classes"`
	Rating       float64   `json:"rating"`
	Duration     int       `json:"duration"` // суммарная длительность в минутах, справочное
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Заполняется при выборке с опциями
	PriceOptions []*CoursePriceOption `json:"price_options,omitempty"`
}

type CoursePriceOption struct {
	ID       int64  `json:"id"`
	CourseID int64  `json:"course_id"`
	Name     string `json:"name"`
	Price    int    `json:"price"` // в копейках/центах
	Sessions int    `json:"sessions"`
}
