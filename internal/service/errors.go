package service

import "fmt"

// NotFoundError запрошенная сущность не существует
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

// ForbiddenError у актора нет прав на операцию
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// ConflictError в окне ±1 час уже есть занятие тренера или студента
type ConflictError struct {
	Date string
	Time string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time slot conflict detected at %s %s", e.Date, e.Time)
}

// CapacityError лимит занятий курса исчерпан
type CapacityError struct {
	Scheduled int
	Total     int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("allocation limit reached (%d/%d)", e.Scheduled, e.Total)
}

// ValidationError некорректные входные данные
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
