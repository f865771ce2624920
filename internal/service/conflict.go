package service

import (
	"context"
	"fmt"
	"time"
)

const conflictWindow = time.Hour

// ConflictChecker проверяет пересечение предлагаемого занятия
// с существующими по окну ±1 час
type ConflictChecker struct {
	schedules ScheduleStore
}

func NewConflictChecker(schedules ScheduleStore) *ConflictChecker {
	return &ConflictChecker{schedules: schedules}
}

// HasConflict проверяет, занято ли время у тренера ИЛИ у студента:
// конфликт с любой стороны блокирует слот. Окно [time-1h, time+1h]
// включительно по границам, в пределах одной календарной даты.
// excludeID исключает занятие из проверки (перенос самого себя), 0 — ничего.
func (c *ConflictChecker) HasConflict(ctx context.Context, date, timeOfDay string, trainerID, studentID, excludeID int64) (bool, error) {
	from, to, err := conflictBounds(timeOfDay)
	if err != nil {
		return false, err
	}

	return c.schedules.ExistsConflict(ctx, date, from, to, trainerID, studentID, excludeID)
}

// conflictBounds возвращает границы окна, зажатые в рамки суток:
// переход через полночь не обрабатывается
func conflictBounds(timeOfDay string) (string, string, error) {
	sec, err := secondsOfDay(timeOfDay)
	if err != nil {
		return "", "", err
	}

	windowSec := int(conflictWindow / time.Second)

	fromSec := sec - windowSec
	if fromSec < 0 {
		fromSec = 0
	}
	toSec := sec + windowSec
	if toSec > 24*3600-1 {
		toSec = 24*3600 - 1
	}

	return formatSeconds(fromSec), formatSeconds(toSec), nil
}

func secondsOfDay(timeOfDay string) (int, error) {
	t, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return 0, err
	}
	return t.Hour()*3600 + t.Minute()*60 + t.Second(), nil
}

func formatSeconds(sec int) string {
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, sec%3600/60, sec%60)
}

// parseTimeOfDay принимает "15:04:05" или "15:04"
func parseTimeOfDay(timeOfDay string) (time.Time, error) {
	t, err := time.Parse("15:04:05", timeOfDay)
	if err != nil {
		t, err = time.Parse("15:04", timeOfDay)
	}
	if err != nil {
		return time.Time{}, &ValidationError{Message: fmt.Sprintf("invalid time %q, expected HH:MM:SS", timeOfDay)}
	}
	return t, nil
}

// normalizeTimeOfDay приводит время к каноническому "15:04:05"
func normalizeTimeOfDay(timeOfDay string) (string, error) {
	t, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return "", err
	}
	return t.Format("15:04:05"), nil
}

// normalizeDate проверяет и канонизирует дату "2006-01-02"
func normalizeDate(date string) (string, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", &ValidationError{Message: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date)}
	}
	return d.Format("2006-01-02"), nil
}
