package service

import "context"

// CapacityGate считает остаток лимита занятий по паре (студент, курс).
// Лимит общий: все тренеры студента в рамках курса делят один потолок.
type CapacityGate struct {
	schedules ScheduleStore
}

func NewCapacityGate(schedules ScheduleStore) *CapacityGate {
	return &CapacityGate{schedules: schedules}
}

// Remaining возвращает остаток лимита и число уже назначенных
// неотменённых занятий
func (g *CapacityGate) Remaining(ctx context.Context, studentID, courseID int64, totalClasses int) (remaining, scheduled int, err error) {
	scheduled, err = g.schedules.CountActive(ctx, studentID, courseID)
	if err != nil {
		return 0, 0, err
	}

	remaining = totalClasses - scheduled
	if remaining < 0 {
		remaining = 0
	}

	return remaining, scheduled, nil
}
