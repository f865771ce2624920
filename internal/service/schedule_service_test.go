package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitlearn/classhub/internal/model"
)

func strPtr(s string) *string { return &s }

func statusPtr(s model.ScheduleStatus) *model.ScheduleStatus { return &s }

func TestScheduleUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown schedule", func(t *testing.T) {
		fx := newProgressFixture(t, 3)

		_, err := fx.schedule.Update(ctx, 999, model.SchedulePatch{}, fx.trainer.ID)
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("outsider is rejected", func(t *testing.T) {
		fx := newProgressFixture(t, 3)
		id := fx.allocateAt(t, "2026-09-10", "10:00:00")
		outsider := fx.store.addUser("outsider", model.UserRoleStudent)

		_, err := fx.schedule.Update(ctx, id, model.SchedulePatch{Notes: strPtr("hi")}, outsider.ID)
		var forbidden *ForbiddenError
		require.ErrorAs(t, err, &forbidden)
	})

	t.Run("student can update own class", func(t *testing.T) {
		fx := newProgressFixture(t, 3)
		id := fx.allocateAt(t, "2026-09-10", "10:00:00")

		updated, err := fx.schedule.Update(ctx, id, model.SchedulePatch{Notes: strPtr("bring shoes")}, fx.student.ID)
		require.NoError(t, err)
		assert.Equal(t, "bring shoes", updated.Notes)
	})

	t.Run("invalid status", func(t *testing.T) {
		fx := newProgressFixture(t, 3)
		id := fx.allocateAt(t, "2026-09-10", "10:00:00")

		_, err := fx.schedule.Update(ctx, id, model.SchedulePatch{Status: statusPtr("postponed")}, fx.trainer.ID)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("reschedule moves date and time", func(t *testing.T) {
		fx := newProgressFixture(t, 3)
		id := fx.allocateAt(t, "2026-09-10", "10:00:00")

		updated, err := fx.schedule.Update(ctx, id, model.SchedulePatch{
			ScheduledDate: strPtr("2026-09-12"),
			ScheduledTime: strPtr("15:00"),
		}, fx.trainer.ID)
		require.NoError(t, err)
		assert.Equal(t, "2026-09-12", updated.ScheduledDate)
		assert.Equal(t, "15:00:00", updated.ScheduledTime)
	})

	t.Run("reschedule into busy slot", func(t *testing.T) {
		fx := newProgressFixture(t, 3)
		fx.allocateAt(t, "2026-09-10", "10:00:00")
		id := fx.allocateAt(t, "2026-09-10", "14:00:00")

		_, err := fx.schedule.Update(ctx, id, model.SchedulePatch{ScheduledTime: strPtr("10:30:00")}, fx.trainer.ID)
		var conflictErr *ConflictError
		require.ErrorAs(t, err, &conflictErr)
	})

	t.Run("reschedule excludes itself from conflict check", func(t *testing.T) {
		fx := newProgressFixture(t, 3)
		id := fx.allocateAt(t, "2026-09-10", "10:00:00")

		updated, err := fx.schedule.Update(ctx, id, model.SchedulePatch{ScheduledTime: strPtr("10:30:00")}, fx.trainer.ID)
		require.NoError(t, err)
		assert.Equal(t, "10:30:00", updated.ScheduledTime)
	})

	t.Run("completion triggers enrollment recompute", func(t *testing.T) {
		fx := newProgressFixture(t, 1)
		id := fx.allocateAt(t, "2026-09-10", "10:00:00")

		updated, err := fx.schedule.Update(ctx, id, model.SchedulePatch{Status: statusPtr(model.ScheduleStatusCompleted)}, fx.trainer.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ScheduleStatusCompleted, updated.Status)

		enrollment := fx.enrollment(t)
		assert.Equal(t, model.EnrollmentStatusCompleted, enrollment.Status)
	})

	t.Run("terminal status cannot change", func(t *testing.T) {
		fx := newProgressFixture(t, 3)
		id := fx.allocateAt(t, "2026-09-10", "10:00:00")

		_, err := fx.schedule.Update(ctx, id, model.SchedulePatch{Status: statusPtr(model.ScheduleStatusCancelled)}, fx.trainer.ID)
		require.NoError(t, err)

		_, err = fx.schedule.Update(ctx, id, model.SchedulePatch{Status: statusPtr(model.ScheduleStatusScheduled)}, fx.trainer.ID)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.EqualError(t, err, "schedule is not active")
	})

	t.Run("terminal class cannot be rescheduled", func(t *testing.T) {
		fx := newProgressFixture(t, 1)
		id := fx.allocateAt(t, "2026-09-10", "10:00:00")

		_, err := fx.schedule.Update(ctx, id, model.SchedulePatch{Status: statusPtr(model.ScheduleStatusCompleted)}, fx.trainer.ID)
		require.NoError(t, err)

		_, err = fx.schedule.Update(ctx, id, model.SchedulePatch{ScheduledTime: strPtr("18:00:00")}, fx.trainer.ID)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("notes on terminal class still allowed", func(t *testing.T) {
		fx := newProgressFixture(t, 1)
		id := fx.allocateAt(t, "2026-09-10", "10:00:00")

		_, err := fx.schedule.Update(ctx, id, model.SchedulePatch{Status: statusPtr(model.ScheduleStatusCompleted)}, fx.trainer.ID)
		require.NoError(t, err)

		updated, err := fx.schedule.Update(ctx, id, model.SchedulePatch{Notes: strPtr("great session")}, fx.trainer.ID)
		require.NoError(t, err)
		assert.Equal(t, "great session", updated.Notes)
	})
}

func TestScheduleDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("trainer deletes", func(t *testing.T) {
		fx := newProgressFixture(t, 3)
		id := fx.allocateAt(t, "2026-09-10", "10:00:00")

		require.NoError(t, fx.schedule.Delete(ctx, id, fx.trainer.ID))

		stored, err := fx.store.scheduleStore().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("student cannot delete", func(t *testing.T) {
		fx := newProgressFixture(t, 3)
		id := fx.allocateAt(t, "2026-09-10", "10:00:00")

		err := fx.schedule.Delete(ctx, id, fx.student.ID)
		var forbidden *ForbiddenError
		require.ErrorAs(t, err, &forbidden)
		assert.Equal(t, "only trainer can delete", forbidden.Reason)
	})

	t.Run("unknown schedule", func(t *testing.T) {
		fx := newProgressFixture(t, 3)

		err := fx.schedule.Delete(ctx, 999, fx.trainer.ID)
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestScheduleGet(t *testing.T) {
	ctx := context.Background()
	fx := newProgressFixture(t, 3)
	id := fx.allocateAt(t, "2026-09-10", "10:00:00")

	schedule, err := fx.schedule.Get(ctx, id, fx.student.ID)
	require.NoError(t, err)
	require.NotNil(t, schedule.Class)
	require.NotNil(t, schedule.Course)
	require.NotNil(t, schedule.Student)
	require.NotNil(t, schedule.Trainer)
	assert.Equal(t, fx.course.ID, schedule.Course.ID)

	outsider := fx.store.addUser("outsider", model.UserRoleStudent)
	_, err = fx.schedule.Get(ctx, id, outsider.ID)
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	_, err = fx.schedule.Get(ctx, 999, fx.student.ID)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestScheduleList(t *testing.T) {
	ctx := context.Background()
	fx := newProgressFixture(t, 5)

	fx.allocateAt(t, "2026-09-12", "10:00:00")
	fx.allocateAt(t, "2026-09-10", "14:00:00")
	fx.allocateAt(t, "2026-09-10", "08:00:00")

	schedules, err := fx.schedule.ListByStudent(ctx, fx.student.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 3)

	// По возрастанию даты и времени
	assert.Equal(t, "2026-09-10", schedules[0].ScheduledDate)
	assert.Equal(t, "08:00:00", schedules[0].ScheduledTime)
	assert.Equal(t, "14:00:00", schedules[1].ScheduledTime)
	assert.Equal(t, "2026-09-12", schedules[2].ScheduledDate)

	byTrainer, err := fx.schedule.ListByTrainer(ctx, fx.trainer.ID)
	require.NoError(t, err)
	assert.Len(t, byTrainer, 3)

	empty, err := fx.schedule.ListByStudent(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTrainerReport(t *testing.T) {
	ctx := context.Background()
	fx := newProgressFixture(t, 10)
	second := fx.store.addUser("second student", model.UserRoleStudent)
	fx.store.addEnrollment(second.ID, fx.course.ID, fx.trainer.ID)

	completed := []int64{
		fx.allocateAt(t, "2026-09-03", "08:00:00"),
		fx.allocateAt(t, "2026-09-05", "08:00:00"),
	}
	cancelled := fx.allocateAt(t, "2026-09-07", "08:00:00")
	fx.allocateAt(t, "2026-09-09", "08:00:00") // остаётся scheduled

	// Занятие второго студента в том же месяце
	otherMonth, err := fx.alloc.Allocate(ctx, fx.trainer.ID, AllocationInput{
		StudentID:     second.ID,
		CourseID:      fx.course.ID,
		ScheduledDate: "2026-10-01",
		ScheduledTime: "08:00:00",
	})
	require.NoError(t, err)
	sameMonth, err := fx.alloc.Allocate(ctx, fx.trainer.ID, AllocationInput{
		StudentID:     second.ID,
		CourseID:      fx.course.ID,
		ScheduledDate: "2026-09-20",
		ScheduledTime: "08:00:00",
	})
	require.NoError(t, err)

	for _, id := range append(completed, sameMonth.ID, otherMonth.ID) {
		fx.complete(t, id)
	}
	_, err = fx.schedule.Update(ctx, cancelled, model.SchedulePatch{Status: statusPtr(model.ScheduleStatusCancelled)}, fx.trainer.ID)
	require.NoError(t, err)

	report, err := fx.schedule.Report(ctx, fx.trainer.ID, 2026, time.September)
	require.NoError(t, err)

	assert.Equal(t, "2026-09", report.Month)
	assert.Equal(t, 3, report.TotalCompleted)
	assert.Equal(t, 1, report.TotalCancelled)
	assert.Equal(t, 2, report.StudentsHandled)

	// Последние завершённые в обратном хронологическом порядке
	require.Len(t, report.RecentCompleted, 3)
	assert.Equal(t, "2026-09-20", report.RecentCompleted[0].ScheduledDate)
	assert.Equal(t, "2026-09-05", report.RecentCompleted[1].ScheduledDate)
	assert.Equal(t, "2026-09-03", report.RecentCompleted[2].ScheduledDate)
}
