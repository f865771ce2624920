package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fitlearn/classhub/internal/meet"
	"github.com/fitlearn/classhub/internal/model"
	"github.com/fitlearn/classhub/internal/registry"
)

// fakeStore in-memory реализация всех хранилищ для тестов сервисов
type fakeStore struct {
	mu          sync.Mutex
	nextID      int64
	users       map[int64]*model.User
	courses     map[int64]*model.Course
	options     map[int64][]*model.CoursePriceOption
	contents    []*model.ClassContent
	enrollments []*model.Enrollment
	schedules   []*model.ClassSchedule
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[int64]*model.User),
		courses: make(map[int64]*model.Course),
		options: make(map[int64][]*model.CoursePriceOption),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeStore) LockKeys(ctx context.Context, keys ...int64) error {
	return nil
}

// --- users ---

func (f *fakeStore) Create(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = f.id()
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeStore) GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []*model.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (f *fakeStore) addUser(name string, role model.UserRole) *model.User {
	user := &model.User{Name: name, Email: name + "@example.com", Role: role}
	f.Create(context.Background(), user)
	return user
}

// --- courses ---

type fakeCourses struct{ *fakeStore }

func (f *fakeStore) courseStore() *fakeCourses { return &fakeCourses{f} }

func (f *fakeCourses) Create(ctx context.Context, course *model.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	course.ID = f.id()
	course.CreatedAt = time.Now()
	course.UpdatedAt = course.CreatedAt
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourses) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.courses[id], nil
}

func (f *fakeCourses) List(ctx context.Context) ([]*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var courses []*model.Course
	for _, c := range f.courses {
		courses = append(courses, c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.After(courses[j].CreatedAt) })
	return courses, nil
}

func (f *fakeCourses) Update(ctx context.Context, course *model.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.courses[course.ID]; !ok {
		return fmt.Errorf("course not found")
	}
	course.UpdatedAt = time.Now()
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourses) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.courses[id]; !ok {
		return fmt.Errorf("course not found")
	}
	delete(f.courses, id)
	return nil
}

func (f *fakeCourses) ReplaceOptions(ctx context.Context, courseID int64, options []*model.CoursePriceOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, opt := range options {
		opt.ID = f.id()
		opt.CourseID = courseID
	}
	f.options[courseID] = options
	return nil
}

func (f *fakeCourses) GetOptions(ctx context.Context, courseID int64) ([]*model.CoursePriceOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.options[courseID], nil
}

func (f *fakeStore) addCourse(title string, totalClasses int) *model.Course {
	course := &model.Course{Title: title, TotalClasses: totalClasses}
	f.courseStore().Create(context.Background(), course)
	return course
}

// --- class contents ---

type fakeContents struct{ *fakeStore }

func (f *fakeStore) contentStore() *fakeContents { return &fakeContents{f} }

// Upsert повторяет семантику SQL-апсерта: дефолты при создании,
// слияние непустых полей при обновлении
func (f *fakeContents) Upsert(ctx context.Context, content *model.ClassContent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.contents {
		if existing.CourseID == content.CourseID && existing.Order == content.Order {
			if content.Title != "" {
				existing.Title = content.Title
			}
			if content.Description != "" {
				existing.Description = content.Description
			}
			if content.Content != "" {
				existing.Content = content.Content
			}
			if content.Duration > 0 {
				existing.Duration = content.Duration
			}
			existing.UpdatedAt = time.Now()
			*content = *existing
			return nil
		}
	}

	if content.Title == "" {
		courseTitle := ""
		if course, ok := f.courses[content.CourseID]; ok {
			courseTitle = course.Title
		}
		content.Title = fmt.Sprintf("Class %d - %s", content.Order, courseTitle)
	}
	if content.Description == "" {
		content.Description = fmt.Sprintf("Scheduled Class %d", content.Order)
	}
	if content.Duration <= 0 {
		content.Duration = model.DefaultClassDuration
	}
	content.ID = f.id()
	content.CreatedAt = time.Now()
	content.UpdatedAt = content.CreatedAt

	stored := *content
	f.contents = append(f.contents, &stored)
	return nil
}

func (f *fakeContents) GetByCourseOrder(ctx context.Context, courseID int64, order int) (*model.ClassContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contents {
		if c.CourseID == courseID && c.Order == order {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeContents) GetByID(ctx context.Context, id int64) (*model.ClassContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contents {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeContents) ListByCourse(ctx context.Context, courseID int64) ([]*model.ClassContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var contents []*model.ClassContent
	for _, c := range f.contents {
		if c.CourseID == courseID {
			contents = append(contents, c)
		}
	}
	sort.Slice(contents, func(i, j int) bool { return contents[i].Order < contents[j].Order })
	return contents, nil
}

// --- enrollments ---

type fakeEnrollments struct{ *fakeStore }

func (f *fakeStore) enrollmentStore() *fakeEnrollments { return &fakeEnrollments{f} }

func (f *fakeEnrollments) Create(ctx context.Context, enrollment *model.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	enrollment.ID = f.id()
	enrollment.CreatedAt = time.Now()
	f.enrollments = append(f.enrollments, enrollment)
	return nil
}

func (f *fakeEnrollments) GetByTriple(ctx context.Context, studentID, courseID, trainerID int64) (*model.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID && e.TrainerID == trainerID {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeEnrollments) ListByStudent(ctx context.Context, studentID int64) ([]*model.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var enrollments []*model.Enrollment
	for _, e := range f.enrollments {
		if e.StudentID == studentID {
			enrollments = append(enrollments, e)
		}
	}
	return enrollments, nil
}

func (f *fakeEnrollments) ListByTrainer(ctx context.Context, trainerID int64) ([]*model.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var enrollments []*model.Enrollment
	for _, e := range f.enrollments {
		if e.TrainerID == trainerID {
			enrollments = append(enrollments, e)
		}
	}
	return enrollments, nil
}

func (f *fakeEnrollments) MarkCompleted(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.enrollments {
		if e.ID == id && e.Status != model.EnrollmentStatusCompleted {
			now := time.Now()
			e.Status = model.EnrollmentStatusCompleted
			e.CompletedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEnrollments) Activate(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.enrollments {
		if e.ID == id && e.Status == model.EnrollmentStatusTrainerAssigned {
			e.Status = model.EnrollmentStatusActive
		}
	}
	return nil
}

func (f *fakeStore) addEnrollment(studentID, courseID, trainerID int64) *model.Enrollment {
	enrollment := &model.Enrollment{
		StudentID:   studentID,
		CourseID:    courseID,
		TrainerID:   trainerID,
		StudentName: "student",
		Status:      model.EnrollmentStatusTrainerAssigned,
	}
	f.enrollmentStore().Create(context.Background(), enrollment)
	return enrollment
}

// --- schedules ---

type fakeSchedules struct{ *fakeStore }

func (f *fakeStore) scheduleStore() *fakeSchedules { return &fakeSchedules{f} }

func (f *fakeSchedules) Create(ctx context.Context, schedule *model.ClassSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	schedule.ID = f.id()
	schedule.CreatedAt = time.Now()
	schedule.UpdatedAt = schedule.CreatedAt

	stored := *schedule
	stored.Class = nil
	stored.Student = nil
	stored.Trainer = nil
	stored.Course = nil
	f.schedules = append(f.schedules, &stored)
	return nil
}

func (f *fakeSchedules) GetByID(ctx context.Context, id int64) (*model.ClassSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.schedules {
		if s.ID == id {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeSchedules) Update(ctx context.Context, schedule *model.ClassSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.schedules {
		if s.ID == schedule.ID {
			stored := *schedule
			stored.Class = nil
			stored.Student = nil
			stored.Trainer = nil
			stored.Course = nil
			stored.UpdatedAt = time.Now()
			f.schedules[i] = &stored
			return nil
		}
	}
	return fmt.Errorf("schedule not found")
}

func (f *fakeSchedules) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.schedules {
		if s.ID == id {
			f.schedules = append(f.schedules[:i], f.schedules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("schedule not found")
}

func (f *fakeSchedules) CountActive(ctx context.Context, studentID, courseID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, s := range f.schedules {
		if s.StudentID == studentID && s.CourseID == courseID && s.Status != model.ScheduleStatusCancelled {
			count++
		}
	}
	return count, nil
}

func (f *fakeSchedules) CountByTriple(ctx context.Context, studentID, courseID, trainerID int64) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	scheduled, completed := 0, 0
	for _, s := range f.schedules {
		if s.StudentID != studentID || s.CourseID != courseID || s.TrainerID != trainerID {
			continue
		}
		if s.Status != model.ScheduleStatusCancelled {
			scheduled++
		}
		if s.Status == model.ScheduleStatusCompleted {
			completed++
		}
	}
	return scheduled, completed, nil
}

func (f *fakeSchedules) ExistsConflict(ctx context.Context, date, from, to string, trainerID, studentID, excludeID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.schedules {
		if s.ID == excludeID || s.ScheduledDate != date || s.Status == model.ScheduleStatusCancelled {
			continue
		}
		if s.TrainerID != trainerID && s.StudentID != studentID {
			continue
		}
		if s.ScheduledTime >= from && s.ScheduledTime <= to {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSchedules) List(ctx context.Context, filter model.ScheduleFilter) ([]*model.ClassSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var schedules []*model.ClassSchedule
	for _, s := range f.schedules {
		if filter.StudentID != nil && s.StudentID != *filter.StudentID {
			continue
		}
		if filter.TrainerID != nil && s.TrainerID != *filter.TrainerID {
			continue
		}
		if filter.CourseID != nil && s.CourseID != *filter.CourseID {
			continue
		}
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		if filter.DateFrom != "" && s.ScheduledDate < filter.DateFrom {
			continue
		}
		if filter.DateTo != "" && s.ScheduledDate > filter.DateTo {
			continue
		}
		copied := *s
		schedules = append(schedules, &copied)
	}
	sort.Slice(schedules, func(i, j int) bool {
		if schedules[i].ScheduledDate != schedules[j].ScheduledDate {
			return schedules[i].ScheduledDate < schedules[j].ScheduledDate
		}
		return schedules[i].ScheduledTime < schedules[j].ScheduledTime
	})
	return schedules, nil
}

// --- meeting provisioner ---

type fakeProvisioner struct {
	meeting *meet.Meeting
	err     error
	calls   int
	onCall  func()
}

func (p *fakeProvisioner) CreateMeeting(ctx context.Context, trainer, student *model.User, content *model.ClassContent, date, timeOfDay string) (*meet.Meeting, error) {
	p.calls++
	if p.onCall != nil {
		p.onCall()
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.meeting, nil
}

// --- notifier ---

type fakeNotifier struct {
	mu     sync.Mutex
	events map[int64][]registry.Event
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{events: make(map[int64][]registry.Event)}
}

func (n *fakeNotifier) Notify(userID int64, event registry.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events[userID] = append(n.events[userID], event)
}
