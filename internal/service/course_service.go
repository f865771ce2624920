package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fitlearn/classhub/internal/model"
)

// CourseService CRUD курсов с валидацией лимита занятий и рейтинга
type CourseService struct {
	store    Store
	users    UserStore
	courses  CourseStore
	contents ContentStore
	logger   *zap.Logger
}

func NewCourseService(store Store, users UserStore, courses CourseStore, contents ContentStore, logger *zap.Logger) *CourseService {
	return &CourseService{
		store:    store,
		users:    users,
		courses:  courses,
		contents: contents,
		logger:   logger,
	}
}

// CourseInput параметры создания курса
type CourseInput struct {
	TrainerID    *int64
	Title        string
	Description  string
	Thumbnail    string
	TotalClasses int
	Rating       float64
	Options      []*model.CoursePriceOption
}

// Create создаёт курс с тарифами
func (s *CourseService) Create(ctx context.Context, in CourseInput) (*model.Course, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, &ValidationError{Message: "title and totalClasses are required"}
	}
	if in.TotalClasses <= 0 {
		return nil, &ValidationError{Message: "totalClasses must be greater than 0"}
	}
	if in.Rating < 0 || in.Rating > 5 {
		return nil, &ValidationError{Message: "rating must be between 0 and 5"}
	}

	course := &model.Course{
		TrainerID:    in.TrainerID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Thumbnail:    in.Thumbnail,
		TotalClasses: in.TotalClasses,
		Rating:       in.Rating,
	}

	err := s.store.InTx(ctx, func(ctx context.Context) error {
		if err := s.courses.Create(ctx, course); err != nil {
			return err
		}
		if len(in.Options) > 0 {
			if err := s.courses.ReplaceOptions(ctx, course.ID, in.Options); err != nil {
				return err
			}
			course.PriceOptions = in.Options
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Course created",
		zap.Int64("course_id", course.ID),
		zap.String("title", course.Title),
		zap.Int("total_classes", course.TotalClasses),
	)

	return course, nil
}

// CourseUpdate частичное обновление курса, nil-поля не трогаются
type CourseUpdate struct {
	TrainerID    *int64
	Title        *string
	Description  *string
	Thumbnail    *string
	TotalClasses *int
	Rating       *float64
	Options      []*model.CoursePriceOption
}

// Update обновляет курс. Лимит занятий меняется только явным
// значением больше нуля.
func (s *CourseService) Update(ctx context.Context, id int64, in CourseUpdate) (*model.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, &NotFoundError{Entity: "course"}
	}

	if in.TrainerID != nil {
		trainer, err := s.users.GetByID(ctx, *in.TrainerID)
		if err != nil {
			return nil, err
		}
		if trainer == nil {
			return nil, &ValidationError{Message: "invalid trainer ID"}
		}
		course.TrainerID = in.TrainerID
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, &ValidationError{Message: "title must not be empty"}
		}
		course.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		course.Description = *in.Description
	}
	if in.Thumbnail != nil {
		course.Thumbnail = *in.Thumbnail
	}
	if in.TotalClasses != nil {
		if *in.TotalClasses <= 0 {
			return nil, &ValidationError{Message: "totalClasses must be greater than 0"}
		}
		course.TotalClasses = *in.TotalClasses
	}
	if in.Rating != nil {
		if *in.Rating < 0 || *in.Rating > 5 {
			return nil, &ValidationError{Message: "rating must be between 0 and 5"}
		}
		course.Rating = *in.Rating
	}

	err = s.store.InTx(ctx, func(ctx context.Context) error {
		if err := s.courses.Update(ctx, course); err != nil {
			return err
		}
		if in.Options != nil {
			if err := s.courses.ReplaceOptions(ctx, course.ID, in.Options); err != nil {
				return err
			}
			course.PriceOptions = in.Options
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Course updated", zap.Int64("course_id", course.ID))

	return course, nil
}

// Get возвращает курс с тарифами
func (s *CourseService) Get(ctx context.Context, id int64) (*model.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, &NotFoundError{Entity: "course"}
	}

	options, err := s.courses.GetOptions(ctx, id)
	if err != nil {
		return nil, err
	}
	course.PriceOptions = options

	return course, nil
}

// Classes возвращает планы занятий курса по порядку
func (s *CourseService) Classes(ctx context.Context, id int64) ([]*model.ClassContent, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, &NotFoundError{Entity: "course"}
	}

	return s.contents.ListByCourse(ctx, id)
}

// List возвращает все курсы, новые первыми
func (s *CourseService) List(ctx context.Context) ([]*model.Course, error) {
	return s.courses.List(ctx)
}

// Delete удаляет курс вместе с занятиями и записями
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if course == nil {
		return &NotFoundError{Entity: "course"}
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Course deleted", zap.Int64("course_id", id))

	return nil
}
