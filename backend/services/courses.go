package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"coursemarket/backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CourseInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Instructor  string `json:"instructor" validate:"required,max=200"`
}

type CourseQuery struct {
	Search string
	Sort   string // newest, rating, popularity, title
}

// CourseSummary is a course with its derived counters.
type CourseSummary struct {
	models.Course
	StudentsCount int64   `json:"students_count"`
	ReviewCount   int64   `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}

type CourseDetail struct {
	CourseSummary
	Students []string `json:"students"`
}

type CourseService struct {
	DB          *gorm.DB
	Enrollments *EnrollmentService
	Reviews     *ReviewService
	Logger      *zap.Logger
}

func NewCourseService(db *gorm.DB, enrollments *EnrollmentService, reviews *ReviewService, logger *zap.Logger) *CourseService {
	return &CourseService{DB: db, Enrollments: enrollments, Reviews: reviews, Logger: logger}
}

func (s *CourseService) CreateCourse(ctx context.Context, in CourseInput) (*models.Course, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Instructor = strings.TrimSpace(in.Instructor)
	if err := Validate(in); err != nil {
		return nil, err
	}

	course := models.Course{
		Title:       in.Title,
		Description: in.Description,
		Instructor:  in.Instructor,
	}
	if err := s.DB.WithContext(ctx).Create(&course).Error; err != nil {
		if IsDuplicateKey(err) {
			return nil, conflict("A course with this title already exists")
		}
		return nil, internal("Could not create course", err)
	}

	s.Logger.Info("course created",
		zap.String("course_id", course.ID),
		zap.String("title", course.Title))
	return &course, nil
}

func (s *CourseService) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	var course models.Course
	err := s.DB.WithContext(ctx).Where("id = ?", courseID).Take(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Course not found")
	}
	if err != nil {
		return nil, internal("Could not query course", err)
	}
	return &course, nil
}

// CourseDetail returns a course with its roster and rating.
func (s *CourseService) CourseDetail(ctx context.Context, courseID string) (*CourseDetail, error) {
	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	students, err := s.Enrollments.StudentIDs(ctx, courseID)
	if err != nil {
		return nil, err
	}
	avg, count, err := s.Reviews.CourseRating(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return &CourseDetail{
		CourseSummary: CourseSummary{
			Course:        *course,
			StudentsCount: int64(len(students)),
			ReviewCount:   count,
			AverageRating: avg,
		},
		Students: students,
	}, nil
}

func (s *CourseService) ListCourses(ctx context.Context, q CourseQuery) ([]CourseSummary, error) {
	db := s.DB.WithContext(ctx)

	query := db.Model(&models.Course{})
	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(instructor) LIKE ?",
			pattern, pattern, pattern)
	}

	var courses []models.Course
	if err := query.Order("created_at DESC").Find(&courses).Error; err != nil {
		return nil, internal("Failed to fetch courses", err)
	}

	var ratings []struct {
		CourseID string
		Total    int64
		Sum      int64
	}
	if err := db.Model(&models.Review{}).
		Select("course_id, COUNT(*) AS total, SUM(rating) AS sum").
		Group("course_id").
		Scan(&ratings).Error; err != nil {
		return nil, internal("Failed to fetch ratings", err)
	}

	var rosters []struct {
		CourseID string
		Total    int64
	}
	if err := db.Model(&models.Enrollment{}).
		Select("course_id, COUNT(*) AS total").
		Group("course_id").
		Scan(&rosters).Error; err != nil {
		return nil, internal("Failed to fetch enrollments", err)
	}

	result := make([]CourseSummary, len(courses))
	index := make(map[string]*CourseSummary, len(courses))
	for i, course := range courses {
		result[i] = CourseSummary{Course: course}
		index[course.ID] = &result[i]
	}
	for _, r := range ratings {
		if cs, ok := index[r.CourseID]; ok {
			cs.ReviewCount = r.Total
			cs.AverageRating = mean(r.Sum, r.Total, 1)
		}
	}
	for _, r := range rosters {
		if cs, ok := index[r.CourseID]; ok {
			cs.StudentsCount = r.Total
		}
	}

	switch q.Sort {
	case "rating":
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].AverageRating > result[j].AverageRating
		})
	case "popularity":
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].StudentsCount > result[j].StudentsCount
		})
	case "title":
		sort.SliceStable(result, func(i, j int) bool {
			return strings.ToLower(result[i].Title) < strings.ToLower(result[j].Title)
		})
	}
	return result, nil
}
