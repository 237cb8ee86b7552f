package services

import (
	"context"
	"strings"

	"coursemarket/backend/models"
	"coursemarket/backend/prompts"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DescriptionInput struct {
	Title      string   `json:"title" validate:"required"`
	Instructor string   `json:"instructor" validate:"required"`
	Keywords   []string `json:"keywords"`
}

type BioInput struct {
	Interests  string `json:"interests" validate:"required"`
	Experience string `json:"experience" validate:"required"`
	Goals      string `json:"goals"`
}

type ReviewAnalysis struct {
	CourseTitle   string  `json:"course_title"`
	ReviewCount   int     `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
	Analysis      string  `json:"analysis"`
}

type CourseRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type SimilarCourses struct {
	ReferenceCourse  string      `json:"reference_course"`
	Suggestions      string      `json:"suggestions"`
	AvailableCourses []CourseRef `json:"available_courses"`
}

type PlatformInsights struct {
	Stats    prompts.PlatformStats `json:"stats"`
	Insights string                `json:"insights"`
}

// InsightService assembles prompts from stored data and hands them to the
// Generator. Model output is returned verbatim; each operation makes at most
// one Generator call.
type InsightService struct {
	DB        *gorm.DB
	Courses   *CourseService
	Reviews   *ReviewService
	Prompts   *prompts.PromptBuilder
	Generator Generator
	Logger    *zap.Logger
}

func NewInsightService(db *gorm.DB, courses *CourseService, reviews *ReviewService, generator Generator, logger *zap.Logger) *InsightService {
	return &InsightService{
		DB:        db,
		Courses:   courses,
		Reviews:   reviews,
		Prompts:   prompts.NewPromptBuilder(),
		Generator: generator,
		Logger:    logger,
	}
}

func (s *InsightService) AnalyzeReviews(ctx context.Context, courseID string) (*ReviewAnalysis, error) {
	course, err := s.Courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	// Numbered in the order they were written.
	reviews, err := s.Reviews.ListByCourseChronological(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, validationError("No reviews available for this course", nil)
	}

	average := AverageRating(reviews)
	prompt := s.Prompts.BuildReviewAnalysisPrompt(*course, reviews, average)
	analysis, err := s.generate(ctx, "analyze_reviews", prompt)
	if err != nil {
		return nil, err
	}

	return &ReviewAnalysis{
		CourseTitle:   course.Title,
		ReviewCount:   len(reviews),
		AverageRating: average,
		Analysis:      analysis,
	}, nil
}

func (s *InsightService) GenerateDescription(ctx context.Context, in DescriptionInput) (string, error) {
	if err := Validate(in); err != nil {
		return "", err
	}
	keywords := make([]string, 0, len(in.Keywords))
	for _, k := range in.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	prompt := s.Prompts.BuildCourseDescriptionPrompt(in.Title, in.Instructor, keywords)
	return s.generate(ctx, "generate_description", prompt)
}

func (s *InsightService) GenerateBio(ctx context.Context, in BioInput) (string, error) {
	if err := Validate(in); err != nil {
		return "", err
	}
	prompt := s.Prompts.BuildBioPrompt(in.Interests, in.Experience, in.Goals)
	return s.generate(ctx, "generate_bio", prompt)
}

// SuggestSimilarCourses asks the model for the three closest courses. With no
// other course on the platform it returns an empty result without calling it.
func (s *InsightService) SuggestSimilarCourses(ctx context.Context, courseID string) (*SimilarCourses, error) {
	course, err := s.Courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	candidates := []models.Course{}
	if err := s.DB.WithContext(ctx).
		Where("id <> ?", courseID).
		Order("created_at ASC").
		Find(&candidates).Error; err != nil {
		return nil, internal("Could not query courses", err)
	}

	result := &SimilarCourses{
		ReferenceCourse:  course.Title,
		AvailableCourses: make([]CourseRef, len(candidates)),
	}
	for i, c := range candidates {
		result.AvailableCourses[i] = CourseRef{ID: c.ID, Title: c.Title}
	}
	if len(candidates) == 0 {
		return result, nil
	}

	prompt := s.Prompts.BuildSimilarCoursesPrompt(*course, candidates)
	result.Suggestions, err = s.generate(ctx, "similar_courses", prompt)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PlatformStats aggregates course and review counts. Only courses with at
// least one review appear in the distribution, busiest first.
func (s *InsightService) PlatformStats(ctx context.Context) (prompts.PlatformStats, error) {
	db := s.DB.WithContext(ctx)
	var stats prompts.PlatformStats

	if err := db.Model(&models.Course{}).Count(&stats.TotalCourses).Error; err != nil {
		return stats, internal("Could not count courses", err)
	}

	var totals struct {
		Total int64
		Sum   int64
	}
	if err := db.Model(&models.Review{}).
		Select("COUNT(*) AS total, COALESCE(SUM(rating), 0) AS sum").
		Scan(&totals).Error; err != nil {
		return stats, internal("Could not aggregate reviews", err)
	}
	stats.TotalReviews = totals.Total
	stats.AverageRating = mean(totals.Sum, totals.Total, 2)

	stats.ReviewsByCourse = []prompts.CourseReviewCount{}
	if err := db.Model(&models.Review{}).
		Select("courses.title AS title, COUNT(reviews.id) AS count").
		Joins("JOIN courses ON courses.id = reviews.course_id").
		Group("courses.title").
		Order("COUNT(reviews.id) DESC, courses.title ASC").
		Scan(&stats.ReviewsByCourse).Error; err != nil {
		return stats, internal("Could not aggregate reviews", err)
	}
	return stats, nil
}

func (s *InsightService) PlatformInsights(ctx context.Context) (*PlatformInsights, error) {
	stats, err := s.PlatformStats(ctx)
	if err != nil {
		return nil, err
	}
	prompt := s.Prompts.BuildPlatformInsightsPrompt(stats)
	insights, err := s.generate(ctx, "platform_insights", prompt)
	if err != nil {
		return nil, err
	}
	return &PlatformInsights{Stats: stats, Insights: insights}, nil
}

func (s *InsightService) generate(ctx context.Context, operation, prompt string) (string, error) {
	text, err := s.Generator.Generate(ctx, prompt)
	if err != nil {
		s.Logger.Error("generative gateway failed",
			zap.String("operation", operation),
			zap.Error(err))
		return "", upstream(err)
	}
	return text, nil
}
