package services_test

import (
	"context"
	"sync"
	"testing"

	"coursemarket/backend/config"
	"coursemarket/backend/models"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db          *gorm.DB
	enrollments *services.EnrollmentService
	reviews     *services.ReviewService
	courses     *services.CourseService
	insights    *services.InsightService
	generator   *fakeGenerator
}

func newFixture(t *testing.T, policy services.ReviewPolicy) *fixture {
	t.Helper()

	db, err := utils.InitDB(&config.Config{
		DBDriver: "sqlite",
		DBPath:   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	logger := zap.NewNop()
	f := &fixture{db: db, generator: &fakeGenerator{reply: "generated text"}}
	f.enrollments = services.NewEnrollmentService(db, logger)
	f.reviews = services.NewReviewService(db, f.enrollments, policy, logger)
	f.courses = services.NewCourseService(db, f.enrollments, f.reviews, logger)
	f.insights = services.NewInsightService(db, f.courses, f.reviews, f.generator, logger)
	return f
}

func (f *fixture) user(t *testing.T, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

func (f *fixture) course(t *testing.T, title string) models.Course {
	t.Helper()
	course, err := f.courses.CreateCourse(context.Background(), services.CourseInput{
		Title:       title,
		Description: "All about " + title + ", from first principles to practice.",
		Instructor:  "Ada Lovelace",
	})
	require.NoError(t, err)
	return *course
}

// enrolledReview enrolls the user and writes a review.
func (f *fixture) enrolledReview(t *testing.T, course models.Course, user models.User, rating int, comment string) *models.Review {
	t.Helper()
	ctx := context.Background()
	_, err := f.enrollments.Enroll(ctx, course.ID, user.ID)
	require.NoError(t, err)
	review, err := f.reviews.AddReview(ctx, course.ID, user.ID, services.ReviewInput{Rating: rating, Comment: comment})
	require.NoError(t, err)
	return review
}

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}
