package services

import (
	"context"
	"errors"
	"math"

	"coursemarket/backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReviewInput is the payload of a new review.
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"min=10,max=1000"`
}

// ReviewPatch is a partial update; nil fields are left untouched.
type ReviewPatch struct {
	Rating  *int    `json:"rating" validate:"omitnil,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitnil,min=10,max=1000"`
}

type ReviewPolicy struct {
	// RequireEnrollment rejects reviews from users outside the course roster.
	RequireEnrollment bool
}

// ReviewService enforces the one-review-per-(user, course) rule and the
// ownership rules for edits. The unique index on (course_id, user_id) is the
// authority; the pre-check only produces a friendlier error.
type ReviewService struct {
	DB          *gorm.DB
	Enrollments *EnrollmentService
	Policy      ReviewPolicy
	Logger      *zap.Logger
}

func NewReviewService(db *gorm.DB, enrollments *EnrollmentService, policy ReviewPolicy, logger *zap.Logger) *ReviewService {
	return &ReviewService{DB: db, Enrollments: enrollments, Policy: policy, Logger: logger}
}

func (s *ReviewService) AddReview(ctx context.Context, courseID, userID string, in ReviewInput) (*models.Review, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	if err := ensureExists(db, &models.Course{}, courseID, "Course not found"); err != nil {
		return nil, err
	}

	if s.Policy.RequireEnrollment {
		enrolled, err := s.Enrollments.IsEnrolled(ctx, userID, courseID)
		if err != nil {
			return nil, err
		}
		if !enrolled {
			return nil, forbidden("You must be enrolled in this course to review it")
		}
	}

	var existing int64
	if err := db.Model(&models.Review{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Count(&existing).Error; err != nil {
		return nil, internal("Could not query reviews", err)
	}
	if existing > 0 {
		return nil, conflict("You have already reviewed this course")
	}

	review := models.Review{
		Rating:   in.Rating,
		Comment:  in.Comment,
		CourseID: courseID,
		UserID:   userID,
	}
	if err := db.Create(&review).Error; err != nil {
		if IsDuplicateKey(err) {
			return nil, conflict("You have already reviewed this course")
		}
		return nil, internal("Could not create review", err)
	}

	s.Logger.Info("review created",
		zap.String("review_id", review.ID),
		zap.String("course_id", courseID),
		zap.String("user_id", userID),
		zap.Int("rating", review.Rating))

	return s.GetReview(ctx, review.ID)
}

// GetReview returns a review joined with its author and course.
func (s *ReviewService) GetReview(ctx context.Context, reviewID string) (*models.Review, error) {
	var review models.Review
	err := s.DB.WithContext(ctx).
		Preload("User").
		Preload("Course").
		Where("id = ?", reviewID).
		Take(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Review not found")
	}
	if err != nil {
		return nil, internal("Could not query review", err)
	}
	return &review, nil
}

// UpdateReview applies patch to a review owned by userID. Ownership is checked
// before the payload, so a non-owner is always refused.
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID, userID string, patch ReviewPatch) (*models.Review, error) {
	db := s.DB.WithContext(ctx)
	review, err := s.owned(db, reviewID, userID, "You are not allowed to modify this review")
	if err != nil {
		return nil, err
	}
	if err := Validate(patch); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"updated_at": s.DB.NowFunc(),
	}
	if patch.Rating != nil {
		updates["rating"] = *patch.Rating
	}
	if patch.Comment != nil {
		updates["comment"] = *patch.Comment
	}
	if err := db.Model(review).Updates(updates).Error; err != nil {
		return nil, internal("Could not update review", err)
	}

	s.Logger.Info("review updated",
		zap.String("review_id", reviewID),
		zap.String("user_id", userID))
	return s.GetReview(ctx, reviewID)
}

// AuthorizeEdit reports whether userID may modify the review: NotFound when
// it does not exist, Forbidden when someone else wrote it.
func (s *ReviewService) AuthorizeEdit(ctx context.Context, reviewID, userID string) error {
	_, err := s.owned(s.DB.WithContext(ctx), reviewID, userID, "You are not allowed to modify this review")
	return err
}

func (s *ReviewService) DeleteReview(ctx context.Context, reviewID, userID string) error {
	db := s.DB.WithContext(ctx)
	review, err := s.owned(db, reviewID, userID, "You are not allowed to delete this review")
	if err != nil {
		return err
	}
	if err := db.Delete(review).Error; err != nil {
		return internal("Could not delete review", err)
	}

	s.Logger.Info("review deleted",
		zap.String("review_id", reviewID),
		zap.String("user_id", userID))
	return nil
}

func (s *ReviewService) owned(db *gorm.DB, reviewID, userID, denied string) (*models.Review, error) {
	var review models.Review
	err := db.Where("id = ?", reviewID).Take(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Review not found")
	}
	if err != nil {
		return nil, internal("Could not query review", err)
	}
	if review.UserID != userID {
		return nil, forbidden(denied)
	}
	return &review, nil
}

// ListByCourse returns the reviews of a course, newest first.
func (s *ReviewService) ListByCourse(ctx context.Context, courseID string) ([]models.Review, error) {
	reviews := []models.Review{}
	err := s.DB.WithContext(ctx).
		Preload("User").
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, internal("Could not query reviews", err)
	}
	return reviews, nil
}

// ListByCourseChronological returns the reviews of a course, oldest first.
func (s *ReviewService) ListByCourseChronological(ctx context.Context, courseID string) ([]models.Review, error) {
	reviews := []models.Review{}
	err := s.DB.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, internal("Could not query reviews", err)
	}
	return reviews, nil
}

// ListByUser returns the reviews written by a user, newest first.
func (s *ReviewService) ListByUser(ctx context.Context, userID string) ([]models.Review, error) {
	reviews := []models.Review{}
	err := s.DB.WithContext(ctx).
		Preload("User").
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, internal("Could not query reviews", err)
	}
	return reviews, nil
}

// CourseRating returns the display average and the number of reviews of a course.
func (s *ReviewService) CourseRating(ctx context.Context, courseID string) (float64, int64, error) {
	var row struct {
		Total int64
		Sum   int64
	}
	err := s.DB.WithContext(ctx).Model(&models.Review{}).
		Select("COUNT(*) AS total, COALESCE(SUM(rating), 0) AS sum").
		Where("course_id = ?", courseID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, internal("Could not compute rating", err)
	}
	return mean(row.Sum, row.Total, 1), row.Total, nil
}

// AverageRating is the arithmetic mean of ratings rounded to one decimal,
// 0 for an empty set.
func AverageRating(reviews []models.Review) float64 {
	var sum int64
	for _, r := range reviews {
		sum += int64(r.Rating)
	}
	return mean(sum, int64(len(reviews)), 1)
}

func mean(sum, count int64, places int) float64 {
	if count == 0 {
		return 0
	}
	return Round(float64(sum)/float64(count), places)
}

func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
