package services

import (
	"context"
	"errors"

	"coursemarket/backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnrollmentService maintains course rosters. A roster is the set of
// Enrollment rows for a course; the user's course list is the same set read
// from the other side, so both stay symmetric by construction.
type EnrollmentService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewEnrollmentService(db *gorm.DB, logger *zap.Logger) *EnrollmentService {
	return &EnrollmentService{DB: db, Logger: logger}
}

// Enroll adds userID to the course roster. Enrolling twice is not an error;
// added reports whether this call created the roster entry.
func (s *EnrollmentService) Enroll(ctx context.Context, courseID, userID string) (added bool, err error) {
	db := s.DB.WithContext(ctx)

	if err := ensureExists(db, &models.Course{}, courseID, "Course not found"); err != nil {
		return false, err
	}
	if err := ensureExists(db, &models.User{}, userID, "User not found"); err != nil {
		return false, err
	}

	// The composite primary key turns the insert into an atomic set-add.
	result := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Enrollment{CourseID: courseID, UserID: userID})
	if result.Error != nil {
		return false, internal("Could not enroll user", result.Error)
	}

	added = result.RowsAffected == 1
	if added {
		s.Logger.Info("user enrolled",
			zap.String("course_id", courseID),
			zap.String("user_id", userID))
	}
	return added, nil
}

func (s *EnrollmentService) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Count(&count).Error
	if err != nil {
		return false, internal("Could not query enrollment", err)
	}
	return count > 0, nil
}

// Students returns the roster of a course ordered by enrollment time.
func (s *EnrollmentService) Students(ctx context.Context, courseID string) ([]models.User, error) {
	db := s.DB.WithContext(ctx)
	if err := ensureExists(db, &models.Course{}, courseID, "Course not found"); err != nil {
		return nil, err
	}

	users := []models.User{}
	err := db.Joins("JOIN enrollments ON enrollments.user_id = users.id").
		Where("enrollments.course_id = ?", courseID).
		Order("enrollments.created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, internal("Could not query students", err)
	}
	return users, nil
}

func (s *EnrollmentService) StudentIDs(ctx context.Context, courseID string) ([]string, error) {
	ids := []string{}
	err := s.DB.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, internal("Could not query students", err)
	}
	return ids, nil
}

// CoursesOf returns the courses a user is enrolled in.
func (s *EnrollmentService) CoursesOf(ctx context.Context, userID string) ([]models.Course, error) {
	courses := []models.Course{}
	err := s.DB.WithContext(ctx).
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.user_id = ?", userID).
		Order("enrollments.created_at ASC").
		Find(&courses).Error
	if err != nil {
		return nil, internal("Could not query courses", err)
	}
	return courses, nil
}

// ensureExists fails with a not-found Error when no row of model has id.
func ensureExists(db *gorm.DB, model interface{}, id string, message string) error {
	err := db.Select("id").Where("id = ?", id).Take(model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(message)
	}
	if err != nil {
		return internal("Could not query database", err)
	}
	return nil
}
