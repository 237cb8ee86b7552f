package controllers

import (
	"errors"
	"strings"

	"coursemarket/backend/middleware"
	"coursemarket/backend/models"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserController struct {
	DB          *gorm.DB
	Enrollments *services.EnrollmentService
}

func NewUserController(db *gorm.DB, enrollments *services.EnrollmentService) *UserController {
	return &UserController{DB: db, Enrollments: enrollments}
}

type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitnil,min=3,max=50" example:"john_doe"`
	Email    *string `json:"email" validate:"omitnil,email" example:"user@example.com"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
	Website  *string `json:"website" validate:"omitempty,http_url" example:"https://example.com"`
}

// GetUser godoc
// @Summary Get a user profile
// @Description Returns public profile data and enrolled courses
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /users/{id} [get]
func (uc *UserController) GetUser(c *fiber.Ctx) error {
	return uc.profile(c, c.Params("id"))
}

// GetProfile returns the authenticated user's own profile.
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	return uc.profile(c, middleware.CurrentUserID(c))
}

func (uc *UserController) profile(c *fiber.Ctx, userID string) error {
	var user models.User
	if err := uc.DB.Where("id = ?", userID).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.HandleError(c, err)
	}

	view, err := uc.userView(c, user)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, view)
}

// GetUsers godoc
// @Summary List users with the titles of their courses
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /users [get]
func (uc *UserController) GetUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := uc.DB.Order("created_at ASC").Find(&users).Error; err != nil {
		return utils.HandleError(c, err)
	}

	result := make([]fiber.Map, len(users))
	for i, user := range users {
		view, err := uc.userView(c, user)
		if err != nil {
			return utils.HandleError(c, err)
		}
		result[i] = view
	}
	return utils.Success(c, fiber.StatusOK, result)
}

func (uc *UserController) userView(c *fiber.Ctx, user models.User) (fiber.Map, error) {
	courses, err := uc.Enrollments.CoursesOf(c.UserContext(), user.ID)
	if err != nil {
		return nil, err
	}
	refs := make([]services.CourseRef, len(courses))
	for i, course := range courses {
		refs[i] = services.CourseRef{ID: course.ID, Title: course.Title}
	}

	return fiber.Map{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"bio":        user.Bio,
		"website":    user.Website,
		"courses":    refs,
		"created_at": user.CreatedAt,
	}, nil
}

func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	var input UpdateUserRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Username != nil {
		trimmed := strings.TrimSpace(*input.Username)
		input.Username = &trimmed
	}
	if input.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*input.Email))
		input.Email = &normalized
	}
	if err := services.Validate(input); err != nil {
		return utils.HandleError(c, err)
	}

	var user models.User
	if err := uc.DB.Where("id = ?", userID).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.HandleError(c, err)
	}

	updates := map[string]interface{}{}
	if input.Username != nil && *input.Username != user.Username {
		updates["username"] = *input.Username
	}
	if input.Email != nil && *input.Email != user.Email {
		updates["email"] = *input.Email
	}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
	}
	if input.Website != nil {
		updates["website"] = *input.Website
	}

	if len(updates) > 0 {
		if err := uc.DB.Model(&user).Updates(updates).Error; err != nil {
			if services.IsDuplicateKey(err) {
				return utils.Conflict(c, "Username or email already in use")
			}
			return utils.HandleError(c, err)
		}
	}

	return uc.profile(c, userID)
}
