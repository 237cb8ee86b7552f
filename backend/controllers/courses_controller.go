package controllers

import (
	"coursemarket/backend/middleware"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type CoursesController struct {
	Courses     *services.CourseService
	Enrollments *services.EnrollmentService
}

func NewCoursesController(courses *services.CourseService, enrollments *services.EnrollmentService) *CoursesController {
	return &CoursesController{Courses: courses, Enrollments: enrollments}
}

// EnrollRequest names the user to enroll; an empty body enrolls the caller.
type EnrollRequest struct {
	UserID string `json:"user_id"`
}

// GetCourses godoc
// @Summary List courses
// @Description Lists courses with student count and average rating
// @Tags courses
// @Produce json
// @Param search query string false "Text to look for in title, description or instructor"
// @Param sort query string false "newest, rating, popularity or title"
// @Success 200 {object} utils.SuccessResponse
// @Router /courses [get]
func (cc *CoursesController) GetCourses(c *fiber.Ctx) error {
	courses, err := cc.Courses.ListCourses(c.UserContext(), services.CourseQuery{
		Search: c.Query("search"),
		Sort:   c.Query("sort", "newest"),
	})
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, courses)
}

// GetCourseDetails godoc
// @Summary Get course details
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /courses/{id} [get]
func (cc *CoursesController) GetCourseDetails(c *fiber.Ctx) error {
	detail, err := cc.Courses.CourseDetail(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, detail)
}

func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	var input services.CourseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	course, err := cc.Courses.CreateCourse(c.UserContext(), input)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Created(c, course)
}

// Enroll godoc
// @Summary Enroll a user in a course
// @Description Adds the user to the course roster. Enrolling twice is a no-op.
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param input body EnrollRequest false "User to enroll, defaults to the caller"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/enroll [post]
func (cc *CoursesController) Enroll(c *fiber.Ctx) error {
	var input EnrollRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return utils.BadRequest(c, "Cannot parse JSON")
		}
	}
	userID := input.UserID
	if userID == "" {
		userID = middleware.CurrentUserID(c)
	}

	courseID := c.Params("id")
	added, err := cc.Enrollments.Enroll(c.UserContext(), courseID, userID)
	if err != nil {
		return utils.HandleError(c, err)
	}

	detail, err := cc.Courses.CourseDetail(c.UserContext(), courseID)
	if err != nil {
		return utils.HandleError(c, err)
	}

	message := "Enrolled successfully"
	if !added {
		message = "Already enrolled"
	}
	return c.JSON(utils.SuccessResponse{
		Success: true,
		Message: message,
		Data:    detail,
	})
}

func (cc *CoursesController) GetCourseStudents(c *fiber.Ctx) error {
	students, err := cc.Enrollments.Students(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}

	result := make([]fiber.Map, len(students))
	for i, student := range students {
		result[i] = publicUser(student)
	}
	return utils.Success(c, fiber.StatusOK, result)
}
