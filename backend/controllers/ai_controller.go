package controllers

import (
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// AIController exposes the generated-content endpoints. Model output is
// returned to the client unchanged.
type AIController struct {
	Insights *services.InsightService
}

func NewAIController(insights *services.InsightService) *AIController {
	return &AIController{Insights: insights}
}

// AnalyzeReviews godoc
// @Summary AI sentiment report for a course
// @Tags ai
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse "course has no reviews"
// @Failure 404 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /ai/analyze-reviews/{courseId} [post]
func (ac *AIController) AnalyzeReviews(c *fiber.Ctx) error {
	analysis, err := ac.Insights.AnalyzeReviews(c.UserContext(), c.Params("courseId"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, analysis)
}

func (ac *AIController) GenerateDescription(c *fiber.Ctx) error {
	var input services.DescriptionInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	description, err := ac.Insights.GenerateDescription(c.UserContext(), input)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"description": description})
}

func (ac *AIController) GenerateBio(c *fiber.Ctx) error {
	var input services.BioInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	bio, err := ac.Insights.GenerateBio(c.UserContext(), input)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"bio": bio})
}

func (ac *AIController) PlatformInsights(c *fiber.Ctx) error {
	insights, err := ac.Insights.PlatformInsights(c.UserContext())
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, insights)
}

// SimilarCourses godoc
// @Summary AI similar-course suggestions
// @Description With no other course on the platform the suggestion list is empty and no model call is made.
// @Tags ai
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /ai/similar-courses/{courseId} [post]
func (ac *AIController) SimilarCourses(c *fiber.Ctx) error {
	similar, err := ac.Insights.SuggestSimilarCourses(c.UserContext(), c.Params("courseId"))
	if err != nil {
		return utils.HandleError(c, err)
	}

	if len(similar.AvailableCourses) == 0 {
		return utils.Success(c, fiber.StatusOK, fiber.Map{
			"reference_course":  similar.ReferenceCourse,
			"suggestions":       []string{},
			"available_courses": similar.AvailableCourses,
		})
	}
	return utils.Success(c, fiber.StatusOK, similar)
}
