package controllers

import (
	"coursemarket/backend/middleware"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ReviewsController struct {
	Reviews *services.ReviewService
}

func NewReviewsController(reviews *services.ReviewService) *ReviewsController {
	return &ReviewsController{Reviews: reviews}
}

// AddReview godoc
// @Summary Add a review to a course
// @Description Creates the caller's review of a course. One review per user and course.
// @Tags reviews
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param input body services.ReviewInput true "Rating (1-5) and comment (10-1000 characters)"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /reviews/{courseId}/reviews [post]
func (rc *ReviewsController) AddReview(c *fiber.Ctx) error {
	var input services.ReviewInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	review, err := rc.Reviews.AddReview(c.UserContext(), c.Params("courseId"), middleware.CurrentUserID(c), input)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Created(c, review)
}

// UpdateReview godoc
// @Summary Update own review
// @Tags reviews
// @Accept json
// @Produce json
// @Param reviewId path string true "Review ID"
// @Param input body services.ReviewPatch true "Fields to change"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /reviews/{reviewId} [put]
func (rc *ReviewsController) UpdateReview(c *fiber.Ctx) error {
	// Ownership first: a non-owner is refused whatever the body holds.
	if err := rc.Reviews.AuthorizeEdit(c.UserContext(), c.Params("reviewId"), middleware.CurrentUserID(c)); err != nil {
		return utils.HandleError(c, err)
	}

	var patch services.ReviewPatch
	if err := c.BodyParser(&patch); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	review, err := rc.Reviews.UpdateReview(c.UserContext(), c.Params("reviewId"), middleware.CurrentUserID(c), patch)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, review)
}

// DeleteReview godoc
// @Summary Delete own review
// @Tags reviews
// @Produce json
// @Param reviewId path string true "Review ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /reviews/{reviewId} [delete]
func (rc *ReviewsController) DeleteReview(c *fiber.Ctx) error {
	reviewID := c.Params("reviewId")
	if err := rc.Reviews.DeleteReview(c.UserContext(), reviewID, middleware.CurrentUserID(c)); err != nil {
		return utils.HandleError(c, err)
	}
	return c.JSON(utils.SuccessResponse{
		Success: true,
		Message: "Review deleted",
		Data:    fiber.Map{"review_id": reviewID},
	})
}

func (rc *ReviewsController) GetReview(c *fiber.Ctx) error {
	review, err := rc.Reviews.GetReview(c.UserContext(), c.Params("reviewId"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, review)
}

// GetCourseReviews returns the reviews of a course, newest first.
func (rc *ReviewsController) GetCourseReviews(c *fiber.Ctx) error {
	reviews, err := rc.Reviews.ListByCourse(c.UserContext(), c.Params("courseId"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, reviews)
}

func (rc *ReviewsController) GetUserReviews(c *fiber.Ctx) error {
	reviews, err := rc.Reviews.ListByUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, reviews)
}
