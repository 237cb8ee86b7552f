package routes

import (
	"errors"

	"coursemarket/backend/config"
	"coursemarket/backend/controllers"
	"coursemarket/backend/middleware"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewApp builds the Fiber application with its middleware stack and routes.
func NewApp(db *gorm.DB, cfg *config.Config, generator services.Generator, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "course-marketplace",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigin,
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	SetupRoutes(app, db, cfg, generator, logger)
	return app
}

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, generator services.Generator, logger *zap.Logger) {
	enrollments := services.NewEnrollmentService(db, logger)
	reviews := services.NewReviewService(db, enrollments, services.ReviewPolicy{
		RequireEnrollment: cfg.ReviewRequiresEnrollment,
	}, logger)
	courses := services.NewCourseService(db, enrollments, reviews, logger)
	insights := services.NewInsightService(db, courses, reviews, generator, logger)

	api := app.Group("/api")
	authMiddleware := middleware.AuthMiddleware(cfg)

	// Auth routes
	authController := controllers.NewAuthController(db, cfg, logger)
	api.Post("/auth/register", authController.Register)
	api.Post("/auth/login", authController.Login)

	// User routes
	userController := controllers.NewUserController(db, enrollments)
	api.Get("/users", userController.GetUsers)
	api.Get("/users/profile", authMiddleware, userController.GetProfile)
	api.Put("/users/profile", authMiddleware, userController.UpdateProfile)
	api.Get("/users/:id", userController.GetUser)

	// Courses routes
	coursesController := controllers.NewCoursesController(courses, enrollments)
	api.Get("/courses", coursesController.GetCourses)
	api.Get("/courses/:id", coursesController.GetCourseDetails)
	api.Post("/courses", authMiddleware, coursesController.CreateCourse)
	api.Post("/courses/:id/enroll", authMiddleware, coursesController.Enroll)
	api.Get("/courses/:id/students", authMiddleware, coursesController.GetCourseStudents)

	// Reviews routes
	reviewsController := controllers.NewReviewsController(reviews)
	api.Get("/reviews/user/:userId", authMiddleware, reviewsController.GetUserReviews)
	api.Get("/reviews/:courseId/reviews", reviewsController.GetCourseReviews)
	api.Post("/reviews/:courseId/reviews", authMiddleware, reviewsController.AddReview)
	api.Get("/reviews/:reviewId", reviewsController.GetReview)
	api.Put("/reviews/:reviewId", authMiddleware, reviewsController.UpdateReview)
	api.Delete("/reviews/:reviewId", authMiddleware, reviewsController.DeleteReview)

	// AI routes
	aiController := controllers.NewAIController(insights)
	api.Post("/ai/analyze-reviews/:courseId", authMiddleware, aiController.AnalyzeReviews)
	api.Post("/ai/generate-description", authMiddleware, aiController.GenerateDescription)
	api.Post("/ai/generate-bio", authMiddleware, aiController.GenerateBio)
	api.Get("/ai/platform-insights", authMiddleware, aiController.PlatformInsights)
	api.Post("/ai/similar-courses/:courseId", aiController.SimilarCourses)
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return utils.Error(c, fe.Code, fe)
	}
	c.Locals(utils.LocalError, err)
	return utils.InternalServerError(c, "Internal server error")
}
