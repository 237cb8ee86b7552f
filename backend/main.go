package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"coursemarket/backend/config"
	"coursemarket/backend/routes"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "coursemarket",
		Short:        "Online course marketplace API",
		SilenceUsage: true,
	}
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  func(cmd *cobra.Command, args []string) error { return runServe(cmd.Context()) },
	}
	root.AddCommand(
		serve,
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema and exit",
			RunE:  func(cmd *cobra.Command, args []string) error { return runMigrate() },
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Print per-course enrollment and rating statistics",
			RunE:  func(cmd *cobra.Command, args []string) error { return runStats(cmd.Context()) },
		},
	)
	// No subcommand means serve.
	root.RunE = serve.RunE
	return root
}

func runServe(ctx context.Context) error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(utils.LoggerConfig{Format: cfg.LogFormat, Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		logger.Error("Error initializing database", zap.Error(err))
		return err
	}

	generator := newGenerator(ctx, cfg, logger)
	app := routes.NewApp(db, cfg, generator, logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("server starting", zap.String("port", cfg.ServerPort), zap.String("db_driver", cfg.DBDriver))
	return app.Listen(":" + cfg.ServerPort)
}

// newGenerator wires the Gemini gateway, or a gateway that always fails when
// no API key is configured so the rest of the API still serves.
func newGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) services.Generator {
	var inner services.Generator
	gemini, err := services.NewGeminiGenerator(ctx, services.GeminiConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	})
	if err != nil {
		logger.Warn("generative API disabled", zap.Error(err))
		inner = services.UnavailableGenerator{Reason: "Generative API is not configured"}
	} else {
		logger.Info("generative API ready", zap.String("model", cfg.GeminiModel))
		inner = gemini
	}
	return services.NewLimitedGenerator(inner, cfg.AIMaxConcurrent, cfg.AITimeout, logger)
}

func runMigrate() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if _, err := utils.InitDB(cfg); err != nil {
		return err
	}
	log.Println("schema up to date")
	return nil
}

func runStats(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	db, err := utils.InitDB(cfg)
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	enrollments := services.NewEnrollmentService(db, logger)
	reviews := services.NewReviewService(db, enrollments, services.ReviewPolicy{}, logger)
	courses := services.NewCourseService(db, enrollments, reviews, logger)
	insights := services.NewInsightService(db, courses, reviews, services.UnavailableGenerator{}, logger)

	summaries, err := courses.ListCourses(ctx, services.CourseQuery{Sort: "popularity"})
	if err != nil {
		return err
	}
	stats, err := insights.PlatformStats(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Title", "Instructor", "Students", "Reviews", "Rating"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetFooter([]string{
		"Total", strconv.FormatInt(stats.TotalCourses, 10) + " courses", "",
		strconv.FormatInt(stats.TotalReviews, 10),
		strconv.FormatFloat(stats.AverageRating, 'f', 2, 64),
	})
	for _, s := range summaries {
		table.Append([]string{
			s.Title,
			s.Instructor,
			strconv.FormatInt(s.StudentsCount, 10),
			strconv.FormatInt(s.ReviewCount, 10),
			strconv.FormatFloat(s.AverageRating, 'f', 1, 64),
		})
	}
	table.Render()
	return nil
}
