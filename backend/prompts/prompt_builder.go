// Package prompts renders the text prompts sent to the generative model.
// Every builder is pure: same input, same prompt.
package prompts

import (
	"fmt"
	"strings"

	"coursemarket/backend/models"
)

// CandidateDescriptionLimit is how many characters of a candidate course
// description are quoted in the similar-courses prompt.
const CandidateDescriptionLimit = 100

// CourseReviewCount is one line of the platform review distribution.
type CourseReviewCount struct {
	Title string `json:"title"`
	Count int64  `json:"count"`
}

// PlatformStats are the aggregates behind the platform insights prompt.
type PlatformStats struct {
	TotalCourses    int64               `json:"total_courses"`
	TotalReviews    int64               `json:"total_reviews"`
	AverageRating   float64             `json:"average_rating"`
	ReviewsByCourse []CourseReviewCount `json:"reviews_by_course"`
}

// PromptBuilder handles the construction of prompts for the LLM
type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildReviewAnalysisPrompt asks for a structured sentiment report over the
// reviews of one course. average is the precomputed mean rating.
func (pb *PromptBuilder) BuildReviewAnalysisPrompt(course models.Course, reviews []models.Review, average float64) string {
	lines := make([]string, len(reviews))
	for i, review := range reviews {
		lines[i] = fmt.Sprintf("Review %d (%d/5):\n\"%s\"", i+1, review.Rating, review.Comment)
	}

	return fmt.Sprintf(`You are an expert in educational feedback analysis.

Analyze these %d reviews for the course "%s":

%s

Generate a structured report in the following format:

## Overall Sentiment
[Positive/Neutral/Negative with justification]

## Average Rating
[The average rating is %.1f/5]

## Strengths (Top 3)
1. [Strength 1]
2. [Strength 2]
3. [Strength 3]

## Areas for Improvement (Top 3)
1. [Improvement 1]
2. [Improvement 2]
3. [Improvement 3]

## Instructor Recommendations
[2-3 concrete recommendations]

## One-Sentence Summary
[A single sentence summarizing the general opinion]`,
		len(reviews), course.Title, strings.Join(lines, "\n\n"), average)
}

// BuildCourseDescriptionPrompt asks for a marketing description of a course.
// An empty keyword list leaves the keywords clause empty.
func (pb *PromptBuilder) BuildCourseDescriptionPrompt(title, instructor string, keywords []string) string {
	return fmt.Sprintf(`Generate an attractive and professional description for an online course.

Title: %s
Instructor: %s
Keywords: %s

The description should:
- Be engaging and motivating (2-3 paragraphs)
- Mention the benefits for the student
- Include what they will learn
- End with a call to action

Return only the description without a title.`,
		title, instructor, strings.Join(keywords, ", "))
}

// BuildSimilarCoursesPrompt lists the candidates by 1-based number and asks
// the model to pick and justify exactly three of them.
func (pb *PromptBuilder) BuildSimilarCoursesPrompt(reference models.Course, candidates []models.Course) string {
	lines := make([]string, len(candidates))
	for i, c := range candidates {
		lines[i] = fmt.Sprintf("%d. \"%s\" by %s\nDescription: %s...",
			i+1, c.Title, c.Instructor, Truncate(c.Description, CandidateDescriptionLimit))
	}

	return fmt.Sprintf(`Reference Course:
Title: %s
Description: %s

List of other available courses:
%s

Analyze the content and recommend the 3 most similar courses.
For each course, briefly explain why it's similar (2-3 sentences).

Response format:
1. [Course Number] - [Similarity Reason]
2. [Course Number] - [Similarity Reason]
3. [Course Number] - [Similarity Reason]`,
		reference.Title, reference.Description, strings.Join(lines, "\n\n"))
}

// BuildBioPrompt asks for a short first-person profile bio.
func (pb *PromptBuilder) BuildBioPrompt(interests, experience, goals string) string {
	if strings.TrimSpace(goals) == "" {
		goals = "Not specified"
	}
	return fmt.Sprintf(`Generate a concise and engaging professional bio (3-4 sentences max).

Interests: %s
Experience: %s
Goals: %s

The bio should be written in first person and make people want to connect with this person.`,
		interests, experience, goals)
}

func (pb *PromptBuilder) BuildPlatformInsightsPrompt(stats PlatformStats) string {
	lines := make([]string, len(stats.ReviewsByCourse))
	for i, rc := range stats.ReviewsByCourse {
		lines[i] = fmt.Sprintf("%s: %d reviews", rc.Title, rc.Count)
	}

	return fmt.Sprintf(`You are an educational platform analyst.

Here are the general statistics:
- %d total courses
- %d total reviews
- Average rating: %s/5

Review distribution by course:
%s

Generate an insights report with:

## Platform Health
[Overall assessment]

## Observed Trends
[2-3 main trends]

## Popular Courses
[Identify the most active courses]

## Strategic Recommendations
[3 recommendations to improve the platform]`,
		stats.TotalCourses, stats.TotalReviews, formatPlatformRating(stats), strings.Join(lines, "\n"))
}

func formatPlatformRating(stats PlatformStats) string {
	if stats.TotalReviews == 0 {
		return "0"
	}
	return fmt.Sprintf("%.2f", stats.AverageRating)
}

// Truncate cuts s to at most limit characters.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
