package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"coursemarket/backend/config"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (g *stubGenerator) Generate(context.Context, string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.reply, g.err
}

type testServer struct {
	app       *fiber.App
	generator *stubGenerator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		DBDriver:                 "sqlite",
		DBPath:                   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		JWTSecret:                "testsecret",
		TokenTTL:                 time.Hour,
		CORSOrigin:               "*",
		ReviewRequiresEnrollment: true,
	}
	db, err := utils.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	generator := &stubGenerator{reply: "model says hi"}
	return &testServer{
		app:       NewApp(db, cfg, generator, zap.NewNop()),
		generator: generator,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Token   string          `json:"token"`
	User    struct {
		ID string `json:"id"`
	} `json:"user"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	return s.doRaw(t, method, path, token, payload)
}

func (s *testServer) doRaw(t *testing.T, method, path, token string, payload []byte) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

// register creates an account and returns its id and token.
func (s *testServer) register(t *testing.T, username string) (string, string) {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, env.Token)
	return env.User.ID, env.Token
}

func (s *testServer) createCourse(t *testing.T, token, title string) string {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/courses", token, map[string]string{
		"title":       title,
		"description": "Everything about " + title + ".",
		"instructor":  "Ada Lovelace",
	})
	require.Equal(t, http.StatusCreated, status)
	var course struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &course))
	return course.ID
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")

	status, _ := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice2", "email": "alice@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "bob", "email": "not-an-email", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, env.Token)

	status, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "secret123",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, env.Token)

	status, _ = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodGet, "/api/users/profile", env.Token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestProfileUpdate(t *testing.T) {
	s := newTestServer(t)
	aliceID, token := s.register(t, "alice")
	s.register(t, "bob")

	status, env := s.do(t, http.MethodPut, "/api/users/profile", token, map[string]string{
		"bio": "Gopher.", "website": "https://alice.dev",
	})
	require.Equal(t, http.StatusOK, status)
	var profile struct {
		Bio     string `json:"bio"`
		Website string `json:"website"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "Gopher.", profile.Bio)
	assert.Equal(t, "https://alice.dev", profile.Website)

	status, _ = s.do(t, http.MethodPut, "/api/users/profile", token, map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(t, http.MethodPut, "/api/users/profile", token, map[string]string{"website": "not a url"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodGet, "/api/users/"+aliceID, "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodGet, "/api/users/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEnrollAndReviewFlow(t *testing.T) {
	s := newTestServer(t)
	aliceID, alice := s.register(t, "alice")
	_, bob := s.register(t, "bob")
	courseID := s.createCourse(t, alice, "Go Basics")

	status, _ := s.do(t, http.MethodPost, "/api/courses/"+courseID+"/enroll", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := s.do(t, http.MethodPost, "/api/courses/"+courseID+"/enroll", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Enrolled successfully", env.Message)

	status, env = s.do(t, http.MethodPost, "/api/courses/"+courseID+"/enroll", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Already enrolled", env.Message)
	var detail struct {
		Students      []string `json:"students"`
		StudentsCount int      `json:"students_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, []string{aliceID}, detail.Students)

	status, _ = s.do(t, http.MethodPost, "/api/courses/missing/enroll", alice, nil)
	assert.Equal(t, http.StatusNotFound, status)

	review := map[string]interface{}{"rating": 5, "comment": "Clear and well paced course."}
	status, _ = s.do(t, http.MethodPost, "/api/reviews/"+courseID+"/reviews", bob, review)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = s.do(t, http.MethodPost, "/api/reviews/"+courseID+"/reviews", alice, review)
	require.Equal(t, http.StatusCreated, status)
	var created struct {
		ID     string `json:"id"`
		Rating int    `json:"rating"`
		User   struct {
			Username string `json:"username"`
		} `json:"user"`
		Course struct {
			Title string `json:"title"`
		} `json:"course"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "alice", created.User.Username)
	assert.Equal(t, "Go Basics", created.Course.Title)

	status, _ = s.do(t, http.MethodPost, "/api/reviews/"+courseID+"/reviews", alice, review)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(t, http.MethodPost, "/api/reviews/"+courseID+"/reviews", alice,
		map[string]interface{}{"rating": 7, "comment": "short"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPut, "/api/reviews/"+created.ID, bob, map[string]interface{}{"rating": 99})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = s.do(t, http.MethodDelete, "/api/reviews/"+created.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = s.do(t, http.MethodPut, "/api/reviews/"+created.ID, alice, map[string]interface{}{"rating": 4})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, 4, created.Rating)

	status, env = s.do(t, http.MethodGet, "/api/reviews/"+courseID+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, status)
	var list []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	status, env = s.do(t, http.MethodGet, "/api/reviews/user/"+aliceID, alice, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	status, _ = s.do(t, http.MethodGet, "/api/reviews/"+created.ID, "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodDelete, "/api/reviews/"+created.ID, alice, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodGet, "/api/reviews/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCourseListing(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register(t, "alice")
	s.createCourse(t, token, "Go Basics")
	s.createCourse(t, token, "Rust Basics")

	status, _ := s.do(t, http.MethodPost, "/api/courses", token, map[string]string{
		"title": "Go Basics", "description": "dup", "instructor": "x",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, env := s.do(t, http.MethodGet, "/api/courses?search=rust", "", nil)
	require.Equal(t, http.StatusOK, status)
	var courses []struct {
		Title         string  `json:"title"`
		AverageRating float64 `json:"average_rating"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &courses))
	require.Len(t, courses, 1)
	assert.Equal(t, "Rust Basics", courses[0].Title)

	status, _ = s.do(t, http.MethodGet, "/api/courses/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAIEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.register(t, "alice")
	courseID := s.createCourse(t, alice, "Go Basics")

	status, _ := s.do(t, http.MethodPost, "/api/ai/analyze-reviews/"+courseID, alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 0, s.generator.calls)

	status, env := s.do(t, http.MethodPost, "/api/ai/similar-courses/"+courseID, "", nil)
	require.Equal(t, http.StatusOK, status)
	var similar struct {
		ReferenceCourse string        `json:"reference_course"`
		Suggestions     []interface{} `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &similar))
	assert.Equal(t, "Go Basics", similar.ReferenceCourse)
	assert.Empty(t, similar.Suggestions)
	assert.Equal(t, 0, s.generator.calls)

	s.do(t, http.MethodPost, "/api/courses/"+courseID+"/enroll", alice, nil)
	s.do(t, http.MethodPost, "/api/reviews/"+courseID+"/reviews", alice,
		map[string]interface{}{"rating": 5, "comment": "Clear and well paced course."})

	status, env = s.do(t, http.MethodPost, "/api/ai/analyze-reviews/"+courseID, alice, nil)
	require.Equal(t, http.StatusOK, status)
	var analysis struct {
		Analysis    string `json:"analysis"`
		ReviewCount int    `json:"review_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &analysis))
	assert.Equal(t, "model says hi", analysis.Analysis)
	assert.Equal(t, 1, analysis.ReviewCount)
	assert.Equal(t, 1, s.generator.calls)

	status, _ = s.do(t, http.MethodGet, "/api/ai/platform-insights", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = s.do(t, http.MethodPost, "/api/ai/generate-bio", alice,
		map[string]string{"interests": "Go", "experience": "5 years"})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"bio":"model says hi"}`, string(env.Data))

	s.generator.err = errors.New("quota exceeded")
	status, env = s.do(t, http.MethodGet, "/api/ai/platform-insights", alice, nil)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.False(t, env.Success)
}

func TestUpdateReviewNonOwnerIgnoresPayload(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.register(t, "alice")
	_, bob := s.register(t, "bob")
	courseID := s.createCourse(t, alice, "Go Basics")
	s.do(t, http.MethodPost, "/api/courses/"+courseID+"/enroll", alice, nil)

	status, env := s.do(t, http.MethodPost, "/api/reviews/"+courseID+"/reviews", alice,
		map[string]interface{}{"rating": 5, "comment": "Clear and well paced course."})
	require.Equal(t, http.StatusCreated, status)
	var review struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &review))

	for _, body := range []string{
		`{"rating":"five"}`,
		`{"rating":`,
		`{"rating":42,"comment":"meh"}`,
		``,
	} {
		status, env = s.doRaw(t, http.MethodPut, "/api/reviews/"+review.ID, bob, []byte(body))
		assert.Equal(t, http.StatusForbidden, status, body)
		assert.False(t, env.Success)
	}

	status, _ = s.doRaw(t, http.MethodPut, "/api/reviews/"+review.ID, alice, []byte(`{"rating":"five"}`))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.doRaw(t, http.MethodPut, "/api/reviews/missing", bob, []byte(`{"rating":"five"}`))
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListUsersWithCourses(t *testing.T) {
	s := newTestServer(t)
	aliceID, alice := s.register(t, "alice")
	s.register(t, "bob")
	courseID := s.createCourse(t, alice, "Go Basics")
	s.do(t, http.MethodPost, "/api/courses/"+courseID+"/enroll", alice, nil)

	status, env := s.do(t, http.MethodGet, "/api/users", "", nil)
	require.Equal(t, http.StatusOK, status)

	var users []struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Courses  []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"courses"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &users))
	require.Len(t, users, 2)

	byName := map[string]int{}
	for i, u := range users {
		byName[u.Username] = i
	}
	alicesView := users[byName["alice"]]
	assert.Equal(t, aliceID, alicesView.ID)
	require.Len(t, alicesView.Courses, 1)
	assert.Equal(t, "Go Basics", alicesView.Courses[0].Title)
	assert.Empty(t, users[byName["bob"]].Courses)
}
