package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"github.com/susumutomita/LabQuiz/internal/logger"
	"github.com/susumutomita/LabQuiz/internal/middleware"
	"github.com/susumutomita/LabQuiz/internal/models"
	"github.com/susumutomita/LabQuiz/internal/services"
	"github.com/susumutomita/LabQuiz/internal/store"
)

type apiFixture struct {
	router *gin.Engine
	store  *store.Memory
	auth   *services.AuthService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemory()
	log, err := logger.New("dev")
	require.NoError(t, err)

	authService := services.NewAuthService(st, "test-secret")
	sessionService := services.NewSessionService(st, log)
	reviewService := services.NewReviewService(st)

	authHandler := NewAuthHandler(authService)
	quizHandler := NewQuizHandler(sessionService)
	scenarioHandler := NewScenarioHandler(sessionService)
	sessionHandler := NewSessionHandler(sessionService)
	reviewHandler := NewReviewHandler(reviewService)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWTAuth(authService))
	{
		authed.GET("/quizzes", quizHandler.StartSession)
		authed.POST("/quizzes/:id/answer", quizHandler.SubmitAnswer)
		authed.GET("/scenarios", scenarioHandler.StartSession)
		authed.POST("/scenarios/:id/judge", scenarioHandler.Judge)
		authed.POST("/sessions/:sessionId/complete", sessionHandler.Complete)
		authed.GET("/badges", sessionHandler.ListBadges)

		review := authed.Group("")
		review.Use(middleware.RequireRole(models.RoleReviewer, models.RoleAdmin))
		{
			review.GET("/quizzes/pending", reviewHandler.PendingQuizzes)
			review.PUT("/quizzes/:id/review", reviewHandler.ReviewQuiz)
		}
	}

	return &apiFixture{router: router, store: st, auth: authService}
}

func (f *apiFixture) addUser(t *testing.T, email, password, role string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Test " + role,
		Role:         role,
	}
	require.NoError(t, f.store.CreateUser(context.Background(), &user))
	return user
}

func (f *apiFixture) tokenFor(t *testing.T, user models.User) string {
	t.Helper()
	token, err := f.auth.GenerateToken(user)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) addQuiz(t *testing.T, categoryID string) models.Quiz {
	t.Helper()
	quiz := models.Quiz{
		ID:         uuid.NewString(),
		CategoryID: categoryID,
		Question:   "What must be worn when opening the centrifuge?",
		Choices: datatypes.NewJSONType([]models.Choice{
			{ID: "a", Text: "safety goggles"},
			{ID: "b", Text: "nothing special"},
		}),
		CorrectChoiceID: "a",
		Explanation:     "Rotor failures eject fragments at eye height.",
		Status:          models.StatusApproved,
	}
	require.NoError(t, f.store.CreateQuizzes(context.Background(), []models.Quiz{quiz}))
	return quiz
}

func (f *apiFixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestLoginEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.addUser(t, "hana@labquiz.local", "correct horse", models.RoleLearner)

	t.Run("success", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/auth/login", "", gin.H{
			"email":    "hana@labquiz.local",
			"password": "correct horse",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "hana@labquiz.local", resp.User.Email)
	})

	t.Run("bad password", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/auth/login", "", gin.H{
			"email":    "hana@labquiz.local",
			"password": "nope",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing body fields", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "hana@labquiz.local"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthRequired(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/api/quizzes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/api/quizzes", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQuizSessionFlow(t *testing.T) {
	f := newAPIFixture(t)
	learner := f.addUser(t, "hana@labquiz.local", "correct horse", models.RoleLearner)
	token := f.tokenFor(t, learner)
	quiz := f.addQuiz(t, uuid.NewString())

	w := f.do(http.MethodGet, "/api/quizzes?category="+quiz.CategoryID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var batch services.QuizBatch
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batch))
	require.NotEmpty(t, batch.SessionID)
	require.Len(t, batch.Quizzes, 1)
	assert.Len(t, batch.Quizzes[0].Choices, 2)

	w = f.do(http.MethodPost, "/api/quizzes/"+quiz.ID+"/answer", token, gin.H{
		"choice_id":  "a",
		"session_id": batch.SessionID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var answer services.AnswerResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &answer))
	assert.True(t, answer.IsCorrect)
	assert.Equal(t, "a", answer.CorrectChoiceID)

	t.Run("answering twice conflicts", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/quizzes/"+quiz.ID+"/answer", token, gin.H{
			"choice_id":  "b",
			"session_id": batch.SessionID,
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown choice is a bad request", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/quizzes/"+quiz.ID+"/answer", token, gin.H{
			"choice_id":  "z",
			"session_id": uuid.NewString(),
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown quiz is not found", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/quizzes/"+uuid.NewString()+"/answer", token, gin.H{
			"choice_id":  "a",
			"session_id": uuid.NewString(),
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	w = f.do(http.MethodPost, "/api/sessions/"+batch.SessionID+"/complete", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result services.SessionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 100, result.Score)
	assert.True(t, result.IsPerfect)
	assert.True(t, result.BadgeEarned)

	w = f.do(http.MethodGet, "/api/badges", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var badges []models.Badge
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &badges))
	assert.Len(t, badges, 1)
}

func TestReviewEndpointRoleGate(t *testing.T) {
	f := newAPIFixture(t)
	learner := f.addUser(t, "hana@labquiz.local", "correct horse", models.RoleLearner)
	reviewer := f.addUser(t, "rev@labquiz.local", "correct horse", models.RoleReviewer)

	quiz := f.addQuiz(t, uuid.NewString())
	quiz.ID = uuid.NewString()
	quiz.Status = models.StatusPending
	require.NoError(t, f.store.CreateQuizzes(context.Background(), []models.Quiz{quiz}))

	t.Run("learner is blocked by the middleware", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/quizzes/pending", f.tokenFor(t, learner), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("reviewer approves", func(t *testing.T) {
		token := f.tokenFor(t, reviewer)

		w := f.do(http.MethodGet, "/api/quizzes/pending", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var pending []services.PendingQuiz
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
		require.Len(t, pending, 1)

		w = f.do(http.MethodPut, "/api/quizzes/"+quiz.ID+"/review", token, gin.H{"action": "approve"})
		require.Equal(t, http.StatusOK, w.Code)

		stored, err := f.store.GetQuiz(context.Background(), quiz.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, stored.Status)
	})

	t.Run("bogus action is a bad request", func(t *testing.T) {
		w := f.do(http.MethodPut, "/api/quizzes/"+quiz.ID+"/review", f.tokenFor(t, reviewer), gin.H{"action": "ship"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
