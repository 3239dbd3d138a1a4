package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/susumutomita/LabQuiz/internal/models"
)

func newTestGorm(t *testing.T) *Gorm {
	t.Helper()
	// A named in-memory database keeps gorm's pooled connections on the
	// same data while isolating tests from each other.
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Quiz{},
		&models.Scenario{},
		&models.Answer{},
		&models.Badge{},
	))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return NewGorm(db)
}

func createQuiz(t *testing.T, st *Gorm, status string) models.Quiz {
	t.Helper()
	quiz := models.Quiz{
		ID:         uuid.NewString(),
		CategoryID: uuid.NewString(),
		Question:   "Which glove material resists acetone?",
		Choices: datatypes.NewJSONType([]models.Choice{
			{ID: "a", Text: "butyl rubber"},
			{ID: "b", Text: "latex"},
		}),
		CorrectChoiceID: "a",
		Explanation:     "Acetone permeates latex within seconds.",
		Status:          status,
	}
	require.NoError(t, st.CreateQuizzes(context.Background(), []models.Quiz{quiz}))
	stored, err := st.GetQuiz(context.Background(), quiz.ID)
	require.NoError(t, err)
	return stored
}

func TestGormQuizRoundTrip(t *testing.T) {
	st := newTestGorm(t)
	ctx := context.Background()

	approved := createQuiz(t, st, models.StatusApproved)
	createQuiz(t, st, models.StatusPending)

	quizzes, err := st.ListApprovedQuizzes(ctx, approved.CategoryID)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, approved.ID, quizzes[0].ID)

	choices := quizzes[0].Choices.Data()
	require.Len(t, choices, 2)
	assert.Equal(t, "butyl rubber", choices[0].Text)

	pending, err := st.ListPendingQuizzes(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = st.GetQuiz(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormSaveQuizReview(t *testing.T) {
	st := newTestGorm(t)
	ctx := context.Background()
	reviewerID := uuid.NewString()

	t.Run("matching revision wins", func(t *testing.T) {
		quiz := createQuiz(t, st, models.StatusPending)
		expected := quiz.UpdatedAt

		quiz.Status = models.StatusApproved
		quiz.ReviewedBy = &reviewerID
		quiz.UpdatedAt = time.Now().Add(time.Second)
		require.NoError(t, st.SaveQuizReview(ctx, &quiz, expected))

		stored, err := st.GetQuiz(ctx, quiz.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, stored.Status)
		require.NotNil(t, stored.ReviewedBy)
		assert.Equal(t, reviewerID, *stored.ReviewedBy)
	})

	t.Run("stale revision loses", func(t *testing.T) {
		quiz := createQuiz(t, st, models.StatusPending)
		stale := quiz.UpdatedAt.Add(-time.Hour)

		quiz.Status = models.StatusRejected
		err := st.SaveQuizReview(ctx, &quiz, stale)
		assert.ErrorIs(t, err, ErrConflict)

		stored, err := st.GetQuiz(ctx, quiz.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, stored.Status, "a lost race must not change the row")
	})

	t.Run("vanished row", func(t *testing.T) {
		ghost := models.Quiz{ID: uuid.NewString(), Status: models.StatusApproved}
		err := st.SaveQuizReview(ctx, &ghost, time.Now())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGormAppendAnswerUniqueness(t *testing.T) {
	st := newTestGorm(t)
	ctx := context.Background()

	userID := uuid.NewString()
	itemID := uuid.NewString()
	sessionID := uuid.NewString()

	answer := func() *models.Answer {
		return &models.Answer{
			UserID:     userID,
			ItemType:   models.ItemTypeQuiz,
			ItemID:     itemID,
			SessionID:  sessionID,
			CategoryID: uuid.NewString(),
			Choice:     "a",
			IsCorrect:  true,
			AnsweredAt: time.Now(),
		}
	}

	require.NoError(t, st.AppendAnswer(ctx, answer()))

	err := st.AppendAnswer(ctx, answer())
	assert.ErrorIs(t, err, ErrDuplicateAnswer)

	t.Run("other session passes", func(t *testing.T) {
		a := answer()
		a.SessionID = uuid.NewString()
		assert.NoError(t, st.AppendAnswer(ctx, a))
	})

	t.Run("other user passes", func(t *testing.T) {
		a := answer()
		a.UserID = uuid.NewString()
		assert.NoError(t, st.AppendAnswer(ctx, a))
	})

	answers, err := st.SessionAnswers(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.Len(t, answers, 1)
}

func TestGormGrantBadgeOnce(t *testing.T) {
	st := newTestGorm(t)
	ctx := context.Background()

	userID := uuid.NewString()
	categoryID := uuid.NewString()

	earned, err := st.GrantBadge(ctx, userID, categoryID, time.Now())
	require.NoError(t, err)
	assert.True(t, earned)

	earned, err = st.GrantBadge(ctx, userID, categoryID, time.Now())
	require.NoError(t, err)
	assert.False(t, earned, "second grant is a no-op")

	badges, err := st.ListBadges(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, badges, 1)

	t.Run("other category is a new badge", func(t *testing.T) {
		earned, err := st.GrantBadge(ctx, userID, uuid.NewString(), time.Now())
		require.NoError(t, err)
		assert.True(t, earned)
	})
}

func TestGormUsers(t *testing.T) {
	st := newTestGorm(t)
	ctx := context.Background()

	user := models.User{
		ID:           uuid.NewString(),
		Email:        "dup@labquiz.local",
		PasswordHash: "x",
		Name:         "Dup",
		Role:         models.RoleLearner,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, st.CreateUser(ctx, &user))

	t.Run("duplicate email", func(t *testing.T) {
		again := user
		again.ID = uuid.NewString()
		err := st.CreateUser(ctx, &again)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("role update", func(t *testing.T) {
		updated, err := st.UpdateUserRole(ctx, user.ID, models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, updated.Role)

		_, err = st.UpdateUserRole(ctx, uuid.NewString(), models.RoleAdmin)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("lookup by email", func(t *testing.T) {
		got, err := st.GetUserByEmail(ctx, "dup@labquiz.local")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		_, err = st.GetUserByEmail(ctx, "missing@labquiz.local")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGormCategories(t *testing.T) {
	st := newTestGorm(t)
	ctx := context.Background()

	cat := models.Category{ID: uuid.NewString(), Name: "Chemical Handling"}
	require.NoError(t, st.CreateCategory(ctx, &cat))

	dup := models.Category{ID: uuid.NewString(), Name: "Chemical Handling"}
	assert.ErrorIs(t, st.CreateCategory(ctx, &dup), ErrConflict)

	got, err := st.GetCategory(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chemical Handling", got.Name)
}
