package services

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susumutomita/LabQuiz/internal/models"
	"github.com/susumutomita/LabQuiz/internal/store"
)

func admin() Identity {
	return Identity{UserID: uuid.NewString(), Email: "admin@labquiz.local", Role: models.RoleAdmin}
}

func progressFixture(t *testing.T) (*store.Memory, models.User, models.Category) {
	t.Helper()
	st := store.NewMemory()

	category := models.Category{ID: uuid.NewString(), Name: "Biosafety"}
	require.NoError(t, st.CreateCategory(context.Background(), &category))

	learner := models.User{ID: uuid.NewString(), Email: "hana@labquiz.local", Name: "Hana", Role: models.RoleLearner}
	require.NoError(t, st.CreateUser(context.Background(), &learner))

	return st, learner, category
}

func appendAnswer(t *testing.T, st *store.Memory, userID, categoryID, sessionID string, correct bool, at time.Time) {
	t.Helper()
	err := st.AppendAnswer(context.Background(), &models.Answer{
		UserID:     userID,
		ItemType:   models.ItemTypeQuiz,
		ItemID:     uuid.NewString(),
		SessionID:  sessionID,
		CategoryID: categoryID,
		Choice:     "a",
		IsCorrect:  correct,
		AnsweredAt: at,
	})
	require.NoError(t, err)
}

func TestListProgressForbiddenForNonAdmins(t *testing.T) {
	st, _, _ := progressFixture(t)
	svc := NewProgressService(st)

	for _, role := range []string{models.RoleLearner, models.RoleCreator, models.RoleReviewer} {
		_, err := svc.ListProgress(context.Background(), Identity{UserID: uuid.NewString(), Role: role})
		assert.ErrorIs(t, err, ErrForbidden, "role %s", role)
	}
}

func TestListProgressAggregation(t *testing.T) {
	st, learner, category := progressFixture(t)
	svc := NewProgressService(st)

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	sessionA := uuid.NewString()
	sessionB := uuid.NewString()
	appendAnswer(t, st, learner.ID, category.ID, sessionA, true, base)
	appendAnswer(t, st, learner.ID, category.ID, sessionA, false, base.Add(time.Minute))
	appendAnswer(t, st, learner.ID, category.ID, sessionB, true, base.Add(2*time.Minute))

	out, err := svc.ListProgress(context.Background(), admin())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, learner.ID, out[0].UserID)
	assert.Equal(t, "Hana", out[0].Name)

	require.Len(t, out[0].Categories, 1)
	p := out[0].Categories[0]
	assert.Equal(t, "Biosafety", p.CategoryName)
	assert.Equal(t, 3, p.TotalAnswers)
	assert.Equal(t, 2, p.CorrectAnswers)
	assert.Equal(t, 67, p.Accuracy)
	assert.Equal(t, 2, p.SessionCount)
	require.NotNil(t, p.LastAnsweredAt)
	assert.True(t, p.LastAnsweredAt.Equal(base.Add(2*time.Minute)))
	assert.False(t, p.HasBadge)
	assert.True(t, p.IsWarning, "67% accuracy sits under the warning threshold")
}

func TestListProgressWarningFlag(t *testing.T) {
	st, learner, category := progressFixture(t)
	svc := NewProgressService(st)

	sessionID := uuid.NewString()
	at := time.Now()
	for i := 0; i < 7; i++ {
		appendAnswer(t, st, learner.ID, category.ID, sessionID, true, at)
	}
	for i := 0; i < 3; i++ {
		appendAnswer(t, st, learner.ID, category.ID, sessionID, false, at)
	}

	out, err := svc.ListProgress(context.Background(), admin())
	require.NoError(t, err)
	p := out[0].Categories[0]
	assert.Equal(t, 70, p.Accuracy)
	assert.False(t, p.IsWarning, "exactly 70% is not flagged")
}

func TestListProgressUntouchedCategory(t *testing.T) {
	st, _, _ := progressFixture(t)
	svc := NewProgressService(st)

	out, err := svc.ListProgress(context.Background(), admin())
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Categories, 1)

	p := out[0].Categories[0]
	assert.Zero(t, p.TotalAnswers)
	assert.Zero(t, p.Accuracy)
	assert.Nil(t, p.LastAnsweredAt)
	assert.False(t, p.IsWarning, "no answers means nothing to warn about")
}

func TestListProgressSkipsStaff(t *testing.T) {
	st, _, category := progressFixture(t)
	svc := NewProgressService(st)

	staff := models.User{ID: uuid.NewString(), Email: "rev@labquiz.local", Name: "Rev", Role: models.RoleReviewer}
	require.NoError(t, st.CreateUser(context.Background(), &staff))
	appendAnswer(t, st, staff.ID, category.ID, uuid.NewString(), true, time.Now())

	out, err := svc.ListProgress(context.Background(), admin())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Hana", out[0].Name)
}

func TestExportCSV(t *testing.T) {
	st, learner, category := progressFixture(t)
	svc := NewProgressService(st)

	at := time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)
	appendAnswer(t, st, learner.ID, category.ID, uuid.NewString(), true, at)

	csv, err := svc.ExportCSV(context.Background(), admin())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(csv, "\uFEFF"), "CSV must start with a UTF-8 BOM")

	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(csv, "\uFEFF"), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "name,email,category,answers,correct,accuracy(%),sessions,last_answered", lines[0])
	assert.Equal(t, "Hana,hana@labquiz.local,Biosafety,1,1,100,1,2026-08-15T10:30:00Z", lines[1])

	t.Run("forbidden for learners", func(t *testing.T) {
		_, err := svc.ExportCSV(context.Background(), Identity{UserID: uuid.NewString(), Role: models.RoleLearner})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestExportCSVQuotesSeparators(t *testing.T) {
	st := store.NewMemory()
	svc := NewProgressService(st)

	category := models.Category{ID: uuid.NewString(), Name: "Biosafety"}
	require.NoError(t, st.CreateCategory(context.Background(), &category))
	learner := models.User{
		ID:    uuid.NewString(),
		Email: "doe@labquiz.local",
		Name:  `Doe, Jane "JJ"`,
		Role:  models.RoleLearner,
	}
	require.NoError(t, st.CreateUser(context.Background(), &learner))

	out, err := svc.ExportCSV(context.Background(), admin())
	require.NoError(t, err)

	assert.Contains(t, out, `"Doe, Jane ""JJ"""`, "separators in names must be quoted")

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\uFEFF"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Len(t, records[1], 8, "a comma in the name must not add columns")
	assert.Equal(t, `Doe, Jane "JJ"`, records[1][0])
}

func TestExportCSVNeverAnswered(t *testing.T) {
	st, _, _ := progressFixture(t)
	svc := NewProgressService(st)

	csv, err := svc.ExportCSV(context.Background(), admin())
	require.NoError(t, err)
	assert.Contains(t, csv, ",never")
}
