package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susumutomita/LabQuiz/internal/models"
	"github.com/susumutomita/LabQuiz/internal/store"
)

func chatCompletion(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

const draftJSON = `[
  {
    "question": "Which container takes broken glassware?",
    "choices": [
      {"id": "a", "text": "the rigid glass waste box"},
      {"id": "b", "text": "the regular trash bag"},
      {"id": "c", "text": "the paper recycling bin"},
      {"id": "d", "text": "any nearby sink"}
    ],
    "correctChoiceId": "a",
    "explanation": "Glass punctures bags and injures whoever collects them."
  }
]`

func generateFixture(t *testing.T, upstream http.HandlerFunc) (*AIGenerateService, *store.Memory, models.Category) {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	st := store.NewMemory()
	category := models.Category{ID: uuid.NewString(), Name: "Waste Disposal"}
	require.NoError(t, st.CreateCategory(context.Background(), &category))

	svc := NewAIGenerateService(st, "test-key", srv.URL, "gpt-4o-mini")
	return svc, st, category
}

func creator() Identity {
	return Identity{UserID: uuid.NewString(), Email: "creator@labquiz.local", Role: models.RoleCreator}
}

func TestGenerateQuizzes(t *testing.T) {
	svc, st, category := generateFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(chatCompletion(draftJSON)))
	})
	ident := creator()

	quizzes, err := svc.GenerateQuizzes(context.Background(), ident, category.ID, "Broken glassware must go into the rigid box.", 1)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, models.StatusPending, quizzes[0].Status, "drafts always enter the review queue")
	assert.Equal(t, ident.UserID, quizzes[0].CreatedBy)
	assert.Equal(t, "a", quizzes[0].CorrectChoiceID)

	pending, err := st.ListPendingQuizzes(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestGenerateQuizzesToleratesCodeFences(t *testing.T) {
	svc, _, category := generateFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatCompletion("```json\n" + draftJSON + "\n```")))
	})

	quizzes, err := svc.GenerateQuizzes(context.Background(), creator(), category.ID, "manual text", 1)
	require.NoError(t, err)
	assert.Len(t, quizzes, 1)
}

func TestGenerateQuizzesTruncatesAtRuneBoundary(t *testing.T) {
	var got chatRequest
	svc, _, category := generateFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(chatCompletion(draftJSON)))
	})

	// 3 bytes per rune, so the byte cap lands in the middle of a rune.
	manual := strings.Repeat("試", maxManualChars)
	_, err := svc.GenerateQuizzes(context.Background(), creator(), category.ID, manual, 1)
	require.NoError(t, err)

	require.Len(t, got.Messages, 2)
	sent := got.Messages[1].Content
	assert.LessOrEqual(t, len(sent), maxManualChars)
	assert.True(t, utf8.ValidString(sent))
	assert.NotContains(t, sent, string(utf8.RuneError), "a split rune would reach the model as U+FFFD")
}

func TestTruncateAtRune(t *testing.T) {
	assert.Equal(t, "abc", truncateAtRune("abc", 10))
	assert.Equal(t, "ab", truncateAtRune("abcd", 2))
	assert.Equal(t, "試", truncateAtRune("試験", 5))
	assert.Equal(t, "", truncateAtRune("試", 2))
}

func TestGenerateQuizzesFailures(t *testing.T) {
	t.Run("learners cannot generate", func(t *testing.T) {
		svc, _, category := generateFixture(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("upstream must not be called")
		})
		ident := Identity{UserID: uuid.NewString(), Role: models.RoleLearner}
		_, err := svc.GenerateQuizzes(context.Background(), ident, category.ID, "manual text", 1)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("empty manual", func(t *testing.T) {
		svc, _, category := generateFixture(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("upstream must not be called")
		})
		_, err := svc.GenerateQuizzes(context.Background(), creator(), category.ID, "   \n", 1)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("missing api key", func(t *testing.T) {
		st := store.NewMemory()
		svc := NewAIGenerateService(st, "", "http://unused", "gpt-4o-mini")
		_, err := svc.GenerateQuizzes(context.Background(), creator(), uuid.NewString(), "manual text", 1)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("unknown category", func(t *testing.T) {
		svc, _, _ := generateFixture(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("upstream must not be called")
		})
		_, err := svc.GenerateQuizzes(context.Background(), creator(), uuid.NewString(), "manual text", 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("upstream error payload", func(t *testing.T) {
		svc, _, category := generateFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limited"}}`))
		})
		_, err := svc.GenerateQuizzes(context.Background(), creator(), category.ID, "manual text", 1)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("unparseable draft", func(t *testing.T) {
		svc, _, category := generateFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(chatCompletion("sorry, I cannot help with that")))
		})
		_, err := svc.GenerateQuizzes(context.Background(), creator(), category.ID, "manual text", 1)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("drafts missing fields are dropped", func(t *testing.T) {
		svc, _, category := generateFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(chatCompletion(`[{"question":"","choices":[],"correctChoiceId":""}]`)))
		})
		_, err := svc.GenerateQuizzes(context.Background(), creator(), category.ID, "manual text", 1)
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}
