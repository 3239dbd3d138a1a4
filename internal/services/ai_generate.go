package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/susumutomita/LabQuiz/internal/models"
	"github.com/susumutomita/LabQuiz/internal/store"
)

// AIGenerateService drafts quiz candidates from uploaded manual text through
// an OpenAI-compatible chat-completions endpoint. Drafts always land as
// pending and go through the review gate like any other content.
type AIGenerateService struct {
	store      store.Store
	httpClient *http.Client
	apiKey     string
	apiURL     string
	model      string
}

func NewAIGenerateService(st store.Store, apiKey, apiURL, model string) *AIGenerateService {
	return &AIGenerateService{
		store:      st,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		apiKey:     apiKey,
		apiURL:     apiURL,
		model:      model,
	}
}

func (s *AIGenerateService) IsAvailable() bool {
	return s.apiKey != ""
}

type generatedQuiz struct {
	Question        string          `json:"question"`
	Choices         []models.Choice `json:"choices"`
	CorrectChoiceID string          `json:"correctChoiceId"`
	Explanation     string          `json:"explanation"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const generatePromptFormat = `You are an expert author of laboratory-safety training quizzes.
From the manual excerpt the user provides, write %d four-choice quiz questions for the category "%s".

Respond with ONLY a JSON array (no markdown, no code fences) in this format:
[
  {
    "question": "Question text?",
    "choices": [
      {"id": "a", "text": "Choice A"},
      {"id": "b", "text": "Choice B"},
      {"id": "c", "text": "Choice C"},
      {"id": "d", "text": "Choice D"}
    ],
    "correctChoiceId": "a",
    "explanation": "Why this is the correct procedure."
  }
]

Rules:
- Every question must be grounded in the provided manual text and directly applicable to day-to-day lab work
- Exactly one choice is correct; wrong choices must be plausible but clearly distinguishable
- Explanations should teach, not just restate the answer
- Return ONLY the JSON array, nothing else`

// maxManualChars keeps the prompt inside the model's context window.
const maxManualChars = 8000

// GenerateQuizzes calls the model and inserts the drafts in one transaction.
// A missing API key or an upstream failure maps to ErrUnavailable.
func (s *AIGenerateService) GenerateQuizzes(ctx context.Context, ident Identity, categoryID, manual string, count int) ([]models.Quiz, error) {
	if ident.Role != models.RoleCreator && ident.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(manual) == "" {
		return nil, fmt.Errorf("%w: uploaded file is empty", ErrValidation)
	}
	if count <= 0 {
		count = 5
	}
	if !s.IsAvailable() {
		return nil, fmt.Errorf("%w: AI generation is not configured", ErrUnavailable)
	}

	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if len(manual) > maxManualChars {
		manual = truncateAtRune(manual, maxManualChars)
	}

	content, err := s.chat(ctx, fmt.Sprintf(generatePromptFormat, count, category.Name), manual)
	if err != nil {
		return nil, err
	}

	var drafts []generatedQuiz
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &drafts); err != nil {
		return nil, fmt.Errorf("%w: model returned unparseable quiz data", ErrUnavailable)
	}
	if len(drafts) == 0 {
		return nil, fmt.Errorf("%w: model returned no quizzes", ErrUnavailable)
	}

	now := time.Now()
	quizzes := make([]models.Quiz, 0, len(drafts))
	for _, d := range drafts {
		if d.Question == "" || len(d.Choices) < 2 || d.CorrectChoiceID == "" {
			continue
		}
		quizzes = append(quizzes, models.Quiz{
			ID:              uuid.NewString(),
			CategoryID:      category.ID,
			Question:        d.Question,
			Choices:         datatypes.NewJSONType(d.Choices),
			CorrectChoiceID: d.CorrectChoiceID,
			Explanation:     d.Explanation,
			Status:          models.StatusPending,
			CreatedBy:       ident.UserID,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	if len(quizzes) == 0 {
		return nil, fmt.Errorf("%w: model returned no usable quizzes", ErrUnavailable)
	}

	if err := s.store.CreateQuizzes(ctx, quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (s *AIGenerateService) chat(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: unexpected response from model API", ErrUnavailable)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: model API returned status %d", ErrUnavailable, resp.StatusCode)
	}
	return parsed.Choices[0].Message.Content, nil
}

// truncateAtRune cuts s to at most max bytes without splitting a multi-byte
// rune at the boundary.
func truncateAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// stripCodeFence tolerates models that wrap JSON in markdown fences despite
// the prompt.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}
