package services

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/susumutomita/LabQuiz/internal/logger"
	"github.com/susumutomita/LabQuiz/internal/models"
	"github.com/susumutomita/LabQuiz/internal/store"
)

const DefaultSessionSize = 10

// SessionService runs the training loop: pick a batch of approved items,
// record one answer per item, score the batch, grant badges.
type SessionService struct {
	store store.Store
	log   *logger.Logger
}

func NewSessionService(st store.Store, log *logger.Logger) *SessionService {
	return &SessionService{store: st, log: log}
}

// ClientQuiz is a quiz stripped for serving: two choices, no hint about
// which one is correct beyond its position.
type ClientQuiz struct {
	ID         string          `json:"id"`
	CategoryID string          `json:"category_id"`
	Question   string          `json:"question"`
	Choices    []models.Choice `json:"choices"`
}

type QuizBatch struct {
	SessionID string       `json:"session_id"`
	Quizzes   []ClientQuiz `json:"quizzes"`
	Message   string       `json:"message,omitempty"`
}

type ClientScenario struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	CharName   string `json:"char_name"`
	CharRole   string `json:"char_role"`
	CharAvatar string `json:"char_avatar"`
	Situation  string `json:"situation"`
	Dialogue   string `json:"dialogue"`
	Reference  string `json:"reference"`
}

type ScenarioBatch struct {
	SessionID string           `json:"session_id"`
	Scenarios []ClientScenario `json:"scenarios"`
	Message   string           `json:"message,omitempty"`
}

type AnswerResult struct {
	IsCorrect       bool   `json:"is_correct"`
	CorrectChoiceID string `json:"correct_choice_id"`
	Explanation     string `json:"explanation"`
}

type JudgmentResult struct {
	IsCorrect    bool   `json:"is_correct"`
	WasViolation bool   `json:"was_violation"`
	Explanation  string `json:"explanation"`
}

type SessionResult struct {
	SessionID   string `json:"session_id"`
	Total       int    `json:"total"`
	Correct     int    `json:"correct"`
	Score       int    `json:"score"`
	IsPerfect   bool   `json:"is_perfect"`
	BadgeEarned bool   `json:"badge_earned"`
}

// StartQuizSession selects up to count approved quizzes, uniformly shuffled,
// each reduced to two choices. An empty pool is not an error: the caller
// gets a message and no session id.
func (s *SessionService) StartQuizSession(ctx context.Context, categoryID string, count int) (*QuizBatch, error) {
	pool, err := s.store.ListApprovedQuizzes(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return &QuizBatch{Quizzes: []ClientQuiz{}, Message: "no approved quizzes in this category yet"}, nil
	}

	selected := pickRandom(pool, count)
	batch := &QuizBatch{
		SessionID: uuid.NewString(),
		Quizzes:   make([]ClientQuiz, 0, len(selected)),
	}
	for _, q := range selected {
		two, err := reduceChoices(q.Choices.Data(), q.CorrectChoiceID)
		if err != nil {
			s.log.Error("quiz violates two-choices invariant", "quiz_id", q.ID)
			return nil, err
		}
		batch.Quizzes = append(batch.Quizzes, ClientQuiz{
			ID:         q.ID,
			CategoryID: q.CategoryID,
			Question:   q.Question,
			Choices:    two,
		})
	}
	return batch, nil
}

func (s *SessionService) StartScenarioSession(ctx context.Context, categoryID string, count int) (*ScenarioBatch, error) {
	pool, err := s.store.ListApprovedScenarios(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return &ScenarioBatch{Scenarios: []ClientScenario{}, Message: "no approved scenarios in this category yet"}, nil
	}

	selected := pickRandom(pool, count)
	batch := &ScenarioBatch{
		SessionID: uuid.NewString(),
		Scenarios: make([]ClientScenario, 0, len(selected)),
	}
	for _, sc := range selected {
		avatar := sc.CharAvatar
		if avatar == "" {
			avatar = "🧑‍🔬"
		}
		batch.Scenarios = append(batch.Scenarios, ClientScenario{
			ID:         sc.ID,
			CategoryID: sc.CategoryID,
			CharName:   sc.CharName,
			CharRole:   sc.CharRole,
			CharAvatar: avatar,
			Situation:  sc.Situation,
			Dialogue:   sc.Dialogue,
			Reference:  sc.Reference,
		})
	}
	return batch, nil
}

// SubmitQuizAnswer checks the submission against the authoritative quiz and
// appends exactly one answer event. The explanation is returned whether or
// not the answer was correct.
func (s *SessionService) SubmitQuizAnswer(ctx context.Context, userID, quizID, choiceID, sessionID string) (*AnswerResult, error) {
	if choiceID == "" || sessionID == "" {
		return nil, ErrValidation
	}

	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != models.StatusApproved {
		// Rejected between selection and answer.
		return nil, ErrNotFound
	}

	if !legalChoice(quiz.Choices.Data(), choiceID) {
		return nil, ErrInvalidChoice
	}

	isCorrect := choiceID == quiz.CorrectChoiceID
	answer := &models.Answer{
		UserID:     userID,
		ItemType:   models.ItemTypeQuiz,
		ItemID:     quiz.ID,
		SessionID:  sessionID,
		CategoryID: quiz.CategoryID,
		Choice:     choiceID,
		IsCorrect:  isCorrect,
		AnsweredAt: time.Now(),
	}
	if err := s.store.AppendAnswer(ctx, answer); err != nil {
		return nil, err
	}

	return &AnswerResult{
		IsCorrect:       isCorrect,
		CorrectChoiceID: quiz.CorrectChoiceID,
		Explanation:     quiz.Explanation,
	}, nil
}

func (s *SessionService) JudgeScenario(ctx context.Context, userID, scenarioID, judgment, sessionID string) (*JudgmentResult, error) {
	if sessionID == "" {
		return nil, ErrValidation
	}
	if judgment != models.JudgmentPass && judgment != models.JudgmentViolate {
		return nil, ErrInvalidChoice
	}

	scenario, err := s.store.GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	if scenario.Status != models.StatusApproved {
		return nil, ErrNotFound
	}

	isCorrect := (judgment == models.JudgmentViolate) == scenario.IsViolation
	answer := &models.Answer{
		UserID:     userID,
		ItemType:   models.ItemTypeScenario,
		ItemID:     scenario.ID,
		SessionID:  sessionID,
		CategoryID: scenario.CategoryID,
		Choice:     judgment,
		IsCorrect:  isCorrect,
		AnsweredAt: time.Now(),
	}
	if err := s.store.AppendAnswer(ctx, answer); err != nil {
		return nil, err
	}

	return &JudgmentResult{
		IsCorrect:    isCorrect,
		WasViolation: scenario.IsViolation,
		Explanation:  scenario.Explanation,
	}, nil
}

// CompleteSession aggregates the session's answer events into a score.
// The aggregate is a pure read, so re-completing yields the same numbers;
// the badge insert-if-absent guard keeps the grant single-shot.
func (s *SessionService) CompleteSession(ctx context.Context, userID, sessionID string) (*SessionResult, error) {
	answers, err := s.store.SessionAnswers(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return nil, ErrNotFound
	}

	total := len(answers)
	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}
	isPerfect := total > 0 && correct == total

	result := &SessionResult{
		SessionID: sessionID,
		Total:     total,
		Correct:   correct,
		Score:     percentScore(correct, total),
		IsPerfect: isPerfect,
	}

	if isPerfect {
		// A badge attests to one category. Mixed-category sessions earn
		// none; every answer has to agree with the first one.
		categoryID := answers[0].CategoryID
		single := true
		for _, a := range answers[1:] {
			if a.CategoryID != categoryID {
				single = false
				break
			}
		}
		if single {
			earned, err := s.store.GrantBadge(ctx, userID, categoryID, time.Now())
			if err != nil {
				return nil, err
			}
			result.BadgeEarned = earned
		}
	}

	return result, nil
}

func (s *SessionService) ListBadges(ctx context.Context, userID string) ([]models.Badge, error) {
	return s.store.ListBadges(ctx, userID)
}

func (s *SessionService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

// pickRandom returns min(count, len(pool)) items drawn without replacement,
// every item with equal probability.
func pickRandom[T any](pool []T, count int) []T {
	shuffled := append([]T(nil), pool...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if count <= 0 {
		count = DefaultSessionSize
	}
	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}

// reduceChoices narrows a quiz to the correct choice plus one random wrong
// one, in random order. Empty choice slots are ignored.
func reduceChoices(all []models.Choice, correctID string) ([]models.Choice, error) {
	var correct *models.Choice
	var wrongs []models.Choice
	for _, ch := range all {
		if ch.Text == "" {
			continue
		}
		if ch.ID == correctID {
			c := ch
			correct = &c
			continue
		}
		wrongs = append(wrongs, ch)
	}
	if correct == nil || len(wrongs) == 0 {
		return nil, ErrMalformedItem
	}

	wrong := wrongs[rand.Intn(len(wrongs))]
	if rand.Intn(2) == 0 {
		return []models.Choice{*correct, wrong}, nil
	}
	return []models.Choice{wrong, *correct}, nil
}

func legalChoice(all []models.Choice, choiceID string) bool {
	for _, ch := range all {
		if ch.Text != "" && ch.ID == choiceID {
			return true
		}
	}
	return false
}

// percentScore rounds half toward positive infinity, matching the rounding
// the clients expect (3/4 -> 75, 1/3 -> 33, 1/2 of an odd split rounds up).
func percentScore(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(float64(correct)/float64(total)*100 + 0.5))
}
