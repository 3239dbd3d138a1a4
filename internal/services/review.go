package services

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"github.com/susumutomita/LabQuiz/internal/models"
	"github.com/susumutomita/LabQuiz/internal/store"
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionEdit    = "edit"
)

// ReviewService moves pending content through the approve/reject/edit gate.
type ReviewService struct {
	store store.Store
}

func NewReviewService(st store.Store) *ReviewService {
	return &ReviewService{store: st}
}

type PendingQuiz struct {
	models.Quiz
	CategoryName string `json:"category_name"`
	CreatorName  string `json:"creator_name"`
}

type PendingScenario struct {
	models.Scenario
	CategoryName string `json:"category_name"`
	CreatorName  string `json:"creator_name"`
}

// QuizReviewInput carries the review action plus, for edits, the fields to
// change. UpdatedAt is the caller's last-seen revision; when set, a mismatch
// means someone reviewed the item first.
type QuizReviewInput struct {
	Action          string          `json:"action"`
	Question        *string         `json:"question,omitempty"`
	Choices         []models.Choice `json:"choices,omitempty"`
	CorrectChoiceID *string         `json:"correct_choice_id,omitempty"`
	Explanation     *string         `json:"explanation,omitempty"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`
}

type ScenarioReviewInput struct {
	Action      string     `json:"action"`
	Situation   *string    `json:"situation,omitempty"`
	Dialogue    *string    `json:"dialogue,omitempty"`
	Reference   *string    `json:"reference,omitempty"`
	IsViolation *bool      `json:"is_violation,omitempty"`
	Explanation *string    `json:"explanation,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func canReview(role string) bool {
	return role == models.RoleReviewer || role == models.RoleAdmin
}

func (s *ReviewService) ListPendingQuizzes(ctx context.Context, ident Identity) ([]PendingQuiz, error) {
	if !canReview(ident.Role) {
		return nil, ErrForbidden
	}

	quizzes, err := s.store.ListPendingQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	catNames, userNames, err := s.nameMaps(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]PendingQuiz, len(quizzes))
	for i, q := range quizzes {
		out[i] = PendingQuiz{
			Quiz:         q,
			CategoryName: catNames[q.CategoryID],
			CreatorName:  userNames[q.CreatedBy],
		}
	}
	return out, nil
}

func (s *ReviewService) ListPendingScenarios(ctx context.Context, ident Identity) ([]PendingScenario, error) {
	if !canReview(ident.Role) {
		return nil, ErrForbidden
	}

	scenarios, err := s.store.ListPendingScenarios(ctx)
	if err != nil {
		return nil, err
	}
	catNames, userNames, err := s.nameMaps(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]PendingScenario, len(scenarios))
	for i, sc := range scenarios {
		out[i] = PendingScenario{
			Scenario:     sc,
			CategoryName: catNames[sc.CategoryID],
			CreatorName:  userNames[sc.CreatedBy],
		}
	}
	return out, nil
}

// ReviewQuiz applies one review action. Edits put the item back in the
// pending queue for re-review.
func (s *ReviewService) ReviewQuiz(ctx context.Context, ident Identity, quizID string, input QuizReviewInput) (*models.Quiz, error) {
	if !canReview(ident.Role) {
		return nil, ErrForbidden
	}
	if !validAction(input.Action) {
		return nil, ErrInvalidAction
	}

	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if input.UpdatedAt != nil && !quiz.UpdatedAt.Equal(*input.UpdatedAt) {
		return nil, ErrConflict
	}
	expected := quiz.UpdatedAt

	switch input.Action {
	case ActionApprove:
		quiz.Status = models.StatusApproved
	case ActionReject:
		quiz.Status = models.StatusRejected
	case ActionEdit:
		if input.Question != nil {
			quiz.Question = *input.Question
		}
		if input.Choices != nil {
			quiz.Choices = datatypes.NewJSONType(input.Choices)
		}
		if input.CorrectChoiceID != nil {
			quiz.CorrectChoiceID = *input.CorrectChoiceID
		}
		if input.Explanation != nil {
			quiz.Explanation = *input.Explanation
		}
		quiz.Status = models.StatusPending
	}
	quiz.ReviewedBy = &ident.UserID
	quiz.UpdatedAt = time.Now()

	if err := s.store.SaveQuizReview(ctx, &quiz, expected); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (s *ReviewService) ReviewScenario(ctx context.Context, ident Identity, scenarioID string, input ScenarioReviewInput) (*models.Scenario, error) {
	if !canReview(ident.Role) {
		return nil, ErrForbidden
	}
	if !validAction(input.Action) {
		return nil, ErrInvalidAction
	}

	scenario, err := s.store.GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	if input.UpdatedAt != nil && !scenario.UpdatedAt.Equal(*input.UpdatedAt) {
		return nil, ErrConflict
	}
	expected := scenario.UpdatedAt

	switch input.Action {
	case ActionApprove:
		scenario.Status = models.StatusApproved
	case ActionReject:
		scenario.Status = models.StatusRejected
	case ActionEdit:
		if input.Situation != nil {
			scenario.Situation = *input.Situation
		}
		if input.Dialogue != nil {
			scenario.Dialogue = *input.Dialogue
		}
		if input.Reference != nil {
			scenario.Reference = *input.Reference
		}
		if input.IsViolation != nil {
			scenario.IsViolation = *input.IsViolation
		}
		if input.Explanation != nil {
			scenario.Explanation = *input.Explanation
		}
		scenario.Status = models.StatusPending
	}
	scenario.ReviewedBy = &ident.UserID
	scenario.UpdatedAt = time.Now()

	if err := s.store.SaveScenarioReview(ctx, &scenario, expected); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func validAction(action string) bool {
	switch action {
	case ActionApprove, ActionReject, ActionEdit:
		return true
	}
	return false
}

func (s *ReviewService) nameMaps(ctx context.Context) (map[string]string, map[string]string, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, nil, err
	}
	catNames := make(map[string]string, len(categories))
	for _, c := range categories {
		catNames[c.ID] = c.Name
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, nil, err
	}
	userNames := make(map[string]string, len(users))
	for _, u := range users {
		userNames[u.ID] = u.Name
	}
	return catNames, userNames, nil
}
