package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/susumutomita/LabQuiz/internal/models"
)

// Memory keeps everything in process. It is the offline variant of the
// service and the store used by the service tests. One mutex serializes all
// access; the dataset is small enough that nothing finer is worth it.
type Memory struct {
	mu         sync.Mutex
	categories []models.Category
	quizzes    []models.Quiz
	scenarios  []models.Scenario
	answers    []models.Answer
	badges     []models.Badge
	users      []models.User
	nextID     uint
}

func NewMemory() *Memory {
	return &Memory{nextID: 1}
}

func (s *Memory) ListCategories(_ context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.Category(nil), s.categories...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Memory) GetCategory(_ context.Context, id string) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Category{}, ErrNotFound
}

func (s *Memory) CreateCategory(_ context.Context, cat *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, cat.Name) {
			return ErrConflict
		}
	}
	s.categories = append(s.categories, *cat)
	return nil
}

func (s *Memory) ListApprovedQuizzes(_ context.Context, categoryID string) ([]models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Quiz
	for _, q := range s.quizzes {
		if q.Status != models.StatusApproved {
			continue
		}
		if categoryID != "" && q.CategoryID != categoryID {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *Memory) GetQuiz(_ context.Context, id string) (models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.quizzes {
		if q.ID == id {
			return q, nil
		}
	}
	return models.Quiz{}, ErrNotFound
}

func (s *Memory) ListPendingQuizzes(_ context.Context) ([]models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Quiz
	for _, q := range s.quizzes {
		if q.Status == models.StatusPending {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Memory) CreateQuizzes(_ context.Context, quizzes []models.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for i := range quizzes {
		if quizzes[i].CreatedAt.IsZero() {
			quizzes[i].CreatedAt = now
		}
		if quizzes[i].UpdatedAt.IsZero() {
			quizzes[i].UpdatedAt = now
		}
	}
	s.quizzes = append(s.quizzes, quizzes...)
	return nil
}

func (s *Memory) SaveQuizReview(_ context.Context, quiz *models.Quiz, expected time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.quizzes {
		if s.quizzes[i].ID != quiz.ID {
			continue
		}
		if !s.quizzes[i].UpdatedAt.Equal(expected) {
			return ErrConflict
		}
		s.quizzes[i] = *quiz
		return nil
	}
	return ErrNotFound
}

func (s *Memory) ListApprovedScenarios(_ context.Context, categoryID string) ([]models.Scenario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Scenario
	for _, sc := range s.scenarios {
		if sc.Status != models.StatusApproved {
			continue
		}
		if categoryID != "" && sc.CategoryID != categoryID {
			continue
		}
		out = append(out, sc)
	}
	return out, nil
}

func (s *Memory) GetScenario(_ context.Context, id string) (models.Scenario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range s.scenarios {
		if sc.ID == id {
			return sc, nil
		}
	}
	return models.Scenario{}, ErrNotFound
}

func (s *Memory) ListPendingScenarios(_ context.Context) ([]models.Scenario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Scenario
	for _, sc := range s.scenarios {
		if sc.Status == models.StatusPending {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Memory) CreateScenarios(_ context.Context, scenarios []models.Scenario) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for i := range scenarios {
		if scenarios[i].CreatedAt.IsZero() {
			scenarios[i].CreatedAt = now
		}
		if scenarios[i].UpdatedAt.IsZero() {
			scenarios[i].UpdatedAt = now
		}
	}
	s.scenarios = append(s.scenarios, scenarios...)
	return nil
}

func (s *Memory) SaveScenarioReview(_ context.Context, scenario *models.Scenario, expected time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.scenarios {
		if s.scenarios[i].ID != scenario.ID {
			continue
		}
		if !s.scenarios[i].UpdatedAt.Equal(expected) {
			return ErrConflict
		}
		s.scenarios[i] = *scenario
		return nil
	}
	return ErrNotFound
}

func (s *Memory) AppendAnswer(_ context.Context, answer *models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.answers {
		if a.UserID == answer.UserID && a.ItemID == answer.ItemID && a.SessionID == answer.SessionID {
			return ErrDuplicateAnswer
		}
	}
	answer.ID = s.nextID
	s.nextID++
	s.answers = append(s.answers, *answer)
	return nil
}

func (s *Memory) SessionAnswers(_ context.Context, userID, sessionID string) ([]models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Answer
	for _, a := range s.answers {
		if a.UserID == userID && a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AnsweredAt.Equal(out[j].AnsweredAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].AnsweredAt.Before(out[j].AnsweredAt)
	})
	return out, nil
}

func (s *Memory) GrantBadge(_ context.Context, userID, categoryID string, earnedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.badges {
		if b.UserID == userID && b.CategoryID == categoryID {
			return false, nil
		}
	}
	s.badges = append(s.badges, models.Badge{
		ID:         s.nextID,
		UserID:     userID,
		CategoryID: categoryID,
		EarnedAt:   earnedAt,
	})
	s.nextID++
	return true, nil
}

func (s *Memory) ListBadges(_ context.Context, userID string) ([]models.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Badge
	for _, b := range s.badges {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EarnedAt.After(out[j].EarnedAt) })
	return out, nil
}

func (s *Memory) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *Memory) GetUser(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *Memory) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.User(nil), s.users...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Memory) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrConflict
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users = append(s.users, *user)
	return nil
}

func (s *Memory) UpdateUserRole(_ context.Context, id, role string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].Role = role
			return s.users[i], nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *Memory) ProgressRows(_ context.Context) ([]ProgressRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hasBadge := make(map[[2]string]bool)
	for _, b := range s.badges {
		hasBadge[[2]string{b.UserID, b.CategoryID}] = true
	}

	var rows []ProgressRow
	for _, u := range s.users {
		if u.Role != models.RoleLearner {
			continue
		}
		for _, c := range s.categories {
			row := ProgressRow{
				UserID:       u.ID,
				UserName:     u.Name,
				Email:        u.Email,
				CategoryID:   c.ID,
				CategoryName: c.Name,
				HasBadge:     hasBadge[[2]string{u.ID, c.ID}],
			}
			sessions := make(map[string]struct{})
			for _, a := range s.answers {
				if a.UserID != u.ID || a.CategoryID != c.ID {
					continue
				}
				row.TotalAnswers++
				if a.IsCorrect {
					row.CorrectAnswers++
				}
				sessions[a.SessionID] = struct{}{}
				if row.LastAnsweredAt == nil || a.AnsweredAt.After(*row.LastAnsweredAt) {
					at := a.AnsweredAt
					row.LastAnsweredAt = &at
				}
			}
			row.SessionCount = len(sessions)
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UserName == rows[j].UserName {
			return rows[i].CategoryName < rows[j].CategoryName
		}
		return rows[i].UserName < rows[j].UserName
	})
	return rows, nil
}
