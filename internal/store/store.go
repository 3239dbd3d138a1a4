package store

import (
	"context"
	"errors"
	"time"

	"github.com/susumutomita/LabQuiz/internal/models"
)

var (
	// ErrNotFound covers missing or non-visible records.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateAnswer fires when a second answer arrives for the same
	// (user, item, session) triple.
	ErrDuplicateAnswer = errors.New("answer already submitted")
	// ErrConflict is an optimistic-lock or uniqueness conflict.
	ErrConflict = errors.New("conflicting update")
)

// ProgressRow is one (learner, category) aggregate used by the admin
// dashboard and the CSV export.
type ProgressRow struct {
	UserID         string
	UserName       string
	Email          string
	CategoryID     string
	CategoryName   string
	TotalAnswers   int
	CorrectAnswers int
	SessionCount   int
	LastAnsweredAt *time.Time
	HasBadge       bool
}

// Store is the persistence boundary for quiz content, answer events, badges
// and users. The gorm implementation backs the real service; Memory is the
// offline variant and the test double.
type Store interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id string) (models.Category, error)
	CreateCategory(ctx context.Context, cat *models.Category) error

	ListApprovedQuizzes(ctx context.Context, categoryID string) ([]models.Quiz, error)
	GetQuiz(ctx context.Context, id string) (models.Quiz, error)
	ListPendingQuizzes(ctx context.Context) ([]models.Quiz, error)
	CreateQuizzes(ctx context.Context, quizzes []models.Quiz) error
	// SaveQuizReview writes the review outcome, guarded by a compare-and-swap
	// on the row's previous updated_at. A lost race returns ErrConflict.
	SaveQuizReview(ctx context.Context, quiz *models.Quiz, expected time.Time) error

	ListApprovedScenarios(ctx context.Context, categoryID string) ([]models.Scenario, error)
	GetScenario(ctx context.Context, id string) (models.Scenario, error)
	ListPendingScenarios(ctx context.Context) ([]models.Scenario, error)
	CreateScenarios(ctx context.Context, scenarios []models.Scenario) error
	SaveScenarioReview(ctx context.Context, scenario *models.Scenario, expected time.Time) error

	// AppendAnswer inserts one answer event; the unique constraint turns a
	// duplicate into ErrDuplicateAnswer without touching the original row.
	AppendAnswer(ctx context.Context, answer *models.Answer) error
	SessionAnswers(ctx context.Context, userID, sessionID string) ([]models.Answer, error)

	// GrantBadge is insert-if-absent; it reports whether a new badge row was
	// actually created.
	GrantBadge(ctx context.Context, userID, categoryID string, earnedAt time.Time) (bool, error)
	ListBadges(ctx context.Context, userID string) ([]models.Badge, error)

	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUserRole(ctx context.Context, id, role string) (models.User, error)

	ProgressRows(ctx context.Context) ([]ProgressRow, error)
}
