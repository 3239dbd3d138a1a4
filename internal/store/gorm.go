package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/susumutomita/LabQuiz/internal/models"
)

// Gorm persists through a relational database. It relies on gorm's error
// translation (TranslateError) so unique-constraint violations surface as
// gorm.ErrDuplicatedKey on both postgres and sqlite.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (s *Gorm) GetCategory(ctx context.Context, id string) (models.Category, error) {
	var cat models.Category
	if err := s.db.WithContext(ctx).First(&cat, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Category{}, ErrNotFound
		}
		return models.Category{}, err
	}
	return cat, nil
}

func (s *Gorm) CreateCategory(ctx context.Context, cat *models.Category) error {
	err := s.db.WithContext(ctx).Create(cat).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

func (s *Gorm) ListApprovedQuizzes(ctx context.Context, categoryID string) ([]models.Quiz, error) {
	q := s.db.WithContext(ctx).Where("status = ?", models.StatusApproved)
	if categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}
	var quizzes []models.Quiz
	err := q.Find(&quizzes).Error
	return quizzes, err
}

func (s *Gorm) GetQuiz(ctx context.Context, id string) (models.Quiz, error) {
	var quiz models.Quiz
	if err := s.db.WithContext(ctx).First(&quiz, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Quiz{}, ErrNotFound
		}
		return models.Quiz{}, err
	}
	return quiz, nil
}

func (s *Gorm) ListPendingQuizzes(ctx context.Context) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusPending).
		Order("created_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

func (s *Gorm) CreateQuizzes(ctx context.Context, quizzes []models.Quiz) error {
	if len(quizzes) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&quizzes).Error
	})
}

func (s *Gorm) SaveQuizReview(ctx context.Context, quiz *models.Quiz, expected time.Time) error {
	res := s.db.WithContext(ctx).Model(quiz).
		Where("updated_at = ?", expected).
		Select("question", "choices", "correct_choice_id", "explanation", "status", "reviewed_by", "updated_at").
		Updates(*quiz)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.casFailure(ctx, &models.Quiz{}, quiz.ID)
	}
	return nil
}

func (s *Gorm) ListApprovedScenarios(ctx context.Context, categoryID string) ([]models.Scenario, error) {
	q := s.db.WithContext(ctx).Where("status = ?", models.StatusApproved)
	if categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}
	var scenarios []models.Scenario
	err := q.Find(&scenarios).Error
	return scenarios, err
}

func (s *Gorm) GetScenario(ctx context.Context, id string) (models.Scenario, error) {
	var scenario models.Scenario
	if err := s.db.WithContext(ctx).First(&scenario, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Scenario{}, ErrNotFound
		}
		return models.Scenario{}, err
	}
	return scenario, nil
}

func (s *Gorm) ListPendingScenarios(ctx context.Context) ([]models.Scenario, error) {
	var scenarios []models.Scenario
	err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusPending).
		Order("created_at DESC").
		Find(&scenarios).Error
	return scenarios, err
}

func (s *Gorm) CreateScenarios(ctx context.Context, scenarios []models.Scenario) error {
	if len(scenarios) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&scenarios).Error
	})
}

func (s *Gorm) SaveScenarioReview(ctx context.Context, scenario *models.Scenario, expected time.Time) error {
	res := s.db.WithContext(ctx).Model(scenario).
		Where("updated_at = ?", expected).
		Select("situation", "dialogue", "reference", "is_violation", "explanation", "status", "reviewed_by", "updated_at").
		Updates(*scenario)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.casFailure(ctx, &models.Scenario{}, scenario.ID)
	}
	return nil
}

// casFailure tells a vanished row apart from a lost optimistic-lock race.
func (s *Gorm) casFailure(ctx context.Context, model interface{}, id string) error {
	err := s.db.WithContext(ctx).Select("id").First(model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

func (s *Gorm) AppendAnswer(ctx context.Context, answer *models.Answer) error {
	err := s.db.WithContext(ctx).Create(answer).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateAnswer
	}
	return err
}

func (s *Gorm) SessionAnswers(ctx context.Context, userID, sessionID string) ([]models.Answer, error) {
	var answers []models.Answer
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("answered_at ASC, id ASC").
		Find(&answers).Error
	return answers, err
}

func (s *Gorm) GrantBadge(ctx context.Context, userID, categoryID string, earnedAt time.Time) (bool, error) {
	badge := models.Badge{UserID: userID, CategoryID: categoryID, EarnedAt: earnedAt}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "category_id"}},
			DoNothing: true,
		}).
		Create(&badge)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Gorm) ListBadges(ctx context.Context, userID string) ([]models.Badge, error) {
	var badges []models.Badge
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&badges).Error
	return badges, err
}

func (s *Gorm) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *Gorm) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *Gorm) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	return users, err
}

func (s *Gorm) CreateUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

func (s *Gorm) UpdateUserRole(ctx context.Context, id, role string) (models.User, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return models.User{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.User{}, ErrNotFound
	}
	return s.GetUser(ctx, id)
}

func (s *Gorm) ProgressRows(ctx context.Context) ([]ProgressRow, error) {
	var rows []ProgressRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			u.id AS user_id,
			u.name AS user_name,
			u.email AS email,
			c.id AS category_id,
			c.name AS category_name,
			COUNT(a.id) AS total_answers,
			COUNT(CASE WHEN a.is_correct THEN 1 END) AS correct_answers,
			COUNT(DISTINCT a.session_id) AS session_count,
			MAX(a.answered_at) AS last_answered_at,
			CASE WHEN b.id IS NOT NULL THEN TRUE ELSE FALSE END AS has_badge
		FROM users u
		CROSS JOIN categories c
		LEFT JOIN answers a ON a.user_id = u.id AND a.category_id = c.id
		LEFT JOIN badges b ON b.user_id = u.id AND b.category_id = c.id
		WHERE u.role = ?
		GROUP BY u.id, u.name, u.email, c.id, c.name, b.id
		ORDER BY u.name, c.name`, models.RoleLearner).
		Scan(&rows).Error
	return rows, err
}
