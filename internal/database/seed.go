package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"github.com/susumutomita/LabQuiz/internal/config"
	"github.com/susumutomita/LabQuiz/internal/logger"
	"github.com/susumutomita/LabQuiz/internal/models"
	"github.com/susumutomita/LabQuiz/internal/store"
)

var defaultCategories = []struct {
	name        string
	description string
}{
	{"Chemical Handling", "Safe storage, labeling and transfer of laboratory chemicals"},
	{"Biosafety", "Containment levels, PPE and handling of biological agents"},
	{"Waste Disposal", "Segregation and disposal of chemical and biological waste"},
	{"Emergency Response", "Spills, exposures, fire and evacuation procedures"},
}

// Seed makes sure the admin account and the reference categories exist.
// It is idempotent and safe to run on every boot.
func Seed(ctx context.Context, st store.Store, cfg *config.Config, log *logger.Logger) error {
	if _, err := st.GetUserByEmail(ctx, cfg.AdminEmail); errors.Is(err, store.ErrNotFound) {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		admin := models.User{
			ID:           uuid.NewString(),
			Email:        cfg.AdminEmail,
			PasswordHash: string(hash),
			Name:         "Administrator",
			Role:         models.RoleAdmin,
			CreatedAt:    time.Now(),
		}
		if err := st.CreateUser(ctx, &admin); err != nil {
			return err
		}
		log.Info("seeded admin user", "email", cfg.AdminEmail)
	} else if err != nil {
		return err
	}

	categories, err := st.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		for _, c := range defaultCategories {
			desc := c.description
			cat := models.Category{ID: uuid.NewString(), Name: c.name, Description: &desc}
			if err := st.CreateCategory(ctx, &cat); err != nil {
				return err
			}
		}
		log.Info("seeded categories", "count", len(defaultCategories))
	}

	return nil
}

// SeedDemo loads a small approved content set so the in-memory store is
// usable offline without a reviewer in the loop.
func SeedDemo(ctx context.Context, st store.Store, log *logger.Logger) error {
	categories, err := st.ListCategories(ctx)
	if err != nil || len(categories) == 0 {
		return err
	}
	cat := categories[0]
	now := time.Now()

	quizzes := []models.Quiz{
		{
			Question: "Where should flammable solvents be stored when not in use?",
			Choices: datatypes.NewJSONType([]models.Choice{
				{ID: "a", Text: "In a ventilated flammables cabinet"},
				{ID: "b", Text: "On the open bench near the fume hood"},
				{ID: "c", Text: "In the sample refrigerator"},
				{ID: "d", Text: "Under the sink"},
			}),
			CorrectChoiceID: "a",
			Explanation:     "Flammable solvents belong in a dedicated, ventilated flammables cabinet away from ignition sources.",
		},
		{
			Question: "What is the first step after splashing a reagent in your eye?",
			Choices: datatypes.NewJSONType([]models.Choice{
				{ID: "a", Text: "Rinse at the eyewash station for 15 minutes"},
				{ID: "b", Text: "Wipe the eye with a paper towel"},
				{ID: "c", Text: "Finish the experiment first"},
				{ID: "d", Text: "Apply eye drops"},
			}),
			CorrectChoiceID: "a",
			Explanation:     "Immediate, prolonged irrigation at the eyewash station limits tissue damage; report to a supervisor afterwards.",
		},
		{
			Question: "A reagent bottle has lost its label. What do you do?",
			Choices: datatypes.NewJSONType([]models.Choice{
				{ID: "a", Text: "Treat it as hazardous waste of unknown composition"},
				{ID: "b", Text: "Smell it to identify the contents"},
				{ID: "c", Text: "Pour it down the drain with plenty of water"},
				{ID: "d", Text: "Relabel it with your best guess"},
			}),
			CorrectChoiceID: "a",
			Explanation:     "Unlabeled chemicals are disposed of as unknown hazardous waste; never identify by smell or guess.",
		},
	}
	for i := range quizzes {
		quizzes[i].ID = uuid.NewString()
		quizzes[i].CategoryID = cat.ID
		quizzes[i].Status = models.StatusApproved
		quizzes[i].CreatedAt = now
		quizzes[i].UpdatedAt = now
	}
	if err := st.CreateQuizzes(ctx, quizzes); err != nil {
		return err
	}

	scenarios := []models.Scenario{
		{
			CharName:    "Mika",
			CharRole:    "Graduate student",
			CharAvatar:  "🧑‍🔬",
			Situation:   "Mika is in a hurry to catch the last train.",
			Dialogue:    "I'll just leave this ethidium bromide gel on the bench and clean it up tomorrow morning.",
			Reference:   "Waste handling manual, section 3",
			IsViolation: true,
			Explanation: "Hazardous gels must be disposed of in the designated waste container before leaving, not left on the bench.",
		},
		{
			CharName:    "Ken",
			CharRole:    "Technician",
			CharAvatar:  "🥼",
			Situation:   "Ken finished pipetting a culture of BSL-2 bacteria.",
			Dialogue:    "Gloves off, hands washed, and the bench wiped down with disinfectant before I take my break.",
			Reference:   "Biosafety manual, section 2",
			IsViolation: false,
			Explanation: "Removing PPE, washing hands and disinfecting the work surface is the correct routine after BSL-2 work.",
		},
	}
	for i := range scenarios {
		scenarios[i].ID = uuid.NewString()
		scenarios[i].CategoryID = cat.ID
		scenarios[i].Status = models.StatusApproved
		scenarios[i].CreatedAt = now
		scenarios[i].UpdatedAt = now
	}
	if err := st.CreateScenarios(ctx, scenarios); err != nil {
		return err
	}

	log.Info("seeded demo content", "quizzes", len(quizzes), "scenarios", len(scenarios))
	return nil
}
