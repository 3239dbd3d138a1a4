package services

import (
	"context"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/susumutomita/LabQuiz/internal/models"
	"github.com/susumutomita/LabQuiz/internal/store"
)

// ProgressService aggregates per-learner training results for admins.
type ProgressService struct {
	store store.Store
}

func NewProgressService(st store.Store) *ProgressService {
	return &ProgressService{store: st}
}

type CategoryProgress struct {
	CategoryID     string     `json:"category_id"`
	CategoryName   string     `json:"category_name"`
	TotalAnswers   int        `json:"total_answers"`
	CorrectAnswers int        `json:"correct_answers"`
	Accuracy       int        `json:"accuracy"`
	SessionCount   int        `json:"session_count"`
	LastAnsweredAt *time.Time `json:"last_answered_at"`
	HasBadge       bool       `json:"has_badge"`
	IsWarning      bool       `json:"is_warning"`
}

type UserProgress struct {
	UserID     string             `json:"user_id"`
	Name       string             `json:"name"`
	Email      string             `json:"email"`
	Categories []CategoryProgress `json:"categories"`
}

// warningThreshold marks learners whose accuracy needs attention.
const warningThreshold = 70

func (s *ProgressService) ListProgress(ctx context.Context, ident Identity) ([]UserProgress, error) {
	if ident.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	rows, err := s.store.ProgressRows(ctx)
	if err != nil {
		return nil, err
	}

	var out []UserProgress
	index := make(map[string]int)
	for _, row := range rows {
		i, ok := index[row.UserID]
		if !ok {
			i = len(out)
			index[row.UserID] = i
			out = append(out, UserProgress{
				UserID: row.UserID,
				Name:   row.UserName,
				Email:  row.Email,
			})
		}
		out[i].Categories = append(out[i].Categories, categoryProgress(row))
	}
	if out == nil {
		out = []UserProgress{}
	}
	return out, nil
}

// ExportCSV renders the progress table as UTF-8 CSV with a BOM so
// spreadsheet tools pick up the encoding.
func (s *ProgressService) ExportCSV(ctx context.Context, ident Identity) (string, error) {
	if ident.Role != models.RoleAdmin {
		return "", ErrForbidden
	}

	rows, err := s.store.ProgressRows(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("\uFEFF")
	w := csv.NewWriter(&b)
	header := []string{"name", "email", "category", "answers", "correct", "accuracy(%)", "sessions", "last_answered"}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, row := range rows {
		p := categoryProgress(row)
		last := "never"
		if p.LastAnsweredAt != nil {
			last = p.LastAnsweredAt.Format(time.RFC3339)
		}
		record := []string{
			row.UserName, row.Email, row.CategoryName,
			strconv.Itoa(p.TotalAnswers), strconv.Itoa(p.CorrectAnswers),
			strconv.Itoa(p.Accuracy), strconv.Itoa(p.SessionCount), last,
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return b.String(), nil
}

func categoryProgress(row store.ProgressRow) CategoryProgress {
	accuracy := 0
	if row.TotalAnswers > 0 {
		accuracy = percentScore(row.CorrectAnswers, row.TotalAnswers)
	}
	return CategoryProgress{
		CategoryID:     row.CategoryID,
		CategoryName:   row.CategoryName,
		TotalAnswers:   row.TotalAnswers,
		CorrectAnswers: row.CorrectAnswers,
		Accuracy:       accuracy,
		SessionCount:   row.SessionCount,
		LastAnsweredAt: row.LastAnsweredAt,
		HasBadge:       row.HasBadge,
		IsWarning:      row.TotalAnswers > 0 && accuracy < warningThreshold,
	}
}
