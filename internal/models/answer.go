package models

import "time"

const (
	ItemTypeQuiz     = "quiz"
	ItemTypeScenario = "scenario"
)

// Answer is one append-only answer event. The unique index enforces
// at most one answer per (user, item, session); duplicates are rejected,
// never overwritten. CategoryID is denormalized from the item at insert so
// session completion aggregates without joins.
type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_answer_unique" json:"user_id"`
	ItemType   string    `gorm:"size:10;not null" json:"item_type"`
	ItemID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_answer_unique" json:"item_id"`
	SessionID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_answer_unique;index" json:"session_id"`
	CategoryID string    `gorm:"type:uuid;not null" json:"category_id"`
	Choice     string    `gorm:"size:40;not null" json:"choice"`
	IsCorrect  bool      `gorm:"not null" json:"is_correct"`
	AnsweredAt time.Time `json:"answered_at"`
}
