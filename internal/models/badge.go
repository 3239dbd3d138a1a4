package models

import "time"

// Badge marks the first perfect session a user cleared in a category.
// The unique index makes granting idempotent.
type Badge struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_badge_unique" json:"user_id"`
	CategoryID string    `gorm:"type:uuid;not null;uniqueIndex:idx_badge_unique" json:"category_id"`
	EarnedAt   time.Time `json:"earned_at"`
}
