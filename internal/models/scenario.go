package models

import "time"

// Scenario is a workplace situation the learner judges as compliant ("pass")
// or as a rule violation ("violate"). IsViolation is the ground truth.
type Scenario struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID  string    `gorm:"type:uuid;not null;index" json:"category_id"`
	CharName    string    `gorm:"size:100;not null" json:"char_name"`
	CharRole    string    `gorm:"size:100;not null" json:"char_role"`
	CharAvatar  string    `gorm:"size:20" json:"char_avatar"`
	Situation   string    `gorm:"type:text;not null" json:"situation"`
	Dialogue    string    `gorm:"type:text;not null" json:"dialogue"`
	Reference   string    `gorm:"type:text" json:"reference"`
	IsViolation bool      `gorm:"not null" json:"is_violation"`
	Explanation string    `gorm:"type:text;not null" json:"explanation"`
	Status      string    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	CreatedBy   string    `gorm:"type:uuid" json:"created_by"`
	ReviewedBy  *string   `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	JudgmentPass    = "pass"
	JudgmentViolate = "violate"
)
