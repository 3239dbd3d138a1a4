package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Choice is one selectable answer of a quiz. Items authored with fewer than
// four choices leave trailing slots with empty text.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Quiz struct {
	ID              string                         `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID      string                         `gorm:"type:uuid;not null;index" json:"category_id"`
	Question        string                         `gorm:"type:text;not null" json:"question"`
	Choices         datatypes.JSONType[[]Choice]   `json:"choices"`
	CorrectChoiceID string                         `gorm:"size:40;not null" json:"correct_choice_id"`
	Explanation     string                         `gorm:"type:text;not null" json:"explanation"`
	Status          string                         `gorm:"size:20;not null;default:'pending';index" json:"status"`
	CreatedBy       string                         `gorm:"type:uuid" json:"created_by"`
	ReviewedBy      *string                        `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	CreatedAt       time.Time                      `json:"created_at"`
	UpdatedAt       time.Time                      `json:"updated_at"`
}
