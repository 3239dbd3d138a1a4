package models

import "time"

const (
	RoleLearner  = "learner"
	RoleCreator  = "creator"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
)

func ValidRole(role string) bool {
	switch role {
	case RoleLearner, RoleCreator, RoleReviewer, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Role         string    `gorm:"size:20;not null;default:'learner'" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
