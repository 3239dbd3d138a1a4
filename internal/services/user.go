package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/susumutomita/LabQuiz/internal/models"
	"github.com/susumutomita/LabQuiz/internal/store"
)

type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

func (s *UserService) ListUsers(ctx context.Context, ident Identity) ([]models.User, error) {
	if ident.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.store.ListUsers(ctx)
}

func (s *UserService) CreateUser(ctx context.Context, ident Identity, email, password, name, role string) (models.User, error) {
	if ident.Role != models.RoleAdmin {
		return models.User{}, ErrForbidden
	}
	if email == "" || password == "" || name == "" || role == "" {
		return models.User{}, fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if len(password) < 8 {
		return models.User{}, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if !models.ValidRole(role) {
		return models.User{}, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) UpdateUserRole(ctx context.Context, ident Identity, targetID, role string) (models.User, error) {
	if ident.Role != models.RoleAdmin {
		return models.User{}, ErrForbidden
	}
	// Admins cannot demote themselves and lock everyone out.
	if ident.UserID == targetID {
		return models.User{}, fmt.Errorf("%w: cannot change your own role", ErrValidation)
	}
	if !models.ValidRole(role) {
		return models.User{}, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	return s.store.UpdateUserRole(ctx, targetID, role)
}
