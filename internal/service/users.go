package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
	"github.com/erazemk/najdeno/internal/validate"
)

// SignupRequest registers a student account.
type SignupRequest struct {
	FirstName string `json:"firstName" validate:"notblank,max=100"`
	LastName  string `json:"lastName" validate:"notblank,max=100"`
	StudentID string `json:"studentId" validate:"studentid"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"min=6,max=72"`
}

// ChangePasswordRequest replaces the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"min=6,max=72"`
}

// StaffRequest creates a staff account from the command line.
type StaffRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"notblank,max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Password  string `json:"password" validate:"min=6,max=72"`
}

// Signup creates a student account. The email must be the school address
// derived from the student ID.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*model.User, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.StudentID = strings.ToLower(strings.TrimSpace(req.StudentID))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	want := req.StudentID + "@" + strings.ToLower(s.studentDomain)
	if req.Email != want {
		return nil, model.Invalid("email", "must be "+want)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        &req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		StudentID:    &req.StudentID,
		PasswordHash: hash,
		Role:         model.RoleStudent,
	}
	err = db.WithTx(ctx, s.db, func(tx db.DBTX) error {
		if existing, err := store.GetUserByStudentID(ctx, tx, req.StudentID); err != nil {
			return err
		} else if existing != nil {
			return model.Conflict("student ID is already registered")
		}
		if existing, err := store.GetUserByEmail(ctx, tx, req.Email); err != nil {
			return err
		} else if existing != nil {
			return model.Conflict("email is already registered")
		}
		return store.CreateUser(ctx, tx, user, s.now())
	})
	if err != nil {
		return nil, err
	}

	slog.Info("student signed up", "user", user.ID)
	return user, nil
}

// CreateStaff adds a staff account with a password.
func (s *Service) CreateStaff(ctx context.Context, req StaffRequest) (*model.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        &req.Email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
		Role:         model.RoleStaff,
	}
	err = db.WithTx(ctx, s.db, func(tx db.DBTX) error {
		existing, err := store.GetUserByEmail(ctx, tx, req.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return model.Conflict("email is already registered")
		}
		return store.CreateUser(ctx, tx, user, s.now())
	})
	if err != nil {
		return nil, err
	}

	slog.Info("staff account created", "user", user.ID)
	return user, nil
}

// CurrentUser returns the caller's account.
func (s *Service) CurrentUser(ctx context.Context, caller model.Caller) (*model.User, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	user, err := store.GetUser(ctx, s.db, caller.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.ErrUnauthorized
	}
	return user, nil
}

// ChangePassword replaces the caller's password after checking the current
// one. Accounts without a password cannot use it.
func (s *Service) ChangePassword(ctx context.Context, caller model.Caller, req ChangePasswordRequest) error {
	user, err := s.CurrentUser(ctx, caller)
	if err != nil {
		return err
	}
	if err := validate.Struct(req); err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return model.Invalid("currentPassword", "is incorrect")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := store.UpdateUserPassword(ctx, s.db, user.ID, hash, s.now()); err != nil {
		return fmt.Errorf("changing password: %w", err)
	}

	slog.Info("user changed own password", "user", user.ID)
	return nil
}
