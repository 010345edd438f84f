package services

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/auth"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/authz"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/events"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/models"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/storage"
)

// ErrInvalidCredentials covers both a bad password and an inactive or
// unknown account; callers get one indistinct answer.
var ErrInvalidCredentials = errors.New("incorrect email or password")

// DefaultStorageAllowance is granted to every new account. 500MB.
const DefaultStorageAllowance = int64(500_000_000)

// UserService implements the account use cases.
type UserService struct {
	gate  *authz.Gate
	users UserRecordStore
	bus   EventPublisher
}

func NewUserService(gate *authz.Gate, users UserRecordStore, bus EventPublisher) *UserService {
	return &UserService{gate: gate, users: users, bus: bus}
}

// Create signs up a new account with the VIEWER role. Duplicate
// username or email comes back as storage.ErrConflict straight from the
// unique constraints.
func (s *UserService) Create(ctx context.Context, username, email, password string) (models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.Create(ctx, models.User{
		UserID:           uuid.New().String(),
		Username:         username,
		Email:            email,
		HashedPassword:   hash,
		Role:             models.RoleViewer,
		StorageAllowance: DefaultStorageAllowance,
		IsActive:         true,
	})
	if err != nil {
		return models.User{}, err
	}

	log.Printf("Created user %s, %s, %s", user.UserID, user.Email, user.Username)
	return user, nil
}

// Authenticate checks credentials for the token endpoint. Unknown
// email, inactive account and wrong password all collapse into
// ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if !user.IsActive || !auth.VerifyPassword(password, user.HashedPassword) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Get returns one account by id.
func (s *UserService) Get(ctx context.Context, userID string) (models.User, error) {
	return s.users.ByID(ctx, userID)
}

// List returns one page of accounts matching the filter plus the total
// match count. Admin only: user ids are not public, so nobody else may
// query by them.
func (s *UserService) List(ctx context.Context, caller authz.Identity, filter models.UserFilter, offset, limit int, sortBy string, desc bool) ([]models.User, int64, error) {
	if err := s.gate.RequireAdmin(caller); err != nil {
		return nil, 0, err
	}
	return s.users.ListByFilter(ctx, filter, offset, limit, sortBy, desc)
}

// Update applies a partial change to role, allowance or active state.
// Admin only, and an admin cannot demote themselves.
func (s *UserService) Update(ctx context.Context, caller authz.Identity, userID string, update models.UserUpdate) (models.User, error) {
	if err := s.gate.CheckRoleChange(caller, userID, update.Role); err != nil {
		return models.User{}, err
	}

	target, err := s.users.ByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	log.Printf("Updating user %s, %s, %s", target.UserID, target.Email, target.Username)
	return s.users.Update(ctx, userID, update)
}

// Delete removes an account (softly or physically, per deployment) and
// publishes users.deleted so the file service purges their storage.
// Reports found=false for an unknown id.
func (s *UserService) Delete(ctx context.Context, caller authz.Identity, userID string) (bool, error) {
	if err := s.gate.CheckUserDelete(caller, userID); err != nil {
		return false, err
	}

	found, err := s.users.Delete(ctx, userID)
	if err != nil || !found {
		return found, err
	}

	if s.bus != nil {
		if err := s.bus.Publish(events.SubjectUserDeleted, events.UserDeletedEvent{UserID: userID}); err != nil {
			log.Printf("Warning: failed to publish users.deleted for %s: %v", userID, err)
		}
	}
	return true, nil
}
