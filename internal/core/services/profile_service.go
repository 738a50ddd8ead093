package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

// HabitRemover is the part of HabitService an account deletion needs.
type HabitRemover interface {
	ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error)
	Delete(ctx context.Context, id, userID string) error
}

type ProfileService struct {
	users  domain.UserRepository
	habits HabitRemover
}

func NewProfileService(users domain.UserRepository, habits HabitRemover) *ProfileService {
	return &ProfileService{users: users, habits: habits}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *ProfileService) Update(ctx context.Context, userID string, upd domain.ProfileUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := user.UpdateProfile(upd); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("profile service: failed to update user: %w", err)
	}
	return user, nil
}

// DeleteAccount removes the user's habits one by one, so reminders and
// cached copies go with them, then the account itself.
func (s *ProfileService) DeleteAccount(ctx context.Context, userID string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}

	habits, err := s.habits.ListByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("profile service: failed to list habits: %w", err)
	}
	for _, h := range habits {
		if err := s.habits.Delete(ctx, h.ID, userID); err != nil {
			return fmt.Errorf("profile service: failed to delete habit %s: %w", h.ID, err)
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("profile service: failed to delete user: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"habits":  len(habits),
	}).Info("account deleted")
	return nil
}
