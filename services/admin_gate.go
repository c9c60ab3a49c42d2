package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/repository"
)

// AdminGate decides who may use the admin API. A user is an admin when
// they are a superuser or their current email has an admin profile. The
// answer is read from the database on every call.
type AdminGate struct {
	users  repository.UserRepository
	admins repository.AdminRepository
	logger *zap.Logger
}

func NewAdminGate(store *repository.Store, logger *zap.Logger) *AdminGate {
	return &AdminGate{users: store.Users, admins: store.Admins, logger: logger}
}

func (g *AdminGate) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}
	user, err := g.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, apperrors.Internal("Failed to load user", err)
	}
	if user.IsSuperuser {
		return true, nil
	}
	ok, err := g.admins.HasProfile(ctx, user.Email)
	if err != nil {
		return false, apperrors.Internal("Failed to check admin profile", err)
	}
	return ok, nil
}

// Bootstrap makes sure every listed email has an admin profile.
func (g *AdminGate) Bootstrap(ctx context.Context, emails []string) error {
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		if err := g.admins.EnsureProfile(ctx, email, false); err != nil {
			return err
		}
		g.logger.Info("Admin profile ensured", zap.String("email", email))
	}
	return nil
}
