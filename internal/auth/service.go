package auth

import (
	"context"
	"errors"

	"metallix-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserFinder abstracts user lookup by id (for production GORM or test doubles).
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// GormUserFinder implements UserFinder using GORM.
type GormUserFinder struct{ DB *gorm.DB }

func (g *GormUserFinder) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := g.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Authenticate resolves a raw Authorization header into a Caller. The token must
// be valid and name an existing, active user.
func Authenticate(ctx context.Context, finder UserFinder, secret, header string) (Caller, error) {
	raw, err := BearerToken(header)
	if err != nil {
		return Caller{}, err
	}
	claims, err := ParseToken(secret, raw)
	if err != nil {
		return Caller{}, err
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Caller{}, ErrInvalidToken
	}
	if finder == nil {
		return Caller{}, ErrUserNotFound
	}
	u, err := finder.FindByID(ctx, id)
	if err != nil {
		return Caller{}, err
	}
	if !u.IsActive {
		return Caller{}, ErrUserDeactivated
	}
	return Caller{UserID: u.ID, Role: u.Role}, nil
}
