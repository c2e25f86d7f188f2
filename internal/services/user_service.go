package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sangamlabs/sangam/internal/auth"
	"github.com/sangamlabs/sangam/internal/models"
	"github.com/sangamlabs/sangam/internal/realtime"
	apperrors "github.com/sangamlabs/sangam/pkg/errors"
)

// UserService handles registration and login for users and admins.
type UserService struct {
	db    *gorm.DB
	jwt   *auth.JWTService
	audit *AuditService
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, jwt *auth.JWTService, audit *AuditService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	if jwt == nil {
		return nil, errors.New("user service: jwt service is required")
	}
	return &UserService{db: db, jwt: jwt, audit: audit}, nil
}

// Register creates a user account with a hashed password and returns an
// access token. Registration is broadcast to admin observers.
func (s *UserService) Register(ctx context.Context, user *models.User, password string) (string, error) {
	ctx = ensureContext(ctx)
	if user == nil {
		return "", errors.New("user service: user is required")
	}
	if len(password) < 6 {
		return "", apperrors.NewBadRequest("password must be at least 6 characters")
	}

	user.Phone = trimmed(user.Phone)
	if user.Phone == "" {
		return "", apperrors.NewBadRequest("phone is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("user service: hash password: %w", err)
	}
	user.Password = string(hash)

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return "", apperrors.ErrPhoneRegistered
		}
		return "", fmt.Errorf("user service: create user: %w", err)
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, AuditEntry{
			Action:    realtime.EventUserRegistered,
			ActorID:   user.ID,
			ActorName: user.Name,
			Metadata:  map[string]any{"phone": user.Phone},
		}); err != nil {
			return "", err
		}
	}

	return s.jwt.GenerateAccessToken(auth.AccessTokenInput{UserID: user.ID})
}

// Login validates phone and password and returns the user plus a token.
func (s *UserService) Login(ctx context.Context, phone, password string) (*models.User, string, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).Where("phone = ?", trimmed(phone)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("user service: load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateAccessToken(auth.AccessTokenInput{UserID: user.ID})
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// AdminLogin validates an admin account and returns a token carrying the
// admin claim.
func (s *UserService) AdminLogin(ctx context.Context, phone, password string) (*models.Admin, string, error) {
	ctx = ensureContext(ctx)

	var admin models.Admin
	if err := s.db.WithContext(ctx).Where("phone = ?", trimmed(phone)).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("user service: load admin: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)) != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateAccessToken(auth.AccessTokenInput{UserID: admin.ID, IsAdmin: true})
	if err != nil {
		return nil, "", err
	}
	return &admin, token, nil
}

// Get loads one user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", trimmed(id)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate")
}
