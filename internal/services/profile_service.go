package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sangamlabs/sangam/internal/models"
	"github.com/sangamlabs/sangam/internal/realtime"
	apperrors "github.com/sangamlabs/sangam/pkg/errors"
)

// UpdateProfileInput carries the editable profile fields. The handler binds
// the full payload, so every field overwrites the stored value.
type UpdateProfileInput struct {
	Name          string  `json:"name" validate:"required"`
	Email         string  `json:"email" validate:"omitempty,email"`
	Age           int     `json:"age" validate:"required,gte=18,lte=100"`
	Height        float64 `json:"height" validate:"required,gt=0"`
	Gender        string  `json:"gender" validate:"required"`
	MaritalStatus string  `json:"marital_status" validate:"required"`
	Religion      string  `json:"religion" validate:"required"`
	Caste         string  `json:"caste" validate:"required"`
	SubCaste      string  `json:"sub_caste"`
	MotherTongue  string  `json:"mother_tongue"`

	Education  string `json:"education"`
	Occupation string `json:"occupation"`
	Company    string `json:"company"`
	Income     string `json:"income"`
	Location   string `json:"location"`
	Hometown   string `json:"hometown"`
	WorkMode   string `json:"work_mode"`

	FatherName       string `json:"father_name"`
	FatherOccupation string `json:"father_occupation"`
	MotherName       string `json:"mother_name"`
	MotherOccupation string `json:"mother_occupation"`
	Siblings         int    `json:"siblings"`

	Photos             []string `json:"photos"`
	Bio                string   `json:"bio"`
	PartnerPreferences string   `json:"partner_preferences"`

	HoroscopeImageURL string `json:"horoscope_image_url"`
	Rashi             string `json:"rashi"`
	Nakshatra         string `json:"nakshatra"`
	BirthTime         string `json:"birth_time"`
	BirthPlace        string `json:"birth_place"`

	IsVerified        bool       `json:"is_verified"`
	IsPremium         bool       `json:"is_premium"`
	PremiumExpiryDate *time.Time `json:"premium_expiry_date"`
}

// ProfileService manages profile reads, updates, and the premium and
// verification state transitions they can trigger.
type ProfileService struct {
	db         *gorm.DB
	notifier   *NotificationService
	dispatcher *realtime.Dispatcher
	audit      *AuditService
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB, notifier *NotificationService, dispatcher *realtime.Dispatcher, audit *AuditService) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}
	if notifier == nil {
		return nil, errors.New("profile service: notification service is required")
	}
	return &ProfileService{db: db, notifier: notifier, dispatcher: dispatcher, audit: audit}, nil
}

// List returns all profiles except the requesting user's own, newest first.
func (s *ProfileService) List(ctx context.Context, excludeID string) ([]models.User, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Order("created_at DESC")
	if id := trimmed(excludeID); id != "" {
		query = query.Where("id <> ?", id)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("profile service: list users: %w", err)
	}
	return users, nil
}

// Get loads a single profile. When viewerID identifies a different user the
// view is counted and the owner may be notified.
func (s *ProfileService) Get(ctx context.Context, id, viewerID, viewerName string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", trimmed(id)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("profile service: load user: %w", err)
	}

	if viewerID != "" && viewerID != user.ID {
		if err := s.notifier.ProfileViewed(ctx, user.ID, viewerID, viewerName); err != nil {
			return nil, err
		}
		user.ViewCount++
	}
	return &user, nil
}

// Update overwrites the profile with the supplied payload and applies any
// verification or premium transitions it implies.
func (s *ProfileService) Update(ctx context.Context, id string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", trimmed(id)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("profile service: load user: %w", err)
	}

	wasVerified := user.IsVerified
	wasPremium := user.IsPremium

	applyProfileInput(&user, input)

	if input.IsPremium && !wasPremium {
		if input.PremiumExpiryDate == nil {
			return nil, apperrors.NewBadRequest("premium_expiry_date is required to activate premium")
		}
		user.LastPremiumReminder = nil
	}
	if !input.IsPremium && wasPremium {
		user.PremiumExpiryDate = nil
		user.LastPremiumReminder = nil
	}

	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, fmt.Errorf("profile service: save user: %w", err)
	}

	if user.IsVerified && !wasVerified {
		if err := s.notifier.VerificationGranted(ctx, user.ID); err != nil {
			return nil, err
		}
	}
	if !user.IsVerified && wasVerified {
		if err := s.notifier.VerificationRevoked(ctx, user.ID); err != nil {
			return nil, err
		}
	}
	if user.IsPremium && !wasPremium {
		if err := s.notifier.PremiumActivated(ctx, user.ID); err != nil {
			return nil, err
		}
		if s.audit != nil {
			if err := s.audit.Record(ctx, AuditEntry{
				Action:    realtime.EventPaymentCompleted,
				ActorID:   user.ID,
				ActorName: user.Name,
				Metadata:  map[string]any{"premium_expiry_date": user.PremiumExpiryDate},
			}); err != nil {
				return nil, err
			}
		}
	}

	if s.dispatcher != nil {
		s.dispatcher.SendToUser(user.ID, realtime.ProfileUpdatedEvent(user.ID))
	}
	return &user, nil
}

// ActivatePremium marks the user premium until expiry. The reminder marker is
// reset so a renewed membership starts a fresh reminder ladder.
func (s *ProfileService) ActivatePremium(ctx context.Context, userID string, expiry time.Time) (*models.User, error) {
	ctx = ensureContext(ctx)

	if expiry.Before(time.Now()) {
		return nil, apperrors.NewBadRequest("premium expiry must be in the future")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", trimmed(userID)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("profile service: load user: %w", err)
	}

	updates := map[string]any{
		"is_premium":            true,
		"premium_expiry_date":   expiry,
		"last_premium_reminder": nil,
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("profile service: activate premium: %w", err)
	}
	user.IsPremium = true
	user.PremiumExpiryDate = &expiry
	user.LastPremiumReminder = nil

	if err := s.notifier.PremiumActivated(ctx, user.ID); err != nil {
		return nil, err
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, AuditEntry{
			Action:    realtime.EventPaymentCompleted,
			ActorID:   user.ID,
			ActorName: user.Name,
			Metadata:  map[string]any{"premium_expiry_date": expiry},
		}); err != nil {
			return nil, err
		}
	}
	if s.dispatcher != nil {
		s.dispatcher.SendToUser(user.ID, realtime.ProfileUpdatedEvent(user.ID))
	}
	return &user, nil
}

// Delete removes the user and everything that cascades from it.
func (s *ProfileService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", trimmed(id)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("profile service: load user: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&user).Error; err != nil {
		return fmt.Errorf("profile service: delete user: %w", err)
	}

	if s.audit != nil {
		return s.audit.Record(ctx, AuditEntry{
			Action:    realtime.EventProfileDeleted,
			ActorID:   user.ID,
			ActorName: user.Name,
		})
	}
	return nil
}

func applyProfileInput(user *models.User, input UpdateProfileInput) {
	user.Name = trimmed(input.Name)
	user.Email = trimmed(input.Email)
	user.Age = input.Age
	user.Height = input.Height
	user.Gender = input.Gender
	user.MaritalStatus = input.MaritalStatus
	user.Religion = input.Religion
	user.Caste = input.Caste
	user.SubCaste = input.SubCaste
	user.MotherTongue = input.MotherTongue
	user.Education = input.Education
	user.Occupation = input.Occupation
	user.Company = input.Company
	user.Income = input.Income
	user.Location = input.Location
	user.Hometown = input.Hometown
	user.WorkMode = input.WorkMode
	user.FatherName = input.FatherName
	user.FatherOccupation = input.FatherOccupation
	user.MotherName = input.MotherName
	user.MotherOccupation = input.MotherOccupation
	user.Siblings = input.Siblings
	user.Photos = datatypes.NewJSONSlice(input.Photos)
	user.Bio = input.Bio
	user.PartnerPreferences = input.PartnerPreferences
	user.HoroscopeImageURL = input.HoroscopeImageURL
	user.Rashi = input.Rashi
	user.Nakshatra = input.Nakshatra
	user.BirthTime = input.BirthTime
	user.BirthPlace = input.BirthPlace
	user.IsVerified = input.IsVerified
	user.IsPremium = input.IsPremium
	user.PremiumExpiryDate = input.PremiumExpiryDate
}
