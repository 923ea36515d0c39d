package tins

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"supplymarket_api/internal/core/models"
	"supplymarket_api/internal/storage"
)

var (
	ErrInvalidTIN    = errors.New("invalid tin registration")
	ErrTINRegistered = errors.New("tin already registered")
)

// Ethiopian TINs as issued to businesses: ET followed by ten digits.
var tinPattern = regexp.MustCompile(`^ET\d{10}$`)

type Store interface {
	UserByID(id string) (models.User, error)
	TINByUserID(userID string) (models.TIN, error)
	AddTIN(ctx context.Context, t models.TIN) error
}

type Registration struct {
	Number          string `json:"tin_number"`
	BusinessName    string `json:"business_name"`
	BusinessType    string `json:"business_type"`
	Region          string `json:"region"`
	Woreda          string `json:"woreda"`
	Kebele          string `json:"kebele"`
	BusinessAddress string `json:"business_address"`
	// RegisteredOn is a YYYY-MM-DD date; empty means today.
	RegisteredOn string `json:"registration_date"`
}

type Service struct {
	store Store
	log   *log.Entry
	now   func() time.Time
}

func NewService(store Store, logger *log.Entry) *Service {
	return &Service{store: store, log: logger, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register records the TIN of a company user. Each user registers once and
// each number belongs to one user.
func (s *Service) Register(ctx context.Context, userID string, reg Registration) (models.TIN, error) {
	user, err := s.store.UserByID(userID)
	if err != nil {
		return models.TIN{}, err
	}
	if user.Role != models.RoleCompany {
		return models.TIN{}, fmt.Errorf("%w: only companies register a TIN", models.ErrForbidden)
	}
	if _, err := s.store.TINByUserID(userID); err == nil {
		return models.TIN{}, ErrTINRegistered
	}

	now := s.now()
	tin := models.TIN{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		Number:          strings.ToUpper(strings.TrimSpace(reg.Number)),
		BusinessName:    strings.TrimSpace(reg.BusinessName),
		BusinessType:    strings.TrimSpace(reg.BusinessType),
		Region:          strings.TrimSpace(reg.Region),
		Woreda:          strings.TrimSpace(reg.Woreda),
		Kebele:          strings.TrimSpace(reg.Kebele),
		BusinessAddress: strings.TrimSpace(reg.BusinessAddress),
		RegisteredOn:    now.UTC().Truncate(24 * time.Hour),
		CreatedAt:       now,
	}
	switch {
	case !tinPattern.MatchString(tin.Number):
		return models.TIN{}, fmt.Errorf("%w: number must be ET followed by 10 digits", ErrInvalidTIN)
	case tin.BusinessName == "":
		return models.TIN{}, fmt.Errorf("%w: business name is required", ErrInvalidTIN)
	case tin.BusinessType == "":
		return models.TIN{}, fmt.Errorf("%w: business type is required", ErrInvalidTIN)
	}
	if raw := strings.TrimSpace(reg.RegisteredOn); raw != "" {
		day, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return models.TIN{}, fmt.Errorf("%w: registration date %q", ErrInvalidTIN, raw)
		}
		if day.After(now) {
			return models.TIN{}, fmt.Errorf("%w: registration date is in the future", ErrInvalidTIN)
		}
		tin.RegisteredOn = day
	}

	if err := s.store.AddTIN(ctx, tin); err != nil {
		if errors.Is(err, storage.ErrDuplicateID) {
			return models.TIN{}, ErrTINRegistered
		}
		return models.TIN{}, err
	}

	s.log.WithFields(log.Fields{"user_id": user.ID, "tin_id": tin.ID}).Info("TIN registered")
	return tin, nil
}

// ForUser returns the user's TIN, or storage.ErrNotFound.
func (s *Service) ForUser(userID string) (models.TIN, error) {
	return s.store.TINByUserID(userID)
}
