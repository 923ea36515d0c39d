package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"supplymarket_api/internal/core/models"
	"supplymarket_api/internal/geo"
	"supplymarket_api/internal/storage"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountLocked       = errors.New("account locked")
	ErrInvalidRegistration = errors.New("invalid registration")
)

// bcrypt ignores input past this length
const maxPasswordBytes = 72

// LockedError carries how long a locked account stays locked.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s: try again in %d seconds", ErrAccountLocked, int(e.Remaining.Round(time.Second)/time.Second))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// LockoutPolicy locks an account for LockDuration after MaxAttempts consecutive bad passwords.
type LockoutPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{MaxAttempts: 3, LockDuration: 30 * time.Second}
}

type Store interface {
	UserByEmail(email string) (models.User, error)
	SaveUser(ctx context.Context, u models.User) error
	SaveAccount(ctx context.Context, u models.User, supplier *models.Supplier) error
}

type Registration struct {
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Password    string          `json:"password"`
	Phone       string          `json:"phone"`
	Address     string          `json:"address"`
	Role        models.Role     `json:"role"`
	CompanyName string          `json:"company_name"`
	Location    *geo.Coordinate `json:"location,omitempty"`
}

func (r Registration) validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidRegistration)
	case r.Password == "":
		return fmt.Errorf("%w: password is required", ErrInvalidRegistration)
	case len(r.Password) > maxPasswordBytes:
		return fmt.Errorf("%w: password is longer than %d bytes", ErrInvalidRegistration, maxPasswordBytes)
	case !r.Role.Valid():
		return fmt.Errorf("%w: role must be %q or %q", ErrInvalidRegistration, models.RoleCompany, models.RoleCustomer)
	case r.Role == models.RoleCompany && strings.TrimSpace(r.CompanyName) == "":
		return fmt.Errorf("%w: company name is required", ErrInvalidRegistration)
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("%w: email: %v", ErrInvalidRegistration, err)
	}
	if r.Location != nil {
		if err := r.Location.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type Service struct {
	store    Store
	policy   LockoutPolicy
	log      *log.Entry
	now      func() time.Time
	hashCost int

	// serializes the read-check-write of registration and login bookkeeping
	mu sync.Mutex
}

func NewService(store Store, policy LockoutPolicy, logger *log.Entry) *Service {
	if policy.MaxAttempts <= 0 || policy.LockDuration <= 0 {
		policy = DefaultLockoutPolicy()
	}
	return &Service{store: store, policy: policy, log: logger, now: time.Now, hashCost: bcrypt.DefaultCost}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithHashCost(cost int) *Service {
	s.hashCost = cost
	return s
}

// Register creates a user and, for companies, the supplier profile located at
// the registration coordinate or the default one.
func (s *Service) Register(ctx context.Context, reg Registration) (models.User, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	if err := reg.validate(); err != nil {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.hashCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.UserByEmail(reg.Email); err == nil {
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, err
	}

	now := s.now()
	user := models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(reg.Name),
		Email:        reg.Email,
		PasswordHash: hash,
		Role:         reg.Role,
		Phone:        reg.Phone,
		Address:      reg.Address,
		Location:     reg.Location,
		RegisteredAt: now,
	}
	if reg.Role == models.RoleCompany {
		user.CompanyName = strings.TrimSpace(reg.CompanyName)
	}

	var supplier *models.Supplier
	if reg.Role == models.RoleCompany {
		supplier = &models.Supplier{
			ID:          uuid.NewString(),
			UserID:      user.ID,
			Name:        user.CompanyName,
			Address:     reg.Address,
			Location:    user.BuyerLocation(),
			Established: now.Format("2006"),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	if err := s.store.SaveAccount(ctx, user, supplier); err != nil {
		return models.User{}, fmt.Errorf("save account: %w", err)
	}

	s.log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")
	return user, nil
}

// Login checks credentials and applies the lockout policy. A lock that has
// expired clears the failed attempt count.
func (s *Service) Login(ctx context.Context, email, password string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.store.UserByEmail(strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}

	now := s.now()
	hadFailures := user.LoginAttempts != 0 || user.LockedUntil != nil
	if user.LockedUntil != nil {
		if now.Before(*user.LockedUntil) {
			return models.User{}, &LockedError{Remaining: user.LockedUntil.Sub(now)}
		}
		user.LockedUntil = nil
		user.LoginAttempts = 0
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		user.LoginAttempts++
		lockErr := error(ErrInvalidCredentials)
		if user.LoginAttempts >= s.policy.MaxAttempts {
			until := now.Add(s.policy.LockDuration)
			user.LockedUntil = &until
			lockErr = &LockedError{Remaining: s.policy.LockDuration}
			s.log.WithField("user_id", user.ID).Warn("Account locked after failed logins")
		}
		if err := s.store.SaveUser(ctx, user); err != nil {
			return models.User{}, err
		}
		return models.User{}, lockErr
	}

	if hadFailures {
		user.LoginAttempts = 0
		user.LockedUntil = nil
		if err := s.store.SaveUser(ctx, user); err != nil {
			return models.User{}, err
		}
	}
	return user, nil
}

// RemainingAttempts reports how many bad passwords user can still enter before a lock.
func (s *Service) RemainingAttempts(user models.User) int {
	left := s.policy.MaxAttempts - user.LoginAttempts
	if left < 0 {
		return 0
	}
	return left
}
