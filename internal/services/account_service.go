package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/wisetreee/safe-haven/internal/auth"
	"github.com/wisetreee/safe-haven/internal/db"
	"github.com/wisetreee/safe-haven/internal/models"
	"github.com/wisetreee/safe-haven/internal/store"
	"github.com/wisetreee/safe-haven/internal/utils"
)

// ErrUsernameTaken is returned when registering with a username that already exists.
var ErrUsernameTaken = errors.New("username already taken")

// ErrInvalidCredentials is returned when login fails, without revealing whether
// the username or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid username or password")

// IAccountService defines the interface for identity operations.
// This allows for easier mocking in tests.
type IAccountService interface {
	// Register creates an account. An empty role defaults to the regular user
	// role; the handler validates the value before it gets here.
	Register(ctx context.Context, username, password, name, phone string, role models.Role) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	FindByID(ctx context.Context, userID uint) (*models.User, error)
	// ProvisionGuest creates an account for an anonymous guest and returns the
	// user together with the generated plaintext password. The password is not
	// recoverable afterwards; only the bcrypt hash is stored.
	ProvisionGuest(ctx context.Context, name, phone string) (*models.User, string, error)
}

const guestUsernameMaxRetries = 5

type accountService struct {
	store store.Storage
}

// NewAccountService creates a new AccountService.
func NewAccountService(s store.Storage) IAccountService {
	return &accountService{store: s}
}

func (s *accountService) Register(ctx context.Context, username, password, name, phone string, role models.Role) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if role == "" {
		role = models.RoleUser
	}
	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Name:         name,
		Phone:        phone,
		Role:         role,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate verifies a username/password pair. When no user matches the
// literal username, the lookup falls back to phone-number matching (digits
// only) so guests can log in with the phone they booked with.
func (s *accountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up user %s: %w", username, err)
		}
		user, err = s.findByPhone(ctx, username)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrInvalidCredentials
			}
			return nil, err
		}
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *accountService) findByPhone(ctx context.Context, input string) (*models.User, error) {
	digits := utils.PhoneDigits(input)
	if digits == "" {
		return nil, store.ErrNotFound
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users for phone lookup: %w", err)
	}
	for i := range users {
		if utils.PhoneDigits(users[i].Phone) == digits {
			return &users[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *accountService) FindByID(ctx context.Context, userID uint) (*models.User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *accountService) ProvisionGuest(ctx context.Context, name, phone string) (*models.User, string, error) {
	password := utils.GuestPassword(name, phone)
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash guest password: %w", err)
	}

	user := &models.User{
		PasswordHash: hash,
		Name:         name,
		Phone:        phone,
		Role:         models.RoleUser,
	}
	// Regenerate the username on every attempt in case of a collision.
	op := func() error {
		user.Username = utils.GenerateGuestUsername()
		return s.store.CreateUser(ctx, user)
	}
	if err := db.WithRetries(op, guestUsernameMaxRetries, db.IsDuplicateError); err != nil {
		return nil, "", fmt.Errorf("failed to provision guest account: %w", err)
	}
	log.Printf("Provisioned guest account %s (user %d)", user.Username, user.ID)
	return user, password, nil
}
