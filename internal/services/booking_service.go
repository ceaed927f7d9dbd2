package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/wisetreee/safe-haven/internal/db"
	"github.com/wisetreee/safe-haven/internal/models"
	"github.com/wisetreee/safe-haven/internal/store"
	"github.com/wisetreee/safe-haven/internal/utils"
)

// ErrInvalidTransition is returned when a booking status change is not allowed
// from the booking's current status. The booking is left unchanged.
var ErrInvalidTransition = errors.New("invalid booking status transition")

// ErrHousingUnavailable is returned when a booking targets a housing whose
// effective availability is unavailable.
var ErrHousingUnavailable = errors.New("housing is not available for booking")

// ErrValidation wraps request-level validation failures.
var ErrValidation = errors.New("validation failed")

// CreateBookingInput carries everything needed to open a booking.
type CreateBookingInput struct {
	HousingID    uint
	CheckIn      string
	CheckOut     string
	GuestName    string
	GuestPhone   string
	GuestCount   int
	SpecialNeeds string
	// UserID is the owning account: the session user when authenticated, or an
	// explicit id supplied by the client right after registration. Nil means
	// an anonymous guest, for whom an account is auto-provisioned.
	UserID *uint
}

// GuestCredentials is returned exactly once, on the booking response that
// auto-provisioned the account. The plaintext password is not recoverable
// afterwards.
type GuestCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// IBookingService defines the interface for booking lifecycle operations.
type IBookingService interface {
	Create(ctx context.Context, input CreateBookingInput) (*models.Booking, *GuestCredentials, error)
	// ListForUser returns the caller's bookings, or every booking when the
	// caller is staff.
	ListForUser(ctx context.Context, user *models.User) ([]models.Booking, error)
	ListAll(ctx context.Context) ([]models.Booking, error)
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	Confirm(ctx context.Context, id uint, staff *models.User) (*models.Booking, error)
	Reject(ctx context.Context, id uint, reason string) (*models.Booking, error)
	Cancel(ctx context.Context, id uint) (*models.Booking, error)
	// CheckStatus is the unauthenticated lookup: both the booking number and
	// the phone must match exactly, otherwise store.ErrNotFound.
	CheckStatus(ctx context.Context, bookingNumber, phone string) (*models.Booking, error)
}

type bookingService struct {
	store            store.Storage
	accounts         IAccountService
	numberMaxRetries int
}

// NewBookingService creates a new BookingService.
func NewBookingService(s store.Storage, accounts IAccountService, numberMaxRetries int) IBookingService {
	if numberMaxRetries <= 0 {
		numberMaxRetries = db.DefaultMaxRetries
	}
	return &bookingService{store: s, accounts: accounts, numberMaxRetries: numberMaxRetries}
}

func (s *bookingService) Create(ctx context.Context, input CreateBookingInput) (*models.Booking, *GuestCredentials, error) {
	if err := validateBookingInput(input); err != nil {
		return nil, nil, err
	}

	housing, err := s.store.GetHousing(ctx, input.HousingID)
	if err != nil {
		return nil, nil, err
	}
	active, err := s.store.CountActiveBookings(ctx, housing.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count active bookings for housing %d: %w", housing.ID, err)
	}
	if housing.EffectiveAvailability(active) == models.AvailabilityUnavailable {
		return nil, nil, ErrHousingUnavailable
	}

	var credentials *GuestCredentials
	userID := input.UserID
	if userID == nil {
		guest, password, provErr := s.accounts.ProvisionGuest(ctx, input.GuestName, input.GuestPhone)
		if provErr != nil {
			return nil, nil, provErr
		}
		userID = &guest.ID
		credentials = &GuestCredentials{Username: guest.Username, Password: password}
	}

	booking := &models.Booking{
		UserID:       userID,
		HousingID:    housing.ID,
		HousingName:  housing.Name,
		Location:     housing.Location,
		CheckIn:      input.CheckIn,
		CheckOut:     input.CheckOut,
		BookingDate:  time.Now().Format("2006-01-02"),
		Status:       models.BookingPending,
		GuestName:    input.GuestName,
		GuestPhone:   input.GuestPhone,
		GuestCount:   input.GuestCount,
		SpecialNeeds: input.SpecialNeeds,
	}

	// Regenerate the number on every attempt; the unique index rejects
	// collisions and the retry picks a fresh one.
	op := func() error {
		booking.BookingNumber = utils.GenerateBookingNumber()
		return s.store.CreateBooking(ctx, booking)
	}
	if err := db.WithRetries(op, s.numberMaxRetries, db.IsDuplicateError); err != nil {
		return nil, nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.appendSystemMessage(ctx, booking.ID, models.RoleStaff, fmt.Sprintf(
		"Booking %s created for %s. We will review your request shortly.",
		booking.BookingNumber, booking.HousingName))

	log.Printf("Created booking %s (id %d) for housing %d", booking.BookingNumber, booking.ID, booking.HousingID)
	return booking, credentials, nil
}

func validateBookingInput(input CreateBookingInput) error {
	switch {
	case input.HousingID == 0:
		return fmt.Errorf("%w: housingId is required", ErrValidation)
	case input.CheckIn == "" || input.CheckOut == "":
		return fmt.Errorf("%w: checkIn and checkOut are required", ErrValidation)
	case input.GuestName == "":
		return fmt.Errorf("%w: guestName is required", ErrValidation)
	case input.GuestPhone == "":
		return fmt.Errorf("%w: guestPhone is required", ErrValidation)
	case input.GuestCount < 1:
		return fmt.Errorf("%w: guestCount must be at least 1", ErrValidation)
	}
	return nil
}

func (s *bookingService) ListForUser(ctx context.Context, user *models.User) ([]models.Booking, error) {
	if user.IsStaff() {
		return s.store.ListBookings(ctx)
	}
	return s.store.ListBookingsByUser(ctx, user.ID)
}

func (s *bookingService) ListAll(ctx context.Context) ([]models.Booking, error) {
	return s.store.ListBookings(ctx)
}

func (s *bookingService) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

func (s *bookingService) Confirm(ctx context.Context, id uint, staff *models.User) (*models.Booking, error) {
	booking, err := s.transition(ctx, id, models.BookingConfirmed)
	if err != nil {
		return nil, err
	}
	s.appendSystemMessage(ctx, booking.ID, models.RoleStaff, fmt.Sprintf(
		"Booking %s confirmed by %s.", booking.BookingNumber, staff.Name))
	return booking, nil
}

func (s *bookingService) Reject(ctx context.Context, id uint, reason string) (*models.Booking, error) {
	booking, err := s.transition(ctx, id, models.BookingCancelled)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("Booking %s was rejected.", booking.BookingNumber)
	if reason != "" {
		text = fmt.Sprintf("Booking %s was rejected: %s", booking.BookingNumber, reason)
	}
	s.appendSystemMessage(ctx, booking.ID, models.RoleStaff, text)
	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, id uint) (*models.Booking, error) {
	booking, err := s.transition(ctx, id, models.BookingCancelled)
	if err != nil {
		return nil, err
	}
	// Cancellation is the guest's action, so the notice lands on the staff
	// side of the thread.
	s.appendSystemMessage(ctx, booking.ID, models.RoleUser, fmt.Sprintf(
		"Booking %s was cancelled.", booking.BookingNumber))
	return booking, nil
}

// transition validates the status change against the current booking state
// before writing. On success the returned booking carries the new status.
func (s *bookingService) transition(ctx context.Context, id uint, to models.BookingStatus) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(booking.Status, to) {
		return nil, fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, booking.Status, to)
	}
	if err := s.store.UpdateBookingStatus(ctx, id, to); err != nil {
		return nil, fmt.Errorf("failed to update booking %d status: %w", id, err)
	}
	booking.Status = to
	return booking, nil
}

func (s *bookingService) CheckStatus(ctx context.Context, bookingNumber, phone string) (*models.Booking, error) {
	booking, err := s.store.GetBookingByNumber(ctx, bookingNumber)
	if err != nil {
		return nil, err
	}
	if phone == "" || booking.GuestPhone != phone {
		return nil, store.ErrNotFound
	}
	return booking, nil
}

// System messages are best-effort; a booking transition never fails because
// the chat append did. The acting role decides whose poll marks the message
// read: staff actions notify the guest, guest actions notify staff.
func (s *bookingService) appendSystemMessage(ctx context.Context, bookingID uint, actingRole models.Role, content string) {
	msg := &models.Message{
		BookingID:  bookingID,
		SenderID:   models.SystemSenderID,
		SenderName: "System",
		SenderRole: actingRole,
		Content:    content,
		Timestamp:  time.Now(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		log.Printf("ERROR appending system message to booking %d: %v", bookingID, err)
	}
}
