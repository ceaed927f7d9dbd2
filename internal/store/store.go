package store

import (
	"context"
	"errors"

	"github.com/wisetreee/safe-haven/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint
// (username, booking number).
var ErrDuplicate = errors.New("duplicate record")

// Storage is the persistence boundary of the application. Two implementations
// exist: GormStore (postgres) and MemStore (in-memory, for tests and demo mode
// without a live database).
type Storage interface {
	// Users
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, user *models.User) error

	// Housings
	ListHousings(ctx context.Context) ([]models.Housing, error)
	GetHousing(ctx context.Context, id uint) (*models.Housing, error)
	CreateHousing(ctx context.Context, housing *models.Housing) error
	UpdateHousingAvailability(ctx context.Context, id uint, availability models.Availability) error
	AddHousingImage(ctx context.Context, id uint, imageKey string) error

	// Bookings
	ListBookings(ctx context.Context) ([]models.Booking, error)
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	GetBookingByNumber(ctx context.Context, bookingNumber string) (*models.Booking, error)
	ListBookingsByUser(ctx context.Context, userID uint) ([]models.Booking, error)
	CountActiveBookings(ctx context.Context, housingID uint) (int64, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, id uint, status models.BookingStatus) error

	// Messages
	ListMessages(ctx context.Context, bookingID uint) ([]models.Message, error)
	CreateMessage(ctx context.Context, message *models.Message) error
	// MarkMessagesRead marks every message in the booking thread whose sender
	// role differs from viewerRole as read.
	MarkMessagesRead(ctx context.Context, bookingID uint, viewerRole models.Role) error
}
