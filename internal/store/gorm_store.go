package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wisetreee/safe-haven/internal/models"
)

// GormStore implements Storage on top of a relational database via GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open GORM handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// translate maps GORM errors onto the storage sentinel errors so callers do
// not depend on the driver.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// --- Users ---

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

// --- Housings ---

func (s *GormStore) ListHousings(ctx context.Context) ([]models.Housing, error) {
	var housings []models.Housing
	if err := s.db.WithContext(ctx).Order("id").Find(&housings).Error; err != nil {
		return nil, fmt.Errorf("listing housings: %w", err)
	}
	return housings, nil
}

func (s *GormStore) GetHousing(ctx context.Context, id uint) (*models.Housing, error) {
	var housing models.Housing
	if err := s.db.WithContext(ctx).First(&housing, id).Error; err != nil {
		return nil, translate(err)
	}
	return &housing, nil
}

func (s *GormStore) CreateHousing(ctx context.Context, housing *models.Housing) error {
	return translate(s.db.WithContext(ctx).Create(housing).Error)
}

func (s *GormStore) UpdateHousingAvailability(ctx context.Context, id uint, availability models.Availability) error {
	res := s.db.WithContext(ctx).Model(&models.Housing{}).
		Where("id = ?", id).
		Update("availability", availability)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddHousingImage appends an image key to the housing's images array. The
// column is JSON, so the row is read, modified and written back inside a
// transaction with a row lock.
func (s *GormStore) AddHousingImage(ctx context.Context, id uint, imageKey string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var housing models.Housing
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&housing, id).Error
		if err != nil {
			return translate(err)
		}
		images, err := appendJSONString(housing.Images, imageKey)
		if err != nil {
			return fmt.Errorf("updating images for housing %d: %w", id, err)
		}
		return tx.Model(&housing).Update("images", images).Error
	})
}

// --- Bookings ---

func (s *GormStore) ListBookings(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := s.db.WithContext(ctx).Order("id desc").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	return bookings, nil
}

func (s *GormStore) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (s *GormStore) GetBookingByNumber(ctx context.Context, bookingNumber string) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).Where("booking_number = ?", bookingNumber).First(&booking).Error
	if err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (s *GormStore) ListBookingsByUser(ctx context.Context, userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id desc").Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("listing bookings for user %d: %w", userID, err)
	}
	return bookings, nil
}

func (s *GormStore) CountActiveBookings(ctx context.Context, housingID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("housing_id = ? AND status IN ?", housingID,
			[]models.BookingStatus{models.BookingPending, models.BookingConfirmed}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting active bookings for housing %d: %w", housingID, err)
	}
	return count, nil
}

func (s *GormStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	return translate(s.db.WithContext(ctx).Create(booking).Error)
}

func (s *GormStore) UpdateBookingStatus(ctx context.Context, id uint, status models.BookingStatus) error {
	res := s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Messages ---

func (s *GormStore) ListMessages(ctx context.Context, bookingID uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("timestamp asc, id asc").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("listing messages for booking %d: %w", bookingID, err)
	}
	return messages, nil
}

func (s *GormStore) CreateMessage(ctx context.Context, message *models.Message) error {
	return translate(s.db.WithContext(ctx).Create(message).Error)
}

func (s *GormStore) MarkMessagesRead(ctx context.Context, bookingID uint, viewerRole models.Role) error {
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("booking_id = ? AND sender_role <> ?", bookingID, viewerRole).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("marking messages read for booking %d: %w", bookingID, err)
	}
	return nil
}
