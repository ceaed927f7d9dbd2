package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wisetreee/safe-haven/internal/models"
)

// MemStore implements Storage with plain maps. It backs the test suite and
// the demo mode that runs without a live database.
type MemStore struct {
	mu sync.RWMutex

	users    map[uint]*models.User
	housings map[uint]*models.Housing
	bookings map[uint]*models.Booking
	messages map[uint]*models.Message

	nextUserID    uint
	nextHousingID uint
	nextBookingID uint
	nextMessageID uint
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		users:         make(map[uint]*models.User),
		housings:      make(map[uint]*models.Housing),
		bookings:      make(map[uint]*models.Booking),
		messages:      make(map[uint]*models.Message),
		nextUserID:    1,
		nextHousingID: 1,
		nextBookingID: 1,
		nextMessageID: 1,
	}
}

// --- Users ---

func (s *MemStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *MemStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, *user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *MemStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return ErrDuplicate
		}
	}
	user.ID = s.nextUserID
	s.nextUserID++
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

// --- Housings ---

func (s *MemStore) ListHousings(ctx context.Context) ([]models.Housing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	housings := make([]models.Housing, 0, len(s.housings))
	for _, housing := range s.housings {
		housings = append(housings, *housing)
	}
	sort.Slice(housings, func(i, j int) bool { return housings[i].ID < housings[j].ID })
	return housings, nil
}

func (s *MemStore) GetHousing(ctx context.Context, id uint) (*models.Housing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	housing, ok := s.housings[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *housing
	return &copied, nil
}

func (s *MemStore) CreateHousing(ctx context.Context, housing *models.Housing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	housing.ID = s.nextHousingID
	s.nextHousingID++
	copied := *housing
	s.housings[housing.ID] = &copied
	return nil
}

func (s *MemStore) UpdateHousingAvailability(ctx context.Context, id uint, availability models.Availability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	housing, ok := s.housings[id]
	if !ok {
		return ErrNotFound
	}
	housing.Availability = availability
	return nil
}

func (s *MemStore) AddHousingImage(ctx context.Context, id uint, imageKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	housing, ok := s.housings[id]
	if !ok {
		return ErrNotFound
	}
	images, err := appendJSONString(housing.Images, imageKey)
	if err != nil {
		return err
	}
	housing.Images = images
	return nil
}

// --- Bookings ---

func (s *MemStore) ListBookings(ctx context.Context) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bookings := make([]models.Booking, 0, len(s.bookings))
	for _, booking := range s.bookings {
		bookings = append(bookings, *booking)
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID > bookings[j].ID })
	return bookings, nil
}

func (s *MemStore) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	booking, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *booking
	return &copied, nil
}

func (s *MemStore) GetBookingByNumber(ctx context.Context, bookingNumber string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, booking := range s.bookings {
		if booking.BookingNumber == bookingNumber {
			copied := *booking
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) ListBookingsByUser(ctx context.Context, userID uint) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var bookings []models.Booking
	for _, booking := range s.bookings {
		if booking.UserID != nil && *booking.UserID == userID {
			bookings = append(bookings, *booking)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID > bookings[j].ID })
	return bookings, nil
}

func (s *MemStore) CountActiveBookings(ctx context.Context, housingID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, booking := range s.bookings {
		if booking.HousingID == housingID && booking.IsActive() {
			count++
		}
	}
	return count, nil
}

func (s *MemStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bookings {
		if existing.BookingNumber == booking.BookingNumber {
			return ErrDuplicate
		}
	}
	booking.ID = s.nextBookingID
	s.nextBookingID++
	copied := *booking
	s.bookings[booking.ID] = &copied
	return nil
}

func (s *MemStore) UpdateBookingStatus(ctx context.Context, id uint, status models.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	booking, ok := s.bookings[id]
	if !ok {
		return ErrNotFound
	}
	booking.Status = status
	return nil
}

// --- Messages ---

func (s *MemStore) ListMessages(ctx context.Context, bookingID uint) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var messages []models.Message
	for _, message := range s.messages {
		if message.BookingID == bookingID {
			messages = append(messages, *message)
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages, nil
}

func (s *MemStore) CreateMessage(ctx context.Context, message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}
	message.ID = s.nextMessageID
	s.nextMessageID++
	copied := *message
	s.messages[message.ID] = &copied
	return nil
}

func (s *MemStore) MarkMessagesRead(ctx context.Context, bookingID uint, viewerRole models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, message := range s.messages {
		if message.BookingID == bookingID && message.SenderRole != viewerRole {
			message.IsRead = true
		}
	}
	return nil
}
