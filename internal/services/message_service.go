package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wisetreee/safe-haven/internal/models"
	"github.com/wisetreee/safe-haven/internal/store"
)

// ErrEmptyMessage is returned when a chat message has no content.
var ErrEmptyMessage = errors.New("message content must not be empty")

// IMessageService defines the interface for per-booking chat operations.
type IMessageService interface {
	// List returns the booking's messages ordered by timestamp ascending and,
	// as a side effect, marks the opposite role's messages as read.
	List(ctx context.Context, bookingID uint, viewerRole models.Role) ([]models.Message, error)
	// Send appends a message. Sender identity comes from the session user when
	// present, else from the supplied guest name with the zero sender id.
	Send(ctx context.Context, bookingID uint, sender *models.User, guestName, content string) (*models.Message, error)
}

type messageService struct {
	store store.Storage
}

// NewMessageService creates a new MessageService.
func NewMessageService(s store.Storage) IMessageService {
	return &messageService{store: s}
}

func (s *messageService) List(ctx context.Context, bookingID uint, viewerRole models.Role) ([]models.Message, error) {
	if _, err := s.store.GetBooking(ctx, bookingID); err != nil {
		return nil, err
	}
	if err := s.store.MarkMessagesRead(ctx, bookingID, viewerRole); err != nil {
		return nil, fmt.Errorf("failed to mark messages read for booking %d: %w", bookingID, err)
	}
	return s.store.ListMessages(ctx, bookingID)
}

func (s *messageService) Send(ctx context.Context, bookingID uint, sender *models.User, guestName, content string) (*models.Message, error) {
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if _, err := s.store.GetBooking(ctx, bookingID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		BookingID:  bookingID,
		SenderID:   models.SystemSenderID,
		SenderName: guestName,
		SenderRole: models.RoleUser,
		Content:    content,
		Timestamp:  time.Now(),
	}
	if sender != nil {
		msg.SenderID = sender.ID
		msg.SenderName = sender.Name
		msg.SenderRole = sender.Role
	}
	if msg.SenderName == "" {
		msg.SenderName = "Guest"
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store message for booking %d: %w", bookingID, err)
	}
	return msg, nil
}
