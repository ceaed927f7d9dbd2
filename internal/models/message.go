package models

import "time"

// SystemSenderID marks messages appended by the system (status transitions)
// and messages from anonymous guests.
const SystemSenderID uint = 0

// Message is one append-only entry in a booking's chat thread. Messages are
// never mutated after creation except for the IsRead flag, which is scoped to
// the recipient role.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BookingID  uint      `gorm:"column:booking_id;index;not null" json:"bookingId"`
	SenderID   uint      `gorm:"column:sender_id;not null;default:0" json:"senderId"`
	SenderName string    `gorm:"column:sender_name;not null" json:"senderName"`
	SenderRole Role      `gorm:"column:sender_role;type:varchar(20);not null" json:"senderRole"`
	Content    string    `gorm:"not null" json:"content"`
	Timestamp  time.Time `gorm:"not null" json:"timestamp"`
	IsRead     bool      `gorm:"column:is_read;not null;default:false" json:"isRead"`
}
