package models

// BookingStatus tracks a booking through its lifecycle.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking links a guest (optionally an account) to a housing unit for a stay.
// Housing name and location are snapshots taken at booking time, not live joins.
// Check-in/check-out are opaque date strings as supplied by the client.
type Booking struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	UserID        *uint         `gorm:"column:user_id" json:"userId"` // nil for anonymous bookings
	HousingID     uint          `gorm:"column:housing_id;not null" json:"housingId"`
	HousingName   string        `gorm:"column:housing_name;not null" json:"housingName"`
	Location      string        `gorm:"not null" json:"location"`
	CheckIn       string        `gorm:"column:check_in;not null" json:"checkIn"`
	CheckOut      string        `gorm:"column:check_out;not null" json:"checkOut"`
	BookingDate   string        `gorm:"column:booking_date;not null" json:"bookingDate"`
	BookingNumber string        `gorm:"column:booking_number;uniqueIndex;not null" json:"bookingNumber"`
	Status        BookingStatus `gorm:"type:varchar(20);not null" json:"status"`
	GuestName     string        `gorm:"column:guest_name;not null" json:"guestName"`
	GuestPhone    string        `gorm:"column:guest_phone;not null" json:"guestPhone"`
	GuestCount    int           `gorm:"column:guest_count;not null" json:"guestCount"`
	SpecialNeeds  string        `gorm:"column:special_needs" json:"specialNeeds,omitempty"`
}

// IsActive reports whether the booking still occupies capacity.
func (b *Booking) IsActive() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// CanTransition reports whether a booking may move from one status to another.
// The machine only moves forward: pending→confirmed, pending→cancelled,
// confirmed→cancelled. Cancelled is terminal.
func CanTransition(from, to BookingStatus) bool {
	switch from {
	case BookingPending:
		return to == BookingConfirmed || to == BookingCancelled
	case BookingConfirmed:
		return to == BookingCancelled
	default:
		return false
	}
}
