package models

import (
	"gorm.io/datatypes"
)

// Availability is the coarse per-housing indicator shown to guests.
// The stored value is the staff-maintained base flag; what clients see is
// derived from it and the number of active bookings (see EffectiveAvailability).
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityLimited     Availability = "limited"
	AvailabilityUnavailable Availability = "unavailable"
)

// Housing is a bookable unit. Mostly static reference data maintained by staff.
type Housing struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"not null" json:"name"`
	Description   string         `gorm:"not null" json:"description"`
	ImageURL      string         `gorm:"column:image_url" json:"imageUrl"`
	Images        datatypes.JSON `json:"images,omitempty"`
	Location      string         `gorm:"not null" json:"location"`
	Latitude      float64        `json:"latitude"`
	Longitude     float64        `json:"longitude"`
	Distance      float64        `gorm:"default:5" json:"distance"` // km, advisory
	Rooms         int            `gorm:"not null" json:"rooms"`
	Capacity      int            `gorm:"not null" json:"capacity"`
	Availability  Availability   `gorm:"type:varchar(20);not null" json:"availability"`
	AvailableFrom string         `gorm:"column:available_from" json:"availableFrom"`
	Amenities     datatypes.JSON `json:"amenities,omitempty"`
	Support       datatypes.JSON `json:"support,omitempty"`
}

// EffectiveAvailability derives the availability shown to clients from the
// stored base flag and the count of active (pending or confirmed) bookings.
// A staff-set "unavailable" always wins; otherwise the booking load against
// declared capacity decides. With no active bookings the base flag shows
// through unchanged.
func (h *Housing) EffectiveAvailability(activeBookings int64) Availability {
	if h.Availability == AvailabilityUnavailable {
		return AvailabilityUnavailable
	}
	if h.Capacity > 0 && activeBookings >= int64(h.Capacity) {
		return AvailabilityUnavailable
	}
	if activeBookings > 0 {
		return AvailabilityLimited
	}
	return h.Availability
}
