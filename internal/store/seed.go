package store

import (
	"context"
	"fmt"

	"github.com/wisetreee/safe-haven/internal/auth"
	"github.com/wisetreee/safe-haven/internal/models"
)

// Seed loads the demo dataset (a staff account and a few housing units) into
// an empty store. Populated stores are left untouched. The staff credentials
// are for demo environments only.
func Seed(ctx context.Context, s Storage) error {
	housings, err := s.ListHousings(ctx)
	if err != nil {
		return fmt.Errorf("checking for existing housings: %w", err)
	}
	users, err := s.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("checking for existing users: %w", err)
	}
	if len(housings) > 0 || len(users) > 0 {
		return nil
	}

	staffHash, err := auth.HashPassword("password123")
	if err != nil {
		return err
	}
	staff := &models.User{
		Username:     "staff",
		PasswordHash: staffHash,
		Name:         "Support Staff",
		Role:         models.RoleStaff,
		Email:        "staff@safehaven.example.com",
	}
	if err := s.CreateUser(ctx, staff); err != nil {
		return fmt.Errorf("seeding staff user: %w", err)
	}

	for _, housing := range sampleHousings() {
		h := housing
		if err := s.CreateHousing(ctx, &h); err != nil {
			return fmt.Errorf("seeding housing %q: %w", h.Name, err)
		}
	}
	return nil
}

func sampleHousings() []models.Housing {
	return []models.Housing{
		{
			Name:          "Safe apartment downtown",
			Description:   "A secure apartment in a quiet central neighborhood with round-the-clock security. Fully equipped kitchen, washing machine and internet access. A school, a kindergarten and shops are nearby. Suitable for a family with children.",
			ImageURL:      "https://images.unsplash.com/photo-1513694203232-719a280e022f?auto=format&fit=crop&w=500&h=300",
			Images:        jsonStringList("https://images.unsplash.com/photo-1513694203232-719a280e022f?auto=format&fit=crop&w=500&h=300"),
			Location:      "Central district",
			Latitude:      55.751244,
			Longitude:     37.618423,
			Distance:      2,
			Rooms:         2,
			Capacity:      3,
			Availability:  models.AvailabilityAvailable,
			AvailableFrom: "today",
			Amenities:     jsonStringList("wifi", "kitchen", "bathroom", "washer", "security", "childFriendly"),
			Support: jsonStringList(
				"Social worker (9:00 to 18:00)",
				"Psychological help (on request)",
				"Legal counselling (Tuesday, Thursday)",
			),
		},
		{
			Name:          "Room at the crisis center",
			Description:   "A comfortable room at a women's crisis center with shared kitchen and bathroom. Psychologists and social workers support the residents. There is a children's playroom and a laundry.",
			ImageURL:      "https://images.unsplash.com/photo-1508253578933-20b529302151?auto=format&fit=crop&w=500&h=300",
			Images:        jsonStringList("https://images.unsplash.com/photo-1508253578933-20b529302151?auto=format&fit=crop&w=500&h=300"),
			Location:      "Eastern district",
			Latitude:      55.758468,
			Longitude:     37.751235,
			Distance:      4,
			Rooms:         1,
			Capacity:      2,
			Availability:  models.AvailabilityAvailable,
			AvailableFrom: "today",
			Amenities:     jsonStringList("wifi", "kitchen", "bathroom", "washer", "security"),
			Support: jsonStringList(
				"Psychologist (daily 10:00 to 19:00)",
				"Lawyer (Monday, Wednesday, Friday)",
				"Support groups (Tuesday, Thursday)",
			),
		},
		{
			Name:          "Hope family shelter",
			Description:   "A shelter for women with children affected by domestic violence. A private room with shared kitchen and living room. Psychologists, lawyers and social workers on site; educational activities for children.",
			ImageURL:      "https://images.unsplash.com/photo-1564069114553-7215e1ff1890?auto=format&fit=crop&w=500&h=300",
			Images:        jsonStringList("https://images.unsplash.com/photo-1564069114553-7215e1ff1890?auto=format&fit=crop&w=500&h=300"),
			Location:      "Western district",
			Latitude:      55.749792,
			Longitude:     37.543041,
			Distance:      3,
			Rooms:         1,
			Capacity:      4,
			Availability:  models.AvailabilityLimited,
			AvailableFrom: "tomorrow",
			Amenities:     jsonStringList("wifi", "kitchen", "bathroom", "washer", "security", "childFriendly"),
			Support: jsonStringList(
				"Social worker (around the clock)",
				"Psychologist for children and adults",
				"Legal assistance",
				"Employment support",
			),
		},
		{
			Name:          "Secured residence apartment",
			Description:   "A two-room apartment in a guarded residential complex, fully furnished and equipped. Next to a park and a playground, with internet access.",
			ImageURL:      "https://images.unsplash.com/photo-1522708323590-d24dbb6b0267?auto=format&fit=crop&w=500&h=300",
			Images:        jsonStringList("https://images.unsplash.com/photo-1522708323590-d24dbb6b0267?auto=format&fit=crop&w=500&h=300"),
			Location:      "Southern district",
			Latitude:      55.736290,
			Longitude:     37.633715,
			Distance:      2,
			Rooms:         2,
			Capacity:      4,
			Availability:  models.AvailabilityUnavailable,
			AvailableFrom: "in 3 days",
			Amenities:     jsonStringList("wifi", "kitchen", "bathroom", "washer", "security", "childFriendly"),
			Support: jsonStringList(
				"Remote psychological support",
				"Legal counselling by phone",
				"Online mutual aid groups",
			),
		},
	}
}
