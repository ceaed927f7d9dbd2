package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisetreee/safe-haven/internal/models"
	"github.com/wisetreee/safe-haven/internal/store"
)

func messageFixture(t *testing.T) (store.Storage, IMessageService, *models.Booking) {
	t.Helper()
	s, _, bookings, housing := newBookingFixture(t)
	booking, _, err := bookings.Create(context.Background(), validInput(housing.ID))
	require.NoError(t, err)
	return s, NewMessageService(s), booking
}

func TestMessageService_SendAsUserAndGuest(t *testing.T) {
	ctx := context.Background()
	_, msgs, booking := messageFixture(t)
	user := &models.User{ID: 7, Name: "Maria", Role: models.RoleUser}

	fromUser, err := msgs.Send(ctx, booking.ID, user, "", "Is the room still free?")
	require.NoError(t, err)
	assert.Equal(t, user.ID, fromUser.SenderID)
	assert.Equal(t, "Maria", fromUser.SenderName)
	assert.Equal(t, models.RoleUser, fromUser.SenderRole)

	fromGuest, err := msgs.Send(ctx, booking.ID, nil, "Pavel", "Arriving late tonight")
	require.NoError(t, err)
	assert.Equal(t, models.SystemSenderID, fromGuest.SenderID)
	assert.Equal(t, "Pavel", fromGuest.SenderName)

	anon, err := msgs.Send(ctx, booking.ID, nil, "", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Guest", anon.SenderName)
}

func TestMessageService_SendValidation(t *testing.T) {
	ctx := context.Background()
	_, msgs, booking := messageFixture(t)

	_, err := msgs.Send(ctx, booking.ID, nil, "Pavel", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = msgs.Send(ctx, 999, nil, "Pavel", "hi")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMessageService_ListMarksOppositeRoleRead(t *testing.T) {
	ctx := context.Background()
	_, msgs, booking := messageFixture(t)
	user := &models.User{ID: 7, Name: "Maria", Role: models.RoleUser}
	staff := &models.User{ID: 8, Name: "Olga", Role: models.RoleStaff}

	_, err := msgs.Send(ctx, booking.ID, user, "", "Is the room still free?")
	require.NoError(t, err)
	_, err = msgs.Send(ctx, booking.ID, staff, "", "Yes, we are holding it for you")
	require.NoError(t, err)

	// Staff polls the thread: user messages flip to read, staff's own do not.
	list, err := msgs.List(ctx, booking.ID, models.RoleStaff)
	require.NoError(t, err)
	for _, m := range list {
		if m.SenderRole == models.RoleUser {
			assert.True(t, m.IsRead, "message %d from user should be read", m.ID)
		}
		if m.SenderRole == models.RoleStaff && m.SenderID != models.SystemSenderID {
			assert.False(t, m.IsRead, "staff message %d should stay unread", m.ID)
		}
	}
}

func TestMessageService_ListOrderedByTimestamp(t *testing.T) {
	ctx := context.Background()
	_, msgs, booking := messageFixture(t)
	user := &models.User{ID: 7, Name: "Maria", Role: models.RoleUser}

	for _, text := range []string{"first", "second", "third"} {
		_, err := msgs.Send(ctx, booking.ID, user, "", text)
		require.NoError(t, err)
	}

	list, err := msgs.List(ctx, booking.ID, models.RoleUser)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(list), 3)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].Timestamp.Before(list[i-1].Timestamp))
	}

	_, err = msgs.List(ctx, 999, models.RoleUser)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
