package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisetreee/safe-haven/internal/api"
	"github.com/wisetreee/safe-haven/internal/auth"
	"github.com/wisetreee/safe-haven/internal/config"
	"github.com/wisetreee/safe-haven/internal/models"
	"github.com/wisetreee/safe-haven/internal/session"
	"github.com/wisetreee/safe-haven/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router  *gin.Engine
	store   store.Storage
	cookies []*http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		SessionCookieName:       "sh_session",
		SessionTTL:              time.Hour,
		BookingNumberMaxRetries: 5,
		RateLimitBucketSize:     1000,
		RateLimitRefillRate:     1000,
	}
	s := store.NewMemStore()
	sessions := session.NewMemoryManager(cfg.SessionTTL)
	return &testServer{
		router: api.SetupRouter(cfg, s, sessions, nil, nil),
		store:  s,
	}
}

// do sends a request carrying the cookies collected so far and keeps any
// cookies the response sets, mimicking a browser.
func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range ts.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		ts.setCookie(c)
	}
	return w
}

func (ts *testServer) setCookie(c *http.Cookie) {
	for i, existing := range ts.cookies {
		if existing.Name == c.Name {
			if c.MaxAge < 0 {
				ts.cookies = append(ts.cookies[:i], ts.cookies[i+1:]...)
			} else {
				ts.cookies[i] = c
			}
			return
		}
	}
	if c.MaxAge >= 0 {
		ts.cookies = append(ts.cookies, c)
	}
}

func (ts *testServer) addHousing(t *testing.T, capacity int) *models.Housing {
	t.Helper()
	h := &models.Housing{
		Name:         "Harbor House",
		Description:  "Shelter near the harbor",
		Location:     "12 Harbor St",
		Rooms:        3,
		Capacity:     capacity,
		Availability: models.AvailabilityAvailable,
	}
	require.NoError(t, ts.store.CreateHousing(context.Background(), h))
	return h
}

func (ts *testServer) addStaff(t *testing.T) {
	t.Helper()
	hash, err := auth.HashPassword("staffpw")
	require.NoError(t, err)
	require.NoError(t, ts.store.CreateUser(context.Background(), &models.User{
		Username: "staff", PasswordHash: hash, Name: "Olga", Role: models.RoleStaff,
	}))
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "id12345", "password": "pass123", "name": "Maria", "phone": "123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// The register response establishes a session.
	w = ts.do(t, http.MethodGet, "/api/auth/current-user", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	decode(t, w, &me)
	assert.Equal(t, "id12345", me.Username)

	// Fresh login with the same credentials also works.
	w = ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "id12345", "password": "pass123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/auth/current-user", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAnonymousBookingProvisionsWorkingAccount(t *testing.T) {
	ts := newTestServer(t)
	housing := ts.addHousing(t, 5)

	w := ts.do(t, http.MethodPost, "/api/bookings", map[string]interface{}{
		"housingId": housing.ID, "checkIn": "2026-09-01", "checkOut": "2026-09-10",
		"guestName": "Maria", "guestPhone": "+7 900 123-45-67", "guestCount": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Booking models.Booking `json:"booking"`
		Account *struct {
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"account"`
	}
	decode(t, w, &resp)
	require.NotNil(t, resp.Account, "anonymous booking must return generated credentials")
	assert.Regexp(t, `^BR-\d{4}-\d{4}$`, resp.Booking.BookingNumber)

	// The one-time credentials authenticate.
	w = ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": resp.Account.Username, "password": resp.Account.Password,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// And the booking shows up under the provisioned account.
	w = ts.do(t, http.MethodGet, "/api/bookings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []models.Booking
	decode(t, w, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, resp.Booking.ID, mine[0].ID)
}

func TestStaffGate(t *testing.T) {
	ts := newTestServer(t)
	ts.addStaff(t)

	// Unauthenticated: 401.
	w := ts.do(t, http.MethodGet, "/api/staff/bookings", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Regular user: 403.
	w = ts.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "maria", "password": "pw", "name": "Maria",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w = ts.do(t, http.MethodGet, "/api/staff/bookings", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Staff: 200.
	w = ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "staff", "password": "staffpw",
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, "/api/staff/bookings", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterStaffRoleUnlocksStaffEndpoints(t *testing.T) {
	ts := newTestServer(t)

	// A fresh deployment creates its staff accounts through register.
	w := ts.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "olga", "password": "staffpw", "name": "Olga", "role": "staff",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.User
	decode(t, w, &created)
	assert.Equal(t, models.RoleStaff, created.Role)

	w = ts.do(t, http.MethodGet, "/api/staff/bookings", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Roles outside the known set are rejected.
	w = ts.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "eve", "password": "pw", "name": "Eve", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPhotoRoutesDisabledWithoutStorage(t *testing.T) {
	ts := newTestServer(t)
	housing := ts.addHousing(t, 2)

	// No object storage wired in, so the photo endpoints are not registered
	// even for staff.
	path := fmt.Sprintf("/api/staff/housings/%d/photos", housing.ID)
	w := ts.do(t, http.MethodPost, path, map[string]string{"fileName": "front.jpg"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, path+"/attach", map[string]string{"key": "uploads/front.jpg"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingTriageFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.addStaff(t)
	housing := ts.addHousing(t, 2)

	// Guest books anonymously.
	w := ts.do(t, http.MethodPost, "/api/bookings", map[string]interface{}{
		"housingId": housing.ID, "checkIn": "2026-09-01", "checkOut": "2026-09-10",
		"guestName": "Maria", "guestPhone": "+7 900 123-45-67", "guestCount": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Booking models.Booking `json:"booking"`
	}
	decode(t, w, &created)

	// The housing now reads limited.
	w = ts.do(t, http.MethodGet, "/api/housings/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var h models.Housing
	decode(t, w, &h)
	assert.Equal(t, models.AvailabilityLimited, h.Availability)

	// Guest checks status without a session.
	phone := url.QueryEscape(created.Booking.GuestPhone)
	w = ts.do(t, http.MethodGet,
		"/api/bookings/check?bookingNumber="+created.Booking.BookingNumber+"&phone="+phone, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Staff confirms.
	w = ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "staff", "password": "staffpw",
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodPost, "/api/bookings/1/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var confirmed models.Booking
	decode(t, w, &confirmed)
	assert.Equal(t, models.BookingConfirmed, confirmed.Status)

	// Confirming again is an invalid transition.
	w = ts.do(t, http.MethodPost, "/api/bookings/1/confirm", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The thread carries system messages for creation and confirmation.
	w = ts.do(t, http.MethodGet, "/api/bookings/1/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs []models.Message
	decode(t, w, &msgs)
	require.Len(t, msgs, 2)

	// Cancelling releases the slot.
	w = ts.do(t, http.MethodPost, "/api/bookings/1/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, "/api/housings/1", nil)
	decode(t, w, &h)
	assert.Equal(t, models.AvailabilityAvailable, h.Availability)
}

func TestChatRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	housing := ts.addHousing(t, 5)

	w := ts.do(t, http.MethodPost, "/api/bookings", map[string]interface{}{
		"housingId": housing.ID, "checkIn": "2026-09-01", "checkOut": "2026-09-10",
		"guestName": "Maria", "guestPhone": "123", "guestCount": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Guest sends a message without a session.
	w = ts.do(t, http.MethodPost, "/api/bookings/1/messages", map[string]string{
		"content": "Arriving tonight", "guestName": "Maria",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var msg models.Message
	decode(t, w, &msg)
	assert.Equal(t, "Maria", msg.SenderName)
	assert.Equal(t, models.RoleUser, msg.SenderRole)

	// Polling returns the thread in order.
	w = ts.do(t, http.MethodGet, "/api/bookings/1/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs []models.Message
	decode(t, w, &msgs)
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, "Arriving tonight", msgs[len(msgs)-1].Content)
}
