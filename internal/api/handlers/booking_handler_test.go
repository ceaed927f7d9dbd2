package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wisetreee/safe-haven/internal/api/handlers"
	"github.com/wisetreee/safe-haven/internal/api/middleware"
	"github.com/wisetreee/safe-haven/internal/models"
	"github.com/wisetreee/safe-haven/internal/services"
	"github.com/wisetreee/safe-haven/internal/store"
	"github.com/wisetreee/safe-haven/internal/tasks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser forces an authenticated user into the request context, standing in
// for the session middleware.
func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.ContextKeyUser, user)
		}
		c.Next()
	}
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestBookingHandler_CreateAnonymousReturnsAccount(t *testing.T) {
	mockBookings := new(MockBookingService)
	mockAccounts := new(MockAccountService)
	h := handlers.NewBookingHandler(mockBookings, mockAccounts, nil)

	r := gin.New()
	r.POST("/api/bookings", h.Create)

	booking := &models.Booking{ID: 1, BookingNumber: "BR-2026-1234", Status: models.BookingPending}
	creds := &services.GuestCredentials{Username: "id12345", Password: "mar4567"}
	mockBookings.On("Create", mock.Anything, mock.MatchedBy(func(in services.CreateBookingInput) bool {
		return in.HousingID == 3 && in.UserID == nil
	})).Return(booking, creds, nil)

	body := jsonBody(t, map[string]interface{}{
		"housingId": 3, "checkIn": "2026-09-01", "checkOut": "2026-09-05",
		"guestName": "Maria", "guestPhone": "+7 900 123-45-67", "guestCount": 2,
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/bookings", body))

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Booking models.Booking `json:"booking"`
		Account *struct {
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"account"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "BR-2026-1234", resp.Booking.BookingNumber)
	require.NotNil(t, resp.Account)
	assert.Equal(t, "id12345", resp.Account.Username)
	assert.Equal(t, "mar4567", resp.Account.Password)
	mockBookings.AssertExpectations(t)
}

func TestBookingHandler_CreateUsesSessionUser(t *testing.T) {
	mockBookings := new(MockBookingService)
	mockAccounts := new(MockAccountService)
	h := handlers.NewBookingHandler(mockBookings, mockAccounts, nil)
	user := &models.User{ID: 42, Role: models.RoleUser}

	r := gin.New()
	r.POST("/api/bookings", asUser(user), h.Create)

	booking := &models.Booking{ID: 1, UserID: &user.ID}
	mockBookings.On("Create", mock.Anything, mock.MatchedBy(func(in services.CreateBookingInput) bool {
		return in.UserID != nil && *in.UserID == 42
	})).Return(booking, nil, nil)

	body := jsonBody(t, map[string]interface{}{
		"housingId": 3, "checkIn": "a", "checkOut": "b",
		"guestName": "Maria", "guestPhone": "123", "guestCount": 1,
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/bookings", body))

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Account *services.GuestCredentials `json:"account"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Account, "no credentials when the caller already has an account")
	mockBookings.AssertExpectations(t)
}

func TestBookingHandler_CreateValidationError(t *testing.T) {
	mockBookings := new(MockBookingService)
	h := handlers.NewBookingHandler(mockBookings, new(MockAccountService), nil)

	r := gin.New()
	r.POST("/api/bookings", h.Create)

	mockBookings.On("Create", mock.Anything, mock.Anything).
		Return(nil, nil, services.ErrValidation)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/bookings", jsonBody(t, map[string]interface{}{})))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "message")
}

func TestBookingHandler_ConfirmEnqueuesEmail(t *testing.T) {
	mockBookings := new(MockBookingService)
	mockAccounts := new(MockAccountService)
	mockTasks := new(MockAsynqClient)
	h := handlers.NewBookingHandler(mockBookings, mockAccounts, mockTasks)
	staff := &models.User{ID: 1, Name: "Olga", Role: models.RoleStaff}

	r := gin.New()
	r.POST("/api/bookings/:id/confirm", asUser(staff), h.Confirm)

	ownerID := uint(7)
	booking := &models.Booking{
		ID: 5, UserID: &ownerID, BookingNumber: "BR-2026-1234",
		HousingName: "Harbor House", GuestName: "Maria", Status: models.BookingConfirmed,
	}
	mockBookings.On("Confirm", mock.Anything, uint(5), staff).Return(booking, nil)
	mockAccounts.On("FindByID", mock.Anything, ownerID).
		Return(&models.User{ID: ownerID, Email: "maria@example.com"}, nil)
	mockTasks.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		if task.Type() != tasks.TypeBookingStatusEmail {
			return false
		}
		var payload tasks.BookingStatusEmailPayload
		require.NoError(t, json.Unmarshal(task.Payload(), &payload))
		return payload.To == "maria@example.com" && payload.Status == "confirmed"
	}), mock.Anything).Return(&asynq.TaskInfo{}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/bookings/5/confirm", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	mockTasks.AssertExpectations(t)
}

func TestBookingHandler_ConfirmInvalidTransition(t *testing.T) {
	mockBookings := new(MockBookingService)
	h := handlers.NewBookingHandler(mockBookings, new(MockAccountService), nil)
	staff := &models.User{ID: 1, Role: models.RoleStaff}

	r := gin.New()
	r.POST("/api/bookings/:id/confirm", asUser(staff), h.Confirm)

	mockBookings.On("Confirm", mock.Anything, uint(5), staff).
		Return(nil, services.ErrInvalidTransition)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/bookings/5/confirm", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_Check(t *testing.T) {
	mockBookings := new(MockBookingService)
	h := handlers.NewBookingHandler(mockBookings, new(MockAccountService), nil)

	r := gin.New()
	r.GET("/api/bookings/check", h.Check)

	booking := &models.Booking{ID: 5, BookingNumber: "BR-2026-1234"}
	mockBookings.On("CheckStatus", mock.Anything, "BR-2026-1234", "123").Return(booking, nil)
	mockBookings.On("CheckStatus", mock.Anything, "BR-2026-1234", "456").Return(nil, store.ErrNotFound)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bookings/check?bookingNumber=BR-2026-1234&phone=123", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bookings/check?bookingNumber=BR-2026-1234&phone=456", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Missing params short-circuit before the service.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bookings/check?bookingNumber=BR-2026-1234", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_RejectPassesReason(t *testing.T) {
	mockBookings := new(MockBookingService)
	h := handlers.NewBookingHandler(mockBookings, new(MockAccountService), nil)
	staff := &models.User{ID: 1, Role: models.RoleStaff}

	r := gin.New()
	r.POST("/api/bookings/:id/reject", asUser(staff), h.Reject)

	booking := &models.Booking{ID: 5, Status: models.BookingCancelled}
	mockBookings.On("Reject", mock.Anything, uint(5), "housing full").Return(booking, nil)

	body := jsonBody(t, map[string]string{"reason": "housing full"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/bookings/5/reject", body))
	assert.Equal(t, http.StatusOK, w.Code)
	mockBookings.AssertExpectations(t)
}

func TestBookingHandler_BadID(t *testing.T) {
	h := handlers.NewBookingHandler(new(MockBookingService), new(MockAccountService), nil)

	r := gin.New()
	r.POST("/api/bookings/:id/cancel", h.Cancel)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/bookings/abc/cancel", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
