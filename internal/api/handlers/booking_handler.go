package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/wisetreee/safe-haven/internal/api/middleware"
	"github.com/wisetreee/safe-haven/internal/models"
	"github.com/wisetreee/safe-haven/internal/services"
	"github.com/wisetreee/safe-haven/internal/tasks"
)

// BookingHandler serves the booking lifecycle endpoints.
type BookingHandler struct {
	bookings   services.IBookingService
	accounts   services.IAccountService
	taskClient IAsynqClient
}

func NewBookingHandler(bookings services.IBookingService, accounts services.IAccountService, taskClient IAsynqClient) *BookingHandler {
	return &BookingHandler{bookings: bookings, accounts: accounts, taskClient: taskClient}
}

type createBookingRequest struct {
	HousingID    uint   `json:"housingId"`
	CheckIn      string `json:"checkIn"`
	CheckOut     string `json:"checkOut"`
	GuestName    string `json:"guestName"`
	GuestPhone   string `json:"guestPhone"`
	GuestCount   int    `json:"guestCount"`
	SpecialNeeds string `json:"specialNeeds"`
	// UserID supports the post-registration flow where the client already
	// holds an account but the cookie has not been attached to this call.
	UserID *uint `json:"userId"`
}

type createBookingResponse struct {
	Booking *models.Booking            `json:"booking"`
	Account *services.GuestCredentials `json:"account,omitempty"`
}

// Create opens a booking. Anonymous callers get an auto-provisioned account
// whose credentials are included in this response exactly once.
func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	input := services.CreateBookingInput{
		HousingID:    req.HousingID,
		CheckIn:      req.CheckIn,
		CheckOut:     req.CheckOut,
		GuestName:    req.GuestName,
		GuestPhone:   req.GuestPhone,
		GuestCount:   req.GuestCount,
		SpecialNeeds: req.SpecialNeeds,
		UserID:       req.UserID,
	}
	if user := middleware.CurrentUser(c); user != nil {
		input.UserID = &user.ID
	}

	booking, creds, err := h.bookings.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createBookingResponse{Booking: booking, Account: creds})
}

// List returns the caller's bookings, or all bookings for staff.
func (h *BookingHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	list, err := h.bookings.ListForUser(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListAll is the staff view of every booking.
func (h *BookingHandler) ListAll(c *gin.Context) {
	list, err := h.bookings.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	booking, err := h.bookings.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// Check is the unauthenticated status lookup by booking number and phone.
func (h *BookingHandler) Check(c *gin.Context) {
	number := c.Query("bookingNumber")
	phone := c.Query("phone")
	if number == "" || phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "bookingNumber and phone are required"})
		return
	}
	booking, err := h.bookings.CheckStatus(c.Request.Context(), number, phone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) Confirm(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	staff := middleware.CurrentUser(c)
	booking, err := h.bookings.Confirm(c.Request.Context(), id, staff)
	if err != nil {
		respondError(c, err)
		return
	}
	h.notifyStatusChange(c, booking, "")
	c.JSON(http.StatusOK, booking)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) Reject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req rejectRequest
	// The body is optional; ignore bind errors on an empty body.
	_ = c.ShouldBindJSON(&req)

	booking, err := h.bookings.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	h.notifyStatusChange(c, booking, req.Reason)
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	booking, err := h.bookings.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// notifyStatusChange enqueues a status notification email when the booking's
// owner has an email address. Best-effort: the transition has already been
// committed and is never rolled back over a notification failure.
func (h *BookingHandler) notifyStatusChange(c *gin.Context, booking *models.Booking, reason string) {
	if h.taskClient == nil || booking.UserID == nil {
		return
	}
	owner, err := h.accounts.FindByID(c.Request.Context(), *booking.UserID)
	if err != nil {
		log.Printf("Error loading owner of booking %d for notification: %v", booking.ID, err)
		return
	}
	if owner.Email == "" {
		return
	}

	payloadBytes, _ := json.Marshal(tasks.BookingStatusEmailPayload{
		To:            owner.Email,
		GuestName:     booking.GuestName,
		BookingNumber: booking.BookingNumber,
		HousingName:   booking.HousingName,
		Status:        string(booking.Status),
		Reason:        reason,
	})
	task := asynq.NewTask(tasks.TypeBookingStatusEmail, payloadBytes)
	if _, err := h.taskClient.EnqueueContext(c.Request.Context(), task); err != nil {
		log.Printf("ERROR enqueuing status email for booking %d: %v", booking.ID, err)
	}
}
