package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wisetreee/safe-haven/internal/api/middleware"
	"github.com/wisetreee/safe-haven/internal/config"
	"github.com/wisetreee/safe-haven/internal/models"
	"github.com/wisetreee/safe-haven/internal/services"
	"github.com/wisetreee/safe-haven/internal/session"
)

// AuthHandler serves registration, login, logout and the current-session lookup.
type AuthHandler struct {
	cfg      *config.Config
	accounts services.IAccountService
	sessions session.Manager
}

func NewAuthHandler(cfg *config.Config, accounts services.IAccountService, sessions session.Manager) *AuthHandler {
	return &AuthHandler{cfg: cfg, accounts: accounts, sessions: sessions}
}

type registerRequest struct {
	Username string      `json:"username" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Name     string      `json:"name" binding:"required"`
	Phone    string      `json:"phone"`
	Role     models.Role `json:"role"`
}

// Register creates an account and establishes a session immediately. The
// optional role field lets a deployment create its staff accounts in-band;
// it defaults to the regular user role.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "username, password and name are required"})
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	switch role {
	case models.RoleUser, models.RoleStaff:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "role must be user or staff"})
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), req.Username, req.Password, req.Name, req.Phone, role)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.openSession(c, user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "username and password are required"})
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.openSession(c, user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout invalidates the server-side session and clears the cookie.
// Logging out without a session is not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, exists := c.Get(middleware.ContextKeySessionToken); exists {
		if err := h.sessions.Destroy(c.Request.Context(), token.(string)); err != nil {
			log.Printf("Error destroying session: %v", err)
		}
	}
	c.SetCookie(h.cfg.SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) CurrentUser(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) openSession(c *gin.Context, userID uint) error {
	token, err := h.sessions.Create(c.Request.Context(), userID)
	if err != nil {
		return err
	}
	c.SetCookie(h.cfg.SessionCookieName, token, int(h.cfg.SessionTTL.Seconds()), "/", "", false, true)
	return nil
}
