package api

import (
	"context"
	"errors"
	"log"
	"strings"

	"clarity/config"
	"clarity/middleware"
	"clarity/models"
	"clarity/store"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the account persistence the auth handlers need
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Get(ctx context.Context, id uint) (*models.User, error)
	Delete(ctx context.Context, id uint) error
}

// WelcomeMailer sends the signup greeting
type WelcomeMailer interface {
	Enabled() bool
	SendWelcomeEmail(toEmail, name string) error
}

// AuthHandler serves signup, login and the caller's own account
type AuthHandler struct {
	cfg    *config.Config
	users  UserStore
	mailer WelcomeMailer
}

// NewAuthHandler creates the auth handler. mailer may be nil.
func NewAuthHandler(cfg *config.Config, users UserStore, mailer WelcomeMailer) *AuthHandler {
	return &AuthHandler{
		cfg:    cfg,
		users:  users,
		mailer: mailer,
	}
}

// maxPasswordBytes is bcrypt's input limit. The max binding tag counts runes.
const maxPasswordBytes = 72

// SignupRequest signup body
type SignupRequest struct {
	Name     string `json:"name" binding:"required,max=255" example:"Ada Lovelace"`
	Email    string `json:"email" binding:"required,email,max=255" example:"ada@example.com"`
	Password string `json:"password" binding:"required,min=6,max=72" example:"password123"`
}

// LoginRequest login body
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"ada@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers an account
// @Summary Sign up
// @Description Creates an account and returns a token for it
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "account"
// @Success 201 {object} Response{data=AuthResponse} "created"
// @Failure 400 {object} Response{data=FieldError} "invalid input or email taken"
// @Failure 500 {object} Response "server error"
// @Router /api/auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		ValidationFailed(c, &models.ValidationError{Field: "name", Message: "name is required"})
		return
	}
	if len(req.Password) > maxPasswordBytes {
		ValidationFailed(c, &models.ValidationError{Field: "password", Message: "password must be at most 72 bytes"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[%s] hash password: %v", middleware.GetRequestID(c), err)
		InternalError(c, "internal server error")
		return
	}

	user := models.User{
		Name:         name,
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hashed),
	}
	if err := h.users.Create(storeContext(c), &user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			ValidationFailed(c, &models.ValidationError{Field: "email", Message: "email is already registered"})
			return
		}
		respondError(c, "create user", err, "user not found")
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Email, h.cfg.JWT.ExpireTime)
	if err != nil {
		log.Printf("[%s] sign token: %v", middleware.GetRequestID(c), err)
		InternalError(c, "internal server error")
		return
	}

	h.sendWelcome(user)

	Created(c, "user created successfully", AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) sendWelcome(user models.User) {
	if h.mailer == nil || !h.mailer.Enabled() {
		return
	}
	go func() {
		if err := h.mailer.SendWelcomeEmail(user.Email, user.Name); err != nil {
			log.Printf("welcome email to user %d: %v", user.ID, err)
		}
	}()
}

// Login exchanges credentials for a token
// @Summary Log in
// @Description Verifies email and password and returns a token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "credentials"
// @Success 200 {object} Response{data=AuthResponse} "logged in"
// @Failure 400 {object} Response{data=FieldError} "malformed body"
// @Failure 401 {object} Response "invalid credentials"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	user, err := h.users.FindByEmail(storeContext(c), normalizeEmail(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		Unauthorized(c, "invalid email or password")
		return
	}
	if err != nil {
		respondError(c, "find user", err, "user not found")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		Unauthorized(c, "invalid email or password")
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Email, h.cfg.JWT.ExpireTime)
	if err != nil {
		log.Printf("[%s] sign token: %v", middleware.GetRequestID(c), err)
		InternalError(c, "internal server error")
		return
	}

	SuccessWithMessage(c, "login successful", AuthResponse{Token: token, User: *user})
}

// Me returns the caller's account
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User} "ok"
// @Failure 401 {object} Response "unauthorized"
// @Failure 404 {object} Response "account no longer exists"
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	user, err := h.users.Get(storeContext(c), userID)
	if err != nil {
		respondError(c, "get user", err, "user not found")
		return
	}

	Success(c, user)
}

// DeleteMe removes the caller's account together with all its transactions
// @Summary Delete account
// @Description Deletes the account; its transactions are removed with it
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "deleted"
// @Failure 401 {object} Response "unauthorized"
// @Failure 404 {object} Response "account no longer exists"
// @Router /api/auth/me [delete]
func (h *AuthHandler) DeleteMe(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	if err := h.users.Delete(storeContext(c), userID); err != nil {
		respondError(c, "delete user", err, "user not found")
		return
	}

	SuccessWithMessage(c, "account deleted successfully", nil)
}
