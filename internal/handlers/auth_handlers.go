package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/authd/authd/internal/middleware"
	"github.com/authd/authd/internal/service"
	"github.com/sirupsen/logrus"
)

type AuthHandlers struct {
	authService    *service.AuthService
	otpService     *service.OTPService
	refreshService *service.RefreshTokenService
	logger         *logrus.Logger
}

func NewAuthHandlers(
	authService *service.AuthService,
	otpService *service.OTPService,
	refreshService *service.RefreshTokenService,
	logger *logrus.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		authService:    authService,
		otpService:     otpService,
		refreshService: refreshService,
		logger:         logger,
	}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type SendOtpRequest struct {
	Email string `json:"email"`
}

type VerifyOtpRequest struct {
	Email   string `json:"email"`
	OtpCode string `json:"otp_code"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !isValidEmail(email) {
		respondWithError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email format")
		return
	}

	if len(req.Password) < 8 {
		respondWithError(w, http.StatusBadRequest, "INVALID_PASSWORD", "Password must be at least 8 characters")
		return
	}

	user, err := h.authService.Register(r.Context(), strings.TrimSpace(req.Name), email, req.Password)
	if err != nil {
		h.logger.WithError(err).Error("Failed to register user")
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, RegisterResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	})
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Email and password are required")
		return
	}

	pair, err := h.authService.Login(r.Context(), email, req.Password)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, pair)
}

func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if req.AccessToken == "" || req.RefreshToken == "" {
		respondWithError(w, http.StatusBadRequest, "MISSING_TOKEN", "Access and refresh tokens are required")
		return
	}

	pair, err := h.refreshService.Rotate(r.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, pair)
}

func (h *AuthHandlers) SendOtp(w http.ResponseWriter, r *http.Request) {
	var req SendOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !isValidEmail(email) {
		respondWithError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email format")
		return
	}

	if err := h.otpService.Send(r.Context(), email); err != nil {
		h.logger.WithError(err).Error("Failed to send OTP")
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "OTP sent successfully",
	})
}

func (h *AuthHandlers) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req VerifyOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	code := strings.TrimSpace(req.OtpCode)

	if !isValidEmail(email) {
		respondWithError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email format")
		return
	}

	if len(code) < 4 || len(code) > 8 {
		respondWithError(w, http.StatusBadRequest, "INVALID_OTP", "Invalid OTP format")
		return
	}

	pair, err := h.authService.OtpLogin(r.Context(), email, code)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, pair)
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	if principal == nil {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	var req LogoutRequest
	json.NewDecoder(r.Body).Decode(&req)

	if err := h.authService.Logout(r.Context(), principal, req.RefreshToken); err != nil {
		h.logger.WithError(err).Error("Failed to log out")
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	if principal == nil {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"user_id": principal.UserID,
		"name":    principal.Name,
		"role":    string(principal.Role),
	})
}
