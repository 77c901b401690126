package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/authd/authd/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// ExternalHandlers expose the delegated third-party login surface: hosted
// login on behalf of a client, and the server-to-server code exchange.
type ExternalHandlers struct {
	externalService *service.ExternalService
	logger          *logrus.Logger
}

func NewExternalHandlers(externalService *service.ExternalService, logger *logrus.Logger) *ExternalHandlers {
	return &ExternalHandlers{
		externalService: externalService,
		logger:          logger,
	}
}

type ExternalLoginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	ClientID    string `json:"client_id"`
	RedirectURI string `json:"redirect_uri"`
}

type ExternalOtpLoginRequest struct {
	Email       string `json:"email"`
	OtpCode     string `json:"otp_code"`
	ClientID    string `json:"client_id"`
	RedirectURI string `json:"redirect_uri"`
}

type ExternalLoginResponse struct {
	RedirectURL string `json:"redirect_url"`
}

type ExchangeCodeRequest struct {
	Code         string `json:"code"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type ClientResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Domain      string `json:"domain"`
	RedirectURI string `json:"redirect_uri"`
}

func (h *ExternalHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req ExternalLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Email and password are required")
		return
	}

	if req.ClientID == "" || req.RedirectURI == "" {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "client_id and redirect_uri are required")
		return
	}

	redirectURL, err := h.externalService.HandleLogin(r.Context(), email, req.Password, req.ClientID, req.RedirectURI)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ExternalLoginResponse{RedirectURL: redirectURL})
}

func (h *ExternalHandlers) OtpLogin(w http.ResponseWriter, r *http.Request) {
	var req ExternalOtpLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.OtpCode == "" {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Email and OTP code are required")
		return
	}

	if req.ClientID == "" || req.RedirectURI == "" {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "client_id and redirect_uri are required")
		return
	}

	redirectURL, err := h.externalService.HandleOtpLogin(r.Context(), email, req.OtpCode, req.ClientID, req.RedirectURI)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ExternalLoginResponse{RedirectURL: redirectURL})
}

// ExchangeCode is the only mutually authenticated call in the flow: the
// client proves possession of its secret to turn an observed code into
// real tokens.
func (h *ExternalHandlers) ExchangeCode(w http.ResponseWriter, r *http.Request) {
	var req ExchangeCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if req.Code == "" || req.ClientID == "" || req.ClientSecret == "" {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "code, client_id, and client_secret are required")
		return
	}

	pair, err := h.externalService.ExchangeCode(r.Context(), req.Code, req.ClientID, req.ClientSecret)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, pair)
}

func (h *ExternalHandlers) GetClient(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["id"]

	client, err := h.externalService.GetClient(r.Context(), clientID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	// The secret never leaves the server.
	respondWithJSON(w, http.StatusOK, ClientResponse{
		ID:          client.ID,
		Name:        client.Name,
		Description: client.Description,
		Domain:      client.Domain,
		RedirectURI: client.RedirectURI,
	})
}
