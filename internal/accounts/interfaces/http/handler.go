package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	accountsapp "smartpark-iot/internal/accounts/application"
	accounts "smartpark-iot/internal/accounts/domain"
)

const (
	msgInvalidInput       = "Invalid input"
	msgUsernameTaken      = "Username already exists"
	msgSignupFailed       = "Signup failed"
	msgCredentialsMissing = "Username and password required"
	msgInvalidCredentials = "Invalid credentials"
	msgLoginFailed        = "Login failed"
)

// Handler serves signup and login.
type Handler struct {
	service *accountsapp.Service
	logger  *log.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *accountsapp.Service, logger *log.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("accounts handler: nil service")
	}
	if logger == nil {
		return nil, errors.New("accounts handler: nil logger")
	}
	return &Handler{service: service, logger: logger}, nil
}

// Register mounts the routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/auth/signup", h.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", h.handleLogin).Methods(http.MethodPost)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type signupResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidInput})
		return
	}
	user, err := h.service.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidInput})
		case errors.Is(err, accounts.ErrUsernameTaken):
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgUsernameTaken})
		default:
			h.logger.Printf("signup error: username=%s err=%v", req.Username, err)
			writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msgSignupFailed})
		}
		return
	}
	h.logger.Printf("signup: id=%s username=%s", user.ID, user.Username)
	writeJSON(w, http.StatusOK, signupResponse{ID: user.ID, Username: user.Username})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgCredentialsMissing})
		return
	}
	session, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgCredentialsMissing})
		case errors.Is(err, accounts.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, messageResponse{Message: msgInvalidCredentials})
		default:
			h.logger.Printf("login error: username=%s err=%v", req.Username, err)
			writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msgLoginFailed})
		}
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
