package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/pushstats/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// SessionTokenHeader carries the opaque session token on every
// authenticated request.
const SessionTokenHeader = "X-Pushup-Token"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// SetupRoutes registers the auth endpoints. The login and signup
// routes go through the given rate limiting wrapper.
func (h *Handler) SetupRoutes(
	router *mux.Router,
	rateLimit func(next http.Handler) http.Handler,
) {
	router.Handle("/signup", rateLimit(http.HandlerFunc(h.handleSignUp))).Methods("POST", "OPTIONS")
	router.HandleFunc("/confirm", h.handleConfirm).Methods("POST", "OPTIONS")
	router.Handle("/login", rateLimit(http.HandlerFunc(h.handleLogin))).Methods("POST", "OPTIONS")
	router.HandleFunc("/logout", h.handleLogout).Methods("GET", "OPTIONS")
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	// the confirm token normally travels out-of-band (email); it is
	// returned here as well until a mailer is hooked up
	confirmToken, err := h.service.SignUp(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailInUse):
			http.Error(w, "email already in use", http.StatusConflict)
		case errors.Is(err, ErrInvalidCredentials):
			http.Error(w, "invalid email or password", http.StatusBadRequest)
		default:
			log.Errorf("sign up: %s", err)
			http.Error(w, "sign up failed", http.StatusInternalServerError)
		}
		return
	}

	pkg.WriteResponse(
		w, pkg.ContentType.JSON,
		fmt.Sprintf(`{"confirmationRequired":true,"confirmToken":%q}`, confirmToken),
		http.StatusCreated,
	)
}

type confirmRequest struct {
	Token string `json:"token"`
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.service.Confirm(r.Context(), req.Token); err != nil {
		if errors.Is(err, ErrConfirmTokenInvalid) {
			http.Error(w, "invalid confirmation token", http.StatusBadRequest)
			return
		}
		log.Errorf("confirm account: %s", err)
		http.Error(w, "confirmation failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "confirmed")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	session, err := h.service.SignIn(r.Context(), req.Email, req.Password, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, ErrNotConfirmed):
			// not a hard failure, the account just needs its email confirmed
			http.Error(w, "account not confirmed", http.StatusForbidden)
		case errors.Is(err, ErrInvalidCredentials):
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
		default:
			log.Errorf("login: %s", err)
			http.Error(w, "login failed", http.StatusInternalServerError)
		}
		return
	}

	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"token":%q}`, session.Token))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(SessionTokenHeader)
	if token == "" {
		http.Error(w, "no session", http.StatusBadRequest)
		return
	}
	h.service.SignOut(r.Context(), token)
	pkg.WriteTextResponseOK(w, "logged-out")
}
