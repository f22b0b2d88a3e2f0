package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"noteshare-server/internal/domain"
	"noteshare-server/internal/service"
	"noteshare-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *validator.Validate
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator.New(),
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.FieldErrors(w, fieldErrors(err))
		return
	}

	if _, err := h.authService.Signup(&req); err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			response.FieldErrors(w, map[string]string{"username": "A user with that username already exists."})
		case errors.Is(err, service.ErrEmailTaken):
			response.FieldErrors(w, map[string]string{"email": "A user with that email already exists."})
		default:
			response.InternalError(w, "Failed to register user")
		}
		return
	}

	response.Message(w, http.StatusCreated, "User registration successful")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.FieldErrors(w, fieldErrors(err))
		return
	}

	tok, err := h.authService.Login(&req)
	if err != nil {
		// Always the same message, regardless of which check failed.
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(w, "Invalid credentials")
			return
		}
		response.InternalError(w, "Failed to log in")
		return
	}

	response.Success(w, domain.LoginResponse{Token: tok})
}
