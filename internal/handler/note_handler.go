package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"noteshare-server/internal/domain"
	"noteshare-server/internal/middleware"
	"noteshare-server/internal/service"
	"noteshare-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type NoteHandler struct {
	service  *service.NoteService
	validate *validator.Validate
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.FieldErrors(w, fieldErrors(err))
		return
	}

	userID := middleware.GetUserID(r)

	if _, err := h.service.Create(userID, &req); err != nil {
		response.InternalError(w, "Failed to create note")
		return
	}

	response.Message(w, http.StatusCreated, "Note created successfully")
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	notes, err := h.service.List(userID)
	if err != nil {
		response.InternalError(w, "Failed to list notes")
		return
	}

	response.Success(w, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "Note ID is required")
		return
	}

	userID := middleware.GetUserID(r)

	note, err := h.service.GetByID(userID, noteID)
	if err != nil {
		if errors.Is(err, service.ErrNoteNotFound) {
			response.NotFound(w, "Note not found or you don't have permission to access")
			return
		}
		response.InternalError(w, "Failed to get note")
		return
	}

	response.Success(w, note)
}

func (h *NoteHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req domain.ShareNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.FieldErrors(w, fieldErrors(err))
		return
	}

	userID := middleware.GetUserID(r)

	if err := h.service.Share(userID, &req); err != nil {
		if errors.Is(err, service.ErrNoteNotFound) {
			response.NotFound(w, "Note not found or you don't have permission to share")
			return
		}
		response.InternalError(w, "Failed to share note")
		return
	}

	response.Message(w, http.StatusOK, "Note shared successfully")
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "Note ID is required")
		return
	}

	var req domain.UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.FieldErrors(w, fieldErrors(err))
		return
	}

	userID := middleware.GetUserID(r)

	if err := h.service.Append(userID, noteID, req.Content); err != nil {
		switch {
		case errors.Is(err, service.ErrNoteNotFound):
			response.NotFound(w, "Note not found")
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(w, "You don't have permission to update this note")
		default:
			response.InternalError(w, "Failed to update note")
		}
		return
	}

	response.Message(w, http.StatusOK, "Note updated successfully")
}

func (h *NoteHandler) VersionHistory(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]
	if noteID == "" {
		response.BadRequest(w, "Note ID is required")
		return
	}

	userID := middleware.GetUserID(r)

	entries, err := h.service.VersionHistory(userID, noteID)
	if err != nil {
		if errors.Is(err, service.ErrNoteNotFound) {
			response.NotFound(w, "Note not found or you don't have permission to access")
			return
		}
		response.InternalError(w, "Failed to load version history")
		return
	}

	response.Success(w, entries)
}
