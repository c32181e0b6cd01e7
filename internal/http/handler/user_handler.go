package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"account-service/internal/http/middleware"
	"account-service/internal/http/response"
	"account-service/internal/observability"
	"account-service/internal/service"
)

const avatarFormField = "file"

type UserHandler struct {
	userSvc service.UserServiceInterface
}

func NewUserHandler(userSvc service.UserServiceInterface) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

func currentUserID(r *http.Request) (uuid.UUID, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	id, err := claims.UserID()
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUserID(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "missing auth context")
		return
	}
	u, err := h.userSvc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Error(w, r, http.StatusNotFound, "user not found")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	response.JSON(w, r, http.StatusOK, u)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUserID(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "missing auth context")
		return
	}
	var in service.UpdateProfileInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := h.userSvc.UpdateProfile(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Error(w, r, http.StatusNotFound, "user not found")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	observability.Audit(r, "user.profile.updated", "user_id", id)
	response.JSON(w, r, http.StatusOK, u)
}

func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUserID(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "missing auth context")
		return
	}
	if err := h.userSvc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Error(w, r, http.StatusNotFound, "user not found")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	observability.Audit(r, "user.account.deleted", "user_id", id)
	response.JSON(w, r, http.StatusNoContent, nil)
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUserID(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "missing auth context")
		return
	}
	file, header, err := r.FormFile(avatarFormField)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "missing avatar file")
		return
	}
	defer file.Close()

	url, err := h.userSvc.UploadAvatar(r.Context(), id, file, header.Size)
	if err != nil {
		observability.RecordAvatarStorageEvent(r.Context(), "upload", "failure")
		switch {
		case errors.Is(err, service.ErrFileTooBig):
			response.Error(w, r, http.StatusRequestEntityTooLarge, "avatar exceeds the size limit")
		case errors.Is(err, service.ErrInvalidFileType):
			response.Error(w, r, http.StatusBadRequest, "unsupported avatar file type")
		case errors.Is(err, service.ErrNotFound):
			response.Error(w, r, http.StatusNotFound, "user not found")
		default:
			response.Error(w, r, http.StatusInternalServerError, "avatar upload failed")
		}
		return
	}
	observability.Audit(r, "user.avatar.uploaded", "user_id", id)
	observability.RecordAvatarStorageEvent(r.Context(), "upload", "success")
	response.JSON(w, r, http.StatusOK, map[string]string{"avatar_url": url})
}

func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUserID(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "missing auth context")
		return
	}
	if err := h.userSvc.DeleteAvatar(r.Context(), id); err != nil {
		observability.RecordAvatarStorageEvent(r.Context(), "delete", "failure")
		if errors.Is(err, service.ErrNotFound) {
			response.Error(w, r, http.StatusNotFound, "user not found")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "avatar delete failed")
		return
	}
	observability.Audit(r, "user.avatar.deleted", "user_id", id)
	observability.RecordAvatarStorageEvent(r.Context(), "delete", "success")
	response.JSON(w, r, http.StatusNoContent, nil)
}
