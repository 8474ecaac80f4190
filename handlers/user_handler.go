package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/services"
)

const maxAvatarBytes = 5 << 20

type UserHandler struct {
	userService services.UserService
	log         *logger.Logger
}

func NewUserHandler(us services.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: us,
		log:         log.With("handler", "UserHandler"),
	}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.log)
	if !ok {
		return
	}
	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}

func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	requestedID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}
	viewerID, ok := currentUserID(w, r, h.log)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), requestedID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if user.ID != viewerID {
		*user = user.PublicView()
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, err := readIntQuery(r, "limit", 20)
	if err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}
	users, err := h.userService.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"users": users}, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.log)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+1024)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		badRequestResponse(w, r, h.log, errors.New("avatar must be a multipart upload of at most 5MB"))
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequestResponse(w, r, h.log, errors.New("form field 'avatar' is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, h.log, errors.New("content type required"))
		return
	}

	user, err := h.userService.UploadAvatar(r.Context(), userID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}
