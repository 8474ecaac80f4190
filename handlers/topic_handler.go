package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/services"
)

type TopicHandler struct {
	topicService services.TopicService
	log          *logger.Logger
}

func NewTopicHandler(ts services.TopicService, log *logger.Logger) *TopicHandler {
	return &TopicHandler{
		topicService: ts,
		log:          log.With("handler", "TopicHandler"),
	}
}

type setActiveInput struct {
	IsActive *bool `json:"is_active"`
}

func (h *TopicHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := readPagination(r)
	if err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		if activeOnly, err = strconv.ParseBool(raw); err != nil {
			badRequestResponse(w, r, h.log, errors.New("query parameter \"active\" must be a boolean"))
			return
		}
	}

	topics, err := h.topicService.List(r.Context(), activeOnly, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"topics": topics}, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}

func (h *TopicHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}
	topic, err := h.topicService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"topic": topic}, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}

func (h *TopicHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.log)
	if !ok {
		return
	}
	var input services.CreateTopicInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}

	topic, err := h.topicService.Create(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"topic": topic}, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}

func (h *TopicHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.log)
	if !ok {
		return
	}
	topic, err := h.topicService.Generate(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"topic": topic}, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}

func (h *TopicHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}
	userID, ok := currentUserID(w, r, h.log)
	if !ok {
		return
	}
	var input setActiveInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}
	if input.IsActive == nil {
		badRequestResponse(w, r, h.log, errors.New("is_active is required"))
		return
	}

	topic, err := h.topicService.SetActive(r.Context(), userID, id, *input.IsActive)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"topic": topic}, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}
