package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/services"
	"github.com/google/uuid"
)

type BattleHandler struct {
	battleService services.BattleService
	log           *logger.Logger
}

func NewBattleHandler(bs services.BattleService, log *logger.Logger) *BattleHandler {
	return &BattleHandler{
		battleService: bs,
		log:           log.With("handler", "BattleHandler"),
	}
}

type submitPromptInput struct {
	Prompt string `json:"prompt"`
}

func (h *BattleHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := readPagination(r)
	if err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}
	var playerID *uuid.UUID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequestResponse(w, r, h.log, errors.New("invalid user_id format"))
			return
		}
		playerID = &id
	}

	battles, err := h.battleService.List(r.Context(), playerID, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"battles": battles}, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}

func (h *BattleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.log)
	if !ok {
		return
	}
	var input services.CreateBattleInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}

	battle, err := h.battleService.Create(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"battle": battle}, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}

func (h *BattleHandler) Get(w http.ResponseWriter, r *http.Request) {
	battleID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}
	userID, ok := currentUserID(w, r, h.log)
	if !ok {
		return
	}

	battle, err := h.battleService.GetByID(r.Context(), userID, battleID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"battle": battle}, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}

func (h *BattleHandler) SubmitPrompt(w http.ResponseWriter, r *http.Request) {
	battleID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}
	userID, ok := currentUserID(w, r, h.log)
	if !ok {
		return
	}
	var input submitPromptInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}

	res, err := h.battleService.SubmitPrompt(r.Context(), userID, battleID, input.Prompt)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, res, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}

func (h *BattleHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	battleID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}
	userID, ok := currentUserID(w, r, h.log)
	if !ok {
		return
	}

	res, err := h.battleService.Evaluate(r.Context(), userID, battleID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, res, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}
