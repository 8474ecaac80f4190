package handlers

import (
	"net/http"

	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/services"
)

type SoloHandler struct {
	soloService services.SoloService
	log         *logger.Logger
}

func NewSoloHandler(ss services.SoloService, log *logger.Logger) *SoloHandler {
	return &SoloHandler{
		soloService: ss,
		log:         log.With("handler", "SoloHandler"),
	}
}

func (h *SoloHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.log)
	if !ok {
		return
	}
	var input services.SoloEvaluateInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}

	res, err := h.soloService.Evaluate(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, res, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}

func (h *SoloHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.log)
	if !ok {
		return
	}
	limit, offset, err := readPagination(r)
	if err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}

	items, err := h.soloService.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"solo_battles": items}, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}

func (h *SoloHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}
	userID, ok := currentUserID(w, r, h.log)
	if !ok {
		return
	}

	sb, err := h.soloService.GetByID(r.Context(), userID, id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"solo_battle": sb}, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}
