package handlers

import (
	"net/http"

	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/services"
)

type GenerateHandler struct {
	generateService services.GenerateService
	log             *logger.Logger
}

func NewGenerateHandler(gs services.GenerateService, log *logger.Logger) *GenerateHandler {
	return &GenerateHandler{
		generateService: gs,
		log:             log.With("handler", "GenerateHandler"),
	}
}

type generateInput struct {
	Topic  string `json:"topic"`
	Prompt string `json:"prompt"`
}

func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var input generateInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}

	text, err := h.generateService.Generate(r.Context(), input.Topic, input.Prompt)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"text": text}, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}
