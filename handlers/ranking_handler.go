package handlers

import (
	"net/http"

	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/services"
)

type RankingHandler struct {
	rankingService services.RankingService
	log            *logger.Logger
}

func NewRankingHandler(rs services.RankingService, log *logger.Logger) *RankingHandler {
	return &RankingHandler{
		rankingService: rs,
		log:            log.With("handler", "RankingHandler"),
	}
}

func (h *RankingHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := readIntQuery(r, "limit", 50)
	if err != nil {
		badRequestResponse(w, r, h.log, err)
		return
	}
	entries, err := h.rankingService.Leaderboard(r.Context(), limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.log, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"ranking": entries}, nil); err != nil {
		serverErrorResponse(w, r, h.log, err)
	}
}
