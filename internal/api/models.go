package api

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yourorg/llm-message-processor/internal/envelope"
	"github.com/yourorg/llm-message-processor/internal/middleware"
)

type modelsResponse struct {
	Models []string `json:"models"`
	Count  int      `json:"count"`
}

// ListModels proxies the upstream model list using the caller's credential,
// taken from "Authorization: Bearer" or the token query parameter.
func ListModels(comp Completer, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}

		models, err := comp.ListModels(r.Context(), token)
		if err != nil {
			status, body := envelope.FromError(err)
			if status != http.StatusBadRequest {
				log := middleware.Logger(r.Context(), logger)
				log.Error().Err(err).Msg("list models")
			}
			writeJSON(w, status, body)
			return
		}
		writeJSON(w, http.StatusOK, modelsResponse{Models: models, Count: len(models)})
	}
}
