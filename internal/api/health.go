package api

import (
	"net/http"

	"github.com/yourorg/llm-message-processor/internal/config"
)

func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": config.ServiceName,
		})
	}
}
