package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/yourorg/llm-message-processor/internal/completion"
	"github.com/yourorg/llm-message-processor/internal/config"
	"github.com/yourorg/llm-message-processor/internal/envelope"
	"github.com/yourorg/llm-message-processor/internal/middleware"
)

// Completer is the upstream side of the service.
type Completer interface {
	Invoke(ctx context.Context, in completion.Input) (completion.Result, error)
	ListModels(ctx context.Context, token string) ([]string, error)
}

type Server struct {
	Router http.Handler
}

func NewServer(cfg config.Config, comp Completer, logger zerolog.Logger) (*Server, error) {
	if comp == nil {
		return nil, errors.New("api: nil completer")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(logger))
	r.Use(middleware.AccessLog(logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope.NotFound())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, envelope.MethodNotAllowed())
	})

	r.Get("/health", Health())
	r.Post("/process", Process(cfg, comp, logger))
	r.Get("/models", ListModels(comp, logger))

	return &Server{Router: r}, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
