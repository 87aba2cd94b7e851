package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yourorg/llm-message-processor/internal/completion"
	"github.com/yourorg/llm-message-processor/internal/config"
	"github.com/yourorg/llm-message-processor/internal/envelope"
	"github.com/yourorg/llm-message-processor/internal/middleware"
	"github.com/yourorg/llm-message-processor/internal/request"
	"github.com/yourorg/llm-message-processor/internal/schema"
)

const (
	msgNotJSON     = "Content-Type must be application/json"
	msgEmptyBody   = "No JSON data in request"
	msgBodyTooLong = "Request body too large"
)

// Process handles POST /process:
//
//	{"text": "...", "image_url": "...", "token": "sk-...", "model": "gpt-4o",
//	 "output_example": {...} | "response_format": {...}}
func Process(cfg config.Config, comp Completer, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.Logger(r.Context(), logger)

		if !isJSONContentType(r.Header.Get("Content-Type")) {
			writeJSON(w, http.StatusBadRequest, envelope.Message(msgNotJSON))
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, cfg.MaxBodyBytes))
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeJSON(w, http.StatusRequestEntityTooLarge, envelope.Message(msgBodyTooLong))
				return
			}
			writeJSON(w, http.StatusBadRequest, envelope.Message(msgEmptyBody))
			return
		}
		body = bytes.TrimSpace(body)
		if len(body) == 0 {
			writeJSON(w, http.StatusBadRequest, envelope.Message(msgEmptyBody))
			return
		}
		if !json.Valid(body) {
			writeJSON(w, http.StatusBadRequest, envelope.Message(msgNotJSON))
			return
		}
		var payload map[string]json.RawMessage
		if err := json.Unmarshal(body, &payload); err != nil || len(payload) == 0 {
			writeJSON(w, http.StatusBadRequest, envelope.Message(msgEmptyBody))
			return
		}

		params := request.Extract(payload)
		if err := request.Validate(params); err != nil {
			status, body := envelope.FromError(err)
			writeJSON(w, status, body)
			return
		}

		format := params.EffectiveResponseFormat(log)
		ev := log.Info().Str("model", params.Model)
		if params.HasImage() {
			ev = ev.Str("image_url", params.ImageURL)
		}
		ev.Msg("processing message")

		res, err := comp.Invoke(r.Context(), completion.Input{
			Text:           params.Text,
			ImageURL:       params.ImageURL,
			Token:          params.Token,
			Model:          params.Model,
			ResponseFormat: format,
		})
		if err != nil {
			status, body := envelope.FromError(err)
			if status == http.StatusBadRequest {
				log.Error().Err(err).Msg("validation error")
			} else {
				log.Error().Err(err).Msg("server error")
			}
			writeJSON(w, status, body)
			return
		}

		writeJSON(w, http.StatusOK, envelope.NewSuccess(res, params.Model, params.HasImage(), schema.IsStructured(format)))
	}
}

func isJSONContentType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "application/json" || (strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+json"))
}
