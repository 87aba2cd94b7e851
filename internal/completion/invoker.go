// Package completion performs the single upstream chat-completion call behind
// each /process request.
package completion

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"

	"github.com/yourorg/llm-message-processor/internal/config"
	"github.com/yourorg/llm-message-processor/internal/schema"
	"github.com/yourorg/llm-message-processor/internal/telemetry"
)

type Input struct {
	Text           string
	ImageURL       string
	Token          string
	Model          string
	ResponseFormat *openai.ChatCompletionResponseFormat
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Result struct {
	Content string
	Usage   Usage
}

type Invoker struct {
	cfg  config.Config
	log  zerolog.Logger
	tel  telemetry.Provider
	inst instruments

	httpClient *http.Client
}

type instruments struct {
	duration         metric.Float64Histogram
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	totalTokens      metric.Int64Counter
	failures         metric.Int64Counter
}

func NewInvoker(cfg config.Config, log zerolog.Logger, tel telemetry.Provider) *Invoker {
	inst, err := newInstruments(tel.Meter)
	if err != nil {
		log.Warn().Err(err).Msg("metrics disabled")
		inst, _ = newInstruments(metricnoop.NewMeterProvider().Meter("noop"))
	}
	return &Invoker{
		cfg:        cfg,
		log:        log,
		tel:        tel,
		inst:       inst,
		httpClient: &http.Client{Timeout: cfg.UpstreamTimeout},
	}
}

func newInstruments(m metric.Meter) (instruments, error) {
	var (
		in  instruments
		err error
	)
	if in.duration, err = m.Float64Histogram("llm.request.duration",
		metric.WithDescription("Upstream chat completion duration"), metric.WithUnit("ms")); err != nil {
		return in, err
	}
	if in.promptTokens, err = m.Int64Counter("llm.usage.prompt_tokens"); err != nil {
		return in, err
	}
	if in.completionTokens, err = m.Int64Counter("llm.usage.completion_tokens"); err != nil {
		return in, err
	}
	if in.totalTokens, err = m.Int64Counter("llm.usage.total_tokens"); err != nil {
		return in, err
	}
	in.failures, err = m.Int64Counter("llm.request.failures")
	return in, err
}

// client is built per call; only the transport is shared.
func (i *Invoker) client(token string) *openai.Client {
	oc := openai.DefaultConfig(token)
	oc.BaseURL = i.cfg.OpenAIBaseURL
	oc.HTTPClient = i.httpClient
	return openai.NewClientWithConfig(oc)
}

// Invoke checks its preconditions, sends exactly one chat completion and
// returns the first choice's content with the usage counters as reported.
func (i *Invoker) Invoke(ctx context.Context, in Input) (Result, error) {
	if in.Token == "" {
		return Result{}, errNoToken
	}
	if in.Text == "" {
		return Result{}, errNoText
	}
	if in.Model == "" {
		return Result{}, errNoModel
	}

	structured := schema.IsStructured(in.ResponseFormat)
	ctx, span := i.tel.Tracer.Start(ctx, "chat_completion")
	defer span.End()
	attrs := metric.WithAttributes(attribute.String("llm.model", in.Model))
	span.SetAttributes(
		attribute.String("llm.model", in.Model),
		attribute.Bool("llm.has_image", in.ImageURL != ""),
		attribute.Bool("llm.structured", structured),
	)

	req := openai.ChatCompletionRequest{
		Model:          in.Model,
		Messages:       []openai.ChatCompletionMessage{BuildMessage(in.Text, in.ImageURL)},
		ResponseFormat: in.ResponseFormat,
	}
	if usesCompletionTokens(in.Model) {
		req.MaxCompletionTokens = i.cfg.MaxTokens
	} else {
		req.MaxTokens = i.cfg.MaxTokens
	}

	ctx, cancel := context.WithTimeout(ctx, i.cfg.UpstreamTimeout)
	defer cancel()

	start := time.Now()
	resp, err := i.client(in.Token).CreateChatCompletion(ctx, req)
	dur := time.Since(start)
	i.inst.duration.Record(ctx, float64(dur.Milliseconds()), attrs)

	if err == nil && len(resp.Choices) == 0 {
		err = errors.New("empty choices in completion response")
	}
	if err != nil {
		i.inst.failures.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ev := i.log.Error().Err(err).Str("model", in.Model).Dur("dur", dur)
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			ev = ev.Int("status", apiErr.HTTPStatusCode)
		}
		ev.Msg("chat completion failed")
		return Result{}, &UpstreamError{Err: err}
	}

	res := Result{
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	i.inst.promptTokens.Add(ctx, int64(res.Usage.PromptTokens), attrs)
	i.inst.completionTokens.Add(ctx, int64(res.Usage.CompletionTokens), attrs)
	i.inst.totalTokens.Add(ctx, int64(res.Usage.TotalTokens), attrs)
	span.SetAttributes(attribute.Int("llm.usage.total_tokens", res.Usage.TotalTokens))

	i.log.Info().
		Str("model", in.Model).
		Bool("has_image", in.ImageURL != "").
		Bool("structured", structured).
		Int("total_tokens", res.Usage.TotalTokens).
		Dur("dur", dur).
		Msg("chat")
	return res, nil
}

// ListModels returns the model IDs visible to token.
func (i *Invoker) ListModels(ctx context.Context, token string) ([]string, error) {
	if token == "" {
		return nil, errNoToken
	}
	ctx, cancel := context.WithTimeout(ctx, i.cfg.UpstreamTimeout)
	defer cancel()

	list, err := i.client(token).ListModels(ctx)
	if err != nil {
		i.log.Error().Err(err).Msg("list models failed")
		return nil, &UpstreamError{Err: err}
	}
	out := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		out = append(out, m.ID)
	}
	return out, nil
}
