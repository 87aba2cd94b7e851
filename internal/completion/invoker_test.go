package completion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/llm-message-processor/internal/config"
	"github.com/yourorg/llm-message-processor/internal/schema"
	"github.com/yourorg/llm-message-processor/internal/telemetry"
)

type captured struct {
	auth string
	body map[string]any
}

func fakeUpstream(t *testing.T, status int, reply string, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			got.auth = r.Header.Get("Authorization")
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, &got.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestInvoker(baseURL string) *Invoker {
	cfg := config.Config{
		MaxTokens:       321,
		OpenAIBaseURL:   baseURL + "/v1",
		UpstreamTimeout: 5 * time.Second,
	}
	return NewInvoker(cfg, zerolog.Nop(), telemetry.Noop())
}

const okReply = `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o",
	"choices":[{"index":0,"message":{"role":"assistant","content":"Hello back"},"finish_reason":"stop"}],
	"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`

func TestBuildMessage_TextOnly(t *testing.T) {
	m := BuildMessage("hi", "")
	assert.Equal(t, openai.ChatMessageRoleUser, m.Role)
	assert.Equal(t, "hi", m.Content)
	assert.Empty(t, m.MultiContent)

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":"hi"}`, string(b))
}

func TestBuildMessage_WithImage(t *testing.T) {
	m := BuildMessage("what is this?", "not even a url")
	require.Len(t, m.MultiContent, 2)
	assert.Empty(t, m.Content)
	assert.Equal(t, openai.ChatMessagePartTypeText, m.MultiContent[0].Type)
	assert.Equal(t, "what is this?", m.MultiContent[0].Text)
	assert.Equal(t, openai.ChatMessagePartTypeImageURL, m.MultiContent[1].Type)
	assert.Equal(t, "not even a url", m.MultiContent[1].ImageURL.URL)
}

func TestInvoke_Preconditions(t *testing.T) {
	inv := newTestInvoker("http://127.0.0.1:1")
	cases := []struct {
		in  Input
		msg string
	}{
		{Input{Text: "hi", Model: "gpt-4o"}, "Authorization token is required"},
		{Input{Token: "sk", Model: "gpt-4o"}, "Message text is required"},
		{Input{Token: "sk", Text: "hi"}, "Model parameter is required"},
		{Input{}, "Authorization token is required"},
	}
	for _, tc := range cases {
		_, err := inv.Invoke(context.Background(), tc.in)
		var pe *PreconditionError
		require.True(t, errors.As(err, &pe), tc.msg)
		assert.Equal(t, tc.msg, err.Error())
	}
}

func TestInvoke_Success(t *testing.T) {
	var got captured
	srv := fakeUpstream(t, http.StatusOK, okReply, &got)
	inv := newTestInvoker(srv.URL)

	res, err := inv.Invoke(context.Background(), Input{Text: "hi", Token: "sk-test", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "Hello back", res.Content)
	assert.Equal(t, Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, res.Usage)

	assert.Equal(t, "Bearer sk-test", got.auth)
	assert.Equal(t, "gpt-4o", got.body["model"])
	assert.EqualValues(t, 321, got.body["max_tokens"])
	assert.NotContains(t, got.body, "response_format")
	msgs := got.body["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].(map[string]any)["content"])
}

func TestInvoke_ImageAndSchema(t *testing.T) {
	var got captured
	srv := fakeUpstream(t, http.StatusOK, okReply, &got)
	inv := newTestInvoker(srv.URL)

	rf, err := schema.ResponseFormatFromExample(json.RawMessage(`{"label":"cat"}`))
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), Input{
		Text: "describe", ImageURL: "https://example.com/cat.jpg",
		Token: "sk", Model: "gpt-4o", ResponseFormat: rf,
	})
	require.NoError(t, err)

	content := got.body["messages"].([]any)[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "text", content[0].(map[string]any)["type"])
	img := content[1].(map[string]any)
	assert.Equal(t, "image_url", img["type"])
	assert.Equal(t, "https://example.com/cat.jpg", img["image_url"].(map[string]any)["url"])

	format := got.body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	js := format["json_schema"].(map[string]any)
	assert.Equal(t, "response_schema", js["name"])
	assert.Equal(t, []any{"label"}, js["schema"].(map[string]any)["required"])
}

func TestInvoke_ReasoningModelUsesCompletionTokens(t *testing.T) {
	var got captured
	srv := fakeUpstream(t, http.StatusOK, okReply, &got)
	inv := newTestInvoker(srv.URL)

	_, err := inv.Invoke(context.Background(), Input{Text: "hi", Token: "sk", Model: "o1-mini"})
	require.NoError(t, err)
	assert.EqualValues(t, 321, got.body["max_completion_tokens"])
	assert.NotContains(t, got.body, "max_tokens")
}

func TestUsesCompletionTokens(t *testing.T) {
	for model, want := range map[string]bool{
		"o1":              true,
		"o1-mini":         true,
		"o3":              true,
		"o4-mini":         true,
		"O4-MINI":         true,
		"openai/o3-mini":  true,
		"gpt-4o":          false,
		"gpt-4o-mini":     false,
		"omni-moderation": false,
		"":                false,
	} {
		assert.Equal(t, want, usesCompletionTokens(model), model)
	}
}

func TestInvoke_UpstreamErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		reply  string
		want   string
	}{
		"auth rejected": {http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`, "Incorrect API key provided"},
		"quota":         {http.StatusTooManyRequests, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota"}}`, "exceeded your current quota"},
		"no choices":    {http.StatusOK, `{"choices":[],"usage":{}}`, "empty choices"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := fakeUpstream(t, tc.status, tc.reply, nil)
			inv := newTestInvoker(srv.URL)

			_, err := inv.Invoke(context.Background(), Input{Text: "hi", Token: "sk", Model: "gpt-4o"})
			var ue *UpstreamError
			require.True(t, errors.As(err, &ue))
			assert.Contains(t, err.Error(), "Error during OpenAI communication: ")
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestInvoke_UnreachableUpstream(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestInvoker(url).Invoke(context.Background(), Input{Text: "hi", Token: "sk", Model: "gpt-4o"})
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
}

func TestListModels(t *testing.T) {
	srv := fakeUpstream(t, http.StatusOK, `{"object":"list","data":[{"id":"gpt-4o","object":"model"},{"id":"gpt-4o-mini","object":"model"}]}`, nil)
	inv := newTestInvoker(srv.URL)

	ids, err := inv.ListModels(context.Background(), "sk")
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, ids)

	_, err = inv.ListModels(context.Background(), "")
	var pe *PreconditionError
	assert.True(t, errors.As(err, &pe))
}
