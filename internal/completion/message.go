package completion

import (
	"strings"

	"github.com/sashabaranov/go-openai"
)

// BuildMessage returns the single user message sent upstream. With an image
// the content becomes a text part followed by an image_url part; the URL is
// passed through unchecked.
func BuildMessage(text, imageURL string) openai.ChatCompletionMessage {
	if imageURL == "" {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: text,
		}
	}
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: text},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: imageURL}},
		},
	}
}

// o-series reasoning models (o1, o3, o4-mini, ...) reject max_tokens in
// favor of max_completion_tokens.
func usesCompletionTokens(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	if i := strings.LastIndexByte(m, '/'); i >= 0 {
		m = m[i+1:]
	}
	return len(m) >= 2 && m[0] == 'o' && m[1] >= '0' && m[1] <= '9'
}
