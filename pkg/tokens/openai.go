package tokens

import (
	openai "github.com/sashabaranov/go-openai"
)

// FromResponse extracts authoritative token usage from a chat-completion
// response. When the provider reported usage numbers, those are returned
// with exact confidence and the second result is true. When the usage
// block is absent or empty, the second result is false and the caller
// should fall back to counting the response content.
func FromResponse(resp *openai.ChatCompletionResponse) (Usage, bool) {
	if resp == nil {
		return Usage{}, false
	}
	u := resp.Usage
	if u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0 {
		return Usage{}, false
	}

	return Usage{
		InputTokens:  int64(u.PromptTokens),
		OutputTokens: int64(u.CompletionTokens),
		Confidence:   ConfidenceExact,
	}, true
}

// ContentFromResponse concatenates the message content of every choice in
// a chat-completion response, for counting when no usage block is present.
func ContentFromResponse(resp *openai.ChatCompletionResponse) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}

	var out string
	for _, choice := range resp.Choices {
		out += choice.Message.Content
	}
	return out
}

// MessagesFromRequest converts chat-completion request messages into the
// counter's message shape so the input side of an exchange can be counted
// when no authoritative prompt count exists.
func MessagesFromRequest(req *openai.ChatCompletionRequest) []Message {
	if req == nil || len(req.Messages) == 0 {
		return nil
	}

	msgs := make([]Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, Message{
			Role:    m.Role,
			Content: m.Content,
			Name:    m.Name,
		})
	}
	return msgs
}
