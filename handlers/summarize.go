package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"feedhub-gateway/middleware/respond"

	"github.com/go-kit/log/level"
	"github.com/sashabaranov/go-openai"
)

const maxSummaryInput = 20_000

type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// ChatCompleter é o pedaço do cliente go-openai que o resumo usa.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewOpenAIClient aceita baseURL vazio (API pública) ou um endpoint compatível.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

type OpenAISummarizer struct {
	client ChatCompleter
	model  string
}

func NewOpenAISummarizer(client ChatCompleter, model string) *OpenAISummarizer {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAISummarizer{client: client, model: model}
}

var errEmptyCompletion = errors.New("empty response from AI provider")

func (s *OpenAISummarizer) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Summarize the article for a feed reader in at most three sentences. Reply with the summary only.",
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("ai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type SummarizeRequest struct {
	Text string `json:"text"`
}

type SummarizeResponse struct {
	Summary string `json:"summary"`
}

// Summarize é a rota cara (tier highCost, com teto de concorrência).
func (a *API) Summarize(w http.ResponseWriter, r *http.Request) {
	if a.Summarizer == nil {
		respond.Error(http.StatusServiceUnavailable, "AI provider not configured").Write(w)
		return
	}

	var req SummarizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		respond.Error(http.StatusBadRequest, "text is required").Write(w)
		return
	}
	if utf8.RuneCountInString(text) > maxSummaryInput {
		respond.Error(http.StatusRequestEntityTooLarge, "text is too long").Write(w)
		return
	}

	summary, err := a.Summarizer.Summarize(r.Context(), text)
	if err != nil {
		_ = level.Error(a.logger()).Log("msg", "summarize failed", "err", err)
		respond.Error(http.StatusBadGateway, "AI provider error").Write(w)
		return
	}

	respond.JSON(w, http.StatusOK, SummarizeResponse{Summary: summary})
}
