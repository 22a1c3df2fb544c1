package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"
)

// ErrNoContent is returned when no page produced any text to brief from
var ErrNoContent = errors.New("no scraped content to brief")

// BriefWriter turns scraped page text into a content brief
type BriefWriter interface {
	WriteBrief(ctx context.Context, keyword string, sites []SiteScrape) (string, error)
	Model() string
}

const briefSystemPrompt = `You are an experienced SEO content strategist. You write content briefs that
tell a writer exactly what a page must cover to compete with the pages that
currently rank for a keyword. Base every recommendation on the competitor
text you are given. Answer in markdown.`

// BuildBriefPrompt returns the system and user messages for a brief
func BuildBriefPrompt(keyword, content string) (string, string) {
	user := fmt.Sprintf(`Create a content brief for the keyword "%s".

Below are the headings and paragraphs scraped from the top-ranking pages.
Each block starts with its source URL; each line is prefixed with the HTML tag
it came from.

%s

The brief must contain these sections:
1. **Search intent** - what the searcher wants, in one or two sentences.
2. **Suggested title** and **meta description** (under 160 characters).
3. **Outline** - a recommended H2/H3 structure.
4. **Key topics and entities** the competitors cover and the page must cover.
5. **Questions to answer** in the content.
6. **Target word count**, estimated from the competitors.`, keyword, content)

	return briefSystemPrompt, user
}

// cleanBrief strips a code fence wrapped around the whole answer
func cleanBrief(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		if nl := strings.Index(cleaned, "\n"); nl >= 0 {
			cleaned = cleaned[nl+1:]
		} else {
			cleaned = strings.TrimPrefix(cleaned, "```")
		}
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	return strings.TrimSpace(cleaned)
}

// OpenAIBriefWriter uses an OpenAI compatible chat-completion endpoint
type OpenAIBriefWriter struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *log.Logger
}

func NewOpenAIBriefWriter(apiKey, model, baseURL string, logger *log.Logger) (*OpenAIBriefWriter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key", ErrMissingInput)
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimSuffix(baseURL, "/")
	}

	return &OpenAIBriefWriter{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: 0.7,
		logger:      logger,
	}, nil
}

func (w *OpenAIBriefWriter) Model() string {
	return w.model
}

func (w *OpenAIBriefWriter) WriteBrief(ctx context.Context, keyword string, sites []SiteScrape) (string, error) {
	content := FormatScrapesForPrompt(sites)
	if content == "" {
		return "", ErrNoContent
	}

	system, user := BuildBriefPrompt(keyword, content)
	w.logger.Debug("requesting brief", "model", w.model, "promptBytes", len(user))

	resp, err := w.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       w.model,
		Temperature: w.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned by %s", w.model)
	}

	brief := cleanBrief(resp.Choices[0].Message.Content)
	if brief == "" {
		return "", fmt.Errorf("empty brief returned by %s", w.model)
	}

	w.logger.Debug("brief received", "model", w.model, "tokens", resp.Usage.TotalTokens)
	return brief, nil
}

// GeminiBriefWriter uses the Gemini generative-language API
type GeminiBriefWriter struct {
	apiKey string
	model  string
	opts   []option.ClientOption
	logger *log.Logger
}

func NewGeminiBriefWriter(apiKey, model string, logger *log.Logger, opts ...option.ClientOption) (*GeminiBriefWriter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key", ErrMissingInput)
	}
	return &GeminiBriefWriter{apiKey: apiKey, model: model, opts: opts, logger: logger}, nil
}

func (w *GeminiBriefWriter) Model() string {
	return w.model
}

func (w *GeminiBriefWriter) WriteBrief(ctx context.Context, keyword string, sites []SiteScrape) (string, error) {
	content := FormatScrapesForPrompt(sites)
	if content == "" {
		return "", ErrNoContent
	}

	opts := append([]option.ClientOption{option.WithAPIKey(w.apiKey)}, w.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("creating Gemini client: %w", err)
	}
	defer client.Close()

	system, user := BuildBriefPrompt(keyword, content)

	model := client.GenerativeModel(w.model)
	model.SetTemperature(0.7)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	w.logger.Debug("requesting brief", "model", w.model, "promptBytes", len(user))
	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	brief := cleanBrief(text)
	if brief == "" {
		return "", fmt.Errorf("empty brief returned by %s", w.model)
	}
	return brief, nil
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned in response, possible safety filter")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content parts in the first candidate")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("expected text part in response, got: %+v", candidate.Content.Parts[0])
	}
	return b.String(), nil
}

// NewBriefWriter picks the writer for the configured provider
func NewBriefWriter(cfg *Config, apiKey string, logger *log.Logger) (BriefWriter, error) {
	switch cfg.BriefProvider {
	case "openai":
		return NewOpenAIBriefWriter(apiKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, logger)
	case "gemini":
		return NewGeminiBriefWriter(apiKey, cfg.GeminiModel, logger)
	default:
		return nil, fmt.Errorf("briefs are disabled (BRIEF_PROVIDER=%s)", cfg.BriefProvider)
	}
}
