package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
	"quizhub-service/internal/logger"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 60 * time.Second
	maxErrorBody   = 300
)

// Options configures the generator client.
type Options struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Generator drafts quizzes through an OpenAI-compatible chat completions API.
type Generator struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	log     *logger.Logger
}

// NewGenerator returns nil when no API key is configured so callers can
// leave generation disabled.
func NewGenerator(opts Options, log *logger.Logger) *Generator {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Generator{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		model:   opts.Model,
		http:    &http.Client{Timeout: opts.Timeout},
		log:     log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `You write multiple choice quizzes. Reply with a single JSON object:
{"title": string, "description": string, "questionsArray": [{"questionText": string, "options": [string, string, string, string], "correctAnswerIndex": integer}]}`

func buildPrompt(req app.GenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a multiple choice quiz about %q.\n", req.Topic)
	fmt.Fprintf(&b, "Difficulty: %s.\n", req.Difficulty)
	fmt.Fprintf(&b, "Number of questions: %d.\n", req.NumQuestions)
	if ctx := strings.TrimSpace(req.Context); ctx != "" {
		fmt.Fprintf(&b, "Additional Context/Instructions: %s\n", ctx)
	}
	b.WriteString("Ensure 'options' has exactly 4 choices and 'correctAnswerIndex' is 0-3.")
	return b.String()
}

// GenerateQuiz sends the prompt and parses the draft from the first choice.
func (g *Generator) GenerateQuiz(ctx context.Context, req app.GenerateRequest) (domain.GeneratedQuiz, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(req)},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    0.7,
	})
	if err != nil {
		return domain.GeneratedQuiz{}, fmt.Errorf("%w: encode request: %v", domain.ErrGenerationFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return domain.GeneratedQuiz{}, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	start := time.Now()
	resp, err := g.http.Do(httpReq)
	if err != nil {
		return domain.GeneratedQuiz{}, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.GeneratedQuiz{}, fmt.Errorf("%w: read response: %v", domain.ErrGenerationFailed, err)
	}
	g.log.Debug("quiz generator responded", "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		snippet := string(raw)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return domain.GeneratedQuiz{}, fmt.Errorf("%w: status %d: %s", domain.ErrGenerationFailed, resp.StatusCode, snippet)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return domain.GeneratedQuiz{}, fmt.Errorf("%w: decode response: %v", domain.ErrGenerationFailed, err)
	}
	if len(parsed.Choices) == 0 {
		return domain.GeneratedQuiz{}, fmt.Errorf("%w: no choices in response", domain.ErrGenerationFailed)
	}

	var quiz domain.GeneratedQuiz
	content := stripCodeFence(parsed.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &quiz); err != nil {
		return domain.GeneratedQuiz{}, fmt.Errorf("%w: decode quiz: %v", domain.ErrGenerationFailed, err)
	}
	if len(quiz.QuestionsArray) == 0 {
		return domain.GeneratedQuiz{}, fmt.Errorf("%w: no questions returned", domain.ErrGenerationFailed)
	}
	return quiz, nil
}

// stripCodeFence removes a ```json fence some models wrap around JSON output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
