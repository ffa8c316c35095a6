package prompt

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultGeminiBaseURL is the public Generative Language API endpoint.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultGeminiModel answers quiz prompts unless overridden.
	DefaultGeminiModel = "gemini-1.5-flash-latest"
	// DefaultMaxOutputTokens caps reply length.
	DefaultMaxOutputTokens = 8192

	defaultGeminiTimeout = 2 * time.Minute
)

// Gemini calls the generateContent and streamGenerateContent endpoints.
type Gemini struct {
	apiKey     string
	model      string
	maxTokens  int
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ Client = (*Gemini)(nil)

// GeminiOption customises a Gemini client.
type GeminiOption func(*Gemini)

// WithModel overrides the model name.
func WithModel(model string) GeminiOption {
	return func(g *Gemini) {
		if model = strings.TrimSpace(model); model != "" {
			g.model = model
		}
	}
}

// WithMaxOutputTokens caps the reply length.
func WithMaxOutputTokens(n int) GeminiOption {
	return func(g *Gemini) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithBaseURL points the client at another endpoint.
func WithBaseURL(base string) GeminiOption {
	return func(g *Gemini) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
			g.baseURL = base
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) GeminiOption {
	return func(g *Gemini) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithClientLogger attaches a logger for request tracing.
func WithClientLogger(logger zerolog.Logger) GeminiOption {
	return func(g *Gemini) {
		g.logger = logger
	}
}

// NewGemini constructs a client for apiKey.
func NewGemini(apiKey string, options ...GeminiOption) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	g := &Gemini{
		apiKey:     apiKey,
		model:      DefaultGeminiModel,
		maxTokens:  DefaultMaxOutputTokens,
		baseURL:    DefaultGeminiBaseURL,
		httpClient: &http.Client{Timeout: defaultGeminiTimeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// Model implements Client.
func (g *Gemini) Model() string {
	return g.model
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

func (r geminiResponse) text() (string, error) {
	if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt: blocked: %s", r.PromptFeedback.BlockReason)
	}
	if len(r.Candidates) == 0 {
		return "", nil
	}
	var b strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

// Generate implements Client.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, reqID, err := g.post(ctx, "generateContent", nil, prompt)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("prompt: decode response: %w", err)
	}
	text, err := decoded.text()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	g.logger.Debug().Str("req_id", reqID).Int("chars", len(text)).Msg("gemini response")
	return text, nil
}

// Stream implements Client using server-sent events.
func (g *Gemini) Stream(ctx context.Context, prompt string, onChunk func(string) error) (string, error) {
	resp, reqID, err := g.post(ctx, "streamGenerateContent", url.Values{"alt": {"sse"}}, prompt)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			continue
		}
		var decoded geminiResponse
		if err := json.Unmarshal([]byte(data), &decoded); err != nil {
			return full.String(), fmt.Errorf("prompt: decode stream chunk: %w", err)
		}
		chunk, err := decoded.text()
		if err != nil {
			return full.String(), err
		}
		if chunk == "" {
			continue
		}
		full.WriteString(chunk)
		if onChunk != nil {
			if err := onChunk(chunk); err != nil {
				return full.String(), err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("prompt: read stream: %w", err)
	}
	if strings.TrimSpace(full.String()) == "" {
		return "", ErrEmptyResponse
	}
	g.logger.Debug().Str("req_id", reqID).Int("chars", full.Len()).Msg("gemini stream complete")
	return full.String(), nil
}

func (g *Gemini) post(ctx context.Context, method string, query url.Values, prompt string) (*http.Response, string, error) {
	var body geminiRequest
	body.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}}
	body.GenerationConfig.MaxOutputTokens = g.maxTokens

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("prompt: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:%s", g.baseURL, url.PathEscape(g.model), method)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("prompt: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	reqID := uuid.NewString()
	start := time.Now()
	g.logger.Debug().Str("req_id", reqID).Str("model", g.model).Str("method", method).
		Int("content_length", len(payload)).Msg("gemini request")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error().Err(err).Str("req_id", reqID).Dur("elapsed", time.Since(start)).Msg("gemini request failed")
		return nil, reqID, fmt.Errorf("prompt: send request: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		g.logger.Error().Str("req_id", reqID).Int("status", resp.StatusCode).Msg("gemini non-2xx response")
		return nil, reqID, fmt.Errorf("prompt: gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return resp, reqID, nil
}
