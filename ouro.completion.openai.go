package ouro

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
)

// OpenAIConfig configures an OpenAICompletionService.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // default OpenAIDefaultBaseURL
	Model   string // default OpenAIDefaultModel

	// HTTPClient overrides the transport (nil = client with OpenAIDefaultTimeout)
	HTTPClient *http.Client

	// Logger receives request/response debug events (nil = nop logger)
	Logger *zap.Logger
}

// OpenAIConfigFromEnv reads OURO_API_KEY, OURO_ENDPOINT and OURO_MODEL.
func OpenAIConfigFromEnv() OpenAIConfig {
	return OpenAIConfig{
		APIKey:  os.Getenv(OpenAIAPIKeyEnvVar),
		BaseURL: os.Getenv(OpenAIEndpointEnvVar),
		Model:   os.Getenv(OpenAIModelEnvVar),
	}
}

// OpenAICompletionService completes text through any OpenAI-compatible
// /chat/completions endpoint. The document is sent as a single user turn.
// It never retries.
type OpenAICompletionService struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAICompletionService creates the adapter, applying defaults to
// unset config fields.
func NewOpenAICompletionService(cfg OpenAIConfig) *OpenAICompletionService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenAIDefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = OpenAIDefaultModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: OpenAIDefaultTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &OpenAICompletionService{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
}

// Model returns the default model
func (s *OpenAICompletionService) Model() string { return s.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Complete implements CompletionService.
func (s *OpenAICompletionService) Complete(ctx context.Context, text string, opts *CompletionOptions) (string, error) {
	req := chatCompletionRequest{
		Model:    s.model,
		Messages: []chatMessage{{Role: OpenAIRoleUser, Content: text}},
	}
	if opts != nil {
		if opts.Model != "" {
			req.Model = opts.Model
		}
		req.Temperature = opts.Temperature
		req.MaxTokens = opts.MaxTokens
		req.Stop = opts.Stop
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", NewCompletionError(CompletionProviderOpenAI, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+OpenAIChatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return "", NewCompletionError(CompletionProviderOpenAI, err)
	}
	httpReq.Header.Set(OpenAIHeaderContentType, OpenAIContentTypeJSON)
	if s.apiKey != "" {
		httpReq.Header.Set(OpenAIHeaderAuthorization, OpenAIBearerPrefix+s.apiKey)
	}

	s.logger.Debug(LogMsgCompletionRequest,
		zap.String(LogFieldModel, req.Model),
		zap.Int(LogFieldLength, len(text)))

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", NewCompletionError(CompletionProviderOpenAI, err)
	}
	defer resp.Body.Close()

	s.logger.Debug(LogMsgCompletionResponse, zap.Int(LogFieldStatus, resp.StatusCode))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, OpenAIMaxErrorBodyBytes))
		return "", NewCompletionStatusError(CompletionProviderOpenAI, resp.StatusCode, string(snippet))
	}

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", NewCompletionError(CompletionProviderOpenAI, err)
	}
	if len(out.Choices) == 0 {
		return "", NewCompletionError(CompletionProviderOpenAI, errors.New(ErrMsgCompletionNoChoices))
	}
	return out.Choices[0].Message.Content, nil
}
