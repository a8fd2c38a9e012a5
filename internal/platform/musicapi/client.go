package musicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trackstudio/trackstudio-api/internal/domain"
	"github.com/trackstudio/trackstudio-api/internal/generation"
)

// Provider response codes that signal an exhausted credit balance.
const (
	codeInsufficientCredits = 402
	codeRateLimited         = 429
)

// defaultTimeout bounds a single provider round trip.
const defaultTimeout = 30 * time.Second

// Config holds the settings needed to reach the provider API.
type Config struct {
	// BaseURL is the provider API root, e.g. "https://api.sunoapi.org".
	BaseURL string

	// APIKey is sent as a Bearer token on every request.
	APIKey string

	// CallbackURL, when set, is injected into submissions that do not
	// carry their own callback target.
	CallbackURL string

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the provider's generation endpoints. It implements
// generation.Client and generation.StatusClient.
type Client struct {
	logger      *slog.Logger
	baseURL     string
	apiKey      string
	callbackURL string
	httpClient  *http.Client
}

// Interface checks
var (
	_ generation.Client       = (*Client)(nil)
	_ generation.StatusClient = (*Client)(nil)
)

// NewClient creates a provider client from the given configuration.
func NewClient(logger *slog.Logger, cfg Config) (*Client, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", generation.ErrInvalidConfig)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key cannot be empty", generation.ErrInvalidConfig)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		logger:      logger.With(slog.String("component", "musicapi_client")),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		callbackURL: cfg.CallbackURL,
		httpClient:  httpClient,
	}, nil
}

// envelope is the provider's uniform response wrapper.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type submitData struct {
	TaskID           string   `json:"taskId"`
	CreditsRemaining *float64 `json:"creditsRemaining"`
}

type recordInfoData struct {
	TaskID       string `json:"taskId"`
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage"`
}

// Submit sends a generation request to the provider and returns the task
// ID it assigned. An exhausted credit balance is reported as
// generation.ErrInsufficientCredits; every other rejection wraps
// generation.ErrSubmissionFailed with the provider's message verbatim.
func (c *Client) Submit(ctx context.Context, params domain.GenerationParams) (*generation.SubmitResult, error) {
	if params.CallBackURL == "" {
		params.CallBackURL = c.callbackURL
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", generation.ErrSubmissionFailed, err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/api/v1/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", generation.ErrSubmissionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	env, status, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrSubmissionFailed, err)
	}

	if status == http.StatusPaymentRequired ||
		env.Code == codeInsufficientCredits || env.Code == codeRateLimited {
		c.logger.Warn("provider refused submission for lack of credits",
			slog.Int("http_status", status),
			slog.Int("provider_code", env.Code))
		return nil, fmt.Errorf("%w: %s", generation.ErrInsufficientCredits, providerMsg(env))
	}

	if status != http.StatusOK || env.Code != http.StatusOK {
		c.logger.Warn("provider rejected submission",
			slog.Int("http_status", status),
			slog.Int("provider_code", env.Code),
			slog.String("provider_msg", env.Msg))
		return nil, fmt.Errorf("%w: %s", generation.ErrSubmissionFailed, providerMsg(env))
	}

	var data submitData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: decode submit data: %v", generation.ErrInvalidResponse, err)
	}
	if data.TaskID == "" {
		return nil, fmt.Errorf("%w: submission accepted without a task ID", generation.ErrInvalidResponse)
	}

	c.logger.Debug("submission accepted", slog.String("task_id", data.TaskID))

	return &generation.SubmitResult{
		TaskID:         data.TaskID,
		CreditsBalance: data.CreditsRemaining,
	}, nil
}

// Status queries the provider for the current state of a task and
// normalizes the provider's status vocabulary into a generation.TaskStatus.
func (c *Client) Status(ctx context.Context, taskID string) (*generation.StatusResult, error) {
	if taskID == "" {
		return nil, fmt.Errorf("%w: task ID cannot be empty", generation.ErrTaskNotFound)
	}

	endpoint := c.baseURL + "/api/v1/generate/record-info?taskId=" + url.QueryEscape(taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	env, status, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("status request for task %s: %w", taskID, err)
	}

	if status == http.StatusNotFound || env.Code == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", generation.ErrTaskNotFound, taskID)
	}
	if status != http.StatusOK || env.Code != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", generation.ErrInvalidResponse, providerMsg(env))
	}

	var data recordInfoData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: decode status data: %v", generation.ErrInvalidResponse, err)
	}

	result := &generation.StatusResult{
		TaskID:       taskID,
		Status:       normalizeStatus(data.Status),
		ErrorMessage: data.ErrorMessage,
	}
	if result.Status == generation.TaskStatusFailed && result.ErrorMessage == "" {
		result.ErrorMessage = data.Status
	}
	return result, nil
}

// do executes the request and decodes the response envelope. Transport
// failures and unparseable bodies are returned as plain errors; callers
// decide which sentinel to wrap them in.
func (c *Client) do(req *http.Request) (*envelope, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode envelope (status %d): %w", resp.StatusCode, err)
	}
	return &env, resp.StatusCode, nil
}

// providerMsg returns the provider's message, or a placeholder when the
// provider sent none.
func providerMsg(env *envelope) string {
	if env.Msg != "" {
		return env.Msg
	}
	return fmt.Sprintf("provider error code %d", env.Code)
}

// normalizeStatus folds the provider's status vocabulary, current and
// legacy, into the four coarse states the orchestrator tracks. Unknown
// statuses are treated as still pending.
func normalizeStatus(raw string) generation.TaskStatus {
	switch strings.ToUpper(raw) {
	case "PENDING", "TEXT_SUCCESS", "TEXT":
		return generation.TaskStatusPending
	case "FIRST_SUCCESS", "FIRST":
		return generation.TaskStatusFirst
	case "SUCCESS", "COMPLETE":
		return generation.TaskStatusCompleted
	case "ERROR", "CREATE_TASK_FAILED", "GENERATE_AUDIO_FAILED",
		"CALLBACK_EXCEPTION", "SENSITIVE_WORD_ERROR":
		return generation.TaskStatusFailed
	default:
		return generation.TaskStatusPending
	}
}
