package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/cirqulofit/internal/models"
)

// HTTPClient implements Tracker by calling the CirquloFit REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the session lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// StatusError is a non-2xx answer from the REST API.
type StatusError struct {
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpclient: %s returned %d: %s", e.Path, e.Status, e.Message)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, payload any) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("httpclient: encode %s: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(data))
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return nil, &StatusError{Path: path, Status: resp.StatusCode, Message: msg}
	}

	return data, nil
}

// state sends a command endpoint request and decodes the returned app state.
func (c *HTTPClient) state(ctx context.Context, method, path string, payload any) (models.AppState, error) {
	body, err := c.do(ctx, method, path, nil, payload)
	if err != nil {
		return models.AppState{}, err
	}
	var st models.AppState
	if err := json.Unmarshal(body, &st); err != nil {
		return models.AppState{}, fmt.Errorf("httpclient: decode state: %w", err)
	}
	return st, nil
}

func setPath(exerciseIndex, setIndex int, action string) string {
	return fmt.Sprintf("/api/v1/session/exercises/%d/sets/%d/%s", exerciseIndex, setIndex, action)
}

func (c *HTTPClient) State(ctx context.Context) (models.AppState, error) {
	return c.state(ctx, http.MethodGet, "/api/v1/state", nil)
}

func (c *HTTPClient) StartWorkout(ctx context.Context) (models.AppState, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/session/start", nil)
}

func (c *HTTPClient) StopWorkout(ctx context.Context) (models.AppState, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/session/stop", nil)
}

func (c *HTTPClient) CompleteSet(ctx context.Context, exerciseIndex, setIndex int) (models.AppState, error) {
	return c.state(ctx, http.MethodPost, setPath(exerciseIndex, setIndex, "complete"), nil)
}

func (c *HTTPClient) UpdateWeight(ctx context.Context, exerciseIndex, setIndex int, weight float64) (models.AppState, error) {
	return c.state(ctx, http.MethodPut, setPath(exerciseIndex, setIndex, "weight"), map[string]float64{"weight": weight})
}

func (c *HTTPClient) UpdateReps(ctx context.Context, exerciseIndex, setIndex, reps int) (models.AppState, error) {
	return c.state(ctx, http.MethodPut, setPath(exerciseIndex, setIndex, "reps"), map[string]int{"reps": reps})
}

func (c *HTTPClient) StartTimer(ctx context.Context, seconds int, timerType models.TimerType) (models.AppState, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/timer/start", map[string]any{"duration": seconds, "type": timerType})
}

func (c *HTTPClient) StopTimer(ctx context.Context) (models.AppState, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/timer/stop", nil)
}

func (c *HTTPClient) CompleteWorkout(ctx context.Context) (models.AppState, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/session/complete", nil)
}

func (c *HTTPClient) History(ctx context.Context, limit, offset int) ([]models.WorkoutSession, int, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	body, err := c.do(ctx, http.MethodGet, "/api/v1/user/history", params, nil)
	if err != nil {
		return nil, 0, err
	}

	var resp struct {
		Total int                     `json:"total"`
		Items []models.WorkoutSession `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, 0, fmt.Errorf("httpclient: decode history: %w", err)
	}
	return resp.Items, resp.Total, nil
}
