package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

type apiJobs struct {
	baseURL string
	client  *http.Client
}

// NewAPIJobs triggers jobs through the server's admin API, for deployments
// that run the scheduler as a separate process.
func NewAPIJobs(baseURL string, client *http.Client) Jobs {
	return &apiJobs{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (j *apiJobs) Sweep(ctx context.Context) (int, error) {
	var out struct {
		Updated int `json:"updated"`
	}
	if err := j.post(ctx, "/api/v1/admin/sweep", &out); err != nil {
		return 0, err
	}
	return out.Updated, nil
}

func (j *apiJobs) Remind(ctx context.Context, days int) (int, error) {
	var out struct {
		Reminded []string `json:"reminded"`
	}
	if err := j.post(ctx, "/api/v1/admin/reminders?days="+strconv.Itoa(days), &out); err != nil {
		return 0, err
	}
	return len(out.Reminded), nil
}

func (j *apiJobs) Sync(ctx context.Context) (int, error) {
	var out struct {
		Pending int `json:"pending"`
	}
	if err := j.post(ctx, "/api/v1/admin/sync", &out); err != nil {
		return 0, err
	}
	return out.Pending, nil
}

func (j *apiJobs) post(ctx context.Context, path string, data interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Actor-ID", Actor)
	req.Header.Set("X-Actor-Role", "admin")

	resp, err := j.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest || !envelope.Success {
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, envelope.Message)
	}
	return json.Unmarshal(envelope.Data, data)
}
