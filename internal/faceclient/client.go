// Package faceclient calls the face recognition microservice that backs
// AI-assisted attendance.
package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RebuildResult contains the enrollment rebuild response.
type RebuildResult struct {
	UniversityRoll string  `json:"university_roll"`
	Success        bool    `json:"success"`
	QualityScore   float64 `json:"quality_score"`
	Message        string  `json:"message"`
}

// Client calls the face recognition microservice.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client with configurable timeout.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // Face processing can take time
		},
	}
}

// Health pings the face service.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("face service unhealthy: %s", resp.Status)
	}
	return nil
}

// RebuildEmbedding asks the service to re-enroll a student's face from a new
// reference photo. Called by the worker after photo uploads; never from the
// request path.
func (c *Client) RebuildEmbedding(ctx context.Context, universityRoll, photoURL string) (*RebuildResult, error) {
	if c.Skip {
		return &RebuildResult{UniversityRoll: universityRoll, Success: true, QualityScore: 0.95}, nil
	}
	if universityRoll == "" || photoURL == "" {
		return nil, fmt.Errorf("roll and photo url required")
	}

	body, _ := json.Marshal(map[string]string{
		"university_roll": universityRoll,
		"image_url":       photoURL,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/enroll", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("face service error %s: %s", resp.Status, string(bodyBytes))
	}

	var out RebuildResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}
