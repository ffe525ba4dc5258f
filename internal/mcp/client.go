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
	"time"

	"github.com/devricklin/smart-listener/internal/api"
	"github.com/devricklin/smart-listener/internal/biz/domain"
	"github.com/devricklin/smart-listener/internal/service"
)

// Client is the HTTP client for the listener's admin API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new admin API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetConfig gets the gate configuration
func (c *Client) GetConfig(ctx context.Context) (*api.ConfigView, error) {
	var view api.ConfigView
	if err := c.get(ctx, "/api/config", &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// GetGroups lists groups with tracked history
func (c *Client) GetGroups(ctx context.Context) ([]string, error) {
	var result struct {
		Groups []string `json:"groups"`
	}
	if err := c.get(ctx, "/api/groups", &result); err != nil {
		return nil, err
	}
	return result.Groups, nil
}

// GetHistory gets a group's history, oldest first
func (c *Client) GetHistory(ctx context.Context, groupID string) ([]domain.HistoryEntry, error) {
	var result struct {
		Entries []domain.HistoryEntry `json:"entries"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/groups/%s/history", url.PathEscape(groupID)), &result); err != nil {
		return nil, err
	}
	return result.Entries, nil
}

// RecordReply appends a bot reply to a group's history
func (c *Client) RecordReply(ctx context.Context, groupID, text string) (bool, error) {
	var result struct {
		Recorded bool `json:"recorded"`
	}
	path := fmt.Sprintf("/api/groups/%s/replies", url.PathEscape(groupID))
	if err := c.post(ctx, path, api.ReplyRequest{Text: text}, &result); err != nil {
		return false, err
	}
	return result.Recorded, nil
}

// Judge runs a dry-run judgment
func (c *Client) Judge(ctx context.Context, groupID, sender, text string) (*service.JudgeResult, error) {
	var result service.JudgeResult
	body := api.JudgeRequest{GroupID: groupID, Sender: sender, Text: text}
	if err := c.post(ctx, "/api/judge", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetJudgments lists recent judgments, newest first
func (c *Client) GetJudgments(ctx context.Context, groupID string, limit int) ([]*domain.Judgment, error) {
	q := url.Values{}
	if groupID != "" {
		q.Set("group", groupID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/judgments"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result struct {
		Judgments []*domain.Judgment `json:"judgments"`
	}
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result.Judgments, nil
}

// ============ HTTP Helpers ============

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, result)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP %s failed: %w", req.Method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
