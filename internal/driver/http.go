package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/votesheet/internal/domain/types"
)

// Client talks to the vote sheet HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Health checks /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// Sheet fetches the whole sheet.
func (c *Client) Sheet(ctx context.Context) (types.Sheet, error) {
	var sheet types.Sheet
	err := c.do(ctx, http.MethodGet, "/sheet", nil, &sheet)
	return sheet, err
}

// Rankings fetches the first limit ranking entries.
func (c *Client) Rankings(ctx context.Context, limit int) ([]types.Entry, error) {
	var entries []types.Entry
	err := c.do(ctx, http.MethodGet, "/rankings?limit="+strconv.Itoa(limit), nil, &entries)
	return entries, err
}

// Reset restores the sheet's original votes.
func (c *Client) Reset(ctx context.Context) (types.Sheet, error) {
	var sheet types.Sheet
	err := c.do(ctx, http.MethodPost, "/reset", nil, &sheet)
	return sheet, err
}

// PutVote submits one edit.
func (c *Client) PutVote(ctx context.Context, e Edit) (types.VoteResult, error) {
	var res types.VoteResult
	err := c.do(ctx, http.MethodPut, "/votes", e, &res)
	return res, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s %s: %d %s", ErrUnexpectedStatus, method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}
