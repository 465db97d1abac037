// Package standings fetches tournament state from a running arena service
// and renders it for the terminal.
package standings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	service "github.com/okian/arena/internal/app"
	"github.com/okian/arena/internal/domain/rating"
	"github.com/okian/arena/internal/domain/types"
)

// ErrUnexpectedStatus is returned for any non-2xx answer.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Config holds the client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Report is everything the standings view shows.
type Report struct {
	Statistics rating.Statistics
	// Progress is nil when the service runs without a tournament.
	Progress *service.ProgressView
	Games    []types.GameSummary
	Active   []service.ActiveGame
}

// Client reads the status API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// getJSON decodes the body of GET path into v and reports whether the
// resource existed.
func (c *Client) getJSON(ctx context.Context, path string, v any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("%w: GET %s: %d %s", ErrUnexpectedStatus, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

// Fetch collects a Report with up to games recent games; zero skips them.
func (c *Client) Fetch(ctx context.Context, games int) (*Report, error) {
	var r Report
	if _, err := c.getJSON(ctx, "/api/statistics", &r.Statistics); err != nil {
		return nil, err
	}

	var progress service.ProgressView
	found, err := c.getJSON(ctx, "/api/progress", &progress)
	if err != nil {
		return nil, err
	}
	if found {
		r.Progress = &progress
	}

	var active struct {
		Games []service.ActiveGame `json:"games"`
	}
	if _, err := c.getJSON(ctx, "/api/active-games", &active); err != nil {
		return nil, err
	}
	r.Active = active.Games

	if games > 0 {
		var list struct {
			Games []types.GameSummary `json:"games"`
		}
		if _, err := c.getJSON(ctx, "/api/games?limit="+strconv.Itoa(games), &list); err != nil {
			return nil, err
		}
		r.Games = list.Games
	}
	return &r, nil
}
