package hub

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

	apperrors "paco-bot/backend/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client talks to the Paco Hub REST API: agent interaction, knowledge base
// search, and support tickets. All endpoints are JSON over HTTP(S).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a Hub client. ratePerSec throttles all outbound calls
// through a shared token bucket so a chatty channel cannot flood the Hub.
func NewClient(baseURL, apiKey string, timeout time.Duration, ratePerSec float64, logger *zap.Logger) *Client {
	if ratePerSec <= 0 {
		ratePerSec = 5
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), int(ratePerSec)+1),
		logger:     logger,
	}
}

// InteractRequest is the body for POST /api/agents/interact
type InteractRequest struct {
	AgentID      string `json:"agentId"`
	Message      string `json:"message"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
	Context      string `json:"context,omitempty"`
}

// InteractResponse is the Hub's answer. The Hub has historically used both
// "response" and "message" for the text field.
type InteractResponse struct {
	Response  string `json:"response"`
	Message   string `json:"message"`
	AgentName string `json:"agentName,omitempty"`
}

// Text returns whichever response field the Hub populated
func (r *InteractResponse) Text() string {
	if r.Response != "" {
		return r.Response
	}
	return r.Message
}

// Interact routes a message through the Hub's agent orchestration
func (c *Client) Interact(ctx context.Context, req InteractRequest) (*InteractResponse, error) {
	var resp InteractResponse
	if err := c.post(ctx, "/api/agents/interact", req, &resp); err != nil {
		return nil, err
	}
	if resp.Text() == "" {
		return nil, apperrors.NewHubRequestFailed("/api/agents/interact", http.StatusOK,
			fmt.Errorf("empty response body"))
	}
	return &resp, nil
}

// KBResult is one knowledge-base search hit
type KBResult struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Content string `json:"content"`
}

type kbSearchResponse struct {
	Results []KBResult `json:"results"`
}

// SearchKB queries GET /api/kb/search
func (c *Client) SearchKB(ctx context.Context, query string, limit int) ([]KBResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	var resp kbSearchResponse
	if err := c.get(ctx, "/api/kb/search?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// TicketRequest is the body for POST /api/support/tickets
type TicketRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Category    string   `json:"category"`
	Customer    string   `json:"customer"`
	Tags        []string `json:"tags,omitempty"`
}

// Ticket is the created ticket as returned by the Hub
type Ticket struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Title    string `json:"title"`
}

type ticketResponse struct {
	Ticket Ticket `json:"ticket"`
}

// CreateTicket files a support ticket with the Hub
func (c *Client) CreateTicket(ctx context.Context, req TicketRequest) (*Ticket, error) {
	var resp ticketResponse
	if err := c.post(ctx, "/api/support/tickets", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Ticket, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(data), out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.NewContextCancelled("hub request", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create hub request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Hub request failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %s: %v", apperrors.ErrHubUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body for the log, then discard
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Hub returned non-2xx",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return apperrors.NewHubRequestFailed(path, resp.StatusCode, nil)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.NewHubRequestFailed(path, resp.StatusCode, err)
		}
	}

	c.logger.Debug("Hub request completed",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
