// Package remote talks to the budget persistence API on behalf of a
// budget.Store.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/log"
)

const (
	defaultTimeout        = 15 * time.Second
	defaultIdentityHeader = "X-Budget-Identity"
	maxResponseBytes      = 4 << 20
)

var ErrRejected = errors.New("budget API rejected the request")

// Options configures a Client. BaseURL is required.
type Options struct {
	BaseURL        string
	Token          string
	IdentityHeader string
	HTTPClient     *http.Client
	Logger         *log.Logger
}

// Client implements budget.Remote over HTTP.
type Client struct {
	base           *url.URL
	token          string
	identityHeader string
	http           *http.Client
	logger         *log.Logger
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("invalid budget API URL %q", opts.BaseURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	header := opts.IdentityHeader
	if header == "" {
		header = defaultIdentityHeader
	}
	return &Client{
		base:           base,
		token:          opts.Token,
		identityHeader: header,
		http:           hc,
		logger:         log.OrDiscard(opts.Logger).WithComponent(log.ComponentRemote),
	}, nil
}

type loadResponse struct {
	Success     bool            `json:"success"`
	Data        json.RawMessage `json:"data"`
	LastUpdated string          `json:"last_updated"`
	Message     string          `json:"message"`
}

type saveRequest struct {
	BudgetData core.Document `json:"budget_data"`
}

type saveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Load fetches the saved document of identity. It reports false when the
// API answers success with null data.
func (c *Client) Load(ctx context.Context, identity string) (core.Document, bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, identity, nil)
	if err != nil {
		return core.Document{}, false, err
	}

	var resp loadResponse
	if err := c.do(req, &resp); err != nil {
		return core.Document{}, false, fmt.Errorf("load budget: %w", err)
	}
	if !resp.Success {
		return core.Document{}, false, fmt.Errorf("load budget: %w: %s", ErrRejected, resp.Message)
	}

	raw := strings.TrimSpace(string(resp.Data))
	if raw == "" || raw == "null" {
		return core.Document{}, false, nil
	}
	doc, err := core.DecodeDocument(resp.Data)
	if err != nil {
		return core.Document{}, false, fmt.Errorf("load budget: %w", err)
	}

	c.logger.DebugContext(ctx, "Budget loaded from API", log.FieldIdentity, identity, "last_updated", resp.LastUpdated)
	return doc, true, nil
}

// Save uploads doc as the latest document of identity.
func (c *Client) Save(ctx context.Context, identity string, doc core.Document) error {
	body, err := json.Marshal(saveRequest{BudgetData: doc})
	if err != nil {
		return fmt.Errorf("encode save request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, identity, body)
	if err != nil {
		return err
	}

	var resp saveResponse
	if err := c.do(req, &resp); err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("save budget: %w: %s", ErrRejected, resp.Message)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, identity string, body []byte) (*http.Request, error) {
	if identity == "" {
		return nil, errors.New("identity is required")
	}
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+"/budget", r)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(c.identityHeader, identity)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do sends req and decodes the JSON envelope. Non-2xx answers are errors
// carrying the API message when one is present.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope saveResponse
		if json.Unmarshal(data, &envelope) == nil && envelope.Message != "" {
			return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, envelope.Message)
		}
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
