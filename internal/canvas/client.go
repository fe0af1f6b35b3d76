// Package canvas implements the HTTP client for the Canvas LMS REST API:
// authenticated requests, Link-header pagination, and error normalization.
package canvas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

type Config struct {
	BaseURL string // https://canvas.example.edu/api/v1
	Token   string
	Timeout time.Duration
	PerPage int
}

type Client struct {
	base    string
	perPage int
	http    *http.Client
}

func New(cfg Config) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	h := oauth2.NewClient(context.Background(), src)
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 100
	}
	return &Client{
		base:    strings.TrimSuffix(cfg.BaseURL, "/"),
		perPage: perPage,
		http:    h,
	}
}

// APIError is the uniform shape every failed Canvas call collapses into.
// Handlers format its message inline; it never escapes as a panic or fault.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// Request performs one Canvas API call and decodes the response body.
// path is relative to the API base (e.g. "/courses/123/pages"). A nil body
// sends no payload; otherwise body is marshaled as JSON.
func (c *Client) Request(ctx context.Context, method, path string, params url.Values, body any) (json.RawMessage, error) {
	u := c.base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return c.do(ctx, method, u, body)
}

// GetObject is Request for endpoints returning a single JSON object.
func (c *Client) GetObject(ctx context.Context, method, path string, params url.Values, body any) (map[string]any, error) {
	raw, err := c.Request(ctx, method, path, params, body)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, &APIError{Message: fmt.Sprintf("unexpected response shape: %v", err)}
	}
	return obj, nil
}

// ListPaginated fetches every page of a list endpoint, following
// RFC-5988 Link rel="next" headers until none is offered. Pages are
// concatenated in order; the first error halts further fetches.
func (c *Client) ListPaginated(ctx context.Context, path string, params url.Values) ([]map[string]any, error) {
	if params == nil {
		params = url.Values{}
	}
	if params.Get("per_page") == "" {
		params.Set("per_page", fmt.Sprint(c.perPage))
	}
	next := c.base + path + "?" + params.Encode()

	var out []map[string]any
	for next != "" {
		raw, links, err := c.doWithLinks(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		var page []map[string]any
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, &APIError{Message: fmt.Sprintf("unexpected page shape: %v", err)}
		}
		out = append(out, page...)
		next = links["next"]
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, absURL string, body any) (json.RawMessage, error) {
	raw, _, err := c.doWithLinks(ctx, method, absURL, body)
	return raw, err
}

func (c *Client) doWithLinks(ctx context.Context, method, absURL string, body any) (json.RawMessage, map[string]string, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, nil, &APIError{Message: fmt.Sprintf("encoding request body: %v", err)}
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), absURL, rd)
	if err != nil {
		return nil, nil, &APIError{Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, nil, &APIError{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(res.Body, 32<<20))
	if err != nil {
		return nil, nil, &APIError{Message: fmt.Sprintf("reading response: %v", err)}
	}
	if res.StatusCode/100 != 2 {
		return nil, nil, &APIError{StatusCode: res.StatusCode, Message: errorMessage(res.StatusCode, payload)}
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = []byte("{}")
	}
	return payload, parseLinks(res.Header.Get("Link")), nil
}

// errorMessage digs a human-readable message out of a Canvas error body.
// Canvas usually answers {"errors":[{"message":"..."}]}, sometimes
// {"errors":{"field":[...]}} or {"message":"..."}.
func errorMessage(status int, body []byte) string {
	var shaped struct {
		Message string `json:"message"`
		Errors  any    `json:"errors"`
	}
	if err := json.Unmarshal(body, &shaped); err == nil {
		if shaped.Message != "" {
			return shaped.Message
		}
		switch errs := shaped.Errors.(type) {
		case []any:
			for _, e := range errs {
				if m, ok := e.(map[string]any); ok {
					if msg, ok := m["message"].(string); ok && msg != "" {
						return msg
					}
				}
			}
		case map[string]any:
			for field, v := range errs {
				return fmt.Sprintf("%s: %v", field, v)
			}
		}
	}
	switch status {
	case http.StatusUnauthorized:
		return "authentication failed: check the Canvas API token"
	case http.StatusForbidden:
		return "insufficient permissions for this operation"
	case http.StatusNotFound:
		return "resource not found"
	}
	return http.StatusText(status)
}

// parseLinks splits an RFC-5988 Link header into rel -> URL.
func parseLinks(header string) map[string]string {
	links := map[string]string{}
	for _, part := range strings.Split(header, ",") {
		sections := strings.Split(part, ";")
		if len(sections) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(sections[0]), "<>")
		for _, attr := range sections[1:] {
			attr = strings.TrimSpace(attr)
			if rel, ok := strings.CutPrefix(attr, `rel="`); ok {
				links[strings.TrimSuffix(rel, `"`)] = target
			}
		}
	}
	return links
}
