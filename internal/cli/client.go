package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"studiosim/internal/game"
	"studiosim/internal/sim"
	"studiosim/internal/syncq"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// IsAPIError reports whether err came back from the server rather than the
// network.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsDuplicate reports a replay the server had already applied.
func IsDuplicate(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusConflict && strings.Contains(apiErr.Message, game.ErrDuplicateIdempotency.Error())
}

// Outcome is the answer to a studio write. Report is the tick or cycle
// report for advance and delegation cycle calls.
type Outcome struct {
	Company sim.Company     `json:"company"`
	Notice  string          `json:"notice"`
	Report  json.RawMessage `json:"report,omitempty"`
}

func (o Outcome) Tick() (sim.TickReport, bool) {
	var rep sim.TickReport
	if len(o.Report) == 0 || json.Unmarshal(o.Report, &rep) != nil {
		return rep, false
	}
	return rep, true
}

func (o Outcome) Cycle() (sim.CycleReport, bool) {
	var rep sim.CycleReport
	if len(o.Report) == 0 || json.Unmarshal(o.Report, &rep) != nil {
		return rep, false
	}
	return rep, true
}

func (c *Client) CreateCompany(ctx context.Context, name string) (game.Created, error) {
	var out game.Created
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/companies", "", map[string]any{
		"name": name,
	}, &out, "")
	return out, err
}

func (c *Client) Company(ctx context.Context, s Session) (game.CompanyView, error) {
	var out game.CompanyView
	err := c.jsonRequest(ctx, http.MethodGet, companyPath(s.CompanyID, ""), s.Key, nil, &out, "")
	return out, err
}

func (c *Client) History(ctx context.Context, s Session, limit int) ([]sim.FundsPoint, error) {
	var out struct {
		History []sim.FundsPoint `json:"history"`
	}
	path := companyPath(s.CompanyID, "/history")
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	err := c.jsonRequest(ctx, http.MethodGet, path, s.Key, nil, &out, "")
	return out.History, err
}

func (c *Client) Candidates(ctx context.Context, s Session, n int) ([]sim.Hire, error) {
	var out struct {
		Candidates []sim.Hire `json:"candidates"`
	}
	path := companyPath(s.CompanyID, "/staff/candidates")
	if n > 0 {
		path += "?n=" + strconv.Itoa(n)
	}
	err := c.jsonRequest(ctx, http.MethodGet, path, s.Key, nil, &out, "")
	return out.Candidates, err
}

// Send performs a queued-able write with its own idempotency key.
func (c *Client) Send(ctx context.Context, key string, cmd syncq.Command) (Outcome, error) {
	var out Outcome
	var body any
	if cmd.Body != nil {
		body = cmd.Body
	} else if cmd.Method != http.MethodDelete {
		body = map[string]any{}
	}
	err := c.jsonRequest(ctx, cmd.Method, cmd.Path, key, body, &out, cmd.IdempotencyKey)
	return out, err
}

// FeedURL is the websocket address of a company's event feed.
func (c *Client) FeedURL(companyID string) (string, error) {
	u, err := url.Parse(c.BaseURL + companyPath(companyID, "/feed"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported api scheme %q", u.Scheme)
	}
	return u.String(), nil
}

func companyPath(id, suffix string) string {
	return "/v1/companies/" + url.PathEscape(id) + suffix
}

func (c *Client) jsonRequest(ctx context.Context, method, path, key string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func errorMessage(raw []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}
