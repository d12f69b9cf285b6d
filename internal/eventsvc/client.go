// Package eventsvc is the HTTP client for the event service. It speaks
// the service's JSON wire format (UTC RFC3339 instants, snake_case
// fields) and maps failures onto the client error taxonomy: transport
// problems wrap ErrNetwork, structured rejections become *ServiceError.
package eventsvc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"tcal/internal/model"
)

const (
	defaultTimeout = 15 * time.Second
	basePath       = "/api/v1/events"
)

// Filter bounds and pages an event listing. Zero time values mean an
// unbounded side; Page/Size <= 0 take the service defaults.
type Filter struct {
	From  time.Time
	To    time.Time
	Query string
	Page  int
	Size  int
}

// Client talks to one event service instance. It imposes a request
// timeout and client-side pacing, but never retries; failures surface
// to the caller.
type Client struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a Client for the service at baseURL (scheme://host[:port]).
func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		// A terminal client has no business hammering the service;
		// 10 rps with a small burst is far above interactive use.
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

// List fetches one page of events matching f. Results are not
// guaranteed sorted by the service contract and are treated as
// unordered downstream.
func (c *Client) List(ctx context.Context, f Filter) (model.EventPage, error) {
	q := url.Values{}
	if !f.From.IsZero() {
		q.Set("from", f.From.UTC().Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		q.Set("to", f.To.UTC().Format(time.RFC3339))
	}
	if f.Query != "" {
		q.Set("query", f.Query)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Size > 0 {
		q.Set("size", strconv.Itoa(f.Size))
	}

	endpoint := basePath + "/"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var page model.EventPage
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return model.EventPage{}, err
	}
	return page, nil
}

// Get fetches a single event by ID.
func (c *Client) Get(ctx context.Context, id int64) (model.Event, error) {
	var ev model.Event
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", basePath, id), nil, &ev); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

// Create submits a new event. The service assigns ID and timestamps.
func (c *Client) Create(ctx context.Context, in model.EventInput) (model.Event, error) {
	var ev model.Event
	if err := c.do(ctx, http.MethodPost, basePath+"/", in, &ev); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

// Update applies a partial patch; nil patch fields stay unchanged
// server-side. Returns the full updated event.
func (c *Client) Update(ctx context.Context, id int64, patch model.EventPatch) (model.Event, error) {
	var ev model.Event
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", basePath, id), patch, &ev); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

// Delete removes an event.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", basePath, id), nil, nil)
}

// Draft asks the service's natural-language extractor for a best-effort
// event draft. The result is form input, nothing more: it goes through
// the same wall-clock validation as hand-typed fields before any
// mutation.
func (c *Client) Draft(ctx context.Context, prompt string) (model.EventDraft, error) {
	body := map[string]string{"prompt": prompt}
	var draft model.EventDraft
	if err := c.do(ctx, http.MethodPost, basePath+"/draft", body, &draft); err != nil {
		return model.EventDraft{}, err
	}
	return draft, nil
}

// errorEnvelope is the service's rejection body: {"detail": {...}}.
type errorEnvelope struct {
	Detail ServiceError `json:"detail"`
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	var body io.Reader
	if in != nil {
		data, err := sonic.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.New().String()
	req.Header.Set("X-Request-ID", reqID)

	log.WithFields(log.Fields{
		"method":     method,
		"endpoint":   endpoint,
		"request_id": reqID,
	}).Debug("event service request")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeRejection(resp.StatusCode, data)
	}

	if out != nil {
		if err := sonic.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// decodeRejection turns a non-2xx response into a *ServiceError,
// keeping the server-provided detail verbatim. Bodies that don't match
// the envelope still produce a ServiceError with the raw text.
func decodeRejection(status int, data []byte) error {
	var env errorEnvelope
	if err := sonic.Unmarshal(data, &env); err == nil && env.Detail.Message != "" {
		env.Detail.StatusCode = status
		return &env.Detail
	}
	return &ServiceError{
		StatusCode: status,
		Message:    strings.TrimSpace(string(data)),
	}
}
