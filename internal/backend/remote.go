package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/born-ml/quantumnat/internal/qerr"
)

// DefaultRemoteTimeout bounds a single HTTP exchange.
const DefaultRemoteTimeout = 30 * time.Second

// Remote is a Backend reached over HTTP. Network failures, 429 and 5xx
// responses are retryable; other 4xx responses and malformed bodies are
// not.
type Remote struct {
	baseURL    string
	httpClient *http.Client
	name       string
	caps       Capabilities
	logger     *slog.Logger

	mu   sync.Mutex
	jobs map[string]int // job ID -> circuit count
}

// RemoteOption configures a Remote.
type RemoteOption func(*Remote)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) { r.httpClient = c }
}

// WithRemoteLogger sets the logger.
func WithRemoteLogger(l *slog.Logger) RemoteOption {
	return func(r *Remote) { r.logger = l }
}

// NewRemote connects to the server at baseURL and fetches its
// capabilities.
func NewRemote(ctx context.Context, baseURL string, opts ...RemoteOption) (*Remote, error) {
	r := &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultRemoteTimeout},
		logger:     slog.Default(),
		jobs:       make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	var caps CapabilitiesResponse
	if err := r.do(ctx, "backend.NewRemote", http.MethodGet, "/v1/capabilities", nil, &caps); err != nil {
		return nil, err
	}
	r.name = caps.Name
	r.caps = caps.Capabilities
	return r, nil
}

// Name implements Backend.
func (r *Remote) Name() string { return r.name }

// Capabilities implements Backend.
func (r *Remote) Capabilities() Capabilities { return r.caps }

// Submit implements Backend.
func (r *Remote) Submit(ctx context.Context, job *Job) (string, error) {
	const op = "backend.Remote.Submit"
	req, err := encodeJob(job)
	if err != nil {
		return "", err
	}
	var resp SubmitResponse
	if err := r.do(ctx, op, http.MethodPost, "/v1/jobs", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", qerr.Backendf(op, false, "malformed response: empty job id")
	}
	r.mu.Lock()
	r.jobs[resp.ID] = len(job.Circuits)
	r.mu.Unlock()
	return resp.ID, nil
}

// Status implements Backend.
func (r *Remote) Status(ctx context.Context, id string) (Status, error) {
	const op = "backend.Remote.Status"
	var resp StatusResponse
	if err := r.do(ctx, op, http.MethodGet, "/v1/jobs/"+url.PathEscape(id), nil, &resp); err != nil {
		return 0, err
	}
	st, ok := ParseStatus(resp.Status)
	if !ok {
		return 0, qerr.Backendf(op, false, "malformed response: status %q", resp.Status)
	}
	if st == StatusFailed || st == StatusCancelled {
		r.forget(id)
	}
	return st, nil
}

// Result implements Backend.
func (r *Remote) Result(ctx context.Context, id string) (*Result, error) {
	const op = "backend.Remote.Result"
	var resp ResultResponse
	if err := r.do(ctx, op, http.MethodGet, "/v1/jobs/"+url.PathEscape(id)+"/result", nil, &resp); err != nil {
		if !qerr.IsRetryable(err) {
			r.forget(id)
		}
		return nil, err
	}
	r.mu.Lock()
	n, ok := r.jobs[id]
	delete(r.jobs, id)
	r.mu.Unlock()
	if !ok {
		n = len(resp.Counts)
	}
	return decodeResult(&resp, n)
}

// Cancel implements Backend.
func (r *Remote) Cancel(ctx context.Context, id string) error {
	r.forget(id)
	return r.do(ctx, "backend.Remote.Cancel", http.MethodDelete, "/v1/jobs/"+url.PathEscape(id), nil, nil)
}

func (r *Remote) forget(id string) {
	r.mu.Lock()
	delete(r.jobs, id)
	r.mu.Unlock()
}

func (r *Remote) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return qerr.Backend(op, false, fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return qerr.Backend(op, false, fmt.Errorf("create request: %w", err))
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return qerr.Backend(op, true, fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return qerr.Backend(op, true, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		var e ErrorResponse
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		r.logger.Debug("backend request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode))
		if resp.StatusCode == http.StatusNotFound && strings.HasPrefix(path, "/v1/jobs/") {
			return qerr.Backend(op, false, fmt.Errorf("%w: %s", ErrUnknownJob, msg))
		}
		return qerr.Backendf(op, retryable, "status %d: %s", resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return qerr.Backendf(op, false, "malformed response: %v", err)
	}
	return nil
}
