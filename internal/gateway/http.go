// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pdiddy/asset-registrar/internal/httputil"
	"github.com/pdiddy/asset-registrar/pkg/types"
)

const (
	pathHealth = "/health"
	pathAssets = "/assets"
	pathTasks  = "/tasks"

	// maxErrorBody bounds how much of an error response is kept as the reason.
	maxErrorBody = 4 << 10
)

// HTTPClient talks to the asset store's HTTP API. It is safe for concurrent
// use and is the only place that throttles traffic to the store.
type HTTPClient struct {
	client  *http.Client
	cfg     types.GatewayConfig
	base    string
	logger  *slog.Logger
	results *gocache.Cache

	throttleMu  sync.Mutex
	nextRequest time.Time
}

var _ Gateway = (*HTTPClient)(nil)

// NewHTTPClient builds a store client from cfg. A nil client uses a default
// client with cfg.Timeout.
func NewHTTPClient(cfg types.GatewayConfig, client *http.Client, logger *slog.Logger) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("asset store base URL is empty")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("asset store base URL %q: %w", cfg.BaseURL, err)
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ttl := cfg.ResultCacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &HTTPClient{
		client:  client,
		cfg:     cfg,
		base:    base,
		logger:  logger,
		results: gocache.New(ttl, 2*ttl),
	}, nil
}

// Probe checks the store health endpoint. It sends a single request: a
// store that answers 503 to a health check is unavailable now.
func (c *HTTPClient) Probe(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, pathHealth, nil, "")
	if err != nil {
		return types.Wrap(types.ErrStoreUnavailable, "gateway", "probe", c.base, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return types.Wrap(types.ErrStoreUnavailable, "gateway", "probe", c.base, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return types.Wrap(types.ErrStoreUnavailable, "gateway", "probe",
			fmt.Sprintf("%s returned HTTP %d", c.base, resp.StatusCode), nil)
	}
	return nil
}

type submitResponse struct {
	TaskID string `json:"task_id"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Submit uploads the content as a multipart form.
func (c *HTTPClient) Submit(ctx context.Context, upload Upload) (string, error) {
	body, contentType, err := encodeUpload(upload)
	if err != nil {
		return "", types.Wrap(types.ErrSubmissionRejected, "gateway", "submit", upload.Filename, err)
	}

	resp, err := c.do(ctx, http.MethodPost, pathAssets, body, contentType)
	if err != nil {
		return "", types.Wrap(types.ErrStoreUnavailable, "gateway", "submit", upload.Filename, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode/100 == 2:
	case resp.StatusCode/100 == 4:
		return "", types.Wrap(types.ErrSubmissionRejected, "gateway", "submit",
			fmt.Sprintf("%s: HTTP %d: %s", upload.Filename, resp.StatusCode, readReason(resp.Body)), nil)
	default:
		return "", types.Wrap(types.ErrStoreUnavailable, "gateway", "submit",
			fmt.Sprintf("%s: HTTP %d", upload.Filename, resp.StatusCode), nil)
	}

	var sr submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", types.Wrap(types.ErrSubmissionRejected, "gateway", "submit",
			upload.Filename+": parsing response", err)
	}
	if sr.TaskID == "" {
		return "", types.Wrap(types.ErrSubmissionRejected, "gateway", "submit",
			upload.Filename+": store returned no task id", nil)
	}
	return sr.TaskID, nil
}

type taskResponse struct {
	State string `json:"state"`
}

// PollStatus queries the task state once.
func (c *HTTPClient) PollStatus(ctx context.Context, taskID string) (TaskState, error) {
	resp, err := c.do(ctx, http.MethodGet, pathTasks+"/"+url.PathEscape(taskID), nil, "")
	if err != nil {
		return StateQueued, types.Wrap(types.ErrStoreUnavailable, "gateway", "poll", taskID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return StateFailure, nil
	case resp.StatusCode/100 != 2:
		return StateQueued, types.Wrap(types.ErrStoreUnavailable, "gateway", "poll",
			fmt.Sprintf("%s: HTTP %d", taskID, resp.StatusCode), nil)
	}

	var tr taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return StateQueued, fmt.Errorf("parsing task %s state: %w", taskID, err)
	}
	return ParseTaskState(tr.State), nil
}

// FetchResult returns the asset descriptor. Descriptors never change once
// registered, so they are served from memory after the first fetch.
func (c *HTTPClient) FetchResult(ctx context.Context, taskID string) (Descriptor, error) {
	if v, ok := c.results.Get(taskID); ok {
		if d, ok := v.(Descriptor); ok {
			return d, nil
		}
	}

	resp, err := c.do(ctx, http.MethodGet, pathAssets+"/"+url.PathEscape(taskID), nil, "")
	if err != nil {
		return Descriptor{}, types.Wrap(types.ErrStoreUnavailable, "gateway", "fetch result", taskID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return Descriptor{}, types.Wrap(types.ErrRegistrationFailed, "gateway", "fetch result",
			fmt.Sprintf("%s: HTTP %d: %s", taskID, resp.StatusCode, readReason(resp.Body)), nil)
	}

	var d Descriptor
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return Descriptor{}, types.Wrap(types.ErrRegistrationFailed, "gateway", "fetch result",
			taskID+": parsing descriptor", err)
	}
	if d.URL == "" {
		return Descriptor{}, types.Wrap(types.ErrRegistrationFailed, "gateway", "fetch result",
			taskID+": descriptor has no url", nil)
	}
	c.results.SetDefault(taskID, d)
	return d, nil
}

// do throttles, builds and sends one request, retrying throttled responses.
func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}
	return httputil.DoWithRetry(ctx, c.client, req, c.cfg.MaxRetries, c.logger)
}

// newRequest waits for the throttle and builds an authenticated request.
func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body []byte, contentType string) (*http.Request, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	return req, nil
}

// throttle waits until the configured minimum interval since the previous
// request has elapsed. Waiters are served in arrival order of their slots.
func (c *HTTPClient) throttle(ctx context.Context) error {
	if c.cfg.RequestInterval <= 0 {
		return nil
	}
	c.throttleMu.Lock()
	now := time.Now()
	slot := c.nextRequest
	if slot.Before(now) {
		slot = now
	}
	c.nextRequest = slot.Add(c.cfg.RequestInterval)
	c.throttleMu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func encodeUpload(upload Upload) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	meta := upload.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, "", fmt.Errorf("encoding metadata: %w", err)
	}

	fields := [][2]string{
		{"filename", upload.Filename},
		{"filetype", upload.Kind.FileType()},
		{"bucket_name", upload.Bucket},
		{"metadata", string(metaJSON)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", f[0], err)
		}
	}

	part, err := mw.CreateFormFile("file", upload.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(upload.Content); err != nil {
		return nil, "", fmt.Errorf("writing file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func readReason(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var er errorResponse
	if json.Unmarshal(data, &er) == nil {
		if er.Error != "" {
			return er.Error
		}
		if er.Message != "" {
			return er.Message
		}
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return "no reason given"
}
