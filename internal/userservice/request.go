package userservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/penshort/usergate/internal/auth"
)

// maxResponseBody bounds how much of a response body is read.
const maxResponseBody = 10 << 20

// PendingRequest sends calls with a fixed set of headers.
type PendingRequest struct {
	client *Client
	ctx    context.Context
	header http.Header
}

// Header returns a copy of the headers attached to every call.
func (p *PendingRequest) Header() http.Header {
	return p.header.Clone()
}

// Get issues a GET to the endpoint plus path.
func (p *PendingRequest) Get(path string) (*Response, error) {
	return p.send(http.MethodGet, path, nil)
}

// Post issues a POST with body encoded as JSON.
func (p *PendingRequest) Post(path string, body any) (*Response, error) {
	return p.send(http.MethodPost, path, body)
}

// Put issues a PUT with body encoded as JSON.
func (p *PendingRequest) Put(path string, body any) (*Response, error) {
	return p.send(http.MethodPut, path, body)
}

// Delete issues a DELETE to the endpoint plus path.
func (p *PendingRequest) Delete(path string) (*Response, error) {
	return p.send(http.MethodDelete, path, nil)
}

func (p *PendingRequest) send(method, path string, body any) (*Response, error) {
	c := p.client
	target := c.endpoint + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(p.ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header = p.Header()
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	callID := ulid.Make().String()
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.IncUpstreamError(method)
		c.logger.LogAttrs(p.ctx, slog.LevelDebug, "user service call failed",
			slog.String("call_id", callID),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		c.metrics.IncUpstreamError(method)
		return nil, fmt.Errorf("%w: read %s %s: %w", ErrTransport, method, path, err)
	}

	duration := time.Since(start)
	c.metrics.ObserveUpstreamRequest(method, resp.StatusCode, duration)
	c.logger.LogAttrs(p.ctx, slog.LevelDebug, "user service call",
		slog.String("call_id", callID),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status_code", resp.StatusCode),
		slog.Float64("duration_ms", float64(duration.Microseconds())/1000),
		slog.String("credential", auth.Fingerprint(p.header.Get(auth.HeaderAuthorization))),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// Response is a fully read user service response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Successful reports whether the status is in the 2xx range.
func (r *Response) Successful() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// JSON decodes the body into v. Any failure is wrapped in ErrDecode.
func (r *Response) JSON(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("%w: empty body (status %d)", ErrDecode, r.StatusCode)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: status %d: %w", ErrDecode, r.StatusCode, err)
	}
	return nil
}
