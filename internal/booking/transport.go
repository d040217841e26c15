package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// Transport executes a single HTTP request against the booking service and
// maps every failure into the closed error taxonomy. It never retries; retry
// policy belongs to the worker.
type Transport struct {
	baseURL string
	client  *http.Client
	headers map[string]string
	log     zerolog.Logger
}

// TransportOptions configures a Transport. Zero values fall back to the
// defaults from the external booking contract.
type TransportOptions struct {
	BaseURL string
	Timeout time.Duration
	// Headers are merged over the default JSON headers.
	Headers map[string]string
	Logger  zerolog.Logger
}

func NewTransport(opts TransportOptions) *Transport {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &Transport{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		headers: headers,
		log:     opts.Logger,
	}
}

// request describes one call; Body is JSON-encoded when non-nil.
type request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// do executes the request and returns the parsed JSON body. A successful
// response with an empty body yields an empty map, never nil.
func (t *Transport) do(ctx context.Context, req request) (map[string]any, error) {
	u := t.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, wrapError(KindGeneric, err, "encode request body")
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, wrapError(KindGeneric, err, "build request")
	}
	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}

	t.log.Debug().Str("method", req.Method).Str("url", u).Msg("booking request")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()

	return t.handleResponse(resp)
}

func (t *Transport) handleResponse(resp *http.Response) (map[string]any, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError(KindConnection, err, "read response body")
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		parsed := map[string]any{}
		if len(bytes.TrimSpace(raw)) == 0 {
			return parsed, nil
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, wrapError(KindGeneric, err, "decode response body")
		}
		return parsed, nil
	}

	detail := strings.TrimSpace(string(raw))
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, newError(KindBadRequest, resp.StatusCode, fmt.Sprintf("bad request: %s", detail))
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, newError(KindUnauthorized, resp.StatusCode, fmt.Sprintf("unauthorized: %s", detail))
	case resp.StatusCode == http.StatusNotFound:
		return nil, newError(KindNotFound, resp.StatusCode, fmt.Sprintf("not found: %s", detail))
	case resp.StatusCode >= 500 && resp.StatusCode <= 599:
		return nil, newError(KindServerError, resp.StatusCode, fmt.Sprintf("server error (%d): %s", resp.StatusCode, detail))
	default:
		return nil, newError(KindGeneric, resp.StatusCode, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, detail))
	}
}

func mapTransportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return wrapError(KindTimeout, err, "request timeout")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return wrapError(KindTimeout, err, "request timeout")
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return wrapError(KindTimeout, err, "request timeout")
	}
	return wrapError(KindConnection, err, "connection failed")
}
