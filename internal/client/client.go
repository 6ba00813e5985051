package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultTimeout   = 10 * time.Second
	retryWaitMin     = 200 * time.Millisecond
	retryWaitMax     = 1 * time.Second
	maxResponseBytes = 8 * 1024 * 1024
	userAgent        = "nzbinfo"
)

// ErrClosed is returned by requests made after Close.
var ErrClosed = errors.New("session closed")

// Options configures a Session.
type Options struct {
	Timeout            time.Duration
	RetryMax           int
	InsecureSkipVerify bool
}

// Session is the HTTP connection pool shared by every backend poll.
// It retries requests that fail before a response arrives; any HTTP status,
// including 5xx, is returned to the caller as is.
type Session struct {
	http      *retryablehttp.Client
	transport *http.Transport
	timeout   time.Duration

	closed    atomic.Bool
	closeOnce sync.Once
}

// NewSession builds a Session over a cloned default transport.
func NewSession(opts Options) *Session {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: opts.Timeout, Transport: transport}
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = retryWaitMin
	rc.RetryWaitMax = retryWaitMax
	rc.Logger = nil
	rc.CheckRetry = retryTransportOnly
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Session{http: rc, transport: transport, timeout: opts.Timeout}
}

// retryTransportOnly retries when no response was received at all.
func retryTransportOnly(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil {
		return false, nil
	}
	return err != nil, nil
}

// Close releases pooled connections. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.transport.CloseIdleConnections()
	})
}

// Timeout returns the per-request timeout.
func (s *Session) Timeout() time.Duration { return s.timeout }

// Request describes one call. Body, when non-nil, is sent as JSON.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   any
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ContentType returns the lower-cased media type without parameters.
func (r *Response) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	}
	return mt
}

// Do performs req and reads the whole body. Any HTTP status is returned
// without error; failures before a response yield a *TransportError.
func (s *Session) Do(ctx context.Context, req Request) (*Response, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	var body any
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = b
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	r, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", stripURL(err))
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	r.Header.Set("Accept", "application/json")
	r.Header.Set("User-Agent", userAgent)
	if req.Body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(r)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, &TransportError{Op: req.Method, Err: stripURL(err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: "read body", Err: stripURL(err)}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// GetJSON issues a GET and decodes a 2xx JSON body into out.
func (s *Session) GetJSON(ctx context.Context, url string, header http.Header, out any) error {
	return s.doJSON(ctx, Request{Method: http.MethodGet, URL: url, Header: header}, out)
}

// PostJSON posts in as JSON and decodes a 2xx JSON body into out.
func (s *Session) PostJSON(ctx context.Context, url string, header http.Header, in, out any) error {
	return s.doJSON(ctx, Request{Method: http.MethodPost, URL: url, Header: header, Body: in}, out)
}

func (s *Session) doJSON(ctx context.Context, req Request, out any) error {
	resp, err := s.Do(ctx, req)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &StatusError{Code: resp.StatusCode, Body: truncate(resp.Body, 200)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// BasicAuth returns h (or a new header) with HTTP basic credentials set.
// Empty credentials leave the header unchanged.
func BasicAuth(h http.Header, username, password string) http.Header {
	if username == "" && password == "" {
		return h
	}
	if h == nil {
		h = http.Header{}
	}
	token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	h.Set("Authorization", "Basic "+token)
	return h
}

func truncate(b []byte, n int) string {
	b = bytes.TrimSpace(b)
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
