// Package upstream wraps outbound calls to third-party HTTP APIs with a
// per-call timeout, tracing and request metrics.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// maxBodySize caps how much of an upstream response is read.
const maxBodySize = 5 << 20

var meter = otel.Meter("upstream")

// Client performs requests against upstream services. It never retries.
type Client struct {
	http      *http.Client
	userAgent string
	requests  metric.Int64Counter
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the upstream answered with a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// NewClient creates a Client whose calls are bounded by timeout.
func NewClient(timeout time.Duration, userAgent string) *Client {
	requests, err := meter.Int64Counter("findmy.upstream.requests",
		metric.WithDescription("Outbound requests to upstream services"))
	if err != nil {
		otel.Handle(err)
	}
	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		userAgent: userAgent,
		requests:  requests,
	}
}

// Do sends req on behalf of the named upstream and reads the whole body.
// Non-2xx statuses are returned as a Response, not an error.
func (c *Client) Do(ctx context.Context, name string, req *http.Request) (*Response, error) {
	req = req.WithContext(ctx)
	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(ctx, name, outcome(err))
		return nil, fmt.Errorf("%s request failed: %w", name, redactQuery(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.record(ctx, name, outcome(err))
		return nil, fmt.Errorf("failed to read %s response: %w", name, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.record(ctx, name, "success")
	} else {
		c.record(ctx, name, "http_error")
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) record(ctx context.Context, name, result string) {
	if c.requests == nil {
		return
	}
	c.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("upstream", name),
		attribute.String("outcome", result),
	))
}

// redactQuery drops the query string from the URL in err. Some upstreams take
// their API key as a query parameter.
func redactQuery(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		if u, perr := url.Parse(ue.URL); perr == nil {
			u.RawQuery = ""
			ue.URL = u.String()
		}
	}
	return err
}

func outcome(err error) string {
	if IsTimeout(err) {
		return "timeout"
	}
	return "error"
}

// IsTimeout reports whether err was caused by a deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
