package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/leofalp/aigoflow/providers/observability"
)

// MaxResponseBodySize is the maximum response body size (10 MB). Enforced via
// io.LimitReader to prevent unbounded memory allocation from rogue responses.
const MaxResponseBodySize int64 = 10 * 1024 * 1024

// Request describes a single HTTP round-trip performed by [DoRequest].
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string

	// MaxBodySize caps how many bytes of the response are read.
	// Zero means MaxResponseBodySize.
	MaxBodySize int64
}

// Response is the fully-read result of [DoRequest].
type Response struct {
	StatusCode  int
	Header      http.Header
	Body        []byte
	FinalURL    string
	Truncated   bool
	ContentType string
	Duration    time.Duration
}

// DoRequest performs an HTTP request and reads the response body up to the
// configured limit. It handles observability events, default headers and
// proper resource cleanup.
//
// Error Handling Strategy:
//   - Context errors (timeout, cancellation) are propagated immediately
//   - Transport errors (connection failures) are wrapped and returned
//   - Non-2xx statuses are NOT errors here; callers decide, since a crawl
//     tolerates them while the HTTP node fails on them
//   - Response body close errors are logged but don't override primary errors
func DoRequest(ctx context.Context, client *http.Client, req Request) (*Response, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if req.Body != "" && looksLikeJSON(req.Body) {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if span != nil {
		span.AddEvent("http.request.prepared",
			observability.String(observability.AttrHTTPMethod, method),
			observability.String(observability.AttrHTTPURL, req.URL),
			observability.Int(observability.AttrHTTPRequestBodySize, len(req.Body)),
		)
	}

	requestStart := time.Now()
	res, err := httpClient.Do(httpReq)
	if err != nil {
		if span != nil {
			span.AddEvent("http.request.error",
				observability.Error(err),
				observability.Duration("http.request.duration", time.Since(requestStart)),
			)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("request timeout or canceled: %w", ctxErr)
		}
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer CloseWithLog(res.Body)

	limit := req.MaxBodySize
	if limit <= 0 {
		limit = MaxResponseBodySize
	}

	// Read one extra byte so an exactly-full body is not reported as truncated.
	data, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	truncated := int64(len(data)) > limit
	if truncated {
		data = data[:limit]
	}

	duration := time.Since(requestStart)
	if span != nil {
		span.AddEvent("http.response.received",
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
			observability.Int(observability.AttrHTTPResponseBodySize, len(data)),
			observability.Duration("http.request.duration", duration),
		)
	}

	finalURL := req.URL
	if res.Request != nil && res.Request.URL != nil {
		finalURL = res.Request.URL.String()
	}

	return &Response{
		StatusCode:  res.StatusCode,
		Header:      res.Header,
		Body:        data,
		FinalURL:    finalURL,
		Truncated:   truncated,
		ContentType: res.Header.Get("Content-Type"),
		Duration:    duration,
	}, nil
}

// IsSuccess reports whether the response carries a 2xx status code.
func (response *Response) IsSuccess() bool {
	return response.StatusCode >= 200 && response.StatusCode < 300
}

// IsHTML reports whether the response declares an HTML content type.
func (response *Response) IsHTML() bool {
	return strings.Contains(strings.ToLower(response.ContentType), "text/html")
}

// CloseWithLog closes closer and logs (instead of returning) any close error,
// so it can be deferred without overriding the function's primary error.
func CloseWithLog(closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error())
	}
}

func looksLikeJSON(body string) bool {
	trimmed := strings.TrimSpace(body)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}
