package apollo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jmehdipour/esim-gateway/internal/metrics"
	"github.com/jmehdipour/esim-gateway/internal/model"
	"github.com/jmehdipour/esim-gateway/internal/telemetry"
)

const (
	defaultTimeout   = 5 * time.Second
	defaultUserAgent = "esim-gateway/1.0"

	maxErrorBody  = 4 << 10
	summaryLength = 200
	redacted      = "[upstream]"
)

// Fetcher retrieves one product detail document.
type Fetcher interface {
	FetchDetail(ctx context.Context, code model.ProductCode) (model.ProductDetail, error)
}

type Options struct {
	BaseURL    string        // e.g. https://apollo-api.tidesquare.com
	PathPrefix string        // e.g. /tna-api-v2/apollo
	Token      string        // with or without the "Bearer " prefix
	UserAgent  string        // client identifier sent upstream
	Timeout    time.Duration // per attempt, default 5s
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client performs single Apollo attempts; wrap it in a Retrier for the retry policy.
type Client struct {
	baseURL    string
	pathPrefix string
	auth       string
	userAgent  string
	timeout    time.Duration
	http       *http.Client
	log        *zap.Logger
}

var _ Fetcher = (*Client)(nil)

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		pathPrefix: "/" + strings.Trim(opts.PathPrefix, "/"),
		auth:       BearerToken(opts.Token),
		userAgent:  opts.UserAgent,
		timeout:    opts.Timeout,
		http:       opts.HTTPClient,
		log:        opts.Logger,
	}
}

// BearerToken adds the "Bearer " prefix unless the token already carries it.
func BearerToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" || strings.HasPrefix(token, "Bearer ") {
		return token
	}
	return "Bearer " + token
}

func (c *Client) endpoint(code model.ProductCode) string {
	prefix := c.pathPrefix
	if prefix == "/" {
		prefix = ""
	}
	return c.baseURL + prefix + "/product/detail/" + url.PathEscape(code.String())
}

// FetchDetail makes one attempt bounded by the client timeout.
func (c *Client) FetchDetail(ctx context.Context, code model.ProductCode) (model.ProductDetail, error) {
	ctx, span := telemetry.StartSpan(ctx, "apollo.FetchDetail")
	defer span.End()
	span.SetAttributes(attribute.String("product.code", code.String()))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	detail, outcome, err := c.do(ctx, code)
	metrics.UpstreamAttempts.WithLabelValues(outcome).Inc()
	metrics.UpstreamAttemptDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}
	telemetry.SetSpanSuccess(span)
	return detail, nil
}

func (c *Client) do(ctx context.Context, code model.ProductCode) (model.ProductDetail, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(code), nil)
	if err != nil {
		return nil, "network", &NetworkError{Err: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, "network", &NetworkError{Err: c.redactErr(err)}
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		c.log.Warn("apollo non-2xx",
			zap.String("code", code.String()),
			zap.Int("status", res.StatusCode),
			zap.String("body", truncate(string(body), 500)),
		)
		return nil, "status", &StatusError{
			StatusCode: res.StatusCode,
			StatusText: statusText(res),
			Summary:    c.summarize(body),
		}
	}

	if mt, _, _ := mime.ParseMediaType(res.Header.Get("Content-Type")); mt != "application/json" && !strings.HasSuffix(mt, "+json") {
		preview, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		c.log.Warn("apollo non-JSON body",
			zap.String("code", code.String()),
			zap.String("content_type", res.Header.Get("Content-Type")),
			zap.String("preview", truncate(string(preview), 200)),
		)
		return nil, "invalid", fmt.Errorf("%w: content type %q", ErrInvalidResponse, res.Header.Get("Content-Type"))
	}

	var detail model.ProductDetail
	if err := json.NewDecoder(res.Body).Decode(&detail); err != nil {
		// a deadline hit mid-body is a network failure, not a bad document
		if ctx.Err() != nil {
			return nil, "network", &NetworkError{Err: ctx.Err()}
		}
		return nil, "invalid", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if detail == nil {
		return nil, "invalid", fmt.Errorf("%w: empty document", ErrInvalidResponse)
	}
	return detail, "ok", nil
}

// summarize collapses whitespace, hides the upstream host and caps the length.
func (c *Client) summarize(body []byte) string {
	s := strings.Join(strings.Fields(string(body)), " ")
	s = c.redact(s)
	return truncate(s, summaryLength)
}

func (c *Client) redact(s string) string {
	if c.baseURL == "" {
		return s
	}
	s = strings.ReplaceAll(s, c.baseURL, redacted)
	if u, err := url.Parse(c.baseURL); err == nil && u.Host != "" {
		s = strings.ReplaceAll(s, u.Host, redacted)
	}
	return s
}

// redactErr strips the request URL that *url.Error embeds in its message.
func (c *Client) redactErr(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if errors.Is(uerr.Err, context.DeadlineExceeded) {
			return fmt.Errorf("request timed out after %s: %w", c.timeout, context.DeadlineExceeded)
		}
		if errors.Is(uerr.Err, context.Canceled) {
			return context.Canceled
		}
		return errors.New(c.redact(uerr.Err.Error()))
	}
	return errors.New(c.redact(err.Error()))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
