// Package gateway implements the product detail proxy in front of Apollo.
//
// Every request runs the same pipeline: input validation, the authorization
// checks that are switched on by configuration, mock short-circuit, and
// finally the retried upstream call. Failures before the upstream call never
// touch the network.
package gateway

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/jmehdipour/esim-gateway/internal/apollo"
	"github.com/jmehdipour/esim-gateway/internal/metrics"
	"github.com/jmehdipour/esim-gateway/internal/model"
)

const (
	HeaderInternalToken = "X-Internal-Token"

	QueryMock      = "mock"
	QueryTimestamp = "ts"
	QuerySignature = "sig"
)

// Config is built once at startup and never mutated. Empty values switch the
// corresponding check off.
type Config struct {
	AllowedCodes  []string
	InternalToken string
	SigningSecret string
	SignatureSkew time.Duration
	MockAllowed   bool

	// false when no Apollo token is configured
	UpstreamConfigured bool
}

// Request is one inbound product detail call.
type Request struct {
	Code    string
	Path    string // request path, signed by internal callers
	Headers http.Header
	Query   url.Values
}

func (r Request) wantsMock() bool { return r.Query.Get(QueryMock) == "1" }

type Gateway struct {
	cfg      Config
	allowed  map[string]struct{}
	signer   *Signer
	upstream apollo.Fetcher
	log      *zap.Logger
	now      func() time.Time
}

func New(cfg Config, upstream apollo.Fetcher, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Gateway{
		cfg:      cfg,
		upstream: upstream,
		log:      log,
		now:      time.Now,
	}
	if len(cfg.AllowedCodes) > 0 {
		g.allowed = make(map[string]struct{}, len(cfg.AllowedCodes))
		for _, c := range cfg.AllowedCodes {
			g.allowed[c] = struct{}{}
		}
	}
	if cfg.SigningSecret != "" {
		g.signer = NewSigner(cfg.SigningSecret, cfg.SignatureSkew)
	}
	return g
}

// WithClock replaces the clock used for signature freshness.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

type check struct {
	name string
	run  func(g *Gateway, req Request) *Error
}

// order matters: cheap input validation first, then authorization
var checks = []check{
	{name: "code", run: (*Gateway).checkCode},
	{name: "whitelist", run: (*Gateway).checkWhitelist},
	{name: "user_agent", run: (*Gateway).checkUserAgent},
	{name: "internal_token", run: (*Gateway).checkInternalToken},
	{name: "signature", run: (*Gateway).checkSignature},
}

// GetProductDetail validates and authorizes req, then returns the upstream
// document unchanged (or the mock document). Errors are always *Error.
func (g *Gateway) GetProductDetail(ctx context.Context, req Request) (model.ProductDetail, error) {
	detail, result, err := g.getProductDetail(ctx, req)
	metrics.GatewayRequests.WithLabelValues(result).Inc()
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (g *Gateway) getProductDetail(ctx context.Context, req Request) (model.ProductDetail, string, *Error) {
	for _, c := range checks {
		if gerr := c.run(g, req); gerr != nil {
			g.log.Info("product detail rejected",
				zap.String("check", c.name),
				zap.String("code", req.Code),
				zap.String("kind", string(gerr.Kind)),
				zap.String("reason", gerr.Message),
			)
			return nil, string(gerr.Kind), gerr
		}
	}

	code := model.ProductCode(req.Code)

	if req.wantsMock() {
		if !g.cfg.MockAllowed {
			return nil, string(KindNotFound), notFound("mock disabled")
		}
		return MockDetail(code), "mock", nil
	}

	if !g.cfg.UpstreamConfigured || g.upstream == nil {
		g.log.Error("apollo token not configured")
		gerr := newError(KindMisconfigured, http.StatusInternalServerError, "upstream credential not configured")
		return nil, string(gerr.Kind), gerr
	}

	detail, err := g.upstream.FetchDetail(ctx, code)
	if err != nil {
		gerr := mapUpstreamError(err)
		g.log.Warn("apollo product detail failed",
			zap.String("code", req.Code),
			zap.String("kind", string(gerr.Kind)),
			zap.Int("status", gerr.Status),
			zap.Error(err),
		)
		return nil, string(gerr.Kind), gerr
	}
	return detail, "ok", nil
}

func (g *Gateway) checkCode(req Request) *Error {
	if req.Code == "" {
		return invalidInput("product code required")
	}
	if !model.ProductCode(req.Code).Valid() {
		return invalidInput("invalid product code")
	}
	return nil
}

func (g *Gateway) checkWhitelist(req Request) *Error {
	if g.allowed == nil {
		return nil
	}
	if _, ok := g.allowed[req.Code]; !ok {
		return notFound("product not found")
	}
	return nil
}

func (g *Gateway) checkUserAgent(req Request) *Error {
	if isPreviewBot(req.Headers.Get("User-Agent")) {
		return forbidden("forbidden")
	}
	return nil
}

func (g *Gateway) checkInternalToken(req Request) *Error {
	if g.cfg.InternalToken == "" {
		return nil
	}
	got := req.Headers.Get(HeaderInternalToken)
	if subtle.ConstantTimeCompare([]byte(got), []byte(g.cfg.InternalToken)) != 1 {
		return forbidden("forbidden")
	}
	return nil
}

func (g *Gateway) checkSignature(req Request) *Error {
	if g.signer == nil {
		return nil
	}
	return g.signer.Verify(req.Path, req.Query.Get(QueryTimestamp), req.Query.Get(QuerySignature), g.now())
}

func mapUpstreamError(err error) *Error {
	var se *apollo.StatusError
	if errors.As(err, &se) {
		status := se.StatusCode
		if status < 400 {
			status = http.StatusBadGateway
		}
		return &Error{
			Kind:           KindUpstream,
			Status:         status,
			Message:        "Apollo API error",
			UpstreamStatus: se.StatusCode,
			StatusText:     se.StatusText,
			Details:        se.Summary,
			Err:            err,
		}
	}
	if errors.Is(err, apollo.ErrInvalidResponse) {
		return &Error{Kind: KindInvalidResponse, Status: http.StatusBadGateway, Message: "Invalid response format", Err: err}
	}
	var ne *apollo.NetworkError
	if errors.As(err, &ne) {
		return &Error{Kind: KindNetwork, Status: http.StatusBadGateway, Message: "Network error", Details: ne.Err.Error(), Err: err}
	}
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: "Internal server error", Err: err}
}
