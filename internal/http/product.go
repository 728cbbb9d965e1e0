package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jmehdipour/esim-gateway/internal/gateway"
	"github.com/jmehdipour/esim-gateway/internal/metrics"
	"github.com/jmehdipour/esim-gateway/internal/model"
	"github.com/jmehdipour/esim-gateway/internal/normalizer"
)

// ProductDetailGetter is satisfied by *gateway.Gateway.
type ProductDetailGetter interface {
	GetProductDetail(ctx context.Context, req gateway.Request) (model.ProductDetail, error)
}

type optionsResp struct {
	Code     string              `json:"code"`
	Name     any                 `json:"name,omitempty"`
	Options  []model.DataOption  `json:"options"`
	MinPrice *float64            `json:"min_price"`
	Strategy normalizer.Strategy `json:"strategy"`
}

func gatewayRequest(c echo.Context) gateway.Request {
	code := c.Param("code")
	if unescaped, err := url.PathUnescape(code); err == nil {
		code = unescaped
	}
	r := c.Request()
	return gateway.Request{
		Code:    code,
		Path:    r.URL.Path,
		Headers: r.Header,
		Query:   r.URL.Query(),
	}
}

// productDetailHandler proxies GET /api/product/:code and returns the upstream document as-is.
func productDetailHandler(gw ProductDetailGetter, exposeDetails bool, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", "no-store")

		detail, err := gw.GetProductDetail(c.Request().Context(), gatewayRequest(c))
		if err != nil {
			return writeGatewayError(c, err, exposeDetails, log)
		}
		return c.JSON(http.StatusOK, detail)
	}
}

// productOptionsHandler serves the normalized pricing for a product. A
// document without usable pricing is still a 200 with an empty option list.
func productOptionsHandler(gw ProductDetailGetter, exposeDetails bool, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", "no-store")

		req := gatewayRequest(c)
		detail, err := gw.GetProductDetail(c.Request().Context(), req)
		if err != nil {
			return writeGatewayError(c, err, exposeDetails, log)
		}

		res := normalizer.Derive(detail)
		metrics.NormalizedOptions.WithLabelValues(string(res.Strategy)).Inc()

		resp := optionsResp{
			Code:     req.Code,
			Name:     detail["name"],
			Options:  res.Options,
			Strategy: res.Strategy,
		}
		if p, ok := model.MinPrice(res.Options); ok {
			resp.MinPrice = &p
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func writeGatewayError(c echo.Context, err error, exposeDetails bool, log *zap.Logger) error {
	var gerr *gateway.Error
	if !errors.As(err, &gerr) {
		log.Error("unexpected gateway error",
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "Internal server error"})
	}

	body := map[string]any{"error": gerr.Message}
	if gerr.Kind == gateway.KindUpstream {
		body["status"] = gerr.UpstreamStatus
		body["statusText"] = gerr.StatusText
	}
	if exposeDetails && gerr.Details != "" {
		body["details"] = gerr.Details
	}
	return c.JSON(gerr.Status, body)
}
