package cmd

import (
	"time"

	"go.uber.org/zap"

	"github.com/jmehdipour/esim-gateway/internal/apollo"
	"github.com/jmehdipour/esim-gateway/internal/config"
	"github.com/jmehdipour/esim-gateway/internal/gateway"
)

// newGateway builds the upstream client, retry policy and gateway from config.
func newGateway(cfg config.Config, log *zap.Logger) *gateway.Gateway {
	client := apollo.NewClient(apollo.Options{
		BaseURL:    cfg.Apollo.BaseURL,
		PathPrefix: cfg.Apollo.PathPrefix,
		Token:      cfg.Apollo.Token,
		UserAgent:  cfg.Apollo.UserAgent,
		Timeout:    time.Duration(cfg.Apollo.TimeoutMs) * time.Millisecond,
		Logger:     log.Named("apollo"),
	})

	policy := apollo.DefaultRetryPolicy()
	if cfg.Apollo.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Apollo.MaxAttempts
	}
	if cfg.Apollo.BackoffMs > 0 {
		policy.Backoff = time.Duration(cfg.Apollo.BackoffMs) * time.Millisecond
	}
	upstream := apollo.NewRetrier(client, policy, log.Named("apollo"))

	return gateway.New(gatewayConfig(cfg), upstream, log.Named("gateway"))
}

func gatewayConfig(cfg config.Config) gateway.Config {
	return gateway.Config{
		AllowedCodes:       cfg.Security.AllowedCodeList(),
		InternalToken:      cfg.Security.InternalToken,
		SigningSecret:      cfg.Security.SigningSecret,
		SignatureSkew:      time.Duration(cfg.Security.SignatureSkewMs) * time.Millisecond,
		MockAllowed:        cfg.MockAllowed(),
		UpstreamConfigured: cfg.Apollo.Token != "",
	}
}
