package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jmehdipour/esim-gateway/internal/config"
	"github.com/jmehdipour/esim-gateway/internal/gateway"
	"github.com/jmehdipour/esim-gateway/internal/logger"
	"github.com/jmehdipour/esim-gateway/internal/normalizer"
)

var (
	fetchMock    bool
	fetchOptions bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <code>",
	Short: "Fetch one product detail through the gateway and print it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level, "stderr")
		defer logger.Sync()

		// the CLI is an internal caller: present the internal token and sign
		// the request when the server would demand it
		code := args[0]
		path := "/api/product/" + code
		headers := http.Header{}
		if cfg.Security.InternalToken != "" {
			headers.Set(gateway.HeaderInternalToken, cfg.Security.InternalToken)
		}
		query := url.Values{}
		if fetchMock {
			query.Set(gateway.QueryMock, "1")
		}
		if cfg.Security.SigningSecret != "" {
			addSignature(query, cfg, path)
		}

		gw := newGateway(cfg, logger.Log)
		detail, err := gw.GetProductDetail(cmd.Context(), gateway.Request{
			Code:    code,
			Path:    path,
			Headers: headers,
			Query:   query,
		})
		if err != nil {
			return err
		}

		var out any = detail
		if fetchOptions {
			out = normalizer.Normalize(detail)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchMock, "mock", false, "request the mock document (non-production or mock.enabled only)")
	fetchCmd.Flags().BoolVar(&fetchOptions, "options", false, "print normalized data options instead of the raw document")
}
