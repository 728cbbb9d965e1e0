package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmehdipour/esim-gateway/internal/config"
	"github.com/jmehdipour/esim-gateway/internal/gateway"
)

var signCmd = &cobra.Command{
	Use:   "sign <path>",
	Short: "Print ts/sig query parameters for a signed internal request",
	Example: `  esim-gateway sign /api/product/PRD2001354649
  ts=1760000000000&sig=5f1c...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.Security.SigningSecret == "" {
			return errors.New("security.signing_secret is not configured")
		}

		query := url.Values{}
		addSignature(query, cfg, args[0])
		_, err = fmt.Fprintln(cmd.OutOrStdout(), query.Encode())
		return err
	},
}

func addSignature(query url.Values, cfg config.Config, path string) {
	signer := gateway.NewSigner(cfg.Security.SigningSecret, time.Duration(cfg.Security.SignatureSkewMs)*time.Millisecond)
	ts, sig := signer.SignNow(path, time.Now())
	query.Set(gateway.QueryTimestamp, strconv.FormatInt(ts, 10))
	query.Set(gateway.QuerySignature, sig)
}
