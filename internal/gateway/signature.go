package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

const DefaultSignatureSkew = 60 * time.Second

// Signer signs "<path>?ts=<unix-ms>" with HMAC-SHA256 (hex). Internal callers
// send the result as the ts and sig query parameters.
type Signer struct {
	secret []byte
	skew   time.Duration
}

func NewSigner(secret string, skew time.Duration) *Signer {
	if skew <= 0 {
		skew = DefaultSignatureSkew
	}
	return &Signer{secret: []byte(secret), skew: skew}
}

func (s *Signer) Sign(path string, ts int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(path + "?ts=" + strconv.FormatInt(ts, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignNow returns the ts/sig pair for path at time now.
func (s *Signer) SignNow(path string, now time.Time) (ts int64, sig string) {
	ts = now.UnixMilli()
	return ts, s.Sign(path, ts)
}

// Verify checks ts freshness before the signature itself, so a stale request
// is reported as expired whether or not its signature matches.
func (s *Signer) Verify(path, tsRaw, sig string, now time.Time) *Error {
	if tsRaw == "" || sig == "" {
		return forbidden("missing signature")
	}
	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return forbidden("malformed signature timestamp")
	}

	skew := now.UnixMilli() - ts
	if skew < 0 {
		skew = -skew
	}
	if skew > s.skew.Milliseconds() {
		return expired("signature expired")
	}

	if !hmac.Equal([]byte(s.Sign(path, ts)), []byte(sig)) {
		return forbidden("invalid signature")
	}
	return nil
}
