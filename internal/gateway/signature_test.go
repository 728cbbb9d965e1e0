package gateway

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_SignIsStable(t *testing.T) {
	s := NewSigner("secret", 0)

	a := s.Sign("/api/product/PRD1", 1700000000000)
	b := s.Sign("/api/product/PRD1", 1700000000000)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, s.Sign("/api/product/PRD1", 1700000000001))
}

func TestSigner_SignNowRoundTrip(t *testing.T) {
	s := NewSigner("secret", 0)
	now := time.Now()

	ts, sig := s.SignNow("/api/product/PRD1", now)
	assert.Nil(t, s.Verify("/api/product/PRD1", strconv.FormatInt(ts, 10), sig, now.Add(30*time.Second)))
}

func TestSigner_VerifyBoundaries(t *testing.T) {
	s := NewSigner("secret", 0)
	now := time.UnixMilli(1_700_000_000_000)
	path := "/api/product/PRD1"

	sign := func(ts int64) (string, string) {
		return strconv.FormatInt(ts, 10), s.Sign(path, ts)
	}

	ts, sig := sign(now.UnixMilli() - 60_000)
	assert.Nil(t, s.Verify(path, ts, sig, now), "exactly 60s old is accepted")

	ts, sig = sign(now.UnixMilli() - 60_001)
	err := s.Verify(path, ts, sig, now)
	require.NotNil(t, err)
	assert.Equal(t, KindExpired, err.Kind)

	ts, _ = sign(now.UnixMilli() - 90_000)
	err = s.Verify(path, ts, "not-even-hex", now)
	require.NotNil(t, err)
	assert.Equal(t, KindExpired, err.Kind, "freshness is checked before the signature")

	err = s.Verify(path, "", sig, now)
	require.NotNil(t, err)
	assert.Equal(t, KindForbidden, err.Kind)

	err = s.Verify(path, "12.5", sig, now)
	require.NotNil(t, err)
	assert.Equal(t, KindForbidden, err.Kind)
}

func TestSigner_CustomSkew(t *testing.T) {
	s := NewSigner("secret", 5*time.Second)
	now := time.UnixMilli(1_700_000_000_000)
	ts := now.UnixMilli() - 6_000

	err := s.Verify("/p", strconv.FormatInt(ts, 10), s.Sign("/p", ts), now)
	require.NotNil(t, err)
	assert.Equal(t, KindExpired, err.Kind)
}

func TestIsPreviewBot(t *testing.T) {
	assert.True(t, isPreviewBot("Slackbot 1.0"))
	assert.True(t, isPreviewBot("Slack-ImgProxy (+https://api.slack.com/robots)"))
	assert.True(t, isPreviewBot("Facebot"))
	assert.False(t, isPreviewBot(""))
	assert.False(t, isPreviewBot("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"))
	assert.False(t, isPreviewBot("curl/8.4.0"))
}
