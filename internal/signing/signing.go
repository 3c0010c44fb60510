// Package signing issues and checks HMAC-signed share links for previo
// reports.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

var (
	ErrBadSignature = errors.New("invalid signature")
	ErrExpired      = errors.New("link expired")
)

// Signer generates and validates HMAC based signatures.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a Signer.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret, now: time.Now}
}

// Sign returns the hex signature of previoID valid until expiresUnix.
func (s *Signer) Sign(previoID string, expiresUnix int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "report:%s:%d", previoID, expiresUnix)
	return hex.EncodeToString(mac.Sum(nil))
}

// Validate compares the provided signature with the expected one. It does
// not look at the clock.
func (s *Signer) Validate(previoID, expires, signature string) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return false
	}
	expected := s.Sign(previoID, exp)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Link is a signed share link.
type Link struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ShareLink builds {base}/shared/report?previo=..&expires=..&sig=.. valid for ttl.
func (s *Signer) ShareLink(base, previoID string, ttl time.Duration) Link {
	expires := s.now().Add(ttl).UTC().Truncate(time.Second)
	q := url.Values{}
	q.Set("previo", previoID)
	q.Set("expires", strconv.FormatInt(expires.Unix(), 10))
	q.Set("sig", s.Sign(previoID, expires.Unix()))
	return Link{URL: base + "/shared/report?" + q.Encode(), ExpiresAt: expires}
}

// Verify checks the query of a share link and returns the previo ID.
func (s *Signer) Verify(q url.Values) (string, error) {
	previoID, expires, sig := q.Get("previo"), q.Get("expires"), q.Get("sig")
	if previoID == "" || !s.Validate(previoID, expires, sig) {
		return "", ErrBadSignature
	}
	exp, _ := strconv.ParseInt(expires, 10, 64)
	if s.now().Unix() > exp {
		return "", ErrExpired
	}
	return previoID, nil
}
