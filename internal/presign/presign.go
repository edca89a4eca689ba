// Package presign issues and checks capability URLs for attachment
// uploads: the server signs (key, expiry) with HMAC-SHA256 and the
// uploader PUTs raw bytes to the signed URL without further auth.
package presign

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
	ErrExpired    = errors.New("presign: url expired")
	ErrBadSig     = errors.New("presign: signature mismatch")
	ErrBadExpires = errors.New("presign: invalid expires value")
)

type Signer struct {
	secret []byte
}

func New(secret string) *Signer { return &Signer{secret: []byte(secret)} }

func (s *Signer) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%d", key, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

// UploadURL builds a time-limited PUT target for the given object key.
func (s *Signer) UploadURL(base, key string, ttl time.Duration) string {
	expires := time.Now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", s.sign(key, expires))
	return base + "/attachments/" + url.PathEscape(key) + "?" + q.Encode()
}

// Verify checks the signature and expiry taken from the request query.
func (s *Signer) Verify(key, expiresStr, sig string) error {
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return ErrBadExpires
	}
	if time.Now().Unix() > expires {
		return ErrExpired
	}
	want := s.sign(key, expires)
	if !hmac.Equal([]byte(want), []byte(sig)) {
		return ErrBadSig
	}
	return nil
}
