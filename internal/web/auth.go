package web

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
)

const (
	signatureHeader = "X-Signature"
	maxBody         = 64 << 10
)

// Sign returns hex(HMAC-SHA256(body, secret)).
func Sign(body []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// ValidSignature reports whether sig is the hex HMAC of body under secret.
func ValidSignature(body []byte, sig, secret string) bool {
	if sig == "" || secret == "" {
		return false
	}
	want, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hmac.Equal(want, h.Sum(nil))
}

// signed rejects requests whose body is not signed with the webhook secret.
// The body is buffered so the handler can read it again.
func (s *Server) signed(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
			return
		}
		if !ValidSignature(body, r.Header.Get(signatureHeader), s.deps.WebhookSecret) {
			s.log.Warn().Str("remote", r.RemoteAddr).Msg("webhook signature rejected")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}
