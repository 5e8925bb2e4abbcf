package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signature verification failures.
var (
	ErrMissingSignature   = errors.New("payment: missing webhook signature")
	ErrMalformedSignature = errors.New("payment: malformed webhook signature")
	ErrSignatureMismatch  = errors.New("payment: webhook signature mismatch")
	ErrSignatureExpired   = errors.New("payment: webhook signature outside tolerance")
)

// SignatureVerifier checks the x-signature header Mercado Pago attaches to notifications.
// The signed manifest is "id:{data.id};request-id:{x-request-id};ts:{ts};" and the
// digest is a hex HMAC-SHA256 keyed with the webhook secret.
type SignatureVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// VerifierOption customises the verifier.
type VerifierOption func(*SignatureVerifier)

// WithTolerance rejects signatures whose timestamp is further than d from now. Zero disables the check.
func WithTolerance(d time.Duration) VerifierOption {
	return func(v *SignatureVerifier) { v.tolerance = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *SignatureVerifier) { v.now = now }
}

// NewSignatureVerifier returns nil when secret is empty, which disables verification.
func NewSignatureVerifier(secret string, opts ...VerifierOption) *SignatureVerifier {
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	v := &SignatureVerifier{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Enabled reports whether notifications must carry a valid signature.
func (v *SignatureVerifier) Enabled() bool {
	return v != nil
}

// Verify checks header against the data id and request id of a notification.
func (v *SignatureVerifier) Verify(header, requestID, dataID string) error {
	if v == nil {
		return nil
	}
	if strings.TrimSpace(header) == "" {
		return ErrMissingSignature
	}

	ts, sig, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	if v.tolerance > 0 {
		stamp, err := parseTimestamp(ts)
		if err != nil {
			return err
		}
		skew := v.now().Sub(stamp)
		if skew < 0 {
			skew = -skew
		}
		if skew > v.tolerance {
			return ErrSignatureExpired
		}
	}

	expected := Sign(v.secret, Manifest(dataID, requestID, ts))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(sig))) {
		return ErrSignatureMismatch
	}
	return nil
}

// Manifest builds the signed template. Alphanumeric data ids are lower-cased, and
// parts that are absent are left out, following the gateway's documentation.
func Manifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		fmt.Fprintf(&b, "id:%s;", strings.ToLower(dataID))
	}
	if requestID != "" {
		fmt.Fprintf(&b, "request-id:%s;", requestID)
	}
	if ts != "" {
		fmt.Fprintf(&b, "ts:%s;", ts)
	}
	return b.String()
}

// Sign returns the hex HMAC-SHA256 of manifest.
func Sign(secret []byte, manifest string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (ts, sig string, err error) {
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			sig = strings.TrimSpace(value)
		}
	}
	if ts == "" || sig == "" {
		return "", "", ErrMalformedSignature
	}
	return ts, sig, nil
}

// parseTimestamp accepts seconds or milliseconds since the epoch.
func parseTimestamp(ts string) (time.Time, error) {
	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}, ErrMalformedSignature
	}
	if n > 1e12 {
		return time.UnixMilli(n), nil
	}
	return time.Unix(n, 0), nil
}
