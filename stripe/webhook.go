package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader is the header carrying webhook signatures.
const SignatureHeader = "Stripe-Signature"

// DefaultTolerance is the maximum age of a signed webhook payload.
const DefaultTolerance = 5 * time.Minute

var (
	ErrInvalidHeader    = errors.New("stripe: webhook has invalid Stripe-Signature header")
	ErrNoValidSignature = errors.New("stripe: webhook had no valid signature")
	ErrNotSigned        = errors.New("stripe: webhook has no Stripe-Signature header")
	ErrTooOld           = errors.New("stripe: webhook timestamp is outside the tolerance zone")
)

// now is replaced in tests.
var now = time.Now

// ConstructEvent verifies the signature header of a webhook payload and
// decodes the event. Payloads older than DefaultTolerance are rejected.
func ConstructEvent(payload []byte, header, secret string) (*Event, error) {
	return ConstructEventWithTolerance(payload, header, secret, DefaultTolerance)
}

// ConstructEventWithTolerance is ConstructEvent with a custom tolerance. A
// tolerance of zero or less disables the timestamp check.
func ConstructEventWithTolerance(payload []byte, header, secret string, tolerance time.Duration) (*Event, error) {
	if err := ValidatePayload(payload, header, secret, tolerance); err != nil {
		return nil, err
	}
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("failed to parse webhook body json: %w", err)
	}
	return &ev, nil
}

// ValidatePayload checks the signature without decoding the payload.
func ValidatePayload(payload []byte, header, secret string, tolerance time.Duration) error {
	if header == "" {
		return ErrNotSigned
	}
	ts, sigs, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	expected := computeSignature(ts, payload, secret)
	valid := false
	for _, sig := range sigs {
		if hmac.Equal(expected, sig) {
			valid = true
			break
		}
	}
	if !valid {
		return ErrNoValidSignature
	}

	if tolerance > 0 && now().Sub(ts) > tolerance {
		return ErrTooOld
	}
	return nil
}

// SignPayload returns a Stripe-Signature header value for payload signed at
// t. It is used to build test webhooks.
func SignPayload(payload []byte, secret string, t time.Time) string {
	sig := computeSignature(t, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", t.Unix(), hex.EncodeToString(sig))
}

func computeSignature(t time.Time, payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(t.Unix(), 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

// parseSignatureHeader reads t=<unix> and every v1=<hex> pair. Other
// schemes such as v0 are ignored.
func parseSignatureHeader(header string) (time.Time, [][]byte, error) {
	var (
		ts     time.Time
		haveTS bool
		sigs   [][]byte
	)
	for _, pair := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return time.Time{}, nil, ErrInvalidHeader
		}
		switch key {
		case "t":
			sec, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return time.Time{}, nil, ErrInvalidHeader
			}
			ts = time.Unix(sec, 0)
			haveTS = true
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			sigs = append(sigs, sig)
		}
	}
	if !haveTS {
		return time.Time{}, nil, ErrInvalidHeader
	}
	if len(sigs) == 0 {
		return time.Time{}, nil, ErrNoValidSignature
	}
	return ts, sigs, nil
}
