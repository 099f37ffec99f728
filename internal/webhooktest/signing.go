package webhooktest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// SignatureHeader computes a Stripe-Signature header value for payload.
func SignatureHeader(payload []byte, secret string, timestamp time.Time) string {
	unix := strconv.FormatInt(timestamp.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(unix))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", unix, hex.EncodeToString(mac.Sum(nil)))
}

// EventPayload renders a minimal event body accepted by the verifier.
func EventPayload(id string, eventType string, apiVersion string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"object":"event","type":%q,"api_version":%q,"created":1700000000,"livemode":false,"account":"acct_test","data":{"object":{"id":"in_123","object":"invoice"}}}`,
		id, eventType, apiVersion,
	))
}
