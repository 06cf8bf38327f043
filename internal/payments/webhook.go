package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook signature header: "t=<unix>,v1=<hex hmac-sha256 of "<unix>.<body>">".
const signatureTolerance = 5 * time.Minute

type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type CheckoutCompletedData struct {
	SessionID         string  `json:"id"`
	ClientReferenceID string  `json:"client_reference_id"`
	CustomerID        string  `json:"customer"`
	SubscriptionID    *string `json:"subscription"`
}

type SubscriptionData struct {
	SubscriptionID   string `json:"id"`
	CustomerID       string `json:"customer"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
}

// VerifySignature checks the webhook signature header against the raw body.
// The timestamp must be within the tolerance window to limit replays.
func VerifySignature(payload []byte, header string, secret string) error {
	return verifySignatureAt(payload, header, secret, time.Now())
}

func verifySignatureAt(payload []byte, header string, secret string, now time.Time) error {
	var timestamp, signature string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signature = value
		}
	}
	if timestamp == "" || signature == "" {
		return ErrBadSignature
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	sent := time.Unix(unix, 0)
	if sent.Before(now.Add(-signatureTolerance)) || sent.After(now.Add(signatureTolerance)) {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrBadSignature)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}

// ParseEvent verifies the signature and decodes the event envelope.
func ParseEvent(payload []byte, header string, secret string) (*Event, error) {
	if err := VerifySignature(payload, header, secret); err != nil {
		return nil, err
	}
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("webhook event missing type")
	}
	return &event, nil
}

// SignPayload produces a signature header for payload. Tests use it to
// emulate provider deliveries.
func SignPayload(payload []byte, secret string, at time.Time) string {
	timestamp := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}
