package payments

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestVerifySignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{}}`)
	secret := "whsec_test"

	header := SignPayload(payload, secret, time.Now())
	if err := VerifySignature(payload, header, secret); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifySignatureRejectsTamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	secret := "whsec_test"
	header := SignPayload(payload, secret, time.Now())

	if err := VerifySignature([]byte(`{"id":"evt_2"}`), header, secret); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := SignPayload(payload, "whsec_test", time.Now())

	if err := VerifySignature(payload, header, "whsec_other"); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	secret := "whsec_test"
	signedAt := time.Now().Add(-time.Hour)
	header := SignPayload(payload, secret, signedAt)

	if err := verifySignatureAt(payload, header, secret, time.Now()); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for stale timestamp, got %v", err)
	}
}

func TestVerifySignatureRejectsMalformedHeader(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	for _, header := range []string{"", "v1=abc", "t=notanumber,v1=abc"} {
		if err := VerifySignature(payload, header, "whsec_test"); !errors.Is(err, ErrBadSignature) {
			t.Fatalf("expected ErrBadSignature for header %q, got %v", header, err)
		}
	}
}

func TestParseEventDecodesEnvelope(t *testing.T) {
	secret := "whsec_test"
	data, _ := json.Marshal(SubscriptionData{SubscriptionID: "sub_1", CustomerID: "cus_1", Status: "active"})
	payload, _ := json.Marshal(Event{ID: "evt_1", Type: "customer.subscription.updated", Data: data})

	event, err := ParseEvent(payload, SignPayload(payload, secret, time.Now()), secret)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if event.Type != "customer.subscription.updated" {
		t.Fatalf("unexpected type %q", event.Type)
	}

	var sub SubscriptionData
	if err := json.Unmarshal(event.Data, &sub); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if sub.SubscriptionID != "sub_1" {
		t.Fatalf("unexpected subscription id %q", sub.SubscriptionID)
	}
}

func TestParseEventRequiresType(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","data":{}}`)

	if _, err := ParseEvent(payload, SignPayload(payload, secret, time.Now()), secret); err == nil {
		t.Fatal("expected error for missing event type")
	}
}
