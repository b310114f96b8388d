package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"testing"
)

func TestCalculateFee(t *testing.T) {
	s := &RazorpayService{}

	cases := []struct {
		amount   float64
		percent  float64
		expected float64
	}{
		{100, 2, 2},
		{100, 0, 0},
		{33.33, 2, 0.67},
		{10, 2.5, 0.25},
		{0.01, 2, 0},
	}

	for _, tc := range cases {
		got := s.CalculateFee(tc.amount, tc.percent)
		if math.Abs(got-tc.expected) > 0.0001 {
			t.Errorf("CalculateFee(%v, %v) = %v, expected %v", tc.amount, tc.percent, got, tc.expected)
		}
	}
}

func webhookSignature(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"event":"payment.captured"}`)

	s := NewRazorpayService("key", "secret", "whsec", nil, nil, nil)
	if !s.VerifyWebhookSignature(ctx, body, webhookSignature("whsec", body)) {
		t.Error("expected a correctly signed body to verify")
	}
	if s.VerifyWebhookSignature(ctx, body, webhookSignature("wrong", body)) {
		t.Error("expected a body signed with the wrong secret to fail")
	}
	if s.VerifyWebhookSignature(ctx, []byte(`{"tampered":true}`), webhookSignature("whsec", body)) {
		t.Error("expected a tampered body to fail")
	}
}

func TestVerifyWebhookSignature_NoSecretRejects(t *testing.T) {
	// Without a configured secret nothing can be verified; deliveries
	// must be rejected, never trusted.
	s := NewRazorpayService("key", "secret", "", nil, nil, nil)
	body := []byte(`{"event":"payment.captured"}`)

	if s.VerifyWebhookSignature(context.Background(), body, webhookSignature("anything", body)) {
		t.Error("expected verification to fail when no webhook secret is configured")
	}
}
