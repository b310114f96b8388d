package services

import (
	"errors"
	"testing"
	"time"

	"vet-backend/internal/timeutil"
)

func newTestPortalService() *PortalService {
	return &PortalService{codes: make(map[string]*loginCode)}
}

func TestConsumeCode_Success(t *testing.T) {
	s := newTestPortalService()
	s.codes["600111222"] = &loginCode{code: "123456", expiresAt: timeutil.Now().Add(time.Minute)}

	if err := s.consumeCode("600111222", "123456"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if _, ok := s.codes["600111222"]; ok {
		t.Error("code should be single-use")
	}
}

func TestConsumeCode_Expired(t *testing.T) {
	s := newTestPortalService()
	s.codes["600111222"] = &loginCode{code: "123456", expiresAt: timeutil.Now().Add(-time.Second)}

	err := s.consumeCode("600111222", "123456")
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("expected StateError for expired code, got %v", err)
	}
	if _, ok := s.codes["600111222"]; ok {
		t.Error("expired code should be dropped")
	}
}

func TestConsumeCode_Unknown(t *testing.T) {
	s := newTestPortalService()
	var state *StateError
	if err := s.consumeCode("600111222", "123456"); !errors.As(err, &state) {
		t.Fatalf("expected StateError for unknown phone, got %v", err)
	}
}

func TestConsumeCode_WrongThenRight(t *testing.T) {
	s := newTestPortalService()
	s.codes["600111222"] = &loginCode{code: "123456", expiresAt: timeutil.Now().Add(time.Minute)}

	err := s.consumeCode("600111222", "000000")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for wrong code, got %v", err)
	}

	if err := s.consumeCode("600111222", "123456"); err != nil {
		t.Fatalf("correct code should still work after one miss, got %v", err)
	}
}

func TestConsumeCode_TooManyAttempts(t *testing.T) {
	s := newTestPortalService()
	s.codes["600111222"] = &loginCode{code: "123456", expiresAt: timeutil.Now().Add(time.Minute)}

	var lastErr error
	for i := 0; i < loginCodeMaxTries; i++ {
		lastErr = s.consumeCode("600111222", "000000")
	}

	var state *StateError
	if !errors.As(lastErr, &state) {
		t.Fatalf("expected StateError after %d wrong codes, got %v", loginCodeMaxTries, lastErr)
	}

	// The code is burned; even the right one fails now
	if err := s.consumeCode("600111222", "123456"); !errors.As(err, &state) {
		t.Fatalf("expected StateError after lockout, got %v", err)
	}
}

func TestGenerateLoginCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := generateLoginCode()
		if err != nil {
			t.Fatalf("generateLoginCode error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("expected digits only, got %q", code)
			}
		}
	}
}
