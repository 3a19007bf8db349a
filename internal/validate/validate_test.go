package validate

import (
	"errors"
	"testing"
)

func TestEmail(t *testing.T) {
	valid := []string{"a@x.com", "first.last@sub.example.org", "user+tag@example.co"}
	for _, s := range valid {
		if err := Email(s); err != nil {
			t.Errorf("Email(%q) unexpected error: %v", s, err)
		}
	}

	invalid := []string{"", "plain", "a@b", "a b@x.com", "<a>@x.com", "a@x.com "}
	for _, s := range invalid {
		if err := Email(s); err == nil {
			t.Errorf("Email(%q) expected error", s)
		}
	}
}

func TestUsername(t *testing.T) {
	valid := []string{"abc", "alice", "user_name-32", "A1-_"}
	for _, s := range valid {
		if err := Username(s); err != nil {
			t.Errorf("Username(%q) unexpected error: %v", s, err)
		}
	}

	invalid := []string{"", "ab", "has space", "dot.ted", "waaaaaaaaaaaaaaaaaaaaaaaaaaaaytoolong33"}
	for _, s := range invalid {
		if err := Username(s); err == nil {
			t.Errorf("Username(%q) expected error", s)
		}
	}
}

func TestPassword(t *testing.T) {
	if err := Password("Passw0rd!"); err != nil {
		t.Errorf("unexpected error for valid password: %v", err)
	}

	cases := map[string]string{
		"short":        "Aa1!",
		"no uppercase": "passw0rd!",
		"no lowercase": "PASSW0RD!",
		"no digit":     "Password!",
		"no symbol":    "Passw0rda",
	}
	for name, pw := range cases {
		if err := Password(pw); err == nil {
			t.Errorf("%s: expected error for %q", name, pw)
		}
	}
}

func TestPassword_ErrorIsFieldError(t *testing.T) {
	err := Password("passw0rd!")
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %T", err)
	}
	if fe.Field != "password" {
		t.Errorf("expected field password, got %q", fe.Field)
	}
	if fe.Message != "Password must contain at least one uppercase letter" {
		t.Errorf("unexpected message: %q", fe.Message)
	}
}

func TestRequiredText(t *testing.T) {
	got, err := RequiredText("city", "  Metropolis  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Metropolis" {
		t.Errorf("expected trimmed value, got %q", got)
	}

	if _, err := RequiredText("city", "   "); err == nil {
		t.Error("expected error for blank value")
	}
	if _, err := RequiredText("city", "<script>"); err == nil {
		t.Error("expected error for angle brackets")
	}

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := RequiredText("city", string(long)); err == nil {
		t.Error("expected error for over-length value")
	}
}

func TestPostalCode(t *testing.T) {
	for _, s := range []string{"10001", "10001-1234", " 10001 "} {
		if _, err := PostalCode(s); err != nil {
			t.Errorf("PostalCode(%q) unexpected error: %v", s, err)
		}
	}
	for _, s := range []string{"", "1234", "100011", "10001-12", "abcde"} {
		if _, err := PostalCode(s); err == nil {
			t.Errorf("PostalCode(%q) expected error", s)
		}
	}
}
