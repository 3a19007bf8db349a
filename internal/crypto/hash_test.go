package crypto

import "testing"

func TestHashPassword_RoundTrip(t *testing.T) {
	digest, err := HashPassword("Sup3r-secret!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if digest == "Sup3r-secret!" {
		t.Fatal("digest must not equal the plaintext")
	}
	if !VerifyPassword("Sup3r-secret!", digest) {
		t.Error("expected password to verify against its own digest")
	}
}

func TestVerifyPassword_Mismatch(t *testing.T) {
	digest, err := HashPassword("Correct-h0rse!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if VerifyPassword("wrong-password", digest) {
		t.Error("expected mismatched password to fail verification")
	}
	if VerifyPassword("Correct-h0rse!", "not-a-digest") {
		t.Error("expected malformed digest to fail verification")
	}
}

func TestHashPassword_DistinctDigests(t *testing.T) {
	a, err := HashPassword("Sup3r-secret!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	b, err := HashPassword("Sup3r-secret!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if a == b {
		t.Error("expected salted digests to differ between calls")
	}
}
