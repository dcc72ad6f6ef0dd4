package secrethash

import "testing"

func TestHash_Deterministic(t *testing.T) {
	a := Hash("super-secret")
	b := Hash("super-secret")
	if a != b {
		t.Fatalf("expected deterministic hash, got %q and %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars (sha256), got %d", len(a))
	}
}

func TestHash_KnownVector(t *testing.T) {
	// sha256("") = e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855
	got := Hash("")
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b85"
	if got != want {
		t.Fatalf("Hash(\"\") = %s, want %s", got, want)
	}
}

func TestMatches(t *testing.T) {
	h := Hash("correct-secret")

	if !Matches("correct-secret", h) {
		t.Fatal("expected correct secret to match its own hash")
	}
	if Matches("wrong-secret", h) {
		t.Fatal("expected wrong secret not to match")
	}
}
