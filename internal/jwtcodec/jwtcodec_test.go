package jwtcodec

import (
	"errors"
	"testing"
	"time"
)

func TestMintDecode_RoundTrip(t *testing.T) {
	c := New("shh", time.Hour)

	token, minted, err := c.Mint("cli_abc", 3, nil)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	got, err := c.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Sub != "cli_abc" {
		t.Fatalf("expected sub cli_abc, got %s", got.Sub)
	}
	if got.Version != 3 {
		t.Fatalf("expected version 3, got %d", got.Version)
	}
	if got.ExpiresAt <= got.IssuedAt {
		t.Fatalf("expected exp > iat, got exp=%d iat=%d", got.ExpiresAt, got.IssuedAt)
	}
	if minted.Sub != got.Sub || minted.Version != got.Version {
		t.Fatalf("minted payload disagrees with decoded payload")
	}
}

func TestMint_CarriesSecretExpiresAt(t *testing.T) {
	c := New("shh", time.Hour)
	exp := time.Now().Add(10 * time.Minute)

	token, _, err := c.Mint("cli_abc", 1, &exp)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	got, err := c.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.SecretExpiresAt == nil {
		t.Fatal("expected secret_expires_at to be set")
	}
	if *got.SecretExpiresAt != exp.Unix() {
		t.Fatalf("expected secret_expires_at=%d, got %d", exp.Unix(), *got.SecretExpiresAt)
	}
}

func TestDecode_Expired(t *testing.T) {
	c := New("shh", -time.Hour) // mints already-expired tokens
	token, _, err := c.Mint("cli_abc", 1, nil)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	_, err = c.Decode(token)
	var jerr *Error
	if !errors.As(err, &jerr) {
		t.Fatalf("expected *Error, got %v (%T)", err, err)
	}
	if jerr.Reason != ReasonExpired {
		t.Fatalf("expected EXPIRED, got %s", jerr.Reason)
	}
}

func TestDecode_BadSignature(t *testing.T) {
	c1 := New("secret-one", time.Hour)
	c2 := New("secret-two", time.Hour)

	token, _, err := c1.Mint("cli_abc", 1, nil)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	_, err = c2.Decode(token)
	var jerr *Error
	if !errors.As(err, &jerr) {
		t.Fatalf("expected *Error, got %v (%T)", err, err)
	}
	if jerr.Reason != ReasonInvalidSignature {
		t.Fatalf("expected INVALID_SIGNATURE, got %s", jerr.Reason)
	}
}

func TestDecode_BadStructure(t *testing.T) {
	c := New("shh", time.Hour)

	_, err := c.Decode("not-a-jwt-at-all")
	var jerr *Error
	if !errors.As(err, &jerr) {
		t.Fatalf("expected *Error, got %v (%T)", err, err)
	}
	if jerr.Reason != ReasonBadJWT {
		t.Fatalf("expected BAD_JWT, got %s", jerr.Reason)
	}
}
