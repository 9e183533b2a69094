package crypto

import (
	"bytes"
	"strings"
	"testing"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc, err := New(testKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ciphertext, err := svc.Encrypt([]byte("ABCDE1234F"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if bytes.Contains(ciphertext, []byte("ABCDE1234F")) {
		t.Fatal("ciphertext contains plaintext")
	}

	plain, err := svc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if string(plain) != "ABCDE1234F" {
		t.Fatalf("expected round trip, got %q", plain)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := New("short"); err == nil {
		t.Fatal("expected error for undersized key")
	}
}

func TestDecryptRejectsTampering(t *testing.T) {
	svc, err := New(testKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ciphertext, err := svc.EncryptString("199912345678")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	ciphertext[len(ciphertext)-1] ^= 0xff
	if _, err := svc.DecryptString(ciphertext); err == nil {
		t.Fatal("expected authentication failure")
	}
}

func TestEmptyValues(t *testing.T) {
	svc, err := New(strings.Repeat("k", 32))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := svc.EncryptString("")
	if err != nil || out != nil {
		t.Fatalf("expected nil for empty input, got %v %v", out, err)
	}
}
