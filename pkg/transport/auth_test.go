package transport

import (
	"testing"
)

func TestAuthMethodsRequiresCredential(t *testing.T) {
	if _, err := authMethods(Auth{}); err == nil {
		t.Fatal("expected error when neither Password nor KeyPEM is set")
	}
}

func TestAuthMethodsPassword(t *testing.T) {
	methods, err := authMethods(Auth{Username: "netops", Password: "s3cret"})
	if err != nil {
		t.Fatalf("authMethods() error: %v", err)
	}
	if len(methods) != 1 {
		t.Fatalf("got %d auth methods, want 1", len(methods))
	}
}

func TestAuthMethodsRejectsUnparsableKey(t *testing.T) {
	if _, err := authMethods(Auth{KeyPEM: []byte("not a real key")}); err == nil {
		t.Fatal("expected error for unparsable private key")
	}
}

func TestAuthMethodsBothPasswordAndKeyRequiresValidKey(t *testing.T) {
	// A bad key still errors even when a password is also present: the key
	// is parsed first and its failure is surfaced rather than silently
	// falling back to password-only auth.
	_, err := authMethods(Auth{Password: "s3cret", KeyPEM: []byte("garbage")})
	if err == nil {
		t.Fatal("expected error for unparsable private key even with a password present")
	}
}
