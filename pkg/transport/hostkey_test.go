package transport

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/ssh"

	"github.com/ngoclaw/clidriver/pkg/clierrors"
)

func TestHostKeyCallbackDisabled(t *testing.T) {
	cb, err := hostKeyCallback(DisabledHostKey, "")
	if err != nil {
		t.Fatalf("hostKeyCallback() error: %v", err)
	}
	if cb == nil {
		t.Fatal("expected a non-nil callback")
	}
}

func TestHostKeyCallbackCreatesMissingKnownHostsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "known_hosts")

	if _, err := hostKeyCallback(AcceptNewHostKey, path); err != nil {
		t.Fatalf("hostKeyCallback() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected known_hosts file to be created: %v", err)
	}
}

func testPublicKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generating test key: %v", err)
	}
	signerPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("ssh.NewPublicKey: %v", err)
	}
	return signerPub
}

func TestVerifyHostKeyLearnsUnknownHostUnderAcceptNew(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "known_hosts")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	cb, err := hostKeyCallback(AcceptNewHostKey, path)
	if err != nil {
		t.Fatalf("hostKeyCallback() error: %v", err)
	}

	key := testPublicKey(t)
	addr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 22}
	if err := cb("router.example.net:22", addr, key); err != nil {
		t.Fatalf("expected unknown host to be learned, got error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("expected the learned host key to be appended to known_hosts")
	}
}

func TestVerifyHostKeyRejectsUnknownHostUnderStrict(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "known_hosts")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	cb, err := hostKeyCallback(StrictHostKey, path)
	if err != nil {
		t.Fatalf("hostKeyCallback() error: %v", err)
	}

	key := testPublicKey(t)
	addr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 22}
	err = cb("router.example.net:22", addr, key)
	if err == nil {
		t.Fatal("expected strict policy to reject an unknown host")
	}
	var e *clierrors.Error
	if ok := errors.As(err, &e); !ok || e.Kind != clierrors.KindHostKeyUnknown {
		t.Fatalf("expected KindHostKeyUnknown, got %v", err)
	}
}
