package channel

import (
	"regexp"
	"testing"
	"time"

	"github.com/ngoclaw/clidriver/pkg/clierrors"
	"github.com/ngoclaw/clidriver/pkg/transport"
)

func TestSendWritesCommandAndNewline(t *testing.T) {
	sess := transport.NewFakeSession(nil)
	ch := New(sess, 1000)
	if err := ch.Send("show version"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := string(sess.Written()); got != "show version\n" {
		t.Fatalf("Written() = %q, want %q", got, "show version\n")
	}
}

func TestReadUntilAccumulatesAndMatches(t *testing.T) {
	sess := transport.NewFakeSession(nil)
	ch := New(sess, 1000)
	sess.Feed([]byte("show ver"))
	sess.Feed([]byte("sion\r\n1.0\r\nhost# "))

	re := regexp.MustCompile(`host#\s*$`)
	out, err := ch.ReadUntil(re, time.Second)
	if err != nil {
		t.Fatalf("ReadUntil: %v", err)
	}
	want := "show version\r\n1.0\r\nhost# "
	if string(out) != want {
		t.Fatalf("ReadUntil() = %q, want %q", out, want)
	}
	if !ch.Take2Empty() {
		t.Fatal("buffer should be empty after ReadUntil returns")
	}
}

// Take2Empty is a tiny test helper checking the buffer was emptied.
func (c *Channel) Take2Empty() bool { return len(c.Peek()) == 0 }

func TestReadUntilTimesOut(t *testing.T) {
	sess := transport.NewFakeSession(nil)
	ch := New(sess, 1000)
	re := regexp.MustCompile(`nevermatches#`)
	_, err := ch.ReadUntil(re, 20*time.Millisecond)
	if !clierrors.HasKind(err, clierrors.KindPatternTimeout) {
		t.Fatalf("expected PatternTimeout, got %v", err)
	}
}

func TestReadUntilChannelClosed(t *testing.T) {
	sess := transport.NewFakeSession(nil)
	ch := New(sess, 1000)
	sess.FeedEOF()
	re := regexp.MustCompile(`host#`)
	_, err := ch.ReadUntil(re, time.Second)
	if !clierrors.HasKind(err, clierrors.KindChannelClosed) {
		t.Fatalf("expected ChannelClosed, got %v", err)
	}
}
