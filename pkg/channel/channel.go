// Package channel implements the interactive channel: it writes commands
// to an SSH session and reads back output, using the pattern buffer to
// detect when a prompt has terminated a command's response.
package channel

import (
	"regexp"
	"time"

	"github.com/ngoclaw/clidriver/pkg/buffer"
	"github.com/ngoclaw/clidriver/pkg/clierrors"
	"github.com/ngoclaw/clidriver/pkg/transport"
)

// Channel owns one SSH session, one pattern buffer, and a search depth.
type Channel struct {
	session     transport.Session
	buf         *buffer.Buffer
	searchDepth int
}

// New wraps session with a pattern buffer of the given search depth.
func New(session transport.Session, searchDepth int) *Channel {
	if searchDepth <= 0 {
		searchDepth = buffer.DefaultSearchDepth
	}
	return &Channel{
		session:     session,
		buf:         buffer.New(searchDepth),
		searchDepth: searchDepth,
	}
}

// SearchDepth returns the configured tail window size.
func (c *Channel) SearchDepth() int { return c.searchDepth }

// Send writes command followed by a single newline. It does not wait for a
// reply.
func (c *Channel) Send(command string) error {
	_, err := c.session.Write([]byte(command + "\n"))
	return err
}

// SendRaw writes bytes verbatim, without appending a newline. Used for
// sending a single password/secret in response to an authentication
// sub-prompt.
func (c *Channel) SendRaw(p []byte) error {
	_, err := c.session.Write(p)
	return err
}

// ReadUntil accumulates incoming bytes into the pattern buffer, searching
// the tail after every chunk. On match it returns all accumulated bytes
// (including the prompt) and empties the buffer. On deadline it fails with
// a PatternTimeout error; on remote EOF/disconnect it fails with
// ChannelClosed.
func (c *Channel) ReadUntil(re *regexp.Regexp, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		if m := c.buf.SearchTail(re); m != nil {
			return c.buf.Take(), nil
		}

		chunk, err := c.session.ReadChunk(deadline)
		if err != nil {
			if clierrors.HasKind(err, clierrors.KindPatternTimeout) {
				return nil, clierrors.PatternTimeout(timeout)
			}
			return nil, err
		}
		c.buf.Append(chunk)

		if m := c.buf.SearchTail(re); m != nil {
			return c.buf.Take(), nil
		}
	}
}

// ReadRawChunk returns the next raw chunk of bytes without touching the
// pattern buffer or stripping escape sequences — used only by the
// streaming variant, which owns its own ANSI-stripping window
// (pkg/driver.CommandStream) so that a sequence split across two calls to
// ReadRawChunk is still removed correctly.
func (c *Channel) ReadRawChunk(timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	chunk, err := c.session.ReadChunk(deadline)
	if err != nil {
		if clierrors.HasKind(err, clierrors.KindPatternTimeout) {
			return nil, clierrors.PatternTimeout(timeout)
		}
		return nil, err
	}
	return chunk, nil
}

// Peek returns the currently buffered bytes without taking them.
func (c *Channel) Peek() []byte { return c.buf.Bytes() }

// Clear discards buffered bytes.
func (c *Channel) Clear() { c.buf.Clear() }

// Take returns and empties the buffered bytes.
func (c *Channel) Take() []byte { return c.buf.Take() }

// Close closes the underlying session. Idempotent.
func (c *Channel) Close() error { return c.session.Close() }

// Alive reports whether the underlying session's background loop is still
// running.
func (c *Channel) Alive() bool { return c.session.Alive() }
