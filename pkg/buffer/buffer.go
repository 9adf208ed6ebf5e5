// Package buffer implements the pattern buffer: an ANSI-stripping byte
// accumulator with a bounded tail-regex search, so prompt detection stays
// linear regardless of how much output a device has produced.
package buffer

import "regexp"

// DefaultSearchDepth is the number of trailing bytes considered by
// SearchTail. It must exceed the longest prompt any supported platform can
// emit (Nokia's multi-line MD-CLI prompts run up to ~200 bytes).
const DefaultSearchDepth = 1000

// Match describes a regex match found by SearchTail or SearchFull. Start
// and End are byte offsets relative to the region that was searched (the
// tail window for SearchTail, the whole buffer for SearchFull) — callers
// must not conflate the two.
type Match struct {
	Start, End int
	Text       string
}

// Buffer accumulates ANSI-stripped bytes from a device and exposes a
// bounded tail search for prompt detection.
type Buffer struct {
	data        []byte
	searchDepth int
	ansi        ansiState
}

// New constructs a Buffer with the given search depth. A non-positive depth
// falls back to DefaultSearchDepth.
func New(searchDepth int) *Buffer {
	if searchDepth <= 0 {
		searchDepth = DefaultSearchDepth
	}
	return &Buffer{searchDepth: searchDepth}
}

// SearchDepth returns the configured tail window size.
func (b *Buffer) SearchDepth() int { return b.searchDepth }

// Append strips ANSI/VT escape sequences from p and appends the remaining
// bytes. Stripping happens here, not in the channel, because an escape
// sequence split across reads must be re-assembled across Append calls.
func (b *Buffer) Append(p []byte) {
	stripped := b.ansi.Feed(p)
	if len(stripped) == 0 {
		return
	}
	b.data = append(b.data, stripped...)
}

// tailWindow returns the last searchDepth bytes of data (or all of it if
// shorter), along with the offset at which the window begins.
func (b *Buffer) tailWindow() (window []byte, offset int) {
	if len(b.data) <= b.searchDepth {
		return b.data, 0
	}
	offset = len(b.data) - b.searchDepth
	return b.data[offset:], offset
}

// SearchTail searches only the last SearchDepth bytes of the buffer. Byte
// offsets in the returned Match are relative to the tail window, not the
// whole buffer.
func (b *Buffer) SearchTail(re *regexp.Regexp) *Match {
	window, _ := b.tailWindow()
	loc := re.FindIndex(window)
	if loc == nil {
		return nil
	}
	return &Match{Start: loc[0], End: loc[1], Text: string(window[loc[0]:loc[1]])}
}

// SearchFull performs an unrestricted search over the whole buffer. This is
// O(n) in total bytes seen and must never sit on the per-chunk prompt
// detection hot path; it exists for the boundary case where a prompt
// straddles the tail window on the final read of a command.
func (b *Buffer) SearchFull(re *regexp.Regexp) *Match {
	loc := re.FindIndex(b.data)
	if loc == nil {
		return nil
	}
	return &Match{Start: loc[0], End: loc[1], Text: string(b.data[loc[0]:loc[1]])}
}

// Take returns the accumulated bytes and empties the buffer. The ANSI
// parser state is preserved across Take so a partial escape sequence
// spanning a Take boundary is still handled correctly.
func (b *Buffer) Take() []byte {
	out := b.data
	b.data = nil
	return out
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int { return len(b.data) }

// IsEmpty reports whether the buffer holds no bytes.
func (b *Buffer) IsEmpty() bool { return len(b.data) == 0 }

// Bytes returns a view of the accumulated bytes without taking ownership.
func (b *Buffer) Bytes() []byte { return b.data }

// String returns a UTF-8 lossy view of the accumulated bytes.
func (b *Buffer) String() string { return string(b.data) }

// Clear discards all buffered bytes without resetting the ANSI parser
// state.
func (b *Buffer) Clear() { b.data = nil }
