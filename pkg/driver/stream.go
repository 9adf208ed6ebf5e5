package driver

import (
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ngoclaw/clidriver/pkg/buffer"
	"github.com/ngoclaw/clidriver/pkg/clierrors"
)

// CommandStream is a one-shot handle over the channel for a single
// in-flight command. It owns a bounded sliding window of at most
// 2*search_depth bytes, independent ANSI-stripping state that survives
// chunk boundaries, and the latest failure substring if any. While a
// stream is alive no other driver operation may run (see Driver.streaming).
type CommandStream struct {
	d       *Driver
	command string

	ansi     *buffer.Buffer // used only for its per-call ANSI-stripping, not its search
	window   []byte
	deadline time.Time
	start    time.Time

	finished       bool
	consumed       bool
	matchedPrompt  string
	failureMessage string
	elapsed        time.Duration
}

// SendCommandStream sends command and returns a handle for pulling its
// output incrementally. The returned stream must be driven to completion
// with NextChunk and finalized with IntoResponse; dropping it unfinished
// logs a warning when it is garbage collected.
func (d *Driver) SendCommandStream(command string) (*CommandStream, error) {
	if !d.IsOpen() {
		return nil, clierrors.NotConnected()
	}
	if err := d.BeginStream(); err != nil {
		return nil, err
	}
	if err := d.ch.Send(command); err != nil {
		d.EndStream()
		return nil, err
	}

	s := &CommandStream{
		d:        d,
		command:  command,
		ansi:     buffer.New(d.ch.SearchDepth()),
		deadline: time.Now().Add(d.timeout),
		start:    time.Now(),
	}
	runtime.SetFinalizer(s, func(cs *CommandStream) {
		if !cs.finished {
			cs.d.logger.Warn("command stream dropped before finishing",
				zap.String("command", cs.command))
		}
	})
	return s, nil
}

// NextChunk blocks until the next slice of output arrives. It returns the
// pre-prompt bytes of this step (possibly empty) and finished=true once the
// combined prompt regex has matched. Calling NextChunk again after finished
// is a no-op that returns (nil, true, nil).
func (s *CommandStream) NextChunk() (chunk []byte, finished bool, err error) {
	if s.finished {
		return nil, true, nil
	}

	remaining := time.Until(s.deadline)
	raw, rerr := s.d.ch.ReadRawChunk(remaining)
	if rerr != nil {
		return nil, false, rerr
	}

	s.ansi.Append(raw)
	stripped := s.ansi.Take()

	prevLen := len(s.window)
	s.window = append(s.window, stripped...)

	if s.failureMessage == "" {
		for _, sub := range s.d.plat.FailureSubstrings {
			if strings.Contains(string(stripped), sub) {
				s.failureMessage = sub
				break
			}
		}
	}

	loc := s.d.combined.FindIndex(s.window)
	if loc == nil {
		maxWindow := 2 * s.d.ch.SearchDepth()
		if len(s.window) > maxWindow {
			s.window = s.window[len(s.window)-maxWindow:]
		}
		return stripped, false, nil
	}

	matchStart, matchEnd := loc[0], loc[1]
	s.matchedPrompt = strings.TrimSpace(string(s.window[matchStart:matchEnd]))
	s.finished = true
	s.elapsed = time.Since(s.start)

	if m, merr := s.d.graph.DetermineFromPrompt(s.matchedPrompt); merr == nil {
		_ = s.d.graph.SetCurrent(m.Name)
	}
	s.d.EndStream()

	if matchStart >= prevLen {
		return stripped[:matchStart-prevLen], true, nil
	}
	// Prompt began in a previous chunk: nothing new precedes it here.
	return nil, true, nil
}

// IntoResponse consumes a finished stream into a Response with empty
// Result/RawResult (the caller already consumed the bytes via NextChunk)
// but populated MatchedPrompt, Elapsed, and FailureMessage. It is an error
// to call this before the stream has finished.
func (s *CommandStream) IntoResponse() (Response, error) {
	if !s.finished {
		return Response{}, clierrors.InvalidConfig("command stream has not finished")
	}
	s.consumed = true
	runtime.SetFinalizer(s, nil)
	return Response{
		Command:        s.command,
		MatchedPrompt:  s.matchedPrompt,
		Elapsed:        s.elapsed,
		FailureMessage: s.failureMessage,
	}, nil
}
