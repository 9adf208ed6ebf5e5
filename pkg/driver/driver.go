// Package driver implements the session engine: it owns the SSH session,
// the interactive channel, the privilege graph's current-mode state, and
// the (read-only) platform, and executes commands with prompt termination.
package driver

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ngoclaw/clidriver/pkg/channel"
	"github.com/ngoclaw/clidriver/pkg/clierrors"
	"github.com/ngoclaw/clidriver/pkg/platform"
	"github.com/ngoclaw/clidriver/pkg/privilege"
	"github.com/ngoclaw/clidriver/pkg/safego"
	"github.com/ngoclaw/clidriver/pkg/transport"
)

// Driver owns one interactive CLI session end to end.
type Driver struct {
	id string

	transportCfg transport.Config
	password     string // reused for auth sub-prompts (e.g. "enable")

	session transport.Session
	ch      *channel.Channel

	graph   *privilege.Graph
	plat    *platform.Platform
	timeout time.Duration

	combined *regexp.Regexp

	normalize bool
	logger    *zap.Logger

	streaming bool // exclusivity: true while a CommandStream is in flight

	// dial is overridable in tests so Open() never touches a real network.
	dial func(transport.Config) (transport.Session, error)
}

func newGraphFromPlatform(p *platform.Platform) (*privilege.Graph, error) {
	return privilege.NewGraph(p.Modes)
}

func (d *Driver) rebuildCombinedPrompt() error {
	re, err := d.plat.CombinedPromptPattern()
	if err != nil {
		return err
	}
	if extra := d.graph.Modes(); len(extra) != len(d.plat.Modes) {
		// Dynamic modes have been registered/removed since the platform was
		// built; recompute the combined pattern from the graph's live mode
		// set instead of the platform's static one.
		parts := make([]string, 0, len(extra))
		for _, m := range extra {
			if m.Prompt == nil {
				continue
			}
			parts = append(parts, "(?:"+m.Prompt.String()+")")
		}
		combined, cerr := regexp.Compile(strings.Join(parts, "|"))
		if cerr != nil {
			return clierrors.InvalidDefinition("failed to rebuild combined prompt: " + cerr.Error())
		}
		d.combined = combined
		return nil
	}
	d.combined = re
	return nil
}

// SetDialer overrides how Open establishes the transport session. Tests
// use this to substitute transport.FakeSession for a real SSH dial; it is
// exported because pkg/configsession's own tests build drivers from
// outside this package.
func (d *Driver) SetDialer(fn func(transport.Config) (transport.Session, error)) {
	d.dial = fn
}

// ID returns the driver's correlation ID, used in log lines.
func (d *Driver) ID() string { return d.id }

// Platform returns the read-only platform this driver was built with.
func (d *Driver) Platform() *platform.Platform { return d.plat }

// CurrentPrivilege returns the name of the current mode.
func (d *Driver) CurrentPrivilege() string { return d.graph.Current() }

// IsOpen reports whether both the transport and channel are present.
func (d *Driver) IsOpen() bool { return d.session != nil && d.ch != nil }

// IsAlive reports whether the underlying session's background loop is
// still running — false once keepalive has given up or the peer has
// disconnected.
func (d *Driver) IsAlive() bool { return d.IsOpen() && d.ch.Alive() }

// Open establishes the SSH session, requests a PTY and shell, reads the
// initial prompt, and runs the platform's on-open commands (best-effort).
func (d *Driver) Open() error {
	if d.IsOpen() {
		return clierrors.AlreadyConnected()
	}

	dial := d.dial
	if dial == nil {
		dial = func(cfg transport.Config) (transport.Session, error) { return transport.Dial(cfg) }
	}
	sess, err := dial(d.transportCfg)
	if err != nil {
		return err
	}
	d.session = sess
	d.ch = channel.New(sess, 0)

	data, err := d.ch.ReadUntil(d.combined, d.timeout)
	if err != nil {
		d.logger.Debug("initial prompt read failed", zap.Error(err))
		return err
	}
	prompt := extractPromptText(data, d.ch.SearchDepth(), d.combined)
	if m, merr := d.graph.DetermineFromPrompt(prompt); merr == nil {
		_ = d.graph.SetCurrent(m.Name)
	} else {
		d.logger.Debug("unrecognized initial prompt", zap.String("prompt", prompt))
	}

	for _, cmd := range d.plat.OnOpen {
		if _, err := d.SendCommand(cmd); err != nil {
			d.logger.Debug("on-open command failed, ignoring", zap.String("command", cmd), zap.Error(err))
		}
	}

	return nil
}

// Close sends on-close commands best-effort, drops the channel, and
// disconnects. Idempotent.
func (d *Driver) Close() error {
	if !d.IsOpen() {
		return nil
	}
	for _, cmd := range d.plat.OnClose {
		if err := d.ch.Send(cmd); err != nil {
			d.logger.Debug("on-close send failed, ignoring", zap.String("command", cmd), zap.Error(err))
			continue
		}
		if _, err := d.ch.ReadUntil(d.combined, d.timeout); err != nil {
			d.logger.Debug("on-close read failed, ignoring", zap.String("command", cmd), zap.Error(err))
		}
	}
	err := d.ch.Close()
	d.ch = nil
	d.session = nil
	return err
}

// extractPromptText restricts the prompt search to the final searchDepth
// bytes of data, locates the combined prompt regex's match within that tail,
// and returns just the matched prompt text, trimmed (spec §4.5.2 step 4: a
// "locate" sub-step followed by an "extract, trimmed" sub-step — the whole
// tail is the search window, not the result).
func extractPromptText(data []byte, searchDepth int, combined *regexp.Regexp) string {
	tail := data
	if len(data) > searchDepth {
		tail = data[len(data)-searchDepth:]
	}
	if combined != nil {
		if loc := combined.FindIndex(tail); loc != nil {
			return strings.TrimSpace(string(tail[loc[0]:loc[1]]))
		}
	}
	return strings.TrimSpace(string(tail))
}

// SendCommand implements the send-command contract (spec §4.5.2).
func (d *Driver) SendCommand(command string) (Response, error) {
	if !d.IsOpen() {
		return Response{}, clierrors.NotConnected()
	}
	if d.streaming {
		return Response{}, clierrors.InvalidConfig("a command stream is in flight; no other driver operation may run")
	}

	start := time.Now()
	if err := d.ch.Send(command); err != nil {
		return Response{}, err
	}
	data, err := d.ch.ReadUntil(d.combined, d.timeout)
	if err != nil {
		return Response{}, err
	}
	elapsed := time.Since(start)

	raw := string(data)
	promptText := extractPromptText(data, d.ch.SearchDepth(), d.combined)

	if m, merr := d.graph.DetermineFromPrompt(promptText); merr == nil {
		_ = d.graph.SetCurrent(m.Name)
	}
	// Unrecognized prompts leave the current mode unchanged.

	result := raw
	if d.normalize {
		normalized := normalizeLineEndings(raw)
		result = stripEchoAndPrompt(normalized, command)
		if d.plat.PostProcess != nil {
			result = d.plat.PostProcess(result)
		}
	}

	resp := Response{
		Command:       command,
		Result:        result,
		RawResult:     raw,
		MatchedPrompt: promptText,
		Elapsed:       elapsed,
	}
	for _, sub := range d.plat.FailureSubstrings {
		if strings.Contains(result, sub) {
			resp.FailureMessage = sub
			break
		}
	}
	return resp, nil
}

// SendCommands runs each command as a full round-trip before the next is
// sent — no pipelining, a single session has a single prompt-terminated
// conversation.
func (d *Driver) SendCommands(commands []string) ([]Response, error) {
	out := make([]Response, 0, len(commands))
	for _, cmd := range commands {
		resp, err := d.SendCommand(cmd)
		if err != nil {
			return out, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// SendInteractive drives a scripted sequence of input/expected-pattern
// events. A failed step does not short-circuit the sequence.
func (d *Driver) SendInteractive(events []InteractiveEvent) (InteractiveResult, error) {
	if !d.IsOpen() {
		return InteractiveResult{}, clierrors.NotConnected()
	}
	if d.streaming {
		return InteractiveResult{}, clierrors.InvalidConfig("a command stream is in flight; no other driver operation may run")
	}

	start := time.Now()
	var steps []InteractiveStep
	var lastRaw string

	for _, ev := range events {
		timeout := ev.Timeout
		if timeout == 0 {
			timeout = d.timeout
		}

		stepStart := time.Now()
		if err := d.ch.Send(ev.Input); err != nil {
			return InteractiveResult{}, err
		}
		data, err := d.ch.ReadUntil(ev.Pattern, timeout)
		if err != nil {
			return InteractiveResult{}, err
		}
		lastRaw = string(data)
		stepElapsed := time.Since(stepStart)

		normalized := normalizeLineEndings(lastRaw)
		output := stripEchoAndPrompt(normalized, ev.Input)
		if d.plat.PostProcess != nil {
			output = d.plat.PostProcess(output)
		}

		input := ev.Input
		if ev.Hidden {
			input = "********"
		}

		step := InteractiveStep{
			Input:     input,
			Output:    output,
			RawOutput: lastRaw,
			Elapsed:   stepElapsed,
		}
		for _, sub := range d.plat.FailureSubstrings {
			if strings.Contains(output, sub) {
				step.FailureMessage = sub
				break
			}
		}
		steps = append(steps, step)
	}

	if lastRaw != "" {
		promptText := extractPromptText([]byte(lastRaw), d.ch.SearchDepth(), d.combined)
		if m, merr := d.graph.DetermineFromPrompt(promptText); merr == nil {
			_ = d.graph.SetCurrent(m.Name)
		}
	}

	return InteractiveResult{Steps: steps, TotalElapsed: time.Since(start)}, nil
}

// AcquirePrivilege navigates from the current mode to target via the
// shortest path in the privilege graph, sending each edge's transition
// command and, where present, its authentication sub-prompt response.
func (d *Driver) AcquirePrivilege(target string) error {
	if !d.IsOpen() {
		return clierrors.NotConnected()
	}
	current := d.graph.Current()
	if current == target {
		return nil
	}

	path, err := d.graph.FindPath(current, target)
	if err != nil {
		return err
	}

	for i := 0; i < len(path)-1; i++ {
		from, to := path[i], path[i+1]
		transition, ok := d.graph.GetTransition(from, to)
		if !ok {
			return clierrors.PrivilegeAcquisitionFailed(target)
		}

		if err := d.ch.Send(transition.Command); err != nil {
			return err
		}

		if transition.AuthPrompt != nil {
			if _, err := d.ch.ReadUntil(transition.AuthPrompt, d.timeout); err != nil {
				return err
			}
			if d.password == "" {
				return clierrors.InvalidConfig(
					"an authentication sub-prompt appeared but the driver has no stored password; " +
						"pre-register one via the builder or handle the prompt via SendInteractive")
			}
			if err := d.ch.Send(d.password); err != nil {
				return err
			}
		}

		data, err := d.ch.ReadUntil(d.combined, d.timeout)
		if err != nil {
			return err
		}
		promptText := extractPromptText(data, d.ch.SearchDepth(), d.combined)
		m, merr := d.graph.DetermineFromPrompt(promptText)
		if merr != nil || m.Name != to {
			return clierrors.PrivilegeAcquisitionFailed(to)
		}
		_ = d.graph.SetCurrent(to)
	}

	return nil
}

// SendConfig finds the first mode whose name case-insensitively contains
// "config" that is reachable from the current mode (preferring the
// shortest-path reachable one when more than one exists, per the resolved
// open question), escalates to it, sends each command, then escalates back.
// If no reachable config-like mode exists, the commands run in the current
// mode.
func (d *Driver) SendConfig(commands []string) ([]Response, error) {
	if !d.IsOpen() {
		return nil, clierrors.NotConnected()
	}

	original := d.graph.Current()
	target := d.nearestConfigMode()

	if target == "" {
		return d.SendCommands(commands)
	}

	if err := d.AcquirePrivilege(target); err != nil {
		return nil, err
	}
	resps, err := d.SendCommands(commands)
	if rerr := d.AcquirePrivilege(original); rerr != nil && err == nil {
		err = rerr
	}
	return resps, err
}

// NearestConfigMode returns the name-contains-"config" mode with the
// shortest path from the current mode, or "" if none is reachable. Used by
// pkg/configsession's generic guard to find a configuration mode without
// hard-coding a vendor's mode name.
func (d *Driver) NearestConfigMode() string { return d.nearestConfigMode() }

// nearestConfigMode returns the name-contains-"config" mode with the
// shortest path from the current mode, or "" if none is reachable.
func (d *Driver) nearestConfigMode() string {
	current := d.graph.Current()
	best := ""
	bestLen := -1
	for _, m := range d.graph.Modes() {
		if !strings.Contains(strings.ToLower(m.Name), "config") {
			continue
		}
		path, err := d.graph.FindPath(current, m.Name)
		if err != nil {
			continue
		}
		if bestLen == -1 || len(path) < bestLen {
			best = m.Name
			bestLen = len(path)
		}
	}
	return best
}

// RegisterDynamicMode registers a runtime mode (e.g. a named configuration
// session's prompt) and rebuilds the combined prompt regex. Mutations
// always happen before the rebuild, so prompt detection never observes a
// half-updated graph.
func (d *Driver) RegisterDynamicMode(m privilege.Mode) error {
	if err := d.graph.RegisterDynamic(m); err != nil {
		return err
	}
	return d.rebuildCombinedPrompt()
}

// RemoveDynamicMode removes a runtime-registered mode and rebuilds the
// combined prompt regex.
func (d *Driver) RemoveDynamicMode(name string) error {
	d.graph.RemoveDynamic(name)
	return d.rebuildCombinedPrompt()
}

// Channel exposes the underlying channel for configuration-session guards
// that need raw Send/ReadUntil access (diff/validate are just commands, but
// commit/abort sequences sometimes need the combined-prompt regex itself).
func (d *Driver) Channel() *channel.Channel { return d.ch }

// CombinedPrompt returns the current combined prompt regex.
func (d *Driver) CombinedPrompt() *regexp.Regexp { return d.combined }

// Graph exposes the privilege graph for configuration-session guards.
func (d *Driver) Graph() *privilege.Graph { return d.graph }

// Timeout returns the driver's default operation timeout.
func (d *Driver) Timeout() time.Duration { return d.timeout }

// Logger returns the driver's logger, for collaborators (e.g.
// pkg/configsession's leak-detection finalizer) that need to log against
// the same sink.
func (d *Driver) Logger() *zap.Logger { return d.logger }

// Normalize reports whether output normalization is enabled.
func (d *Driver) Normalize() bool { return d.normalize }

// BeginStream marks the driver as having an in-flight command stream,
// enforcing the borrow-exclusivity rule of spec §4.5.5.
func (d *Driver) BeginStream() error {
	if d.streaming {
		return clierrors.InvalidConfig("a command stream is already in flight")
	}
	d.streaming = true
	return nil
}

// EndStream clears the in-flight stream flag.
func (d *Driver) EndStream() { d.streaming = false }

// SupervisedBackground runs fn through pkg/safego, the same panic-recovering
// launcher the transport's own keepalive loop uses, for a caller that wants a supervised
// background task tied to a driver's lifetime (e.g. a periodic IsAlive
// poll in a long-lived fan-out worker).
func (d *Driver) SupervisedBackground(name string, fn func()) {
	safego.Go(d.logger, name, fn)
}
