// Package clierrors defines the error taxonomy used across the transport,
// channel, driver, and platform layers.
package clierrors

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies which domain-level failure occurred. Kinds are grouped by
// the layer that raises them: Transport, Channel, Driver, Platform.
type Kind string

const (
	// Transport
	KindConnectionFailed Kind = "CONNECTION_FAILED"
	KindProtocol         Kind = "SSH_PROTOCOL_ERROR"
	KindAuthFailed       Kind = "AUTH_FAILED"
	KindKeyLoad          Kind = "KEY_LOAD_ERROR"
	KindDisconnected     Kind = "DISCONNECTED"
	KindOperationTimeout Kind = "OPERATION_TIMEOUT"
	KindHostKeyUnknown   Kind = "HOST_KEY_UNKNOWN"
	KindHostKeyChanged   Kind = "HOST_KEY_CHANGED"
	KindKnownHostsIO     Kind = "KNOWN_HOSTS_IO"

	// Channel
	KindPTYFailed      Kind = "PTY_OPEN_FAILED"
	KindShellFailed    Kind = "SHELL_REQUEST_FAILED"
	KindPatternTimeout Kind = "PATTERN_TIMEOUT"
	KindChannelClosed  Kind = "CHANNEL_CLOSED"
	KindInvalidRegex   Kind = "INVALID_REGEX"

	// Driver
	KindNotConnected               Kind = "NOT_CONNECTED"
	KindAlreadyConnected           Kind = "ALREADY_CONNECTED"
	KindCommandFailed              Kind = "COMMAND_FAILED"
	KindPrivilegeAcquisitionFailed Kind = "PRIVILEGE_ACQUISITION_FAILED"
	KindInvalidConfig              Kind = "INVALID_CONFIG"
	KindUnknownPrivilege           Kind = "UNKNOWN_PRIVILEGE"
	KindNoPath                     Kind = "NO_PATH"

	// Platform
	KindInvalidDefinition Kind = "INVALID_DEFINITION"
)

// Error is the concrete error type returned by every package in this module.
// Callers distinguish failures with errors.As and inspecting Kind, not by
// string-matching Error().
type Error struct {
	Kind    Kind
	Message string
	Err     error

	// Optional structured context, populated depending on Kind.
	Host           string
	Port           int
	Duration       time.Duration
	Target         string
	From, To       string
	Line           int
	Prompt         string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, &Error{Kind: KindX}) to match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the Kind of err if it (or something it wraps) is an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// HasKind reports whether err wraps an *Error with the given Kind.
func HasKind(err error, k Kind) bool {
	kind, ok := KindOf(err)
	return ok && kind == k
}

// --- Transport constructors ---

func ConnectionFailed(host string, port int, cause error) *Error {
	return &Error{Kind: KindConnectionFailed, Message: fmt.Sprintf("failed to connect to %s:%d", host, port), Err: cause, Host: host, Port: port}
}

func Protocol(cause error) *Error {
	return &Error{Kind: KindProtocol, Message: "SSH protocol error", Err: cause}
}

func AuthFailed(user string, cause error) *Error {
	return &Error{Kind: KindAuthFailed, Message: fmt.Sprintf("authentication failed for user %q", user), Err: cause}
}

func KeyLoad(cause error) *Error {
	return &Error{Kind: KindKeyLoad, Message: "failed to load private key", Err: cause}
}

func Disconnected(cause error) *Error {
	return &Error{Kind: KindDisconnected, Message: "session disconnected", Err: cause}
}

func OperationTimeout(d time.Duration) *Error {
	return &Error{Kind: KindOperationTimeout, Message: fmt.Sprintf("operation timed out after %s", d), Duration: d}
}

func HostKeyUnknown(host string) *Error {
	return &Error{Kind: KindHostKeyUnknown, Message: fmt.Sprintf("unknown host key for %s", host), Host: host}
}

func HostKeyChanged(host string, line int) *Error {
	return &Error{Kind: KindHostKeyChanged, Message: fmt.Sprintf("host key for %s changed (known_hosts line %d)", host, line), Host: host, Line: line}
}

func KnownHostsIO(cause error) *Error {
	return &Error{Kind: KindKnownHostsIO, Message: "known_hosts I/O error", Err: cause}
}

// --- Channel constructors ---

func PTYFailed(cause error) *Error {
	return &Error{Kind: KindPTYFailed, Message: "PTY request failed", Err: cause}
}

func ShellFailed(cause error) *Error {
	return &Error{Kind: KindShellFailed, Message: "shell request failed", Err: cause}
}

func PatternTimeout(d time.Duration) *Error {
	return &Error{Kind: KindPatternTimeout, Message: fmt.Sprintf("no prompt match within %s", d), Duration: d}
}

func ChannelClosed(cause error) *Error {
	return &Error{Kind: KindChannelClosed, Message: "channel closed by peer", Err: cause}
}

func InvalidRegex(pattern string, cause error) *Error {
	return &Error{Kind: KindInvalidRegex, Message: fmt.Sprintf("invalid regex %q", pattern), Err: cause}
}

// --- Driver constructors ---

func NotConnected() *Error {
	return &Error{Kind: KindNotConnected, Message: "driver is not connected"}
}

func AlreadyConnected() *Error {
	return &Error{Kind: KindAlreadyConnected, Message: "driver is already connected"}
}

func CommandFailed(message string) *Error {
	return &Error{Kind: KindCommandFailed, Message: message}
}

func PrivilegeAcquisitionFailed(target string) *Error {
	return &Error{Kind: KindPrivilegeAcquisitionFailed, Message: fmt.Sprintf("failed to acquire privilege %q", target), Target: target}
}

func InvalidConfig(message string) *Error {
	return &Error{Kind: KindInvalidConfig, Message: message}
}

func UnknownPrivilege(prompt string) *Error {
	return &Error{Kind: KindUnknownPrivilege, Message: fmt.Sprintf("no mode matches prompt %q", prompt), Prompt: prompt}
}

func NoPath(from, to string) *Error {
	return &Error{Kind: KindNoPath, Message: fmt.Sprintf("no path from %q to %q", from, to), From: from, To: to}
}

// --- Platform constructors ---

func InvalidDefinition(message string) *Error {
	return &Error{Kind: KindInvalidDefinition, Message: message}
}
