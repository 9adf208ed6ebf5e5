// Package configsession implements vendor-specific configuration-session
// transaction guards built on top of pkg/driver: each guard borrows a
// Driver exclusively for its lifetime and must be resolved exactly once
// via Commit, Abort, or Detach.
package configsession

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ngoclaw/clidriver/pkg/clierrors"
	"github.com/ngoclaw/clidriver/pkg/driver"
)

// Session is the core capability every guard implements: run a command
// inside the session, and one of the three single-use finishers.
type Session interface {
	Send(cmd string) (driver.Response, error)
	Commit() error
	Abort() error
	Detach() error
}

// Diffable is implemented by guards that can show candidate-vs-running
// differences.
type Diffable interface {
	Diff() (string, error)
}

// ValidationResult is the outcome of a Validatable.Validate call.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Validatable is implemented by guards that can check the candidate
// configuration without committing it.
type Validatable interface {
	Validate() (ValidationResult, error)
}

// ConfirmableCommit is implemented by guards whose vendor supports a timed
// automatic rollback unless a subsequent Commit confirms it.
type ConfirmableCommit interface {
	CommitConfirmed(d time.Duration) error
}

// NamedSession is implemented by guards backed by a vendor-side named
// session (currently only Arista).
type NamedSession interface {
	Name() string
}

// base is embedded by every concrete guard. It tracks the driver
// borrowed, the mode to restore on commit/abort, and whether the guard has
// been resolved — dropping an unresolved guard logs a warning via a
// finalizer, mirroring the "single-use, detectable leak" requirement.
type base struct {
	d            *driver.Driver
	originalMode string
	finished     bool
	logger       *zap.Logger
}

func newBase(d *driver.Driver, originalMode string) *base {
	b := &base{d: d, originalMode: originalMode, logger: d.Logger()}
	runtime.SetFinalizer(b, func(bb *base) {
		if !bb.finished {
			bb.logger.Warn("configuration session dropped without commit/abort/detach")
		}
	})
	return b
}

func (b *base) finish() {
	b.finished = true
	runtime.SetFinalizer(b, nil)
}

// runSteps runs every step in sequence regardless of an earlier step's
// failure, returning the first error encountered and logging the rest.
// Commit and abort sequences use this so a transactional command's failure
// never skips the mode-restoration step that follows it (spec: commit/abort
// always attempt to restore the original mode even if their body failed
// partway; the first error wins and later cleanup errors are logged).
func (b *base) runSteps(steps ...func() error) error {
	var first error
	for _, step := range steps {
		if err := step(); err != nil {
			if first == nil {
				first = err
			} else {
				b.logger.Warn("configuration session cleanup step failed after a prior error", zap.Error(err))
			}
		}
	}
	return first
}

// Send runs cmd inside the session.
func (b *base) Send(cmd string) (driver.Response, error) {
	return b.d.SendCommand(cmd)
}

func ceilMinutes(d time.Duration) (int, error) {
	if d < time.Minute {
		return 0, clierrors.InvalidConfig("commit-confirmed duration must be at least 60 seconds")
	}
	minutes := int(d / time.Minute)
	if d%time.Minute != 0 {
		minutes++
	}
	if minutes > 65535 {
		return 0, clierrors.InvalidConfig("commit-confirmed duration exceeds the maximum of 65535 minutes")
	}
	return minutes, nil
}

func hhmmss(d time.Duration) (string, error) {
	if d < time.Minute {
		return "", clierrors.InvalidConfig("commit-confirmed duration must be at least 60 seconds")
	}
	total := int(d.Seconds())
	hh := total / 3600
	mm := (total % 3600) / 60
	ss := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hh, mm, ss), nil
}

// GenericSession works for any platform whose graph has a mode whose name
// case-insensitively contains "config" and is reachable from the current
// mode. It offers no diff or validate.
type GenericSession struct {
	*base
	configMode string
}

// NewGenericSession saves the current mode and escalates into the nearest
// reachable configuration-like mode.
func NewGenericSession(d *driver.Driver) (*GenericSession, error) {
	target := d.NearestConfigMode()
	if target == "" {
		return nil, clierrors.InvalidConfig("no configuration-like mode is reachable from the current mode")
	}
	original := d.CurrentPrivilege()
	if err := d.AcquirePrivilege(target); err != nil {
		return nil, err
	}
	return &GenericSession{base: newBase(d, original), configMode: target}, nil
}

// Commit restores the original mode. Generic sessions have no commit
// command of their own: the caller is responsible for issuing whatever
// commands persist changes on this platform before calling Commit.
func (s *GenericSession) Commit() error {
	defer s.finish()
	return s.d.AcquirePrivilege(s.originalMode)
}

// Abort restores the original mode without attempting to undo anything.
func (s *GenericSession) Abort() error {
	defer s.finish()
	return s.d.AcquirePrivilege(s.originalMode)
}

// Detach resolves the guard but leaves the driver in configuration mode.
func (s *GenericSession) Detach() error {
	s.finish()
	return nil
}

// splitNonEmptyLines trims and drops blank lines, used by every
// Validate implementation below.
func splitNonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
