package configsession

import (
	"fmt"
	"time"

	"github.com/ngoclaw/clidriver/pkg/clierrors"
	"github.com/ngoclaw/clidriver/pkg/driver"
	"github.com/ngoclaw/clidriver/pkg/platform/vendors/arrcus"
)

// ConfDSession guards a ConfD-style configuration transaction (Arrcus
// ArcOS and similar management-plane stacks built on ConfD).
type ConfDSession struct {
	*base
}

// NewConfDSession validates the platform and escalates into configuration
// mode.
func NewConfDSession(d *driver.Driver) (*ConfDSession, error) {
	if d.Platform().Name != arrcus.Name {
		return nil, clierrors.InvalidConfig("ConfDSession requires platform " + arrcus.Name + ", got " + d.Platform().Name)
	}
	original := d.CurrentPrivilege()
	if err := d.AcquirePrivilege("configuration"); err != nil {
		return nil, err
	}
	return &ConfDSession{base: newBase(d, original)}, nil
}

// Diff shows candidate-vs-running differences.
func (s *ConfDSession) Diff() (string, error) {
	resp, err := s.d.SendCommand("compare running-config")
	if err != nil {
		return "", err
	}
	return resp.Result, nil
}

// Validate runs "validate": non-empty lines in the response are errors.
func (s *ConfDSession) Validate() (ValidationResult, error) {
	resp, err := s.d.SendCommand("validate")
	if err != nil {
		return ValidationResult{}, err
	}
	lines := splitNonEmptyLines(resp.Result)
	if len(lines) == 0 {
		return ValidationResult{Valid: true}, nil
	}
	return ValidationResult{Valid: false, Errors: lines}, nil
}

// Commit runs "commit", then restores the original mode.
func (s *ConfDSession) Commit() error {
	defer s.finish()
	return s.runSteps(
		func() error { _, err := s.d.SendCommand("commit"); return err },
		func() error { return s.d.AcquirePrivilege(s.originalMode) },
	)
}

// Abort runs "revert", then restores the original mode.
func (s *ConfDSession) Abort() error {
	defer s.finish()
	return s.runSteps(
		func() error { _, err := s.d.SendCommand("revert"); return err },
		func() error { return s.d.AcquirePrivilege(s.originalMode) },
	)
}

// Detach resolves the guard but leaves the driver in configuration mode.
func (s *ConfDSession) Detach() error {
	s.finish()
	return nil
}

// CommitConfirmed starts a timed automatic rollback unless a subsequent
// Commit confirms it. Same duration rules as Juniper and Nokia.
func (s *ConfDSession) CommitConfirmed(d time.Duration) error {
	minutes, err := ceilMinutes(d)
	if err != nil {
		return err
	}
	_, err = s.d.SendCommand(fmt.Sprintf("commit confirmed %d", minutes))
	return err
}
