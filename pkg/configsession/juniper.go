package configsession

import (
	"fmt"
	"strings"
	"time"

	"github.com/ngoclaw/clidriver/pkg/clierrors"
	"github.com/ngoclaw/clidriver/pkg/driver"
	"github.com/ngoclaw/clidriver/pkg/platform/vendors/juniper"
)

// JuniperSession guards a JUNOS candidate-configuration transaction. JUNOS
// shares one candidate configuration across sessions, so there is no named
// handle to track.
type JuniperSession struct {
	*base
}

// NewJuniperSession validates the driver's platform is juniper_junos, saves
// the current mode, and escalates into configuration mode.
func NewJuniperSession(d *driver.Driver) (*JuniperSession, error) {
	if d.Platform().Name != juniper.Name {
		return nil, clierrors.InvalidConfig("JuniperSession requires platform " + juniper.Name + ", got " + d.Platform().Name)
	}
	original := d.CurrentPrivilege()
	if err := d.AcquirePrivilege("configuration"); err != nil {
		return nil, err
	}
	return &JuniperSession{base: newBase(d, original)}, nil
}

// Diff shows candidate-vs-running differences.
func (s *JuniperSession) Diff() (string, error) {
	resp, err := s.d.SendCommand("show | compare")
	if err != nil {
		return "", err
	}
	return resp.Result, nil
}

// Validate runs "commit check" without committing.
func (s *JuniperSession) Validate() (ValidationResult, error) {
	resp, err := s.d.SendCommand("commit check")
	if err != nil {
		return ValidationResult{}, err
	}
	if strings.Contains(resp.Result, "configuration check succeeds") {
		return ValidationResult{Valid: true}, nil
	}
	var errs []string
	for _, line := range splitNonEmptyLines(resp.Result) {
		if strings.Contains(line, "configuration check succeeds") {
			continue
		}
		errs = append(errs, line)
	}
	return ValidationResult{Valid: false, Errors: errs}, nil
}

// Commit runs "commit and-quit", which both commits and exits configuration
// mode in one step, then restores the original mode (a no-op if the device
// already returned there).
func (s *JuniperSession) Commit() error {
	defer s.finish()
	return s.runSteps(
		func() error { _, err := s.d.SendCommand("commit and-quit"); return err },
		func() error { return s.d.AcquirePrivilege(s.originalMode) },
	)
}

// Abort discards candidate changes with "rollback 0", then restores the
// original mode.
func (s *JuniperSession) Abort() error {
	defer s.finish()
	return s.runSteps(
		func() error { _, err := s.d.SendCommand("rollback 0"); return err },
		func() error { return s.d.AcquirePrivilege(s.originalMode) },
	)
}

// Detach resolves the guard but leaves the driver in configuration mode.
func (s *JuniperSession) Detach() error {
	s.finish()
	return nil
}

// CommitConfirmed starts a timed automatic rollback unless a subsequent
// Commit confirms it. Duration is rounded up to whole minutes; JUNOS's
// range is 1-65535 minutes.
func (s *JuniperSession) CommitConfirmed(d time.Duration) error {
	minutes, err := ceilMinutes(d)
	if err != nil {
		return err
	}
	_, err = s.d.SendCommand(fmt.Sprintf("commit confirmed %d", minutes))
	return err
}
