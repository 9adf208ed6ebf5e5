package configsession

import (
	"fmt"
	"strings"
	"time"

	"github.com/ngoclaw/clidriver/pkg/clierrors"
	"github.com/ngoclaw/clidriver/pkg/driver"
	"github.com/ngoclaw/clidriver/pkg/platform/vendors/nokia"
)

// NokiaSession guards an SR OS MD-CLI exclusive configuration transaction.
// It refuses to attach while the driver is in a Classic CLI mode, since
// Classic and MD-CLI are disconnected privilege sub-graphs.
type NokiaSession struct {
	*base
}

// NewNokiaSession validates the platform and current mode, then escalates
// into configuration via the mode's own escalate command
// ("edit-config exclusive").
func NewNokiaSession(d *driver.Driver) (*NokiaSession, error) {
	if d.Platform().Name != nokia.Name {
		return nil, clierrors.InvalidConfig("NokiaSession requires platform " + nokia.Name + ", got " + d.Platform().Name)
	}
	if strings.HasPrefix(d.CurrentPrivilege(), "classic_") {
		return nil, clierrors.InvalidConfig("cannot open an MD-CLI configuration session while in Classic CLI")
	}
	original := d.CurrentPrivilege()
	if err := d.AcquirePrivilege("configuration"); err != nil {
		return nil, err
	}
	return &NokiaSession{base: newBase(d, original)}, nil
}

// Diff shows candidate-vs-running differences.
func (s *NokiaSession) Diff() (string, error) {
	resp, err := s.d.SendCommand("compare")
	if err != nil {
		return "", err
	}
	return resp.Result, nil
}

// Validate runs "validate": no output means success, any output is a list
// of errors.
func (s *NokiaSession) Validate() (ValidationResult, error) {
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

// Commit runs "commit" then "quit-config", then restores the original mode.
func (s *NokiaSession) Commit() error {
	defer s.finish()
	return s.runSteps(
		func() error { _, err := s.d.SendCommand("commit"); return err },
		func() error { _, err := s.d.SendCommand("quit-config"); return err },
		func() error { return s.d.AcquirePrivilege(s.originalMode) },
	)
}

// Abort runs "discard" (not "quit-config") to discard candidate changes
// without raising quit-config's interactive confirmation prompt, then
// "quit-config", then restores the original mode.
func (s *NokiaSession) Abort() error {
	defer s.finish()
	return s.runSteps(
		func() error { _, err := s.d.SendCommand("discard"); return err },
		func() error { _, err := s.d.SendCommand("quit-config"); return err },
		func() error { return s.d.AcquirePrivilege(s.originalMode) },
	)
}

// Detach resolves the guard but leaves the driver in configuration mode.
func (s *NokiaSession) Detach() error {
	s.finish()
	return nil
}

// CommitConfirmed starts a timed automatic rollback unless a subsequent
// Commit confirms it. Same duration rules as Juniper: rounded up to whole
// minutes, 1-65535.
func (s *NokiaSession) CommitConfirmed(d time.Duration) error {
	minutes, err := ceilMinutes(d)
	if err != nil {
		return err
	}
	_, err = s.d.SendCommand(fmt.Sprintf("commit confirmed %d", minutes))
	return err
}
