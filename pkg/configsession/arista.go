package configsession

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ngoclaw/clidriver/pkg/clierrors"
	"github.com/ngoclaw/clidriver/pkg/driver"
	"github.com/ngoclaw/clidriver/pkg/platform/vendors/arista"
	"github.com/ngoclaw/clidriver/pkg/privilege"
)

// AristaSession guards an EOS named configuration session. Unlike
// Juniper's single shared candidate, EOS sessions are independently named
// and can be detached and re-attached later.
type AristaSession struct {
	*base
	name      string
	modeName  string
	tornDown bool
}

// NewAristaSession registers (or, if already registered by a prior
// detached session, re-attaches to) the dynamic mode for sessionName and
// escalates into it. An empty sessionName is replaced by a random UUID.
func NewAristaSession(d *driver.Driver, sessionName string) (*AristaSession, error) {
	if d.Platform().Name != arista.Name {
		return nil, clierrors.InvalidConfig("AristaSession requires platform " + arista.Name + ", got " + d.Platform().Name)
	}
	if sessionName == "" {
		sessionName = uuid.NewString()
	}
	modeName := arista.NamedSessionModeName(sessionName)

	if _, ok := d.Graph().Mode(modeName); !ok {
		mode := privilege.Mode{
			Name:       modeName,
			Prompt:     arista.NamedSessionPrompt(sessionName),
			Parent:     "privileged_exec",
			Escalate:   fmt.Sprintf("configure session %s", sessionName),
			Deescalate: "end",
		}
		if err := d.RegisterDynamicMode(mode); err != nil {
			return nil, err
		}
	}

	original := d.CurrentPrivilege()
	if err := d.AcquirePrivilege(modeName); err != nil {
		return nil, err
	}

	return &AristaSession{base: newBase(d, original), name: sessionName, modeName: modeName}, nil
}

// Name returns the EOS session name.
func (s *AristaSession) Name() string { return s.name }

// Diff shows the session's pending changes against the running config.
func (s *AristaSession) Diff() (string, error) {
	resp, err := s.d.SendCommand("show session-config diffs")
	if err != nil {
		return "", err
	}
	return resp.Result, nil
}

// Commit runs "commit" then "end", then tears down the dynamic mode.
func (s *AristaSession) Commit() error {
	defer s.finish()
	return s.runSteps(
		func() error { _, err := s.d.SendCommand("commit"); return err },
		func() error { _, err := s.d.SendCommand("end"); return err },
		s.teardown,
	)
}

// Abort runs "abort", then tears down the dynamic mode.
func (s *AristaSession) Abort() error {
	defer s.finish()
	return s.runSteps(
		func() error { _, err := s.d.SendCommand("abort"); return err },
		s.teardown,
	)
}

// Detach resolves the guard but leaves both the dynamic mode and the
// remote named session intact, so a later NewAristaSession with the same
// name re-attaches instead of re-registering.
func (s *AristaSession) Detach() error {
	s.finish()
	return nil
}

func (s *AristaSession) teardown() error {
	if s.tornDown {
		return nil
	}
	s.tornDown = true
	return s.d.RemoveDynamicMode(s.modeName)
}

// CommitConfirmed starts a timed automatic rollback unless a subsequent
// Commit confirms it. EOS takes an HH:MM:SS timer rather than minutes.
func (s *AristaSession) CommitConfirmed(d time.Duration) error {
	timer, err := hhmmss(d)
	if err != nil {
		return err
	}
	_, err = s.d.SendCommand(fmt.Sprintf("commit timer %s", timer))
	return err
}
