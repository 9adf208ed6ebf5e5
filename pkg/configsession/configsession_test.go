package configsession_test

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/ngoclaw/clidriver/pkg/configsession"
	"github.com/ngoclaw/clidriver/pkg/driver"
	"github.com/ngoclaw/clidriver/pkg/platform"
	"github.com/ngoclaw/clidriver/pkg/privilege"
	"github.com/ngoclaw/clidriver/pkg/transport"

	_ "github.com/ngoclaw/clidriver/pkg/platform/vendors/arista"
	_ "github.com/ngoclaw/clidriver/pkg/platform/vendors/arrcus"
	_ "github.com/ngoclaw/clidriver/pkg/platform/vendors/juniper"
	_ "github.com/ngoclaw/clidriver/pkg/platform/vendors/nokia"
)

const testPlatformName = "configsession_test_platform"

func init() {
	platform.Register(testPlatformName, func() (*platform.Platform, error) {
		return platform.NewBuilder(testPlatformName).
			Mode(privilege.Mode{Name: "exec", Prompt: regexp.MustCompile(`>\s*$`)}).
			Mode(privilege.Mode{
				Name:       "config_mode",
				Prompt:     regexp.MustCompile(`\(config\)#\s*$`),
				Parent:     "exec",
				Escalate:   "configure",
				Deescalate: "end",
			}).
			DefaultMode("exec").
			Build()
	})
}

func openFakeDriver(t *testing.T, platformName string, onWrite func(fake *transport.FakeSession, written []byte)) *driver.Driver {
	t.Helper()
	d, err := driver.NewBuilder("dut.example.net").
		Username("netops").
		Password("s3cret").
		Platform(platformName).
		Timeout(time.Second).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	var fake *transport.FakeSession
	d.SetDialer(func(cfg transport.Config) (transport.Session, error) {
		fake = transport.NewFakeSession(func(written []byte) {
			if onWrite != nil {
				onWrite(fake, written)
			}
		})
		fake.Feed([]byte(initialPromptFor(platformName)))
		return fake, nil
	})
	if err := d.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return d
}

// openFakeDriverShort is openFakeDriver with a short timeout, for tests that
// deliberately let a command go unanswered to provoke a pattern timeout
// without slowing the suite down.
func openFakeDriverShort(t *testing.T, platformName string, onWrite func(fake *transport.FakeSession, written []byte)) *driver.Driver {
	t.Helper()
	d, err := driver.NewBuilder("dut.example.net").
		Username("netops").
		Password("s3cret").
		Platform(platformName).
		Timeout(20 * time.Millisecond).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	var fake *transport.FakeSession
	d.SetDialer(func(cfg transport.Config) (transport.Session, error) {
		fake = transport.NewFakeSession(func(written []byte) {
			if onWrite != nil {
				onWrite(fake, written)
			}
		})
		fake.Feed([]byte(initialPromptFor(platformName)))
		return fake, nil
	})
	if err := d.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return d
}

func initialPromptFor(platformName string) string {
	switch platformName {
	case "juniper_junos":
		return "netops@router> "
	case "arista_eos":
		return "switch> "
	case "nokia_sros":
		return "(ex)[/]\r\nnetops@router# "
	case "arrcus_arcos":
		return "netops@router# "
	default:
		return "exec> "
	}
}

func TestGenericSessionCommitRestoresMode(t *testing.T) {
	d := openFakeDriver(t, testPlatformName, func(fake *transport.FakeSession, written []byte) {
		s := string(written)
		switch {
		case strings.Contains(s, "configure"):
			fake.Feed([]byte("exec(config)# "))
		case strings.Contains(s, "end"):
			fake.Feed([]byte("exec> "))
		}
	})

	sess, err := configsession.NewGenericSession(d)
	if err != nil {
		t.Fatalf("NewGenericSession() error: %v", err)
	}
	if d.CurrentPrivilege() != "config_mode" {
		t.Fatalf("CurrentPrivilege() = %q, want config_mode", d.CurrentPrivilege())
	}
	if err := sess.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if d.CurrentPrivilege() != "exec" {
		t.Fatalf("CurrentPrivilege() after commit = %q, want exec", d.CurrentPrivilege())
	}
}

func TestJuniperSessionValidateAndCommit(t *testing.T) {
	d := openFakeDriver(t, "juniper_junos", func(fake *transport.FakeSession, written []byte) {
		s := string(written)
		switch {
		case strings.Contains(s, "configure"):
			fake.Feed([]byte("\r\n[edit]\r\nnetops@router# "))
		case strings.Contains(s, "commit check"):
			fake.Feed([]byte("commit check\r\nconfiguration check succeeds\r\n\r\n[edit]\r\nnetops@router# "))
		case strings.Contains(s, "commit and-quit"):
			fake.Feed([]byte("commit and-quit\r\ncommit complete\r\nnetops@router> "))
		}
	})

	sess, err := configsession.NewJuniperSession(d)
	if err != nil {
		t.Fatalf("NewJuniperSession() error: %v", err)
	}

	result, err := sess.Validate()
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected Validate() to report valid, got errors: %v", result.Errors)
	}

	if err := sess.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if d.CurrentPrivilege() != "exec" {
		t.Fatalf("CurrentPrivilege() after commit = %q, want exec", d.CurrentPrivilege())
	}
}

func TestAristaSessionCommitTearsDownDynamicMode(t *testing.T) {
	d := openFakeDriver(t, "arista_eos", func(fake *transport.FakeSession, written []byte) {
		s := string(written)
		switch {
		case strings.Contains(s, "configure session"):
			fake.Feed([]byte("switch(config-s-netops)# "))
		case strings.Contains(s, "enable"):
			fake.Feed([]byte("Password: "))
		case strings.Contains(s, "s3cret"):
			fake.Feed([]byte("switch# "))
		case strings.Contains(s, "commit"):
			fake.Feed([]byte("switch(config-s-netops)# "))
		case strings.Contains(s, "end"):
			fake.Feed([]byte("switch# "))
		}
	})

	sess, err := configsession.NewAristaSession(d, "netops-session")
	if err != nil {
		t.Fatalf("NewAristaSession() error: %v", err)
	}
	if sess.Name() != "netops-session" {
		t.Fatalf("Name() = %q", sess.Name())
	}
	if err := sess.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if d.CurrentPrivilege() != "privileged_exec" {
		t.Fatalf("CurrentPrivilege() after commit = %q, want privileged_exec", d.CurrentPrivilege())
	}
	if _, ok := d.Graph().Mode("config_session_netops"); ok {
		t.Fatal("expected dynamic mode to be torn down after commit")
	}
}

func TestCommitConfirmedRejectsShortDuration(t *testing.T) {
	d := openFakeDriver(t, "juniper_junos", func(fake *transport.FakeSession, written []byte) {
		if strings.Contains(string(written), "configure") {
			fake.Feed([]byte("\r\n[edit]\r\nnetops@router# "))
		}
	})
	sess, err := configsession.NewJuniperSession(d)
	if err != nil {
		t.Fatalf("NewJuniperSession() error: %v", err)
	}
	if err := sess.CommitConfirmed(30 * time.Second); err == nil {
		t.Fatal("expected error for a commit-confirmed duration under 60s")
	}
	_ = sess.Detach()
}

func TestJuniperSessionCommitStillRestoresModeAfterCommandFailure(t *testing.T) {
	d := openFakeDriverShort(t, "juniper_junos", func(fake *transport.FakeSession, written []byte) {
		s := string(written)
		switch {
		case strings.Contains(s, "configure"):
			fake.Feed([]byte("\r\n[edit]\r\nnetops@router# "))
		case strings.Contains(s, "commit and-quit"):
			// deliberately unanswered: commit times out.
		case strings.Contains(s, "exit configuration-mode"):
			fake.Feed([]byte("netops@router> "))
		}
	})

	sess, err := configsession.NewJuniperSession(d)
	if err != nil {
		t.Fatalf("NewJuniperSession() error: %v", err)
	}
	if err := sess.Commit(); err == nil {
		t.Fatal("expected Commit() to report the commit command's failure")
	}
	if d.CurrentPrivilege() != "exec" {
		t.Fatalf("CurrentPrivilege() after a failed commit = %q, want exec (restore must still be attempted)", d.CurrentPrivilege())
	}
}

func TestNokiaSessionCommitStillRestoresModeAfterCommandFailure(t *testing.T) {
	d := openFakeDriverShort(t, "nokia_sros", func(fake *transport.FakeSession, written []byte) {
		s := string(written)
		switch {
		case strings.Contains(s, "edit-config exclusive"):
			fake.Feed([]byte("(pr)[/]\r\nnetops@router# "))
		case strings.Contains(s, "commit"):
			// deliberately unanswered: commit times out.
		case strings.Contains(s, "quit-config"):
			fake.Feed([]byte("(ex)[/]\r\nnetops@router# "))
		}
	})

	sess, err := configsession.NewNokiaSession(d)
	if err != nil {
		t.Fatalf("NewNokiaSession() error: %v", err)
	}
	if err := sess.Commit(); err == nil {
		t.Fatal("expected Commit() to report the commit command's failure")
	}
	if d.CurrentPrivilege() != "exec" {
		t.Fatalf("CurrentPrivilege() after a failed commit = %q, want exec (quit-config and restore must still be attempted)", d.CurrentPrivilege())
	}
}

func TestConfDSessionCommitStillRestoresModeAfterCommandFailure(t *testing.T) {
	d := openFakeDriverShort(t, "arrcus_arcos", func(fake *transport.FakeSession, written []byte) {
		s := string(written)
		switch {
		case strings.Contains(s, "configure"):
			fake.Feed([]byte("netops@router(config)# "))
		case strings.Contains(s, "commit"):
			// deliberately unanswered: commit times out.
		case strings.Contains(s, "exit"):
			fake.Feed([]byte("netops@router# "))
		}
	})

	sess, err := configsession.NewConfDSession(d)
	if err != nil {
		t.Fatalf("NewConfDSession() error: %v", err)
	}
	if err := sess.Commit(); err == nil {
		t.Fatal("expected Commit() to report the commit command's failure")
	}
	if d.CurrentPrivilege() != "exec" {
		t.Fatalf("CurrentPrivilege() after a failed commit = %q, want exec (restore must still be attempted)", d.CurrentPrivilege())
	}
}

func TestAristaSessionCommitStillTearsDownAfterCommandFailure(t *testing.T) {
	d := openFakeDriverShort(t, "arista_eos", func(fake *transport.FakeSession, written []byte) {
		s := string(written)
		switch {
		case strings.Contains(s, "configure session"):
			fake.Feed([]byte("switch(config-s-netops)# "))
		case strings.Contains(s, "enable"):
			fake.Feed([]byte("Password: "))
		case strings.Contains(s, "s3cret"):
			fake.Feed([]byte("switch# "))
		case strings.Contains(s, "commit"):
			// deliberately unanswered: commit times out.
		case strings.Contains(s, "end"):
			fake.Feed([]byte("switch# "))
		}
	})

	sess, err := configsession.NewAristaSession(d, "netops-session")
	if err != nil {
		t.Fatalf("NewAristaSession() error: %v", err)
	}
	if err := sess.Commit(); err == nil {
		t.Fatal("expected Commit() to report the commit command's failure")
	}
	if d.CurrentPrivilege() != "privileged_exec" {
		t.Fatalf("CurrentPrivilege() after a failed commit = %q, want privileged_exec (end and teardown must still be attempted)", d.CurrentPrivilege())
	}
	if _, ok := d.Graph().Mode("config_session_netops"); ok {
		t.Fatal("expected dynamic mode to be torn down even after the commit command failed")
	}
}
