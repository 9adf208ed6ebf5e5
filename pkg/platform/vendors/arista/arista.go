// Package arista registers the "arista_eos" platform, including the named
// configuration-session prompt convention consumed by pkg/configsession.
package arista

import (
	"fmt"
	"regexp"

	"github.com/ngoclaw/clidriver/pkg/platform"
	"github.com/ngoclaw/clidriver/pkg/privilege"
)

// Name is the stable platform identifier.
const Name = "arista_eos"

func init() {
	platform.Register(Name, build)
}

func build() (*platform.Platform, error) {
	return platform.NewBuilder(Name).
		Mode(privilege.Mode{
			Name:   "exec",
			Prompt: regexp.MustCompile(`>\s*$`),
		}).
		Mode(privilege.Mode{
			Name: "configuration",
			// Named-session prompts look like "(config-s-<prefix>...)#";
			// excluding that prefix keeps the generic configuration mode
			// from swallowing a named session's prompt.
			Prompt:      regexp.MustCompile(`\(config[^)]*\)#\s*$`),
			NotContains: []string{"(config-s-"},
			Parent:      "privileged_exec",
			Escalate:    "configure terminal",
			Deescalate:  "end",
		}).
		Mode(privilege.Mode{
			Name:        "privileged_exec",
			Prompt:      regexp.MustCompile(`#\s*$`),
			NotContains: []string{"(config"},
			Parent:      "exec",
			Escalate:    "enable",
			AuthPrompt:  regexp.MustCompile(`(?i)password[:\s]*$`),
			Deescalate:  "disable",
		}).
		DefaultMode("exec").
		FailureSubstrings("% Invalid input", "% Ambiguous command", "% Cannot commit").
		OnOpen("terminal length 0", "terminal width 32767").
		TerminalSize(200, 50).
		Build()
}

// NamedSessionModeName returns the dynamic mode name this platform's named
// configuration sessions register, derived the same way EOS derives its
// own prompt: the session name, truncated to 6 characters.
func NamedSessionModeName(sessionName string) string {
	return "config_session_" + Truncate6(sessionName)
}

// Truncate6 mirrors EOS's own truncation of a session name to 6 characters
// when rendering the "(config-s-<prefix>...)" prompt.
func Truncate6(sessionName string) string {
	if len(sessionName) <= 6 {
		return sessionName
	}
	return sessionName[:6]
}

// NamedSessionPrompt compiles the prompt regex for a dynamically
// registered named configuration session.
func NamedSessionPrompt(sessionName string) *regexp.Regexp {
	prefix := regexp.QuoteMeta(Truncate6(sessionName))
	return regexp.MustCompile(fmt.Sprintf(`\(config-s-%s[^)]*\)#\s*$`, prefix))
}
