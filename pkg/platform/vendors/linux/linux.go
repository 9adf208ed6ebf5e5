// Package linux registers the "linux" platform: a plain Unix login shell
// with sudo escalation to root.
package linux

import (
	"regexp"

	"github.com/ngoclaw/clidriver/pkg/platform"
	"github.com/ngoclaw/clidriver/pkg/privilege"
)

// Name is the stable platform identifier.
const Name = "linux"

func init() {
	platform.Register(Name, build)
}

func build() (*platform.Platform, error) {
	return platform.NewBuilder(Name).
		Mode(privilege.Mode{
			Name:   "user",
			Prompt: regexp.MustCompile(`\$\s*$`),
		}).
		Mode(privilege.Mode{
			Name: "root",
			// The bare "#" pattern is shared with other vendors' privileged
			// modes; excluding "(config" keeps it from matching a
			// configuration-mode prompt that happens to also end in "#".
			Prompt:      regexp.MustCompile(`#\s*$`),
			NotContains: []string{"(config"},
			Parent:      "user",
			Escalate:    "sudo -i",
			AuthPrompt:  regexp.MustCompile(`(?i)password[:\s]*$`),
			Deescalate:  "exit",
		}).
		DefaultMode("user").
		FailureSubstrings("command not found", "Permission denied").
		TerminalSize(200, 50).
		Build()
}
