// Package juniper registers the "juniper_junos" platform.
package juniper

import (
	"regexp"
	"strings"

	"github.com/ngoclaw/clidriver/pkg/platform"
	"github.com/ngoclaw/clidriver/pkg/privilege"
)

// Name is the stable platform identifier.
const Name = "juniper_junos"

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
			// JUNOS shows a two-line prompt while editing the candidate
			// configuration: "[edit ...]\n user@router# ".
			Prompt:     regexp.MustCompile(`(?s)\[edit[^\]]*\][\s\S]*#\s*$`),
			Parent:     "exec",
			Escalate:   "configure",
			Deescalate: "exit configuration-mode",
		}).
		Mode(privilege.Mode{
			Name:        "root_shell",
			Prompt:      regexp.MustCompile(`[%#]\s*$`),
			NotContains: []string{"[edit"},
			Parent:      "exec",
			Escalate:    "start shell user root",
			AuthPrompt:  regexp.MustCompile(`(?i)password[:\s]*$`),
			Deescalate:  "exit",
		}).
		Mode(privilege.Mode{
			Name:        "shell",
			Prompt:      regexp.MustCompile(`[%$]\s*$`),
			NotContains: []string{"[edit"},
			Parent:      "exec",
			Escalate:    "start shell",
			Deescalate:  "exit",
		}).
		DefaultMode("exec").
		FailureSubstrings("syntax error", "unknown command", "error:").
		OnOpen("set cli screen-length 0", "set cli screen-width 511").
		TerminalSize(200, 50).
		PostProcessor(stripEditContext).
		Build()
}

// stripEditContext removes JUNOS's "[edit ...]" configuration-context
// lines from already-normalized output.
func stripEditContext(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "[edit") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
