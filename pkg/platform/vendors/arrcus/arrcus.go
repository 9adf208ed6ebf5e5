// Package arrcus registers the "arrcus_arcos" platform: a ConfD-style
// (Cisco-ish "C") CLI, representative of Arrcus ArcOS and similar ConfD
// deployments.
package arrcus

import (
	"regexp"

	"github.com/ngoclaw/clidriver/pkg/platform"
	"github.com/ngoclaw/clidriver/pkg/privilege"
)

// Name is the stable platform identifier.
const Name = "arrcus_arcos"

func init() {
	platform.Register(Name, build)
}

func build() (*platform.Platform, error) {
	return platform.NewBuilder(Name).
		Mode(privilege.Mode{
			Name:        "exec",
			Prompt:      regexp.MustCompile(`\S+@\S+#\s*$`),
			NotContains: []string{"(config"},
		}).
		Mode(privilege.Mode{
			Name:       "configuration",
			Prompt:     regexp.MustCompile(`\S+@\S+\(config[^)]*\)#\s*$`),
			Parent:     "exec",
			Escalate:   "configure",
			Deescalate: "exit",
		}).
		DefaultMode("exec").
		// Not individually enumerated by the vendor-prompt table; these are
		// the standard ConfD C-style CLI error prefixes.
		FailureSubstrings("Aborted: ", "% Unknown command", "error:").
		OnOpen(
			"set cli screen-width 511",
			"set cli screen-length 0",
			"set cli complete-on-space off",
		).
		TerminalSize(200, 50).
		Build()
}
