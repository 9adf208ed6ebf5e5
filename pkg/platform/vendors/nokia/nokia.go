// Package nokia registers the "nokia_sros" platform: two disconnected
// privilege sub-graphs, MD-CLI and Classic CLI, coexisting on the same
// device depending on configured CLI engine.
package nokia

import (
	"regexp"

	"github.com/ngoclaw/clidriver/pkg/platform"
	"github.com/ngoclaw/clidriver/pkg/privilege"
)

// Name is the stable platform identifier.
const Name = "nokia_sros"

func init() {
	platform.Register(Name, build)
}

func build() (*platform.Platform, error) {
	return platform.NewBuilder(Name).
		// MD-CLI tree.
		Mode(privilege.Mode{
			Name: "exec",
			// Two-line MD-CLI prompt: "(ex)[/]\n user@host# ".
			Prompt: regexp.MustCompile(`(?s)\(ex\)\[[^\]]*\][\s\S]*@\S+#\s*$`),
		}).
		Mode(privilege.Mode{
			Name:       "configuration",
			Prompt:     regexp.MustCompile(`(?s)\(pr\)\[/?\][\s\S]*@\S+#\s*$`),
			Parent:     "exec",
			Escalate:   "edit-config exclusive",
			Deescalate: "quit-config",
		}).
		Mode(privilege.Mode{
			Name: "configuration_with_path",
			// Same "(pr)[...]" context marker, but with a non-root path
			// shown — the device has navigated into a config sub-tree via
			// "edit", which is not itself a privilege transition.
			Prompt: regexp.MustCompile(`(?s)\(pr\)\[/[^\]]+\][\s\S]*@\S+#\s*$`),
			Parent: "configuration",
		}).
		// Classic CLI tree — disconnected from MD-CLI: no shared parent.
		Mode(privilege.Mode{
			Name:        "classic_exec",
			Prompt:      regexp.MustCompile(`A:\S+#\s*$`),
			NotContains: []string{">config"},
		}).
		Mode(privilege.Mode{
			Name:       "classic_configuration",
			Prompt:     regexp.MustCompile(`A:\S+>config\S*#\s*$`),
			Parent:     "classic_exec",
			Escalate:   "configure",
			Deescalate: "exit all",
		}).
		DefaultMode("exec").
		FailureSubstrings("MINOR:", "MAJOR:", "CRITICAL:").
		OnOpen(
			"environment more false",
			"environment console width 512",
			"environment no-more",
		).
		TerminalSize(200, 50).
		Build()
}
