// Package vendors_test exercises the combined prompt regex and
// determine_from_prompt invariant (spec property 4: every platform/mode
// pair's canonical example prompt determines to that mode) across all five
// required built-in platforms.
package vendors_test

import (
	"testing"

	"github.com/ngoclaw/clidriver/pkg/platform"
	_ "github.com/ngoclaw/clidriver/pkg/platform/vendors/arista"
	_ "github.com/ngoclaw/clidriver/pkg/platform/vendors/arrcus"
	_ "github.com/ngoclaw/clidriver/pkg/platform/vendors/juniper"
	_ "github.com/ngoclaw/clidriver/pkg/platform/vendors/linux"
	_ "github.com/ngoclaw/clidriver/pkg/platform/vendors/nokia"
	"github.com/ngoclaw/clidriver/pkg/privilege"
)

func TestAllPlatformsRegistered(t *testing.T) {
	want := []string{"linux", "juniper_junos", "arista_eos", "nokia_sros", "arrcus_arcos"}
	for _, name := range want {
		if _, err := platform.Get(name); err != nil {
			t.Fatalf("platform %q not registered: %v", name, err)
		}
	}
}

func TestDetermineFromPromptPerMode(t *testing.T) {
	cases := []struct {
		platform string
		mode     string
		prompt   string
	}{
		{"linux", "user", "user@host:~$ "},
		{"linux", "root", "root@host:~# "},

		{"juniper_junos", "exec", "{master:0}\nuser@router> "},
		{"juniper_junos", "configuration", "[edit]\nuser@router# "},
		{"juniper_junos", "root_shell", "root@router% "},
		{"juniper_junos", "shell", "user@router$ "},

		{"arista_eos", "exec", "switch>"},
		{"arista_eos", "privileged_exec", "switch#"},
		{"arista_eos", "configuration", "switch(config)#"},

		{"nokia_sros", "exec", "(ex)[/]\nuser@router# "},
		{"nokia_sros", "configuration", "(pr)[/]\nuser@router# "},
		{"nokia_sros", "configuration_with_path", "(pr)[/configure router]\nuser@router# "},
		{"nokia_sros", "classic_exec", "A:router# "},
		{"nokia_sros", "classic_configuration", "A:router>config# "},

		{"arrcus_arcos", "exec", "user@router# "},
		{"arrcus_arcos", "configuration", "user@router(config)# "},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.platform+"/"+tc.mode, func(t *testing.T) {
			plat, err := platform.Get(tc.platform)
			if err != nil {
				t.Fatalf("platform.Get(%q): %v", tc.platform, err)
			}
			graph, err := privilege.NewGraph(plat.Modes)
			if err != nil {
				t.Fatalf("NewGraph: %v", err)
			}
			m, err := graph.DetermineFromPrompt(tc.prompt)
			if err != nil {
				t.Fatalf("DetermineFromPrompt(%q) error: %v", tc.prompt, err)
			}
			if m.Name != tc.mode {
				t.Fatalf("DetermineFromPrompt(%q) = %q, want %q", tc.prompt, m.Name, tc.mode)
			}
		})
	}
}

func TestNokiaRootsDisconnected(t *testing.T) {
	plat, err := platform.Get("nokia_sros")
	if err != nil {
		t.Fatalf("platform.Get: %v", err)
	}
	graph, err := privilege.NewGraph(plat.Modes)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	if _, err := graph.FindPath("exec", "classic_exec"); err == nil {
		t.Fatal("expected NoPath between MD-CLI and Classic CLI roots")
	}
}
