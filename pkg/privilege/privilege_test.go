package privilege

import (
	"regexp"
	"testing"

	"github.com/ngoclaw/clidriver/pkg/clierrors"
)

func linuxLikeGraph(t *testing.T) *Graph {
	t.Helper()
	modes := []Mode{
		{Name: "user", Prompt: regexp.MustCompile(`\$\s*$`)},
		{
			Name:        "root",
			Prompt:      regexp.MustCompile(`#\s*$`),
			NotContains: []string{"(config"},
			Parent:      "user",
			Escalate:    "sudo -i",
			AuthPrompt:  regexp.MustCompile(`[Pp]assword:`),
			Deescalate:  "exit",
		},
	}
	g, err := NewGraph(modes)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	return g
}

func TestDetermineFromPromptOrderMatters(t *testing.T) {
	g := linuxLikeGraph(t)
	m, err := g.DetermineFromPrompt("user@host:~$ ")
	if err != nil || m.Name != "user" {
		t.Fatalf("expected user mode, got %+v, err=%v", m, err)
	}
	m, err = g.DetermineFromPrompt("root@host:~# ")
	if err != nil || m.Name != "root" {
		t.Fatalf("expected root mode, got %+v, err=%v", m, err)
	}
}

func TestDetermineFromPromptNotContainsSkips(t *testing.T) {
	g := linuxLikeGraph(t)
	// A "#" prompt containing "(config" must not match the root mode.
	_, err := g.DetermineFromPrompt("switch(config)# ")
	if !clierrors.HasKind(err, clierrors.KindUnknownPrivilege) {
		t.Fatalf("expected UnknownPrivilege, got %v", err)
	}
}

func TestFindPathAdjacent(t *testing.T) {
	g := linuxLikeGraph(t)
	path, err := g.FindPath("user", "root")
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	want := []string{"user", "root"}
	if len(path) != 2 || path[0] != want[0] || path[1] != want[1] {
		t.Fatalf("FindPath() = %v, want %v", path, want)
	}
}

func TestFindPathIdentity(t *testing.T) {
	g := linuxLikeGraph(t)
	path, err := g.FindPath("user", "user")
	if err != nil || len(path) != 1 || path[0] != "user" {
		t.Fatalf("FindPath(identity) = %v, err=%v", path, err)
	}
}

func TestFindPathDisconnectedRoots(t *testing.T) {
	modes := []Mode{
		{Name: "md_exec", Prompt: regexp.MustCompile(`@host#\s*$`)},
		{Name: "classic_exec", Prompt: regexp.MustCompile(`A:host#\s*$`)},
	}
	g, err := NewGraph(modes)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	_, err = g.FindPath("md_exec", "classic_exec")
	if !clierrors.HasKind(err, clierrors.KindNoPath) {
		t.Fatalf("expected NoPath across disconnected roots, got %v", err)
	}
}

func TestGetTransitionEscalateAndDeescalate(t *testing.T) {
	g := linuxLikeGraph(t)
	tr, ok := g.GetTransition("user", "root")
	if !ok || tr.Command != "sudo -i" || tr.AuthPrompt == nil {
		t.Fatalf("escalate transition = %+v, ok=%v", tr, ok)
	}
	tr, ok = g.GetTransition("root", "user")
	if !ok || tr.Command != "exit" || tr.AuthPrompt != nil {
		t.Fatalf("de-escalate transition = %+v, ok=%v", tr, ok)
	}
}

func TestRegisterAndRemoveDynamic(t *testing.T) {
	g := linuxLikeGraph(t)
	dyn := Mode{
		Name:     "config_session_my-sess",
		Prompt:   regexp.MustCompile(`\(config-s-my-ses.*\)#\s*$`),
		Parent:   "root",
		Escalate: "configure session my-sess",
	}
	if err := g.RegisterDynamic(dyn); err != nil {
		t.Fatalf("RegisterDynamic: %v", err)
	}
	path, err := g.FindPath("user", "config_session_my-sess")
	if err != nil || len(path) != 3 {
		t.Fatalf("FindPath after register = %v, err=%v", path, err)
	}
	g.RemoveDynamic(dyn.Name)
	if _, ok := g.Mode(dyn.Name); ok {
		t.Fatal("dynamic mode should be gone after RemoveDynamic")
	}
}
