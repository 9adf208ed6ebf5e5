// Package privilege implements the bidirectional privilege graph: modes,
// adjacency derived from parent links, prompt-based mode detection, and BFS
// pathfinding between modes.
package privilege

import (
	"regexp"
	"strings"

	"github.com/ngoclaw/clidriver/pkg/clierrors"
)

// Mode is a single CLI privilege level / context.
type Mode struct {
	// Name is the mode's unique identity within a platform.
	Name string
	// Prompt matches the trailing prompt text for this mode.
	Prompt *regexp.Regexp
	// NotContains disambiguates overlapping prompt patterns: if any of
	// these substrings appears in the candidate text, this mode is
	// skipped during determination.
	NotContains []string
	// Parent names another mode in the same platform, or "" if this mode
	// is a root of its sub-graph.
	Parent string
	// Escalate is the command sent to move from Parent to this mode.
	Escalate string
	// AuthPrompt, if set, is the sub-prompt awaited after Escalate before
	// the session's password is sent.
	AuthPrompt *regexp.Regexp
	// Deescalate is the command sent to move from this mode back to Parent.
	Deescalate string
}

// Transition describes how to move between two adjacent modes.
type Transition struct {
	Command    string
	AuthPrompt *regexp.Regexp
}

// Graph is the bidirectional adjacency derived from an ordered list of
// modes. Modes are stored in insertion order because determination uses
// that order as its disambiguation mechanism.
type Graph struct {
	order   []string
	modes   map[string]Mode
	adj     map[string]map[string]struct{}
	current string
}

// NewGraph builds a Graph from an ordered list of modes. Every mode's
// Parent, if set, must name another mode in the same list.
func NewGraph(modes []Mode) (*Graph, error) {
	g := &Graph{
		modes: make(map[string]Mode, len(modes)),
		adj:   make(map[string]map[string]struct{}, len(modes)),
	}
	for _, m := range modes {
		if _, dup := g.modes[m.Name]; dup {
			return nil, clierrors.InvalidDefinition("duplicate mode name " + m.Name)
		}
		g.order = append(g.order, m.Name)
		g.modes[m.Name] = m
		if _, ok := g.adj[m.Name]; !ok {
			g.adj[m.Name] = map[string]struct{}{}
		}
	}
	for _, m := range modes {
		if m.Parent == "" {
			continue
		}
		if _, ok := g.modes[m.Parent]; !ok {
			return nil, clierrors.InvalidDefinition("mode " + m.Name + " has unknown parent " + m.Parent)
		}
		g.addEdge(m.Name, m.Parent)
	}
	return g, nil
}

func (g *Graph) addEdge(a, b string) {
	if g.adj[a] == nil {
		g.adj[a] = map[string]struct{}{}
	}
	if g.adj[b] == nil {
		g.adj[b] = map[string]struct{}{}
	}
	g.adj[a][b] = struct{}{}
	g.adj[b][a] = struct{}{}
}

// Mode returns the mode by name.
func (g *Graph) Mode(name string) (Mode, bool) {
	m, ok := g.modes[name]
	return m, ok
}

// Current returns the current mode name.
func (g *Graph) Current() string { return g.current }

// SetCurrent sets the current mode; it fails if name is unknown.
func (g *Graph) SetCurrent(name string) error {
	if _, ok := g.modes[name]; !ok {
		return clierrors.UnknownPrivilege(name)
	}
	g.current = name
	return nil
}

// DetermineFromPrompt iterates modes in insertion order, skipping any mode
// whose NotContains list has a substring present in text, and returns the
// first mode whose Prompt matches. Insertion order is the disambiguation
// mechanism: more specific modes must be registered before more general
// ones with overlapping patterns.
func (g *Graph) DetermineFromPrompt(text string) (Mode, error) {
	for _, name := range g.order {
		m := g.modes[name]
		skip := false
		for _, nc := range m.NotContains {
			if strings.Contains(text, nc) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		if m.Prompt != nil && m.Prompt.MatchString(text) {
			return m, nil
		}
	}
	return Mode{}, clierrors.UnknownPrivilege(text)
}

// FindPath returns the node sequence (inclusive of both endpoints) from
// from to to via BFS over the undirected adjacency. from==to yields the
// identity path. Disconnected sub-graphs (e.g. Nokia's MD-CLI vs Classic
// CLI) never cross: BFS naturally refuses to bridge them.
func (g *Graph) FindPath(from, to string) ([]string, error) {
	if _, ok := g.modes[from]; !ok {
		return nil, clierrors.UnknownPrivilege(from)
	}
	if _, ok := g.modes[to]; !ok {
		return nil, clierrors.UnknownPrivilege(to)
	}
	if from == to {
		return []string{from}, nil
	}

	visited := map[string]bool{from: true}
	queue := []*pathNode{{name: from}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for neighbor := range g.adj[cur.name] {
			if visited[neighbor] {
				continue
			}
			next := &pathNode{name: neighbor, prev: cur}
			if neighbor == to {
				return reversePath(next), nil
			}
			visited[neighbor] = true
			queue = append(queue, next)
		}
	}
	return nil, clierrors.NoPath(from, to)
}

// pathNode is a BFS parent-pointer node used to reconstruct the shortest
// path once the target is found.
type pathNode struct {
	name string
	prev *pathNode
}

func reversePath(n *pathNode) []string {
	var rev []string
	for cur := n; cur != nil; cur = cur.prev {
		rev = append(rev, cur.name)
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

// GetTransition is defined only for adjacent nodes. If to is a child of
// from, it returns to's escalate command and auth prompt. If from is a
// child of to, it returns from's de-escalate command with no auth prompt.
func (g *Graph) GetTransition(from, to string) (Transition, bool) {
	toMode, ok := g.modes[to]
	if ok && toMode.Parent == from {
		return Transition{Command: toMode.Escalate, AuthPrompt: toMode.AuthPrompt}, true
	}
	fromMode, ok := g.modes[from]
	if ok && fromMode.Parent == to {
		return Transition{Command: fromMode.Deescalate}, true
	}
	return Transition{}, false
}

// RegisterDynamic adds a mode at runtime (used by named-session guards,
// e.g. Arista's per-session configuration prompt).
func (g *Graph) RegisterDynamic(m Mode) error {
	if _, dup := g.modes[m.Name]; dup {
		return clierrors.InvalidDefinition("duplicate dynamic mode name " + m.Name)
	}
	if m.Parent != "" {
		if _, ok := g.modes[m.Parent]; !ok {
			return clierrors.InvalidDefinition("dynamic mode " + m.Name + " has unknown parent " + m.Parent)
		}
	}
	g.order = append(g.order, m.Name)
	g.modes[m.Name] = m
	if m.Parent != "" {
		g.addEdge(m.Name, m.Parent)
	}
	return nil
}

// RemoveDynamic removes a runtime-registered mode and its edges.
func (g *Graph) RemoveDynamic(name string) {
	delete(g.modes, name)
	for neighbor := range g.adj[name] {
		delete(g.adj[neighbor], name)
	}
	delete(g.adj, name)
	for i, n := range g.order {
		if n == name {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	if g.current == name {
		g.current = ""
	}
}

// Modes returns all modes in insertion order. Callers use this to rebuild
// the driver's combined prompt regex.
func (g *Graph) Modes() []Mode {
	out := make([]Mode, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.modes[name])
	}
	return out
}
