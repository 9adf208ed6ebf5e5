// Package platform holds the inert per-vendor data that parameterizes the
// driver: modes, failure substrings, on-open/on-close commands, and
// terminal size. Vendor packages under pkg/platform/vendors register
// concrete platforms at init time.
package platform

import (
	"regexp"
	"strings"

	"github.com/ngoclaw/clidriver/pkg/clierrors"
	"github.com/ngoclaw/clidriver/pkg/privilege"
)

// PostProcessor rewrites already line-ending-normalized output for
// vendor-specific cleanup, e.g. Juniper's "[edit]" context-line filter. It
// is the single virtual hook in an otherwise data-only model.
type PostProcessor func(string) string

// Platform is immutable, pure data describing one vendor.
type Platform struct {
	Name              string
	Modes             []privilege.Mode // insertion order significant
	DefaultMode       string
	FailureSubstrings []string
	OnOpen            []string
	OnClose           []string
	Width, Height     int
	PostProcess       PostProcessor
}

// CombinedPromptPattern compiles every mode's prompt pattern into one regex
// of the form `(?:r1)|(?:r2)|...`, from the platform's own mode list. Dynamic
// modes are not part of that list; the driver rebuilds its combined pattern
// from the live graph when they are registered or removed.
func (p *Platform) CombinedPromptPattern() (*regexp.Regexp, error) {
	if len(p.Modes) == 0 {
		return nil, clierrors.InvalidDefinition("platform " + p.Name + " has no modes")
	}
	parts := make([]string, 0, len(p.Modes))
	for _, m := range p.Modes {
		if m.Prompt == nil {
			return nil, clierrors.InvalidDefinition("mode " + m.Name + " has no prompt pattern")
		}
		parts = append(parts, "(?:"+m.Prompt.String()+")")
	}
	combined, err := regexp.Compile(strings.Join(parts, "|"))
	if err != nil {
		return nil, clierrors.InvalidDefinition("failed to combine prompt patterns: " + err.Error())
	}
	return combined, nil
}

// Builder fluently assembles a Platform.
type Builder struct {
	p Platform
}

// NewBuilder starts building a platform with the given stable name.
func NewBuilder(name string) *Builder {
	return &Builder{p: Platform{Name: name, Width: 200, Height: 50}}
}

func (b *Builder) Mode(m privilege.Mode) *Builder {
	b.p.Modes = append(b.p.Modes, m)
	return b
}

func (b *Builder) DefaultMode(name string) *Builder {
	b.p.DefaultMode = name
	return b
}

func (b *Builder) FailureSubstrings(subs ...string) *Builder {
	b.p.FailureSubstrings = append(b.p.FailureSubstrings, subs...)
	return b
}

func (b *Builder) OnOpen(cmds ...string) *Builder {
	b.p.OnOpen = append(b.p.OnOpen, cmds...)
	return b
}

func (b *Builder) OnClose(cmds ...string) *Builder {
	b.p.OnClose = append(b.p.OnClose, cmds...)
	return b
}

func (b *Builder) TerminalSize(width, height int) *Builder {
	b.p.Width = width
	b.p.Height = height
	return b
}

func (b *Builder) PostProcessor(fn PostProcessor) *Builder {
	b.p.PostProcess = fn
	return b
}

// Build validates and returns the assembled Platform.
func (b *Builder) Build() (*Platform, error) {
	if len(b.p.Modes) == 0 {
		return nil, clierrors.InvalidDefinition("platform " + b.p.Name + " requires at least one mode")
	}
	if b.p.DefaultMode == "" {
		b.p.DefaultMode = b.p.Modes[0].Name
	}
	found := false
	for _, m := range b.p.Modes {
		if m.Parent != "" {
			hasParent := false
			for _, other := range b.p.Modes {
				if other.Name == m.Parent {
					hasParent = true
					break
				}
			}
			if !hasParent {
				return nil, clierrors.InvalidDefinition("mode " + m.Name + " has unknown parent " + m.Parent)
			}
		}
		if m.Name == b.p.DefaultMode {
			found = true
		}
	}
	if !found {
		return nil, clierrors.InvalidDefinition("default mode " + b.p.DefaultMode + " is not a registered mode")
	}
	out := b.p
	return &out, nil
}
