// Package render substitutes {{name}} placeholders in stored templates.
//
// Substitution is literal and case-sensitive: for every bound key, each
// occurrence of "{{key}}" is replaced by the bound value. Placeholders without
// a binding are left untouched. All keys are replaced in a single pass, so a
// value that itself contains "{{other}}" is emitted verbatim rather than being
// expanded again.
//
// Values are NOT escaped by default. If bindings can carry untrusted input
// (a candidate's free-text name, for instance) enable Options.EscapeHTML.
package render

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/recruitly/template-service/internal/core/domain"
)

// Bindings maps placeholder names to the values substituted for them.
type Bindings map[string]string

// Options tunes rendering. The zero value renders values verbatim.
type Options struct {
	// EscapeHTML escapes values injected into the HTML body. Subject and
	// text body are never escaped.
	EscapeHTML bool
}

var placeholderRe = regexp.MustCompile(`\{\{([A-Za-z0-9_.\-]+)\}\}`)

// Render substitutes bindings into the template's subject and bodies.
func Render(tpl *domain.Template, bindings Bindings) domain.RenderedMessage {
	return RenderWith(tpl, bindings, Options{})
}

// RenderWith is Render with explicit options.
func RenderWith(tpl *domain.Template, bindings Bindings, opts Options) domain.RenderedMessage {
	plain := newReplacer(bindings, false)
	htmlRep := plain
	if opts.EscapeHTML {
		htmlRep = newReplacer(bindings, true)
	}

	out := domain.RenderedMessage{
		Subject:  plain.Replace(tpl.Subject),
		HTMLBody: htmlRep.Replace(tpl.HTMLBody),
	}
	if tpl.TextBody != "" {
		out.TextBody = plain.Replace(tpl.TextBody)
	}
	return out
}

// newReplacer builds a single-pass replacer. Keys are sorted so the result
// never depends on map iteration order.
func newReplacer(bindings Bindings, escape bool) *strings.Replacer {
	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		v := bindings[k]
		if escape {
			v = html.EscapeString(v)
		}
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...)
}

// Placeholders returns the distinct placeholder names found in s, in order of
// first appearance.
func Placeholders(s string) []string {
	matches := placeholderRe.FindAllStringSubmatch(s, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// Unbound lists placeholders present in the template that bindings do not
// cover.
func Unbound(tpl *domain.Template, bindings Bindings) []string {
	all := Placeholders(tpl.Subject + "\n" + tpl.HTMLBody + "\n" + tpl.TextBody)
	missing := make([]string, 0)
	for _, name := range all {
		if _, ok := bindings[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// FromValues converts loosely typed input (decoded JSON) into Bindings.
// nil values become the empty string; non-string values are formatted with
// fmt.Sprint.
func FromValues(values map[string]any) Bindings {
	b := make(Bindings, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case nil:
			b[k] = ""
		case string:
			b[k] = val
		default:
			b[k] = fmt.Sprint(val)
		}
	}
	return b
}
