// Package prompt renders Jinja-style templates ({{ name }}, filters,
// {% for %} blocks) into literal prompt text.
//
// Rendering is a pure function of the template body and the variables. In
// strict mode every placeholder must be bound, so a job never ships a prompt
// with a silently blanked-out value.
package prompt

import (
	"regexp"
	"sort"
	"strings"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/flosch/pongo2/v6"
)

// Prompts are plain text, so HTML auto-escaping is switched off around the body.
const (
	escapeOff = "{% autoescape off %}"
	escapeEnd = "{% endautoescape %}"
)

// Renderer binds variables into templates.
type Renderer struct {
	Source Source
	Strict bool
}

// New creates a Renderer reading template bodies from src.
func New(src Source, strict bool) *Renderer {
	return &Renderer{Source: src, Strict: strict}
}

// Render loads the template named ref and binds vars into it.
func (r *Renderer) Render(ref string, vars map[string]any) (string, error) {
	body, err := r.Source.Load(ref)
	if err != nil {
		return "", err
	}

	return r.RenderString(ref, body, vars)
}

// RenderString binds vars into body. The name only labels errors. A single
// trailing newline is dropped; output that is empty after trimming
// whitespace is an error.
func (r *Renderer) RenderString(name, body string, vars map[string]any) (string, error) {
	if r.Strict {
		if missing := Missing(body, vars); len(missing) > 0 {
			return "", errors.NewKind(errors.ErrRender, "template %q: undefined variables: %s", name, strings.Join(missing, ", "))
		}
	}

	tpl, err := pongo2.FromString(escapeOff + body + escapeEnd)
	if err != nil {
		return "", errors.WrapKind(err, errors.ErrRender, "template %q: parse", name)
	}

	out, err := tpl.Execute(pongo2.Context(vars))
	if err != nil {
		return "", errors.WrapKind(err, errors.ErrRender, "template %q: execute", name)
	}

	out = strings.TrimSuffix(out, "\n")

	if strings.TrimSpace(out) == "" {
		return "", errors.WithHint(
			errors.NewKind(errors.ErrRender, "template %q rendered to empty output", name),
			"check that the variables match the template placeholders",
		)
	}

	return out, nil
}

var (
	commentRe = regexp.MustCompile(`(?s)\{#.*?#\}`)
	exprRe    = regexp.MustCompile(`(?s)\{\{-?(.*?)-?\}\}`)
	tagRe     = regexp.MustCompile(`(?s)\{%-?\s*([A-Za-z_]+)(.*?)-?%\}`)
	forRe     = regexp.MustCompile(`(?s)^\s*([A-Za-z_]\w*)(?:\s*,\s*([A-Za-z_]\w*))?\s+in\s+(.*)$`)
	setRe     = regexp.MustCompile(`(?s)^\s*([A-Za-z_]\w*)\s*=(.*)$`)
	withAsRe  = regexp.MustCompile(`(?s)^(.*)\s+as\s+([A-Za-z_]\w*)\s*$`)
	assignRe  = regexp.MustCompile(`([A-Za-z_]\w*)\s*=`)
)

// Names that are never variables.
var builtins = map[string]struct{}{
	"true": {}, "false": {}, "True": {}, "False": {},
	"none": {}, "None": {}, "nil": {},
	"and": {}, "or": {}, "not": {}, "in": {}, "is": {},
	"forloop": {}, "loop": {},
}

// Placeholders returns the sorted identifiers the template reads from its
// context: every variable in {{ }} expressions (filter arguments included)
// and in if, elif, for, set and with tags. Filter names, attributes, string
// and number literals, keywords and names bound inside the template (loop
// variables, set and with assignments) are excluded.
func Placeholders(body string) []string {
	body = commentRe.ReplaceAllString(body, "")

	bound := make(map[string]struct{})
	var exprs []string

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		args := m[2]

		switch m[1] {
		case "if", "elif", "ifequal", "ifnotequal":
			exprs = append(exprs, args)
		case "for":
			f := forRe.FindStringSubmatch(args)
			if f == nil {
				continue
			}
			bound[f[1]] = struct{}{}
			if f[2] != "" {
				bound[f[2]] = struct{}{}
			}
			iter := strings.Fields(f[3])
			for len(iter) > 1 && (iter[len(iter)-1] == "reversed" || iter[len(iter)-1] == "sorted") {
				iter = iter[:len(iter)-1]
			}
			exprs = append(exprs, strings.Join(iter, " "))
		case "set":
			if a := setRe.FindStringSubmatch(args); a != nil {
				bound[a[1]] = struct{}{}
				exprs = append(exprs, a[2])
			}
		case "with":
			if a := withAsRe.FindStringSubmatch(args); a != nil {
				bound[a[2]] = struct{}{}
				exprs = append(exprs, a[1])
				continue
			}
			names, rest := splitAssignments(args)
			for _, n := range names {
				bound[n] = struct{}{}
			}
			exprs = append(exprs, rest)
		}
	}

	for _, m := range exprRe.FindAllStringSubmatch(body, -1) {
		exprs = append(exprs, m[1])
	}

	seen := make(map[string]struct{})
	for _, expr := range exprs {
		for _, name := range identifiers(expr) {
			if _, ok := builtins[name]; ok {
				continue
			}
			if _, ok := bound[name]; ok {
				continue
			}
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// splitAssignments removes the name= targets of a with tag, returning the
// names and the remaining value expressions.
func splitAssignments(args string) ([]string, string) {
	var (
		names []string
		rest  strings.Builder
		last  int
	)

	for _, loc := range assignRe.FindAllStringSubmatchIndex(args, -1) {
		if loc[1] < len(args) && args[loc[1]] == '=' {
			continue
		}
		names = append(names, args[loc[2]:loc[3]])
		rest.WriteString(args[last:loc[0]])
		rest.WriteByte(' ')
		last = loc[1]
	}
	rest.WriteString(args[last:])

	return names, rest.String()
}

// identifiers scans a pongo2 expression and returns the names it resolves
// from the context. A name directly after '|' is a filter and one after '.'
// is an attribute or index; neither is a variable.
func identifiers(expr string) []string {
	var (
		names []string
		prev  byte
	)

	for i := 0; i < len(expr); {
		c := expr[i]

		switch {
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(expr) && expr[j] != c {
				if expr[j] == '\\' {
					j++
				}
				j++
			}
			i = j + 1
			prev = c
		case isDigit(c):
			for i < len(expr) && isDigit(expr[i]) {
				i++
			}
			if i+1 < len(expr) && expr[i] == '.' && isDigit(expr[i+1]) {
				i++
				for i < len(expr) && isDigit(expr[i]) {
					i++
				}
			}
			prev = '0'
		case isIdentStart(c):
			j := i
			for j < len(expr) && (isIdentStart(expr[j]) || isDigit(expr[j])) {
				j++
			}
			if prev != '|' && prev != '.' {
				names = append(names, expr[i:j])
			}
			i = j
			prev = 'a'
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		default:
			prev = c
			i++
		}
	}

	return names
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Missing returns the placeholders of body that have no entry in vars.
func Missing(body string, vars map[string]any) []string {
	var missing []string

	for _, name := range Placeholders(body) {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}

	return missing
}
