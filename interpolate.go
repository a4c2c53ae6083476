// FILE: lixenwraith/dotenv/interpolate.go
package dotenv

import (
	"strings"

	"github.com/google/uuid"
)

// markerOpeners are the two equivalent reference marker styles, both closed by '}'
var markerOpeners = []string{"${", "{$"}

// resolveRounds is the number of substitution passes per marker style.
// A second pass resolves names composed by the first, like ${A_${B}}.
const resolveRounds = 2

// Resolve coerces records and substitutes back-references in declaration order.
// Only string values are interpolated, against keys resolved earlier in lines.
// Forward references are left as literal text.
func Resolve(lines []Line) *Map {
	r := &resolver{
		known:  NewMap(),
		shield: "\x00" + uuid.NewString() + "\x00",
	}
	for _, line := range lines {
		v := line.Typed()
		if s, ok := v.AsString(); ok {
			v = String(r.interpolate(s))
		}
		r.known.Set(line.Key, v)
	}
	return r.known
}

// Interpolate substitutes references in s against known
func Interpolate(s string, known *Map) string {
	r := &resolver{known: known, shield: "\x00" + uuid.NewString() + "\x00"}
	return r.interpolate(s)
}

// resolver carries the running map and the escape placeholder of one pass
type resolver struct {
	known  *Map
	shield string
}

func (r *resolver) interpolate(s string) string {
	for range resolveRounds {
		for _, open := range markerOpeners {
			s = r.substitute(s, open)
		}
	}
	return s
}

// substitute replaces open+NAME+"}" for every referenced NAME already known.
// Escaped openers are swapped for the placeholder while replacing.
func (r *resolver) substitute(s, open string) string {
	if !strings.Contains(s, open) {
		return s
	}

	escaped := `\` + open
	for _, name := range referencedNames(s, open) {
		ref, ok := r.known.Get(name)
		if !ok {
			continue
		}

		shielded := strings.Contains(s, escaped)
		if shielded {
			s = strings.ReplaceAll(s, escaped, r.shield)
		}
		s = strings.ReplaceAll(s, open+name+"}", ref.String())
		if shielded {
			s = strings.ReplaceAll(s, r.shield, escaped)
		}
	}
	return s
}

// referencedNames lists the text between each opener and the next '}'
func referencedNames(s, open string) []string {
	parts := strings.Split(s, open)
	names := make([]string, 0, len(parts)-1)
	for _, part := range parts[1:] {
		name, _, _ := strings.Cut(part, "}")
		names = append(names, name)
	}
	return names
}
