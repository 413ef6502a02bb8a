package theme

import (
	"regexp"
	"strings"
)

var (
	cssComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	cssVarDecl = regexp.MustCompile(`--([^:]+):\s*([^;]+);`)
	rootBlock  = regexp.MustCompile(`:root\s*\{([^}]+)\}`)
	darkBlock  = regexp.MustCompile(`\.dark\s*\{([^}]+)\}`)
)

// keyVarMarkers select the variables that identify a theme's palette.
var keyVarMarkers = []string{
	"background",
	"foreground",
	"primary",
	"secondary",
	"muted",
	"accent",
	"destructive",
	"border",
	"ring",
}

// Normalize strips comments and collapses all whitespace runs to a single
// space.
func Normalize(css string) string {
	return strings.Join(strings.Fields(cssComment.ReplaceAllString(css, "")), " ")
}

// ParseVariables re-derives the light and dark variables from the first
// :root and .dark blocks of css. Shared variables are indistinguishable from
// light ones once rendered, so they come back as light.
func ParseVariables(css string) VariableSet {
	var set VariableSet
	if m := rootBlock.FindStringSubmatch(css); m != nil {
		set.Light = declarations(m[1])
	}
	if m := darkBlock.FindStringSubmatch(css); m != nil {
		set.Dark = declarations(m[1])
	}
	if set.Light == nil {
		set.Light = Vars{}
	}
	if set.Dark == nil {
		set.Dark = Vars{}
	}
	return set
}

func declarations(block string) Vars {
	var out Vars
	for _, m := range cssVarDecl.FindAllStringSubmatch(block, -1) {
		out = out.Set(strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
	}
	return out
}

// keyVars collects palette variables from already normalized css. A name
// declared twice keeps its last value, so .dark overrides :root.
func keyVars(normalized string) map[string]string {
	out := make(map[string]string)
	for _, m := range cssVarDecl.FindAllStringSubmatch(normalized, -1) {
		key := strings.TrimSpace(m[1])
		if !isKeyVar(key) {
			continue
		}
		out[key] = Normalize(strings.TrimSpace(m[2]))
	}
	return out
}

func isKeyVar(name string) bool {
	for _, marker := range keyVarMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}
