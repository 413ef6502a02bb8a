package theme

import (
	"regexp"
	"strings"
)

// nonColorKeys are carried through verbatim, never treated as color text.
var nonColorKeys = map[string]struct{}{
	"radius":           {},
	"font-sans":        {},
	"font-serif":       {},
	"font-mono":        {},
	"spacing":          {},
	"tracking-normal":  {},
	"tracking-tighter": {},
	"tracking-tight":   {},
	"tracking-wide":    {},
	"tracking-wider":   {},
	"tracking-widest":  {},
	"letter-spacing":   {},
	"shadow-color":     {},
	"shadow-opacity":   {},
	"shadow-blur":      {},
	"shadow-spread":    {},
	"shadow-offset-x":  {},
	"shadow-offset-y":  {},
	"shadow-x":         {},
	"shadow-y":         {},
	"shadow-2xs":       {},
	"shadow-xs":        {},
	"shadow-sm":        {},
	"shadow":           {},
	"shadow-md":        {},
	"shadow-lg":        {},
	"shadow-xl":        {},
	"shadow-2xl":       {},
}

const (
	defaultSpacing               = "0.25rem"
	defaultDestructiveForeground = "hsl(0 0% 98%)"
)

var bareHSL = regexp.MustCompile(`^\d+(\s+\d+%){2}$`)

// IsColorKey reports whether values stored under key are color text.
func IsColorKey(key string) bool {
	_, ok := nonColorKeys[key]
	return !ok
}

// FormatValue renders a light or dark variable value for CSS output. Bare
// "h s% l%" triplets become hsl(...); everything else is left alone.
func FormatValue(key, value string) string {
	if !IsColorKey(key) {
		return value
	}
	if strings.Contains(value, "(") || strings.HasPrefix(value, "#") {
		return value
	}
	if bareHSL.MatchString(strings.TrimSpace(value)) {
		return "hsl(" + value + ")"
	}
	return value
}

// Generate renders the complete stylesheet for set. Output is a pure
// function of set.
func Generate(set VariableSet) string {
	var b strings.Builder
	b.Grow(len(staticBlocks) + len(animationCSS) + 4096)

	b.WriteString("@custom-variant dark (&:is(.dark *));\n\n:root {\n")
	if len(set.Shared) > 0 {
		writeVars(&b, set.Shared, false)
		b.WriteString("\n")
	}
	writeVars(&b, set.Light, true)
	if !set.Light.Has("destructive-foreground") {
		b.WriteString("\n  --destructive-foreground: " + defaultDestructiveForeground + ";")
	}
	if !set.Light.Has("spacing") {
		b.WriteString("\n  --spacing: " + defaultSpacing + ";")
	}
	b.WriteString("\n}\n\n.dark {\n")
	writeVars(&b, set.Dark, true)
	if !set.Dark.Has("destructive-foreground") {
		b.WriteString("\n  --destructive-foreground: " + defaultDestructiveForeground + ";")
	}
	b.WriteString("\n}\n\n")
	b.WriteString(staticBlocks)
	b.WriteString(animationCSS)
	return b.String()
}

func writeVars(b *strings.Builder, vars Vars, format bool) {
	for i, kv := range vars {
		if i > 0 {
			b.WriteString("\n")
		}
		value := kv.Value
		if format {
			value = FormatValue(kv.Name, value)
		}
		b.WriteString("  --" + kv.Name + ": " + value + ";")
	}
}

// staticBlocks maps design tokens onto the custom properties and applies the
// base layer resets.
const staticBlocks = `@theme inline {
  --color-background: var(--background);
  --color-foreground: var(--foreground);
  --color-card: var(--card);
  --color-card-foreground: var(--card-foreground);
  --color-popover: var(--popover);
  --color-popover-foreground: var(--popover-foreground);
  --color-primary: var(--primary);
  --color-primary-foreground: var(--primary-foreground);
  --color-secondary: var(--secondary);
  --color-secondary-foreground: var(--secondary-foreground);
  --color-muted: var(--muted);
  --color-muted-foreground: var(--muted-foreground);
  --color-accent: var(--accent);
  --color-accent-foreground: var(--accent-foreground);
  --color-destructive: var(--destructive);
  --color-destructive-foreground: var(--destructive-foreground);
  --color-border: var(--border);
  --color-input: var(--input);
  --color-ring: var(--ring);
  --color-chart-1: var(--chart-1);
  --color-chart-2: var(--chart-2);
  --color-chart-3: var(--chart-3);
  --color-chart-4: var(--chart-4);
  --color-chart-5: var(--chart-5);
  --color-sidebar: var(--sidebar);
  --color-sidebar-foreground: var(--sidebar-foreground);
  --color-sidebar-primary: var(--sidebar-primary);
  --color-sidebar-primary-foreground: var(--sidebar-primary-foreground);
  --color-sidebar-accent: var(--sidebar-accent);
  --color-sidebar-accent-foreground: var(--sidebar-accent-foreground);
  --color-sidebar-border: var(--sidebar-border);
  --color-sidebar-ring: var(--sidebar-ring);

  --font-sans: var(--font-sans);
  --font-mono: var(--font-mono);
  --font-serif: var(--font-serif);

  --radius-sm: calc(var(--radius) - 4px);
  --radius-md: calc(var(--radius) - 2px);
  --radius-lg: var(--radius);
  --radius-xl: calc(var(--radius) + 4px);

  --shadow-2xs: var(--shadow-2xs);
  --shadow-xs: var(--shadow-xs);
  --shadow-sm: var(--shadow-sm);
  --shadow: var(--shadow);
  --shadow-md: var(--shadow-md);
  --shadow-lg: var(--shadow-lg);
  --shadow-xl: var(--shadow-xl);
  --shadow-2xl: var(--shadow-2xl);
}

@layer base {
  *,
  *::before,
  *::after {
    border-color: var(--border);
    outline-color: var(--ring);
  }

  body {
    background-color: var(--background);
    color: var(--foreground);
    font-family: var(--font-sans, "Inter", system-ui, -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif);
    letter-spacing: var(--tracking-normal, 0em);
  }
}
`

// animationCSS is the keyframe and utility library the preview components
// rely on. It never varies with the theme.
const animationCSS = `
/* Animation utilities for Sandpack */
@keyframes animate-in {
  from {
    opacity: 0;
  }
  to {
    opacity: 1;
  }
}

@keyframes animate-out {
  from {
    opacity: 1;
  }
  to {
    opacity: 0;
  }
}

@keyframes fade-in {
  from {
    opacity: 0;
  }
  to {
    opacity: 1;
  }
}

@keyframes fade-out {
  from {
    opacity: 1;
  }
  to {
    opacity: 0;
  }
}

@keyframes zoom-in {
  from {
    opacity: 0;
    transform: scale(0.95);
  }
  to {
    opacity: 1;
    transform: scale(1);
  }
}

@keyframes zoom-in-90 {
  from {
    opacity: 0;
    transform: scale(0.9);
  }
  to {
    opacity: 1;
    transform: scale(1);
  }
}

@keyframes zoom-out {
  from {
    opacity: 1;
    transform: scale(1);
  }
  to {
    opacity: 0;
    transform: scale(0.95);
  }
}

@keyframes slide-in-from-top {
  from {
    transform: translateY(-100%);
  }
  to {
    transform: translateY(0);
  }
}

@keyframes slide-in-from-top-2 {
  from {
    transform: translateY(-0.5rem);
  }
  to {
    transform: translateY(0);
  }
}

@keyframes slide-in-from-bottom {
  from {
    transform: translateY(100%);
  }
  to {
    transform: translateY(0);
  }
}

@keyframes slide-in-from-bottom-2 {
  from {
    transform: translateY(0.5rem);
  }
  to {
    transform: translateY(0);
  }
}

@keyframes slide-in-from-left {
  from {
    transform: translateX(-100%);
  }
  to {
    transform: translateX(0);
  }
}

@keyframes slide-in-from-left-2 {
  from {
    transform: translateX(-0.5rem);
  }
  to {
    transform: translateX(0);
  }
}

@keyframes slide-in-from-left-52 {
  from {
    transform: translateX(-13rem);
  }
  to {
    transform: translateX(0);
  }
}

@keyframes slide-in-from-right {
  from {
    transform: translateX(100%);
  }
  to {
    transform: translateX(0);
  }
}

@keyframes slide-in-from-right-2 {
  from {
    transform: translateX(0.5rem);
  }
  to {
    transform: translateX(0);
  }
}

@keyframes slide-in-from-right-52 {
  from {
    transform: translateX(13rem);
  }
  to {
    transform: translateX(0);
  }
}

@keyframes slide-out-to-top {
  from {
    transform: translateY(0);
  }
  to {
    transform: translateY(-100%);
  }
}

@keyframes slide-out-to-bottom {
  from {
    transform: translateY(0);
  }
  to {
    transform: translateY(100%);
  }
}

@keyframes slide-out-to-left {
  from {
    transform: translateX(0);
  }
  to {
    transform: translateX(-100%);
  }
}

@keyframes slide-out-to-right {
  from {
    transform: translateX(0);
  }
  to {
    transform: translateX(100%);
  }
}

/* Animation utility classes - initial states */
.animate-in {
  animation: animate-in 0.15s ease-out;
}

.animate-out {
  animation: animate-out 0.15s ease-in;
}

.fade-in {
  animation: fade-in 0.15s ease-out;
}

.fade-out {
  animation: fade-out 0.15s ease-in;
}

.zoom-in-95 {
  animation: zoom-in 0.15s ease-out forwards;
}

.zoom-in-90 {
  animation: zoom-in-90 0.15s ease-out forwards;
}

.zoom-out-95 {
  animation: zoom-out 0.15s ease-in;
}

.fade-in-0 {
  opacity: 0;
  animation: fade-in 0.15s ease-out;
}

.fade-out-0 {
  opacity: 1;
  animation: fade-out 0.15s ease-in;
}

/* Slide animations with distance variants - initial states */
.slide-in-from-top-2 {
  animation: slide-in-from-top-2 0.2s ease-out forwards;
}

.slide-in-from-bottom-2 {
  animation: slide-in-from-bottom-2 0.2s ease-out forwards;
}

.slide-in-from-left-2 {
  animation: slide-in-from-left-2 0.2s ease-out forwards;
}

.slide-in-from-right-2 {
  animation: slide-in-from-right-2 0.2s ease-out forwards;
}

.slide-in-from-left-52 {
  animation: slide-in-from-left-52 0.3s ease-out forwards;
}

.slide-in-from-right-52 {
  animation: slide-in-from-right-52 0.3s ease-out forwards;
}

.slide-out-to-right-52 {
  animation: slide-out-to-right 0.3s ease-in;
}

.slide-out-to-left-52 {
  animation: slide-out-to-left 0.3s ease-in;
}

.slide-out-to-top {
  animation: slide-out-to-top 0.2s ease-in;
}

.slide-out-to-bottom {
  animation: slide-out-to-bottom 0.2s ease-in;
}

.slide-out-to-left {
  animation: slide-out-to-left 0.2s ease-in;
}

.slide-out-to-right {
  animation: slide-out-to-right 0.2s ease-in;
}

/* Data attribute selectors for conditional animations */
[data-state=open].animate-in,
[data-state=open] .animate-in {
  animation: animate-in 0.15s ease-out;
}

[data-state=closed].animate-out,
[data-state=closed] .animate-out {
  animation: animate-out 0.15s ease-in;
}

[data-state=open].fade-in-0,
[data-state=open] .fade-in-0 {
  animation: fade-in 0.15s ease-out;
  opacity: 1;
}

[data-state=closed].fade-out-0,
[data-state=closed] .fade-out-0 {
  animation: fade-out 0.15s ease-in;
  opacity: 0;
}

[data-state=open].zoom-in-95,
[data-state=open] .zoom-in-95 {
  animation: zoom-in 0.15s ease-out;
  transform: scale(1);
  opacity: 1;
}

[data-state=closed].zoom-out-95,
[data-state=closed] .zoom-out-95 {
  animation: zoom-out 0.15s ease-in;
  transform: scale(0.95);
  opacity: 0;
}

[data-state=open].zoom-in-90,
[data-state=open] .zoom-in-90 {
  animation: zoom-in 0.15s ease-out;
  transform: scale(1);
  opacity: 1;
}

[data-state=closed].zoom-in-90,
[data-state=closed] .zoom-in-90 {
  transform: scale(0.9);
  opacity: 0;
}

[data-state=visible].animate-in,
[data-state=visible] .animate-in {
  animation: animate-in 0.15s ease-out;
}

[data-state=hidden].animate-out,
[data-state=hidden] .animate-out {
  animation: animate-out 0.15s ease-in;
}

[data-state=visible].fade-in,
[data-state=visible] .fade-in {
  animation: fade-in 0.15s ease-out;
  opacity: 1;
}

[data-state=hidden].fade-out,
[data-state=hidden] .fade-out {
  animation: fade-out 0.15s ease-in;
  opacity: 0;
}

/* Motion-based animations for navigation menu */
[data-motion^=from-].animate-in {
  animation: animate-in 0.2s ease-out;
}

[data-motion^=to-].animate-out {
  animation: animate-out 0.2s ease-in;
}

[data-motion^=from-].fade-in {
  animation: fade-in 0.2s ease-out;
  opacity: 1;
}

[data-motion^=to-].fade-out {
  animation: fade-out 0.2s ease-in;
  opacity: 0;
}

[data-motion=from-end].slide-in-from-right-52 {
  animation: slide-in-from-right 0.3s ease-out forwards;
}

[data-motion=from-start].slide-in-from-left-52 {
  animation: slide-in-from-left 0.3s ease-out forwards;
}

[data-motion=to-end].slide-out-to-right-52 {
  animation: slide-out-to-right 0.3s ease-in forwards;
}

[data-motion=to-start].slide-out-to-left-52 {
  animation: slide-out-to-left 0.3s ease-in forwards;
}
`
