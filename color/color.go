// Package color converts colors between the textual forms used in theme
// variables: HEX, RGB, HSL and OKLCH.
//
// RGB is the pivot for every cross-format conversion. None of the functions
// here return errors: malformed input degrades to a neutral gray so that a
// color picker always has something to render.
package color

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Format names one of the four canonical textual color forms.
type Format string

const (
	FormatHex   Format = "hex"
	FormatRGB   Format = "rgb"
	FormatHSL   Format = "hsl"
	FormatOKLCH Format = "oklch"
)

// Formats lists every supported output format in display order.
var Formats = []Format{FormatHex, FormatRGB, FormatHSL, FormatOKLCH}

// ParseFormat resolves a user supplied format name.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatHex:
		return FormatHex, true
	case FormatRGB:
		return FormatRGB, true
	case FormatHSL:
		return FormatHSL, true
	case FormatOKLCH:
		return FormatOKLCH, true
	}
	return "", false
}

// RGB is an 8-bit sRGB triple.
type RGB struct {
	R, G, B uint8
}

// HSL holds hue in degrees [0,360) and saturation/lightness in percent.
type HSL struct {
	H, S, L int
}

// OKLCH holds lightness in [0,1], chroma >= 0 and hue in degrees [0,360).
type OKLCH struct {
	L, C, H float64
}

// Gray is returned for anything that cannot be parsed.
var Gray = RGB{128, 128, 128}

var (
	hexLong  = regexp.MustCompile(`(?i)^#?([a-f\d]{2})([a-f\d]{2})([a-f\d]{2})$`)
	hexShort = regexp.MustCompile(`(?i)^#?([a-f\d])([a-f\d])([a-f\d])$`)
	oklchFn  = regexp.MustCompile(`oklch\(([^)]+)\)`)
	rgbFn    = regexp.MustCompile(`rgb\((\d+),?\s*(\d+),?\s*(\d+)\)`)
	hslFn    = regexp.MustCompile(`hsl\((\d+)\s+(\d+)%\s+(\d+)%`)
	numLead  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

func (c RGB) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func fromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{r, g, b}
}

// HexToRGB parses a 3 or 6 digit hex color with or without the leading '#'.
func HexToRGB(s string) RGB {
	var digits string
	if m := hexLong.FindStringSubmatch(s); m != nil {
		digits = m[1] + m[2] + m[3]
	} else if m := hexShort.FindStringSubmatch(s); m != nil {
		digits = m[1] + m[2] + m[3]
	} else {
		return Gray
	}

	c, err := colorful.Hex("#" + strings.ToLower(digits))
	if err != nil {
		return Gray
	}
	return fromColorful(c)
}

// RGBToHex formats c as a lower case #rrggbb string.
func RGBToHex(c RGB) string {
	return c.colorful().Hex()
}

// RGBToHSL converts c to integer HSL.
func RGBToHSL(c RGB) HSL {
	h, s, l := c.colorful().Hsl()
	hue := int(round(h)) % 360
	return HSL{H: hue, S: int(round(s * 100)), L: int(round(l * 100))}
}

// HSLToRGB converts integer HSL to RGB. Out of range saturation and
// lightness are clamped and the hue wraps around.
func HSLToRGB(h HSL) RGB {
	hue := math.Mod(float64(h.H), 360)
	if hue < 0 {
		hue += 360
	}
	s := clamp(float64(h.S), 0, 100) / 100
	l := clamp(float64(h.L), 0, 100) / 100
	return fromColorful(colorful.Hsl(hue, s, l))
}

// RGBToOKLCH converts c to OKLCH. L is rounded to 2 decimals, C to 3 and H
// to 2. The hue of a color whose chroma rounds to 0 is reported as 0.
func RGBToOKLCH(c RGB) OKLCH {
	o := rgbToOKLCH(c)
	C := roundTo(o.C, 3)
	H := roundTo(o.H, 2)
	if H >= 360 || C == 0 {
		H = 0
	}
	return OKLCH{L: roundTo(o.L, 2), C: C, H: H}
}

// rgbToOKLCH is the unrounded conversion.
func rgbToOKLCH(c RGB) OKLCH {
	lr, lg, lb := c.colorful().LinearRgb()

	l := math.Cbrt(0.4122214708*lr + 0.5363325363*lg + 0.0514459929*lb)
	m := math.Cbrt(0.2119034982*lr + 0.6806995451*lg + 0.1073969566*lb)
	s := math.Cbrt(0.0883024619*lr + 0.2817188376*lg + 0.6299787005*lb)

	L := 0.2104542553*l + 0.7936177850*m - 0.0040720468*s
	a := 1.9779984951*l - 2.4285922050*m + 0.4505937099*s
	b := 0.0259040371*l + 0.7827717662*m - 0.8086757660*s

	C := math.Sqrt(a*a + b*b)
	H := math.Atan2(b, a) * 180 / math.Pi
	if H < 0 {
		H += 360
	}

	return OKLCH{L: L, C: C, H: H}
}

// OKLCHToRGB converts o to RGB, clamping out of gamut channels.
func OKLCHToRGB(o OKLCH) RGB {
	hRad := o.H * math.Pi / 180
	a := o.C * math.Cos(hRad)
	b := o.C * math.Sin(hRad)

	l := o.L + 0.3963377774*a + 0.2158037573*b
	m := o.L - 0.1055613458*a - 0.0638541728*b
	s := o.L - 0.0894841775*a - 1.2914855480*b

	l3, m3, s3 := l*l*l, m*m*m, s*s*s

	r := +4.0767416621*l3 - 3.3077115913*m3 + 0.2309699292*s3
	g := -1.2684380046*l3 + 2.6097574011*m3 - 0.3413193965*s3
	bl := -0.0041960863*l3 - 0.7034186147*m3 + 1.7076147010*s3

	return fromColorful(colorful.LinearRgb(r, g, bl))
}

// ParseToRGB sniffs the textual form of value and converts it to RGB.
// Recognized forms are oklch(...), #hex, rgb(...) and hsl(...).
func ParseToRGB(value string) RGB {
	v := strings.TrimSpace(value)
	if v == "" {
		return Gray
	}

	switch {
	case strings.HasPrefix(v, "oklch("):
		m := oklchFn.FindStringSubmatch(v)
		if m == nil {
			return Gray
		}
		parts := strings.Fields(m[1])
		if len(parts) == 0 {
			return Gray
		}
		var o OKLCH
		o.L = parseLeadingFloat(parts[0])
		if len(parts) >= 2 {
			o.C = parseLeadingFloat(parts[1])
		}
		if len(parts) >= 3 {
			o.H = parseLeadingFloat(parts[2])
		}
		return OKLCHToRGB(o)

	case strings.HasPrefix(v, "#"):
		return HexToRGB(v)

	case strings.HasPrefix(v, "rgb("):
		m := rgbFn.FindStringSubmatch(v)
		if m == nil {
			return Gray
		}
		return RGB{R: byteOf(m[1]), G: byteOf(m[2]), B: byteOf(m[3])}

	case strings.HasPrefix(v, "hsl("):
		m := hslFn.FindStringSubmatch(v)
		if m == nil {
			return Gray
		}
		return HSLToRGB(HSL{H: atoi(m[1]), S: atoi(m[2]), L: atoi(m[3])})
	}

	return Gray
}

// RGBToFormat renders c in format f. Unknown formats render as hex.
func RGBToFormat(c RGB, f Format) string {
	switch f {
	case FormatRGB:
		return "rgb(" + strconv.Itoa(int(c.R)) + ", " + strconv.Itoa(int(c.G)) + ", " + strconv.Itoa(int(c.B)) + ")"
	case FormatHSL:
		h := RGBToHSL(c)
		return "hsl(" + strconv.Itoa(h.H) + " " + strconv.Itoa(h.S) + "% " + strconv.Itoa(h.L) + "%)"
	case FormatOKLCH:
		o := RGBToOKLCH(c)
		return "oklch(" + formatNumber(o.L) + " " + formatNumber(o.C) + " " + formatNumber(o.H) + ")"
	default:
		return RGBToHex(c)
	}
}

// Convert re-renders any recognized color text in format f.
func Convert(value string, f Format) string {
	return RGBToFormat(ParseToRGB(value), f)
}

// Swatch returns the hex form of value, for color pickers and previews.
func Swatch(value string) string {
	return RGBToHex(ParseToRGB(value))
}

// round matches the half-up rounding the browser front-end uses.
func round(x float64) float64 {
	return math.Floor(x + 0.5)
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return round(x*p) / p
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func formatNumber(x float64) string {
	if x == 0 {
		return "0"
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func parseLeadingFloat(s string) float64 {
	m := numLead.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// byteOf saturates digit strings too long for an int at 255.
func byteOf(s string) uint8 {
	n, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		return 255
	}
	if err != nil {
		return 0
	}
	return uint8(clamp(float64(n), 0, 255))
}
