package color

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHexToRGB(t *testing.T) {
	cases := []struct {
		in   string
		want RGB
	}{
		{"#ff8000", RGB{255, 128, 0}},
		{"FF8000", RGB{255, 128, 0}},
		{"#fa0", RGB{255, 170, 0}},
		{"abc", RGB{170, 187, 204}},
		{"#000000", RGB{0, 0, 0}},
		{"#12345", Gray},
		{"#gg0000", Gray},
		{"", Gray},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, HexToRGB(tc.in))
		})
	}
}

func TestHexRoundTripIsExact(t *testing.T) {
	for r := 0; r < 256; r += 3 {
		for g := 0; g < 256; g += 5 {
			for b := 0; b < 256; b += 7 {
				c := RGB{uint8(r), uint8(g), uint8(b)}
				require.Equal(t, c, HexToRGB(RGBToHex(c)))
			}
		}
	}
	require.Equal(t, RGB{255, 255, 255}, HexToRGB(RGBToHex(RGB{255, 255, 255})))
}

func TestRGBToHSL(t *testing.T) {
	cases := []struct {
		in   RGB
		want HSL
	}{
		{RGB{255, 0, 0}, HSL{0, 100, 50}},
		{RGB{0, 255, 0}, HSL{120, 100, 50}},
		{RGB{0, 0, 255}, HSL{240, 100, 50}},
		{RGB{255, 255, 255}, HSL{0, 0, 100}},
		{RGB{23, 23, 23}, HSL{0, 0, 9}},
		{RGB{255, 0, 4}, HSL{359, 100, 50}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, RGBToHSL(tc.in), "rgb %v", tc.in)
	}
}

func TestHSLToRGB(t *testing.T) {
	require.Equal(t, RGB{255, 0, 0}, HSLToRGB(HSL{0, 100, 50}))
	require.Equal(t, RGB{23, 23, 23}, HSLToRGB(HSL{0, 0, 9}))
	require.Equal(t, RGB{250, 250, 250}, HSLToRGB(HSL{0, 0, 98}))
	require.Equal(t, RGB{0, 0, 255}, HSLToRGB(HSL{600, 100, 50}))
	require.Equal(t, RGB{255, 255, 255}, HSLToRGB(HSL{0, 150, 150}))
}

func maxChannelDelta(a, b RGB) int {
	d := func(x, y uint8) int {
		return int(math.Abs(float64(x) - float64(y)))
	}
	return max(d(a.R, b.R), d(a.G, b.G), d(a.B, b.B))
}

func TestOKLCHRoundTrip(t *testing.T) {
	for r := 0; r < 256; r += 17 {
		for g := 0; g < 256; g += 17 {
			for b := 0; b < 256; b += 17 {
				c := RGB{uint8(r), uint8(g), uint8(b)}

				raw := OKLCHToRGB(rgbToOKLCH(c))
				require.LessOrEqual(t, maxChannelDelta(c, raw), 2, "rgb %v came back as %v", c, raw)

				// Two decimals of L are coarser than one 8-bit step near the top of the range.
				rounded := OKLCHToRGB(RGBToOKLCH(c))
				require.LessOrEqual(t, maxChannelDelta(c, rounded), 17, "rgb %v came back as %v", c, rounded)
			}
		}
	}
}

func TestRGBToOKLCHRoundsRawValues(t *testing.T) {
	c := RGB{1, 255, 255}
	raw := rgbToOKLCH(c)
	got := RGBToOKLCH(c)
	require.Equal(t, roundTo(raw.L, 2), got.L)
	require.Equal(t, roundTo(raw.C, 3), got.C)
	require.Equal(t, roundTo(raw.H, 2), got.H)
}

func TestRGBToOKLCHKnownValues(t *testing.T) {
	white := RGBToOKLCH(RGB{255, 255, 255})
	require.Equal(t, 1.0, white.L)
	require.Equal(t, 0.0, white.C)
	require.Equal(t, 0.0, white.H)
	require.NotZero(t, rgbToOKLCH(RGB{255, 255, 255}).H)

	black := RGBToOKLCH(RGB{0, 0, 0})
	require.Equal(t, 0.0, black.L)

	red := RGBToOKLCH(RGB{255, 0, 0})
	require.InDelta(t, 0.63, red.L, 0.001)
	require.InDelta(t, 0.258, red.C, 0.001)
	require.InDelta(t, 29.23, red.H, 0.05)
	require.GreaterOrEqual(t, red.H, 0.0)
	require.Less(t, red.H, 360.0)
}

func TestOKLCHScenarioThroughHex(t *testing.T) {
	back := RGBToOKLCH(HexToRGB(RGBToHex(ParseToRGB("oklch(0.6 0.1 180)"))))
	require.InDelta(t, 0.6, back.L, 0.01)
	require.InDelta(t, 0.1, back.C, 0.005)
	require.InDelta(t, 180, back.H, 2)
}

func TestOKLCHOutOfGamutClamps(t *testing.T) {
	rgb := ParseToRGB("oklch(0.5 0.1 180)")
	require.Equal(t, RGB{0, 117, 101}, rgb)

	back := RGBToOKLCH(rgb)
	require.InDelta(t, 0.5, back.L, 0.01)
	require.InDelta(t, 0.092, back.C, 0.001)
	require.InDelta(t, 178.83, back.H, 0.05)
}

func TestParseToRGB(t *testing.T) {
	cases := []struct {
		in   string
		want RGB
	}{
		{"not-a-color", Gray},
		{"", Gray},
		{"   ", Gray},
		{"#fff", RGB{255, 255, 255}},
		{"rgb(10, 20, 30)", RGB{10, 20, 30}},
		{"rgb(10 20 30)", RGB{10, 20, 30}},
		{"rgb(300, 0, 0)", RGB{255, 0, 0}},
		{"rgb(0, 0, 99999999999999999999)", RGB{0, 0, 255}},
		{"hsl(0 0% 9%)", RGB{23, 23, 23}},
		{"hsl(0, 0%, 9%)", Gray},
		{"oklch(1 0 0)", RGB{255, 255, 255}},
		{"oklch(0 0 0)", RGB{0, 0, 0}},
		{"oklch(", Gray},
		{"  #000  ", RGB{0, 0, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, ParseToRGB(tc.in))
		})
	}
}

func TestRGBToFormat(t *testing.T) {
	c := RGB{255, 0, 0}
	require.Equal(t, "#ff0000", RGBToFormat(c, FormatHex))
	require.Equal(t, "rgb(255, 0, 0)", RGBToFormat(c, FormatRGB))
	require.Equal(t, "hsl(0 100% 50%)", RGBToFormat(c, FormatHSL))
	require.Equal(t, "oklch(0.63 0.258 29.23)", RGBToFormat(c, FormatOKLCH))
	require.Equal(t, "#ff0000", RGBToFormat(c, Format("cmyk")))
	require.Equal(t, "oklch(1 0 0)", RGBToFormat(RGB{255, 255, 255}, FormatOKLCH))
}

func TestConvert(t *testing.T) {
	require.Equal(t, "#171717", Convert("hsl(0 0% 9%)", FormatHex))
	require.Equal(t, "hsl(0 0% 9%)", Convert("#171717", FormatHSL))
	require.Equal(t, "rgb(128, 128, 128)", Convert("garbage", FormatRGB))
	require.Equal(t, "#808080", Swatch("garbage"))
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, ok := ParseFormat(" " + string(f) + " ")
		require.True(t, ok)
		require.Equal(t, f, got)
	}
	got, ok := ParseFormat("OKLCH")
	require.True(t, ok)
	require.Equal(t, FormatOKLCH, got)

	_, ok = ParseFormat("cmyk")
	require.False(t, ok)
}
