package core

// Color represents a foreground color for a screen cell.
// Uses ANSI 256-color codes for terminal compatibility.
type Color uint8

// Predefined colors for screen elements.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightMagenta
	ColorBrightCyan
	ColorBrightWhite
	ColorOrange
	ColorGray
)

// RGB is a 24-bit color as carried by simulation objects.
type RGB [3]uint8

// palette holds approximate RGB values for the named colors.
var palette = []struct {
	color Color
	rgb   RGB
}{
	{ColorRed, RGB{205, 0, 0}},
	{ColorGreen, RGB{0, 205, 0}},
	{ColorYellow, RGB{205, 205, 0}},
	{ColorBlue, RGB{0, 0, 238}},
	{ColorMagenta, RGB{205, 0, 205}},
	{ColorCyan, RGB{0, 205, 205}},
	{ColorWhite, RGB{229, 229, 229}},
	{ColorBrightRed, RGB{255, 0, 0}},
	{ColorBrightGreen, RGB{0, 255, 0}},
	{ColorBrightYellow, RGB{255, 255, 0}},
	{ColorBrightBlue, RGB{92, 92, 255}},
	{ColorBrightMagenta, RGB{255, 0, 255}},
	{ColorBrightCyan, RGB{0, 255, 255}},
	{ColorBrightWhite, RGB{255, 255, 255}},
	{ColorOrange, RGB{255, 135, 0}},
	{ColorGray, RGB{138, 138, 138}},
}

// NearestColor maps an RGB value to the closest predefined color.
// Ties resolve to the color listed first.
func NearestColor(c RGB) Color {
	best := ColorDefault
	bestDist := -1
	for _, p := range palette {
		dr := int(c[0]) - int(p.rgb[0])
		dg := int(c[1]) - int(p.rgb[1])
		db := int(c[2]) - int(p.rgb[2])
		d := dr*dr + dg*dg + db*db
		if bestDist < 0 || d < bestDist {
			best = p.color
			bestDist = d
		}
	}
	return best
}
