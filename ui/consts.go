package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// The base TESTSMITH banner, 6 rows tall.
var bannerRaw = `████████╗███████╗███████╗████████╗███████╗███╗   ███╗██╗████████╗██╗  ██╗
╚══██╔══╝██╔════╝██╔════╝╚══██╔══╝██╔════╝████╗ ████║██║╚══██╔══╝██║  ██║
   ██║   █████╗  ███████╗   ██║   ███████╗██╔████╔██║██║   ██║   ███████║
   ██║   ██╔══╝  ╚════██║   ██║   ╚════██║██║╚██╔╝██║██║   ██║   ██╔══██║
   ██║   ███████╗███████║   ██║   ███████║██║ ╚═╝ ██║██║   ██║   ██║  ██║
   ╚═╝   ╚══════╝╚══════╝   ╚═╝   ╚══════╝╚═╝     ╚═╝╚═╝   ╚═╝   ╚═╝  ╚═╝`

// Block-art glyphs, each 6 rows to match the banner height.
// period: small block sitting at the bottom.
var blockPeriod = [6]string{
	"   ",
	"   ",
	"   ",
	"   ",
	"██╗",
	"╚═╝",
}

// bannerFrames are precomputed gradient-rendered banner strings.
// Animation: base → . → .. → ... → .. → . → (loop)
var bannerFrames = func() []string {
	base := strings.Split(bannerRaw, "\n")

	type glyph = [6]string
	suffixes := [][]glyph{
		{},
		{blockPeriod},
		{blockPeriod, blockPeriod},
		{blockPeriod, blockPeriod, blockPeriod},
		{blockPeriod, blockPeriod},
		{blockPeriod},
	}

	frames := make([]string, len(suffixes))
	for i, glyphs := range suffixes {
		lines := make([]string, 6)
		copy(lines, base)
		for _, g := range glyphs {
			for row := 0; row < 6; row++ {
				lines[row] += " " + g[row]
			}
		}
		frames[i] = GradientText(strings.Join(lines, "\n"), GradientStart, GradientEnd)
	}
	return frames
}()

// BannerWidth is the widest the banner gets, dots included.
var BannerWidth = runewidth.StringWidth(strings.Split(bannerRaw, "\n")[0]) + 3*len(" "+blockPeriod[0])

// BannerLines returns the pre-rendered gradient banner as individual lines
// for the given animation frame. Always returns exactly 6 lines.
func BannerLines(frame int) []string {
	banner := bannerFrames[frame%len(bannerFrames)]
	return strings.Split(banner, "\n")
}

// Banner returns the banner for the given frame when it fits in width,
// otherwise a one-line gradient title.
func Banner(frame, width int) string {
	if width < BannerWidth {
		return GradientText("testsmith", GradientStart, GradientEnd)
	}
	return bannerFrames[frame%len(bannerFrames)]
}
