package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/segmentio/fasthash/fnv1a"

	"rmxp-autotile/internal/autotile"
)

const (
	ESC   = "\x1b"
	CSI   = ESC + "["
	Reset = CSI + "0m"

	// TileWidth is how many screen columns each map cell occupies.
	// 2 makes cells appear roughly square and leaves room for a two-digit variant.
	TileWidth = 2
)

// MoveTo positions the cursor at row, col (1-based).
func MoveTo(row, col int) string {
	return fmt.Sprintf("%s%d;%dH", CSI, row, col)
}

// EnterEditor switches an SSH client to the alternate screen, hides its
// cursor and clears it. LeaveEditor undoes it when the session ends.
func EnterEditor() string {
	return CSI + "?1049h" + CSI + "?25l" + CSI + "2J"
}

func LeaveEditor() string {
	return CSI + "?25h" + CSI + "?1049l"
}

// groupPalette holds the tints autotile groups are drawn on, picked by hash.
var groupPalette = [][3]uint8{
	{0, 170, 0},
	{0, 0, 170},
	{170, 170, 0},
	{0, 170, 170},
	{170, 0, 170},
	{170, 0, 0},
	{85, 255, 85},
	{85, 85, 255},
	{255, 255, 85},
	{85, 255, 255},
	{255, 85, 255},
	{255, 85, 85},
}

// GroupColor picks the color of an autotile group. The same group key maps
// to the same color in every session and every run.
func GroupColor(key autotile.GroupKey) (uint8, uint8, uint8) {
	c := groupPalette[fnv1a.HashString64(key.String())%uint64(len(groupPalette))]
	return c[0], c[1], c[2]
}

// WriteCellSGR writes one screen cell as a full reset+truecolor SGR followed
// by its rune, so no attribute carries over to the next cell.
func WriteCellSGR(sb *strings.Builder, c Cell) {
	sb.WriteString(CSI + "0")
	if c.Bold {
		sb.WriteString(";1")
	}
	writeRGB(sb, ";38;2;", c.FgR, c.FgG, c.FgB)
	writeRGB(sb, ";48;2;", c.BgR, c.BgG, c.BgB)
	sb.WriteByte('m')
	sb.WriteRune(c.Ch)
}

func writeRGB(sb *strings.Builder, prefix string, r, g, b uint8) {
	sb.WriteString(prefix)
	sb.WriteString(strconv.Itoa(int(r)))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(int(g)))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(int(b)))
}
