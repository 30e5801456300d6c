package scanner

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

const (
	// MinNameWidth is the narrowest the name column is ever rendered.
	MinNameWidth = 20

	sizeWidth = 12

	mebibyte = 1 << 20
	gibibyte = 1 << 30
)

// RenderOptions controls table rendering.
type RenderOptions struct {
	// Color enables ANSI colors for header, rows and total.
	Color bool
}

// palette holds the per-render color objects. Each render builds its own so
// enabling or disabling color never touches process-wide state.
type palette struct {
	bold   *color.Color
	large  *color.Color
	medium *color.Color
	small  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		bold:   color.New(color.Bold),
		large:  color.New(color.FgRed),
		medium: color.New(color.FgYellow),
		small:  color.New(color.FgGreen),
	}

	for _, c := range []*color.Color{p.bold, p.large, p.medium, p.small} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return p
}

func (p palette) forSize(size uint64) *color.Color {
	switch {
	case size > gibibyte:
		return p.large
	case size > mebibyte:
		return p.medium
	default:
		return p.small
	}
}

// NameWidth returns the width of the name column for entries: the longest
// name, but never less than MinNameWidth.
func NameWidth(entries []Entry) int {
	width := MinNameWidth

	for _, e := range entries {
		if n := utf8.RuneCountInString(e.Name); n > width {
			width = n
		}
	}

	return width
}

// Render writes res as a two-column table followed by a total row.
func Render(w io.Writer, res *Result, opt RenderOptions) error {
	bw := bufio.NewWriter(w)
	p := newPalette(opt.Color)
	width := NameWidth(res.Entries)
	rule := strings.Repeat("-", width+15)

	fmt.Fprintln(bw, p.bold.Sprintf("%-*s %*s", width, "Directory Name", sizeWidth, "Size"))
	fmt.Fprintln(bw, rule)

	for _, e := range res.Entries {
		fmt.Fprintln(bw, p.forSize(e.Size).Sprintf("%-*s %*s", width, e.Name, sizeWidth, FormatSize(e.Size)))
	}

	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, p.bold.Sprintf("%-*s %*s", width, "Total", sizeWidth, FormatSize(res.Total)))

	return bw.Flush()
}
