// Package buildstat wires the ambient progress and metrics surface
// around an OffTP build: a terminal progress bar for the long node/edge
// passes, and a Prometheus registry a caller can expose over HTTP if it
// wants to watch a build in flight.
package buildstat

import (
	"fmt"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
)

// NewBar renders a themed progress bar in the same style the upstream
// OSM ingest pass uses, labelled with its own step number out of total.
func NewBar(count, step, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(count,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription(stepLabel(step, total)+description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func stepLabel(step, total int) string {
	if step <= 0 || total <= 0 {
		return ""
	}
	return fmt.Sprintf("[cyan][%d/%d][reset] ", step, total)
}
