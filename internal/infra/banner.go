package infra

import (
	"fmt"
	"io"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner writes the startup banner. The color reflects whether
// transactions can be signed: green for a local dev chain, red otherwise.
func PrintBanner(w io.Writer, cfg *Config) {
	color := ColorGreen
	network := "LOCAL DEV CHAIN"
	if cfg.Chain.ChainID != 31337 && cfg.Chain.ChainID != 1337 {
		color = ColorRed
		network = fmt.Sprintf("CHAIN %d", cfg.Chain.ChainID)
	}
	signing := "dry run (nothing is signed)"
	if cfg.Chain.Mode == ModeLive {
		signing = "LIVE"
	}

	line := func(format string, args ...any) {
		fmt.Fprintf(w, "%s"+format+"%s\n", append(append([]any{color}, args...), ColorReset)...)
	}

	fmt.Fprintln(w)
	line("###########################################################")
	line("#                                                         #")
	line("#               Rollup Order Book Client                  #")
	line("#                                                         #")
	line("#   NETWORK: %-44s #", network)
	line("#   ROLLUP:  %-44s #", cfg.Chain.Rollup)
	line("#   API:     %-44s #", cfg.API.BaseURL)
	line("#   SIGNING: %-44s #", signing)
	line("#   VERSION: %-44s #", cfg.App.Version)
	line("#                                                         #")
	if color == ColorRed && cfg.Chain.Mode == ModeLive {
		fmt.Fprintf(w, "%s#   WARNING: SIGNING ON A NON-LOCAL CHAIN                 #%s\n", ColorYellow, ColorReset)
	}
	line("###########################################################")
	fmt.Fprintln(w)
}
