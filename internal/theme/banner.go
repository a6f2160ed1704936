package theme

import (
	"fmt"
	"io"
)

// ANSI colors for the island palette
const (
	cyan    = "\033[36m"
	magenta = "\033[35m"
	yellow  = "\033[33m"
	reset   = "\033[0m"
)

// Banner returns the BermudaGo banner.
func Banner() string {
	art := "" +
		"  ~≈~   " + magenta + "BERMUDAGO" + reset + "   ~≈~\n" +
		cyan + "   ▄▄▄▄   bus  ·  ferry  ·  island\n" + reset +
		yellow + "     ────────────────────────────\n" + reset +
		"   discover Bermuda's hidden treasures\n"
	waves := cyan + "     ≈≈≈   ≈≈≈   ≈≈≈   ≈≈≈   ≈≈≈\n" + reset
	return art + waves
}

// FprintBanner writes the banner to w.
func FprintBanner(w io.Writer) {
	fmt.Fprint(w, Banner())
}

// Header renders a section title in the banner colors.
func Header(title string) string {
	return yellow + title + reset
}
