package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for Tendril.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Green-to-teal gradient.
	s1 := termenv.String("  _                 _      _ _ ").Foreground(p.Color("#4ade80"))
	s2 := termenv.String(" | |_ ___ _ __   __| |_ __(_) |").Foreground(p.Color("#34d399"))
	s3 := termenv.String(" | __/ _ \\ '_ \\ / _` | '__| | |").Foreground(p.Color("#2dd4bf"))
	s4 := termenv.String(" | ||  __/ | | | (_| | |  | | |").Foreground(p.Color("#22d3ee"))
	s5 := termenv.String("  \\__\\___|_| |_|\\__,_|_|  |_|_|").Foreground(p.Color("#38bdf8"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
}
