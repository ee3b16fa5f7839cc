package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for Waygate.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Teal-to-indigo gradient.
	s1 := termenv.String(" __    __                        _       ").Foreground(p.Color("#2dd4bf"))
	s2 := termenv.String("/ / /\\ \\ \\__ _ _   _  __ _  __ _| |_ ___ ").Foreground(p.Color("#38bdf8"))
	s3 := termenv.String("\\ \\/  \\/ / _` | | | |/ _` |/ _` | __/ _ \\").Foreground(p.Color("#60a5fa"))
	s4 := termenv.String(" \\  /\\  / (_| | |_| | (_| | (_| | ||  __/").Foreground(p.Color("#818cf8"))
	s5 := termenv.String("  \\/  \\/ \\__,_|\\__, |\\__, |\\__,_|\\__\\___|").Foreground(p.Color("#a78bfa"))
	s6 := termenv.String("               |___/ |___/               ").Foreground(p.Color("#c084fc"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(s6)
	fmt.Println()
}
