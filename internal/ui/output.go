// Package ui renders papercli's CLI output. Styling is driven by a single
// output policy resolved at startup from the application config, the
// NO_COLOR/CLICOLOR conventions, and the terminal state.
package ui

import (
	"os"

	"golang.org/x/term"
)

// Policy captures how output should be rendered for this process: whether
// ANSI color and glyph decorations are allowed, and the usable width.
type Policy struct {
	Color bool
	Emoji bool
	Width int
}

// active is what the style helpers consult. Until Configure runs, output
// stays plain so early errors are safe to print anywhere.
var active = Policy{Width: 80}

// Configure resolves the active output policy. noColor is the
// application's no-color setting; environment conventions and TTY
// detection fill in the rest. Call once after configuration is loaded.
func Configure(noColor bool) {
	tty := IsTerminal()
	active = Policy{
		Color: colorAllowed(noColor, os.Getenv, tty),
		Emoji: emojiAllowed(os.Getenv, tty),
		Width: termWidth(tty),
	}
}

// IsTerminal reports whether stdout is connected to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// colorAllowed layers the color gates. The application config is
// authoritative; then the conventions: NO_COLOR (https://no-color.org/)
// and CLICOLOR=0 disable, CLICOLOR_FORCE enables even off-TTY, and plain
// TTY detection decides the rest. env is injectable for tests.
func colorAllowed(noColor bool, env func(string) string, tty bool) bool {
	switch {
	case noColor:
		return false
	case env("NO_COLOR") != "":
		return false
	case env("CLICOLOR") == "0":
		return false
	case env("CLICOLOR_FORCE") != "":
		return true
	}
	return tty
}

// emojiAllowed gates glyph decorations: off when PAPERCLI_NO_EMOJI is set,
// and off outside a TTY so piped output stays machine-readable.
func emojiAllowed(env func(string) string, tty bool) bool {
	if env("PAPERCLI_NO_EMOJI") != "" {
		return false
	}
	return tty
}

func termWidth(tty bool) int {
	if tty {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return 80
}
