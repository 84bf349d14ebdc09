package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// selectMenu shows items and lets the user choose one with the arrow keys.
// Returns the selected index, or -1 when nothing was chosen.
func selectMenu(prompt string, items []string) int {
	if len(items) == 0 {
		return -1
	}

	// Put stdin into raw mode
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting raw mode: %v\r\n", err)
		return -1
	}
	defer term.Restore(fd, oldState)

	selected := 0
	render := func() {
		for i, item := range items {
			fmt.Print("\033[2K\r")
			if i == selected {
				fmt.Printf("> %s\r\n", item)
			} else {
				fmt.Printf("  %s\r\n", item)
			}
		}
	}

	fmt.Printf("%s\r\n", prompt)
	render()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return -1
		}

		if n == 1 {
			switch buf[0] {
			case 0x0D, 0x0A: // Enter
				return selected
			case 0x03, 0x1B, 'q': // Ctrl-C, Esc, q
				return -1
			}
		} else if n == 3 && buf[0] == 0x1B && buf[1] == '[' {
			moved := false
			switch buf[2] {
			case 'A': // Up arrow
				if selected > 0 {
					selected--
					moved = true
				}
			case 'B': // Down arrow
				if selected < len(items)-1 {
					selected++
					moved = true
				}
			}
			if moved {
				// Move cursor up to the first item and redraw
				fmt.Printf("\033[%dA", len(items))
				render()
			}
		}
	}
}
