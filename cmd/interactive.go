package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"

	"golang.org/x/term"
)

// interactiveSelect lets the user move through lines with the arrow keys
// and press Enter to invoke onSelect for the highlighted entry. Esc or a
// bare Ctrl-C leaves the list.
func interactiveSelect(lines []string, onSelect func(int)) {
	if len(lines) == 0 {
		return
	}

	if runtime.GOOS == "windows" {
		enableVT()
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Println("(interactive selection not supported on this terminal)")
		return
	}
	defer term.Restore(fd, oldState)

	reader := bufio.NewReader(os.Stdin)
	selected := 0

	redraw := func() {
		fmt.Print("\033[H\033[2J")
		for i, l := range lines {
			prefix := "  "
			if i == selected {
				prefix = "> "
			}
			fmt.Println(prefix + l)
		}
		fmt.Println("(up/down to navigate, Enter for details, Esc to quit)")
	}

	moveUp := func() {
		if selected > 0 {
			selected--
			redraw()
		}
	}
	moveDown := func() {
		if selected < len(lines)-1 {
			selected++
			redraw()
		}
	}

	// Runs onSelect in cooked mode, then returns to the list.
	show := func() bool {
		term.Restore(fd, oldState)
		fmt.Println()
		onSelect(selected)

		fmt.Print("\n(press Enter to return)")
		_, _ = bufio.NewReader(os.Stdin).ReadBytes('\n')

		oldState, err = term.MakeRaw(fd)
		if err != nil {
			return false
		}
		reader = bufio.NewReader(os.Stdin)
		redraw()
		return true
	}

	redraw()

	for {
		b1, err := reader.ReadByte()
		if err != nil {
			return
		}

		// Windows console arrow sequences (0 or 224, then a code).
		if b1 == 0 || b1 == 224 {
			b2, _ := reader.ReadByte()
			switch b2 {
			case 72:
				moveUp()
			case 80:
				moveDown()
			case 13:
				if !show() {
					return
				}
			}
			continue
		}

		switch b1 {
		case 27: // bare ESC exits; ESC [ A/B are the ANSI arrows
			if reader.Buffered() == 0 {
				fmt.Println()
				return
			}
			b2, _ := reader.ReadByte()
			if b2 != '[' || reader.Buffered() == 0 {
				continue
			}
			b3, _ := reader.ReadByte()
			switch b3 {
			case 'A':
				moveUp()
			case 'B':
				moveDown()
			}
		case '\r', '\n':
			if !show() {
				return
			}
		case 3: // Ctrl-C
			fmt.Println()
			return
		}
	}
}

// promptPassword reads a password without echoing it. Falls back to a plain
// line read when stdin is not a terminal (e.g. piped input).
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
