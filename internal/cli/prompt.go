// Package cli provides interactive prompt helpers.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readLine reads one trimmed line from r.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptLine prints a prompt on stderr and reads the answer from r.
// Prompts go to stderr so piped stdout stays clean.
func promptLine(r io.Reader, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	return readLine(r)
}

// confirm asks a yes/no question and reports whether the user agreed.
// Anything but "yes" or "y" declines.
func confirm(r io.Reader, question string) (bool, error) {
	answer, err := promptLine(r, question+" (yes/no): ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "yes", "y":
		return true, nil
	default:
		return false, nil
	}
}

// promptPassword reads a secret from the terminal with echo disabled.
// Fails when stdin is not a terminal; non-interactive callers should use
// an API key instead.
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal available for password prompt; create an API key for non-interactive use")
	}

	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(secret), nil
}
