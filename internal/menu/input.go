package menu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// errInvalidNumber is reported when a selection is not a listed number.
var errInvalidNumber = errors.New("invalid number")

// prompt prints label and reads one trimmed line. A final line without a
// newline is still returned; io.EOF means there was nothing left to read.
func (m *Menu) prompt(label string) (string, error) {
	if _, err := fmt.Fprint(m.out, label); err != nil {
		return "", err
	}
	line, err := m.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// password prints label and reads a secret without echo when attached to
// a terminal.
func (m *Menu) password(label string) (string, error) {
	if _, err := fmt.Fprint(m.out, label); err != nil {
		return "", err
	}
	return m.readPassword()
}

// choose asks for a 1-based position in a list of n entries.
func (m *Menu) choose(label string, n int) (int, error) {
	raw, err := m.prompt(label)
	if err != nil {
		return 0, err
	}
	i, err := strconv.Atoi(raw)
	if err != nil || i < 1 || i > n {
		return 0, errInvalidNumber
	}
	return i - 1, nil
}

// confirm reports whether the answer to label is "yes".
func (m *Menu) confirm(label string) (bool, error) {
	answer, err := m.prompt(label)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, "yes"), nil
}

// passwordReader picks term.ReadPassword for a terminal on in and plain
// line reads otherwise.
func passwordReader(in io.Reader, lines *bufio.Reader, out io.Writer) func() (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return func() (string, error) {
			pw, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(out)
			if err != nil {
				return "", err
			}
			return string(pw), nil
		}
	}
	return func() (string, error) {
		line, err := lines.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}
