package coachctl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// terminalPassword reads without echo when in is a terminal. It returns nil
// otherwise, and passwords are read as plain lines.
func terminalPassword(in io.Reader) func() ([]byte, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return func() ([]byte, error) { return term.ReadPassword(int(f.Fd())) }
}

// line prints prompt and reads one trimmed line. A final line without a
// newline is returned as is.
func (a *App) line(prompt string) (string, error) {
	if _, err := fmt.Fprint(a.out, prompt+": "); err != nil {
		return "", err
	}
	s, err := a.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(s) > 0 {
			return strings.TrimSpace(s), nil
		}
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func (a *App) password() (string, error) {
	if a.readPassword == nil {
		return a.line("Password")
	}

	fmt.Fprint(a.out, "Password: ")
	pw, err := a.readPassword()
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
