package fallback

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalConfirm builds a Confirm that prints prompt to out and reads a
// y/N answer from in. When in is not an interactive terminal (piped input,
// a non-interactive CI run) it declines automatically rather than blocking
// on a read that will never get a real answer — the same guard
// golang.org/x/term gives any CLI that only wants to prompt when there is
// actually a human on the other end.
func TerminalConfirm(in *os.File, out io.Writer) Confirm {
	return func() (bool, error) {
		if !term.IsTerminal(int(in.Fd())) {
			return false, nil
		}

		fmt.Fprint(out, "Proceed with full-package recovery? [y/N] ")

		reader := bufio.NewReader(in)
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}

		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	}
}
