package repl

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"vanilla/internal/history"
	"vanilla/internal/interp"
	"vanilla/internal/util"
)

const PROMPT = ">> "

// Start runs the interactive loop until in is exhausted. Each line keeps the
// declarations and bindings of the lines before it. When in is not a
// terminal (piped input) no prompt is printed.
func Start(in io.Reader, out io.Writer, config util.Configuration) {
	session := interp.NewSession(out)
	prompt := config.Prompt
	if prompt == "" {
		prompt = PROMPT
	}

	var store *history.Store
	if config.HistoryFile != "" {
		var err error
		store, err = history.Open(config.HistoryFile)
		if err != nil {
			slog.Warn("history disabled", slog.String("error", err.Error()))
		} else {
			defer store.Close()
		}
	}

	interactive := isTerminal(in)
	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, prompt)
		}
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if store != nil {
			if err := store.Append(line); err != nil {
				slog.Warn("history append failed", slog.String("error", err.Error()))
			}
		}

		result, err := session.Eval(line)
		if err != nil {
			fmt.Fprintln(out, err.Error())
			continue
		}
		fmt.Fprintln(out, result.Inspect())
	}
}

func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
