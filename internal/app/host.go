package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"onepass/internal/keeper"
)

// SystemClipboard is the desktop clipboard.
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// NewSystemClipboard returns the desktop clipboard, or nil when the platform
// has no clipboard utility installed.
func NewSystemClipboard() keeper.Clipboard {
	if clipboard.Unsupported {
		return nil
	}
	return SystemClipboard{}
}

// TerminalDialogs answers file dialogs by prompting on a terminal. When Path
// is set it is returned without prompting. An empty answer selects the
// proposed name for saves and dismisses opens; end of input dismisses both.
type TerminalDialogs struct {
	In   io.Reader
	Out  io.Writer
	Path string
}

func (d *TerminalDialogs) SaveFile(title, defaultName string) (string, bool, error) {
	if d.Path != "" {
		return d.Path, true, nil
	}
	fmt.Fprintf(d.Out, "%s [%s]: ", title, defaultName)
	answer, err := readLine(d.In)
	if errors.Is(err, io.EOF) && answer == "" {
		return "", false, nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, err
	}
	if answer == "" {
		answer = defaultName
	}
	return answer, true, nil
}

func (d *TerminalDialogs) OpenFile(title string) (string, bool, error) {
	if d.Path != "" {
		return d.Path, true, nil
	}
	fmt.Fprintf(d.Out, "%s: ", title)
	answer, err := readLine(d.In)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, err
	}
	return answer, answer != "", nil
}

// PromptSecret writes prompt to out and reads one line from in. Echo is
// disabled when in is a terminal.
func PromptSecret(in *os.File, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	if term.IsTerminal(int(in.Fd())) {
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	line, err := readLine(in)
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return line, nil
}

// ReadLine reads one line from r without the trailing newline.
func ReadLine(r io.Reader) (string, error) {
	return readLine(r)
}

// readLine reads byte by byte so nothing past the newline is consumed from
// r; later prompts read from the same stream.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				return strings.TrimSuffix(sb.String(), "\r"), nil
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			return strings.TrimSuffix(sb.String(), "\r"), err
		}
	}
}
