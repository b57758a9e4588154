package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// terminalPrompter asks the operator to transcribe a challenge image. The
// image is written to a temp file for the operator to open; the answer is
// read from stdin. Dismissal (EOF or a blank line) reports an empty answer.
type terminalPrompter struct {
	in *bufio.Reader
}

func newTerminalPrompter() *terminalPrompter {
	return &terminalPrompter{in: bufio.NewReader(os.Stdin)}
}

func (p *terminalPrompter) Prompt(ctx context.Context, png []byte) (string, error) {
	path := filepath.Join(os.TempDir(), "captcha_prompt.png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", eris.Wrap(err, "write challenge image for operator")
	}
	defer os.Remove(path) //nolint:errcheck

	fmt.Printf("\nChallenge image saved to %s\n", path)
	fmt.Print("Open it and type the text (lowercase), or press Enter to skip: ")

	// Stdin reads cannot be interrupted; poll the context from the side
	// so a stop request dismisses the prompt.
	type lineResult struct {
		text string
		err  error
	}
	ch := make(chan lineResult, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		ch <- lineResult{text: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil && res.text == "" {
			return "", nil // EOF counts as dismissal
		}
		return strings.ToLower(strings.TrimSpace(res.text)), nil
	}
}
