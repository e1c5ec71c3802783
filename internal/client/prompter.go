package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter is the interactive side of a session
type Prompter interface {
	// Ask shows question, with options when given, and returns the trimmed answer
	Ask(question string, options ...string) (string, error)
	// Show displays a line of information
	Show(format string, args ...any)
}

// TerminalPrompter reads answers line by line from in and writes to out
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPrompter creates a TerminalPrompter
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

func (p *TerminalPrompter) Ask(question string, options ...string) (string, error) {
	for {
		if len(options) > 0 {
			fmt.Fprintf(p.out, "%s (%s): ", question, strings.Join(options, " / "))
		} else {
			fmt.Fprintf(p.out, "%s: ", question)
		}

		line, err := p.in.ReadString('\n')
		answer := strings.TrimSpace(line)
		if err != nil && (err != io.EOF || answer == "") {
			return "", err
		}

		if len(options) == 0 || contains(options, answer) {
			return answer, nil
		}
		fmt.Fprintf(p.out, "Please answer one of: %s\n", strings.Join(options, ", "))
		if err == io.EOF {
			return "", err
		}
	}
}

func (p *TerminalPrompter) Show(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
