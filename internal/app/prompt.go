package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompt asks the user for input interactively
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompt creates a prompt reading answers from in
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// Ask offers pasting text or giving a file path. A file that cannot be
// read is reported and the menu is shown again; empty pasted text is an
// input error
func (p *Prompt) Ask() (Input, error) {
	for {
		choice, err := p.question("\nChoose input method:\n1. Paste text\n2. Provide file path\n> ")
		if err != nil {
			return Input{}, err
		}

		switch choice {
		case "1":
			text, err := p.question("\nPaste your text here:\n> ")
			if err != nil {
				return Input{}, err
			}
			if text == "" {
				return Input{}, &Error{Stage: StageInput, Err: ErrEmptyInput}
			}
			return Input{Text: text, Origin: OriginPasted}, nil

		case "2":
			path, err := p.question("\nEnter the file path:\n> ")
			if err != nil {
				return Input{}, err
			}
			in, err := InputFromFile(path)
			if err != nil {
				fmt.Fprintf(p.out, "\n%v\n", errors.Unwrap(err))
				continue
			}
			return in, nil

		default:
			fmt.Fprintln(p.out, "\nInvalid choice. Please enter '1' or '2'.")
		}
	}
}

// question prints q and returns the trimmed answer line. EOF with no answer
// is an input error so a closed stdin cannot loop forever
func (p *Prompt) question(q string) (string, error) {
	fmt.Fprint(p.out, q)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", &Error{Stage: StageInput, Err: fmt.Errorf("no input: %w", io.ErrUnexpectedEOF)}
		}
		return "", &Error{Stage: StageInput, Err: err}
	}
	return strings.TrimSpace(line), nil
}
