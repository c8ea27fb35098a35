package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// errNoInput is returned when the input ends before an answer was read.
var errNoInput = errors.New("no input")

// prompter reads answers line by line. The menu and the purge confirmation
// share one prompter so that buffered input is never lost between them.
type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// newPrompter creates a prompter reading from in and asking on out.
func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{scanner: bufio.NewScanner(in), out: out}
}

// ask prints question and returns the trimmed answer.
func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", errNoInput
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// askInt asks until the answer is an integer.
func (p *prompter) askInt(question string) (int, error) {
	for {
		answer, err := p.ask(question)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil {
			return n, nil
		}
		fmt.Fprintf(p.out, "%q is not a number.\n", answer)
	}
}

// confirm asks a yes/no question. Anything but "y" or "yes" means no.
func (p *prompter) confirm(question string) (bool, error) {
	answer, err := p.ask(question + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
