package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// errQuit is returned by choice when the player asks to finish now.
var errQuit = errors.New("quit requested")

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// line reads one trimmed line. EOF with no input is an error.
func (p *prompter) line(label string) (string, error) {
	if label != "" {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// lineOr returns def when the answer is empty.
func (p *prompter) lineOr(label, def string) (string, error) {
	s, err := p.line(fmt.Sprintf("%s [%s]", label, def))
	if err != nil || s != "" {
		return s, err
	}
	return def, nil
}

// choice asks for a 1-based option and returns it 0-based. "q" returns errQuit.
func (p *prompter) choice(n int) (int, error) {
	for {
		s, err := p.line(fmt.Sprintf("answer 1-%d (q to finish)", n))
		if err != nil {
			return 0, err
		}
		if strings.EqualFold(s, "q") {
			return 0, errQuit
		}
		v, err := strconv.Atoi(s)
		if err == nil && v >= 1 && v <= n {
			return v - 1, nil
		}
		fmt.Fprintf(p.out, "pick a number between 1 and %d\n", n)
	}
}

func (p *prompter) confirm(label string) (bool, error) {
	s, err := p.line(label + " [y/N]")
	if err != nil {
		return false, err
	}
	s = strings.ToLower(s)
	return s == "y" || s == "yes", nil
}
