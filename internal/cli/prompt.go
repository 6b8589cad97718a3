package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errAborted = errors.New("aborted")

// prompter reads one answer per line.
type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func newPrompter(r io.Reader, w io.Writer) *prompter {
	return &prompter{r: bufio.NewReader(r), w: w}
}

// ask prints label and returns the trimmed answer. EOF with no input
// aborts.
func (p *prompter) ask(label string) (string, error) {
	fmt.Fprint(p.w, label)
	line, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.w)
			return "", errAborted
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a y/n question; blank takes def.
func (p *prompter) confirm(label string, def bool) (bool, error) {
	ans, err := p.ask(label)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(ans) {
	case "":
		return def, nil
	case "y", "yes", "是":
		return true, nil
	default:
		return false, nil
	}
}
