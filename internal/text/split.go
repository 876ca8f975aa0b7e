// Package text splits, shapes and rasterizes overlay text.
package text

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Splitter breaks text into at most maxLines lines joined by "\n".
type Splitter interface {
	Split(ctx context.Context, text string, maxLines int) (string, error)
}

// WordCount is the local splitter: it spreads words evenly over as few lines
// as WordsPerLine allows, capped at maxLines.
type WordCount struct {
	WordsPerLine int
}

func (w WordCount) Split(_ context.Context, text string, maxLines int) (string, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "", nil
	}
	per := w.WordsPerLine
	if per <= 0 {
		per = 3
	}
	if maxLines <= 0 {
		maxLines = 1
	}

	n := int(math.Ceil(float64(len(words)) / float64(per)))
	n = max(1, min(n, maxLines, len(words)))

	lines := make([]string, 0, n)
	start := 0
	for i := 0; i < n; i++ {
		// remaining words over remaining lines, front lines take the extra
		take := int(math.Ceil(float64(len(words)-start) / float64(n-i)))
		lines = append(lines, strings.Join(words[start:start+take], " "))
		start += take
	}
	return strings.Join(lines, "\n"), nil
}

// Fallback uses Primary when it answers with a usable split and Local otherwise.
type Fallback struct {
	Primary Splitter
	Local   Splitter
	Logger  zerolog.Logger
}

var errBadSplit = errors.New("split result empty or too long")

func (f Fallback) Split(ctx context.Context, text string, maxLines int) (string, error) {
	if f.Primary != nil {
		out, err := f.Primary.Split(ctx, text, maxLines)
		if err == nil && (out == "" || CountLines(out) > maxLines) {
			err = errBadSplit
		}
		if err == nil {
			return out, nil
		}
		f.Logger.Warn().Err(err).Msg("line splitter unavailable, using word-count fallback")
	}
	local := f.Local
	if local == nil {
		local = WordCount{}
	}
	return local.Split(ctx, text, maxLines)
}

// CountLines counts non-empty lines.
func CountLines(s string) int {
	n := 0
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			n++
		}
	}
	return n
}

// TrimLines strips trailing whitespace from every line and drops empty ones.
func TrimLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		l = strings.TrimRight(l, " \t\r")
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// Command asks an external program for line breaks. The text is written to
// stdin; "{lines}" in Args is replaced by maxLines.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a command line on whitespace. An empty line yields nil.
func ParseCommand(line string) *Command {
	f := strings.Fields(line)
	if len(f) == 0 {
		return nil
	}
	return &Command{Name: f[0], Args: f[1:]}
}

func (c *Command) Split(ctx context.Context, text string, maxLines int) (string, error) {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = strings.ReplaceAll(a, "{lines}", strconv.Itoa(maxLines))
	}
	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Name, args...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", c.Name, err, strings.TrimSpace(stderr.String()))
	}
	return strings.Join(TrimLines(out.String()), "\n"), nil
}
