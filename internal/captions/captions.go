// Package captions builds subtitle cues for the narration and writes them as SRT.
package captions

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Cue is one subtitle entry; times are seconds from the start of the narration.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// Build splits script into cues of at most maxChars characters, breaking early
// at sentence ends, and spreads duration over them by character count.
func Build(script string, duration float64, maxChars int) []Cue {
	if maxChars <= 0 {
		maxChars = 42
	}
	chunks := chunk(strings.Fields(script), maxChars)
	if len(chunks) == 0 || duration <= 0 {
		return nil
	}

	total := 0
	for _, c := range chunks {
		total += utf8.RuneCountInString(c)
	}

	cues := make([]Cue, 0, len(chunks))
	at := 0.0
	for i, c := range chunks {
		d := duration * float64(utf8.RuneCountInString(c)) / float64(total)
		end := at + d
		if i == len(chunks)-1 {
			end = duration
		}
		cues = append(cues, Cue{Start: at, End: end, Text: c})
		at = end
	}
	return cues
}

func chunk(words []string, maxChars int) []string {
	var out []string
	line := ""
	for _, w := range words {
		if line != "" && utf8.RuneCountInString(line)+1+utf8.RuneCountInString(w) > maxChars {
			out = append(out, line)
			line = ""
		}
		if line == "" {
			line = w
		} else {
			line += " " + w
		}
		if endsSentence(w) {
			out = append(out, line)
			line = ""
		}
	}
	if line != "" {
		out = append(out, line)
	}
	return out
}

// endsSentence ignores periods inside numbers like "4.5".
func endsSentence(w string) bool {
	switch {
	case strings.HasSuffix(w, "!"), strings.HasSuffix(w, "?"):
		return true
	case strings.HasSuffix(w, "."):
		return len(w) < 2 || w[len(w)-2] < '0' || w[len(w)-2] > '9'
	}
	return false
}

// Shift moves every cue by offset seconds.
func Shift(cues []Cue, offset float64) []Cue {
	out := make([]Cue, len(cues))
	for i, c := range cues {
		out[i] = Cue{Start: c.Start + offset, End: c.End + offset, Text: c.Text}
	}
	return out
}

// WriteSRT writes cues in SubRip format.
func WriteSRT(w io.Writer, cues []Cue) error {
	for i, c := range cues {
		if _, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n", i+1, FormatTimestamp(c.Start), FormatTimestamp(c.End), c.Text); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes cues to an .srt file.
func WriteFile(path string, cues []Cue) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSRT(f, cues); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(seconds*1000 + 0.5)
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}
