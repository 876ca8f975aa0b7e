package scene

import (
	"strings"
	"unicode"
)

var streetSuffixes = map[string]string{
	"aly":  "Alley",
	"ave":  "Avenue",
	"blvd": "Boulevard",
	"brg":  "Bridge",
	"cir":  "Circle",
	"ct":   "Court",
	"dr":   "Drive",
	"expy": "Expressway",
	"hwy":  "Highway",
	"ln":   "Lane",
	"loop": "Loop",
	"mtwy": "Motorway",
	"pkwy": "Parkway",
	"pl":   "Place",
	"plz":  "Plaza",
	"rd":   "Road",
	"sq":   "Square",
	"st":   "Street",
	"ter":  "Terrace",
	"trl":  "Trail",
	"tpke": "Turnpike",
	"walk": "Walk",
	"way":  "Way",
}

// ExpandAbbreviations spells out street suffix abbreviations in an address.
// Punctuation around a word is kept, a trailing period of the abbreviation is dropped.
func ExpandAbbreviations(addr string) string {
	words := strings.Fields(addr)
	for i, w := range words {
		lead := strings.IndexFunc(w, isWordRune)
		if lead < 0 {
			continue
		}
		end := strings.LastIndexFunc(w, isWordRune) + 1
		core := w[lead:end]
		full, ok := streetSuffixes[strings.ToLower(core)]
		if !ok {
			continue
		}
		tail := strings.TrimPrefix(w[end:], ".")
		words[i] = w[:lead] + full + tail
	}
	return strings.Join(words, " ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
