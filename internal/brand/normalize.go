package brand

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Code points seen in brand names that went through a bad encoding round trip.
// They must be replaced before folding, otherwise they either vanish or fold to
// the wrong letter.
var codepointReplacer = strings.NewReplacer(
	"\u201a", "e", // low-9 quote left where cp850 "é" (0x82) was decoded as cp1252
	"\u0082", "e", // same byte decoded as latin-1
	"Ã©", "e",
	"Ã¡", "a",
	"Ã\u00ad", "i",
	"Ã³", "o",
	"Ãº", "u",
	"Ã±", "n",
	"\u2018", "",
	"\u2019", "",
	"\u201c", "",
	"\u201d", "",
	"\u2039", "",
	"\u203a", "",
	"\u00ab", "",
	"\u00bb", "",
	"\u2013", " ",
	"\u2014", " ",
	"\u00a0", " ",
)

type alias struct {
	fragments []string
	key       string
}

// Keys whose spelling drifted too far in the source files to be fixed by
// folding alone. Every fragment must be present for the alias to apply.
var aliases = []alias{
	{fragments: []string{"eh", "catl"}, key: "corporativoehecatlsadecv"},
}

func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize maps a raw brand name to its lookup key: ascii, lowercase,
// letters and digits only. Blank input yields "".
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	s := codepointReplacer.Replace(raw)
	s = strings.ToLower(fold(s))
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	key := sb.String()
	for _, a := range aliases {
		if containsAll(key, a.fragments) {
			return a.key
		}
	}
	return key
}

func containsAll(s string, parts []string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
