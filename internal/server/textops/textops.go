// Package textops implements the bulk line transforms offered by the API.
// None of them mutate their input.
package textops

import (
	"slices"
	"strings"
)

// Match is a line that contains the search text. Index is its 0-based
// position in the input.
type Match struct {
	Index int    `json:"index"`
	Line  string `json:"line"`
}

// Sort returns a byte-wise sorted copy of lines. Equal lines keep their
// relative order.
func Sort(lines []string, ascending bool) []string {
	out := slices.Clone(lines)
	if ascending {
		slices.SortStableFunc(out, strings.Compare)
	} else {
		slices.SortStableFunc(out, func(a, b string) int { return strings.Compare(b, a) })
	}
	return out
}

// Search returns the lines containing text.
func Search(lines []string, text string, caseSensitive bool) []Match {
	needle := text
	if !caseSensitive {
		needle = strings.ToLower(text)
	}

	matches := make([]Match, 0)
	for i, line := range lines {
		hay := line
		if !caseSensitive {
			hay = strings.ToLower(line)
		}
		if strings.Contains(hay, needle) {
			matches = append(matches, Match{Index: i, Line: line})
		}
	}
	return matches
}

// Replace substitutes every occurrence of old with repl in each line and
// reports how many lines changed. An empty old changes nothing.
func Replace(lines []string, old, repl string, caseSensitive bool) ([]string, int) {
	if old == "" {
		return slices.Clone(lines), 0
	}

	out := make([]string, len(lines))
	changed := 0
	for i, line := range lines {
		if caseSensitive {
			out[i] = strings.ReplaceAll(line, old, repl)
		} else {
			out[i] = replaceAllFold(line, old, repl)
		}
		if out[i] != line {
			changed++
		}
	}
	return out, changed
}

// replaceAllFold is strings.ReplaceAll with Unicode simple case folding on
// the match. Matching walks the original string rune by rune so byte offsets
// stay valid even when folding changes encoded lengths.
func replaceAllFold(s, old, repl string) string {
	if old == "" {
		return s
	}

	var sb strings.Builder
	i := 0
	for i < len(s) {
		if n := foldPrefixLen(s[i:], old); n > 0 {
			sb.WriteString(repl)
			i += n
			continue
		}
		_, size := decodeRune(s[i:])
		sb.WriteString(s[i : i+size])
		i += size
	}
	return sb.String()
}

// foldPrefixLen returns how many bytes of s match prefix under case folding,
// or 0 if s does not start with prefix.
func foldPrefixLen(s, prefix string) int {
	si, pi := 0, 0
	for pi < len(prefix) {
		if si >= len(s) {
			return 0
		}
		sr, ss := decodeRune(s[si:])
		pr, ps := decodeRune(prefix[pi:])
		if !strings.EqualFold(string(sr), string(pr)) {
			return 0
		}
		si += ss
		pi += ps
	}
	return si
}

// Delete drops the lines at the given 0-based positions. Positions that are
// out of range or repeated are ignored. It returns the remaining lines and the
// number of lines removed.
func Delete(lines []string, positions []int) ([]string, int) {
	drop := make(map[int]struct{}, len(positions))
	for _, p := range positions {
		if p >= 0 && p < len(lines) {
			drop[p] = struct{}{}
		}
	}

	out := make([]string, 0, len(lines)-len(drop))
	for i, line := range lines {
		if _, ok := drop[i]; !ok {
			out = append(out, line)
		}
	}
	return out, len(drop)
}
