package parser

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// cleanText folds compatibility characters (non-breaking spaces, full-width
// digits, ligatures) so that patterns only need to describe plain text.
func cleanText(s string) string {
	return norm.NFKC.String(s)
}

// joinPages concatenates page texts in order, one newline between pages.
func joinPages(pages []string) string {
	return strings.Join(pages, "\n")
}

// foldedText is document text folded with NFKC for matching. Offsets into
// the folded form map back to the original, so captured values keep the
// characters the statement printed.
type foldedText struct {
	original string
	folded   string
	spans    []foldSpan
}

// foldSpan is one normalization segment: where it starts in each form and
// whether folding left its bytes unchanged. Segments end at normalization
// boundaries, so folding never merges neighbouring characters.
type foldSpan struct {
	folded   int
	original int
	same     bool
}

func foldText(s string) *foldedText {
	var (
		b     strings.Builder
		spans []foldSpan
	)
	for start := 0; start < len(s); {
		n := norm.NFKC.NextBoundaryInString(s[start:], true)
		if n <= 0 {
			n = len(s) - start
		}
		piece := s[start : start+n]
		seg := norm.NFKC.String(piece)
		spans = append(spans, foldSpan{folded: b.Len(), original: start, same: seg == piece})
		b.WriteString(seg)
		start += n
	}
	return &foldedText{original: s, folded: b.String(), spans: spans}
}

// source returns the original text behind folded[start:end]. A negative
// start (an unmatched group) yields "".
func (t *foldedText) source(start, end int) string {
	if start < 0 || end < start {
		return ""
	}
	return t.original[t.origin(start, false):t.origin(end, true)]
}

// origin maps a folded offset to the original text. An offset inside a
// segment that folding changed snaps outwards to the segment's edge.
func (t *foldedText) origin(off int, end bool) int {
	i := sort.Search(len(t.spans), func(i int) bool { return t.spans[i].folded > off }) - 1
	if i < 0 {
		return 0
	}
	sp := t.spans[i]
	switch {
	case sp.same:
		return sp.original + off - sp.folded
	case off == sp.folded || !end:
		return sp.original
	case i+1 < len(t.spans):
		return t.spans[i+1].original
	default:
		return len(t.original)
	}
}

// trimValue strips surrounding whitespace from a captured value.
func trimValue(s string) string {
	return strings.TrimSpace(s)
}

// withCurrency prefixes an amount with the issuer's currency symbol.
func withCurrency(symbol, amount string) string {
	amount = trimValue(amount)
	if symbol == "" || amount == "" {
		return amount
	}
	return symbol + amount
}

// rawDate returns a date substring as found in the statement. Dates are never
// parsed because issuers disagree on day/month order.
func rawDate(s string) string {
	return trimValue(s)
}

// isBlank reports whether the text has no visible characters.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
