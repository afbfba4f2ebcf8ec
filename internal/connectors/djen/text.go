package djen

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentFolder decomposes characters and removes the combining marks,
// turning "intimação" into "intimacao".
var accentFolder = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripHTML reduces an HTML fragment to its visible text. Gazette
// payloads wrap the publication text in markup that must not leak into
// scoring or hashing.
func StripHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		// Not parseable as HTML; treat the payload as plain text.
		return strings.TrimSpace(fragment)
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Canonicalise produces the canonical text form that defines record
// identity: accents folded, lower-cased, whitespace collapsed. Two
// uploads of the same publication differing only in encoding or
// formatting canonicalise identically.
func Canonicalise(s string) string {
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	return strings.Join(strings.Fields(folded), " ")
}
