package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Publication represents a single court-gazette publication.
// It is the canonical representation after the upstream HTML payload
// has been stripped to plain text at the connector boundary.
type Publication struct {
	// SourceID is the upstream-assigned identifier. It is NOT trusted
	// as identity: the upstream may reassign or repeat it for
	// identical content. ContentHash is the true identity.
	SourceID string

	// Tribunal is the court acronym (e.g. "TJSP", "STJ").
	Tribunal string

	// Date is the gazette publication date (civil date, UTC midnight).
	Date time.Time

	// RawText is the full publication text after HTML stripping.
	RawText string

	// Recipients are the lawyers the upstream says this publication
	// is addressed to. The structured field is more reliable than the
	// free text but is frequently empty or incomplete.
	Recipients []Recipient

	// ContentHash is the hex SHA-256 of the canonical representation.
	// See Publication.Fingerprint.
	ContentHash string
}

// Recipient is a parsed entry of the structured addressee field.
type Recipient struct {
	// Name is the lawyer's name as reported upstream.
	Name string

	// Registration is the lawyer's bar registration.
	Registration Registration
}

// Registration identifies a bar registration: the number plus the
// two-letter state section (UF) it was issued in.
type Registration struct {
	Number string
	UF     string
}

// registrationSeparators matches the formatting characters allowed
// inside a registration number (dots, spaces, hyphens).
var registrationSeparators = regexp.MustCompile(`[.\s\-]`)

// validUFs is the set of Brazilian state sections a registration can
// belong to.
var validUFs = map[string]struct{}{
	"AC": {}, "AL": {}, "AP": {}, "AM": {}, "BA": {}, "CE": {}, "DF": {},
	"ES": {}, "GO": {}, "MA": {}, "MT": {}, "MS": {}, "MG": {}, "PA": {},
	"PB": {}, "PR": {}, "PE": {}, "PI": {}, "RJ": {}, "RN": {}, "RS": {},
	"RO": {}, "RR": {}, "SC": {}, "SP": {}, "SE": {}, "TO": {},
}

// Normalise returns the registration with formatting stripped from the
// number (dots, spaces, hyphens) and the UF upper-cased. Comparisons
// must always be made on normalised registrations.
func (r Registration) Normalise() Registration {
	return Registration{
		Number: registrationSeparators.ReplaceAllString(r.Number, ""),
		UF:     strings.ToUpper(strings.TrimSpace(r.UF)),
	}
}

// Valid reports whether the registration is plausible: a 4-6 digit
// number and a recognised UF. Shorter or longer digit runs are almost
// always case numbers, document codes or dates.
func (r Registration) Valid() bool {
	n := r.Normalise()
	if len(n.Number) < 4 || len(n.Number) > 6 {
		return false
	}
	for _, c := range n.Number {
		if c < '0' || c > '9' {
			return false
		}
	}
	_, ok := validUFs[n.UF]
	return ok
}

// String formats the registration as "number/UF".
func (r Registration) String() string {
	n := r.Normalise()
	return n.Number + "/" + n.UF
}

// DateFormat is the wire format for civil dates.
const DateFormat = "2006-01-02"

// DateRange is an inclusive civil date interval.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String formats the range as "start..end".
func (d DateRange) String() string {
	return d.Start.Format(DateFormat) + ".." + d.End.Format(DateFormat)
}

// Query is a date-bounded watch query against the upstream listing.
type Query struct {
	// Target is the registration being watched.
	Target Registration

	// Dates bounds the gazette dates fetched.
	Dates DateRange

	// Tribunal optionally narrows the query to one court.
	Tribunal string

	// PageSize is the upstream page size. Zero means the default.
	PageSize int
}

// CacheKey derives the whole-query cache key. Two queries that would
// fetch and score the same data share a key regardless of input
// formatting.
func (q Query) CacheKey() string {
	t := q.Target.Normalise()
	raw := fmt.Sprintf("query\x00%s\x00%s\x00%s\x00%s",
		t.Number, t.UF, q.Dates.String(), strings.ToUpper(q.Tribunal))
	sum := sha256.Sum256([]byte(raw))
	return "query:" + hex.EncodeToString(sum[:])
}

// PageCacheKey derives the per-page cache key. It deliberately omits
// the target: pages are target-independent, so one target's retried
// job can reuse pages fetched for another.
func (q Query) PageCacheKey(page int) string {
	raw := fmt.Sprintf("page\x00%s\x00%s\x00%d",
		q.Dates.String(), strings.ToUpper(q.Tribunal), page)
	sum := sha256.Sum256([]byte(raw))
	return "page:" + hex.EncodeToString(sum[:])
}

// Fingerprint computes the content hash for a publication: the hex
// SHA-256 over tribunal, date and the canonical text, NUL-separated.
// The canonicalisation rules define record identity and must not
// change without a migration:
//
//   - Unicode NFKD with combining marks removed (accent folding)
//   - lower-cased
//   - every whitespace run collapsed to a single space, trimmed
//
// The caller supplies the canonicaliser so this package stays free of
// external dependencies; connectors use their text pipeline.
func Fingerprint(tribunal string, date time.Time, canonicalText string) string {
	raw := strings.ToUpper(tribunal) + "\x00" + date.Format(DateFormat) + "\x00" + canonicalText
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
