package services

import "regexp"

// registrationPattern is one compiled matcher for bar registrations in
// free text. Patterns are ordered by confidence, highest first, and the
// order is fixed so scoring is deterministic.
type registrationPattern struct {
	name       string
	confidence float64

	// ufFirst indicates the first capture group is the UF and the
	// second the number. Most patterns capture number first.
	ufFirst bool

	re *regexp.Regexp
}

// registrationPatterns covers the formatting variants seen in gazette
// text. Each pattern captures exactly two groups, a registration number
// and a UF, in the order its ufFirst flag declares.
//
// Covered formats include:
//
//	OAB 129021/SP
//	OAB/SP 129021
//	OAB-SP nº 129021
//	OAB 129.021/SP
//	advogado OAB 129021 SP
//	Dr. João Silva (OAB 129021/SP)
var registrationPatterns = []registrationPattern{
	{
		name:       "full_formatted",
		confidence: 0.95,
		re:         regexp.MustCompile(`(?i)OAB[\s\-/]*(\d{1,3}\.\d{3}|\d{4,6})[\s\-/]+([A-Z]{2})\b`),
	},
	{
		name:       "uf_then_number",
		confidence: 0.90,
		ufFirst:    true,
		re:         regexp.MustCompile(`(?i)OAB[\s\-/]+([A-Z]{2})[\s\-/nº]*(\d{1,6})\b`),
	},
	{
		name:       "basic",
		confidence: 0.88,
		re:         regexp.MustCompile(`(?i)OAB[\s\-/]*(\d{4,6})[\s\-/]+([A-Z]{2})\b`),
	},
	{
		name:       "parenthesised",
		confidence: 0.85,
		re:         regexp.MustCompile(`(?i)\(OAB[\s\-/]*(\d{4,6})[\s\-/]+([A-Z]{2})\)`),
	},
	{
		name:       "after_doctor",
		confidence: 0.82,
		re:         regexp.MustCompile(`(?i)(?:Dr\.?|Dra\.?)[\s\w]+OAB[\s\-/]*(\d{4,6})[\s\-/]+([A-Z]{2})\b`),
	},
	{
		name:       "after_advocate",
		confidence: 0.78,
		re:         regexp.MustCompile(`(?i)(?:advogado|advogada)[\s\w]*OAB[\s\-/]*(\d{4,6})[\s\-/]+([A-Z]{2})\b`),
	},
	{
		name:       "generic",
		confidence: 0.75,
		re:         regexp.MustCompile(`(?i)OAB[^\d]*(\d{4,6})[^\w]*([A-Z]{2})\b`),
	},
}

// suspectContextWords flag likely false positives: a digit run next to
// these is usually a case number, date or document code rather than a
// registration. A match is only discarded when its context window lacks
// the OAB marker itself.
var suspectContextWords = []string{
	"processo", "data", "código", "protocolo", "art.",
}
