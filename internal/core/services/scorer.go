package services

import (
	"strings"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
)

// ScorerConfig tunes the relevance scorer. Zero values mean defaults.
type ScorerConfig struct {
	// StructuredWeight and TextWeight combine the two signal families.
	// Defaults 0.6 and 0.4.
	StructuredWeight float64
	TextWeight       float64

	// StructuredConfidence is the fixed score for a structured-field
	// match. The field is parsed upstream so a hit is near-certain.
	// Default 0.95.
	StructuredConfidence float64

	// Threshold is the minimum final score to consider a publication
	// relevant. Default 0.3.
	Threshold float64
}

// Defaults for the scorer weights. The structured field is weighted
// higher because it is machine-populated upstream; free text carries
// OCR artefacts and formatting noise.
const (
	defaultStructuredWeight     = 0.6
	defaultTextWeight           = 0.4
	defaultStructuredConfidence = 0.95
	defaultThreshold            = 0.3

	// excerptWindow is how many characters of context are kept either
	// side of a text match.
	excerptWindow = 50
)

// withDefaults fills in zero fields.
func (c ScorerConfig) withDefaults() ScorerConfig {
	if c.StructuredWeight == 0 {
		c.StructuredWeight = defaultStructuredWeight
	}
	if c.TextWeight == 0 {
		c.TextWeight = defaultTextWeight
	}
	if c.StructuredConfidence == 0 {
		c.StructuredConfidence = defaultStructuredConfidence
	}
	if c.Threshold == 0 {
		c.Threshold = defaultThreshold
	}
	return c
}

// RelevanceScorer scores publications against a target registration.
// Scoring is pure and deterministic: the same publication and target
// always produce the same result, regardless of goroutine or ordering.
type RelevanceScorer struct {
	cfg ScorerConfig
}

// NewRelevanceScorer creates a scorer with the given configuration.
func NewRelevanceScorer(cfg ScorerConfig) *RelevanceScorer {
	return &RelevanceScorer{cfg: cfg.withDefaults()}
}

// Threshold returns the configured relevance threshold.
func (s *RelevanceScorer) Threshold() float64 {
	return s.cfg.Threshold
}

// Score evaluates one publication against the target registration.
func (s *RelevanceScorer) Score(pub domain.Publication, target domain.Registration) domain.ScoreResult {
	t := target.Normalise()

	var reasons []domain.MatchReason

	structured := s.scoreStructured(pub, t, &reasons)
	text := s.scoreText(pub.RawText, t, &reasons)

	final := structured*s.cfg.StructuredWeight + text*s.cfg.TextWeight
	if final > 1 {
		final = 1
	}

	return domain.ScoreResult{
		Structured: structured,
		Text:       text,
		Final:      final,
		Reasons:    reasons,
	}
}

// scoreStructured checks the parsed recipient field for the target.
func (s *RelevanceScorer) scoreStructured(pub domain.Publication, target domain.Registration, reasons *[]domain.MatchReason) float64 {
	hits := 0
	for _, rec := range pub.Recipients {
		if rec.Registration.Normalise() == target {
			hits++
		}
	}
	if hits == 0 {
		return 0
	}

	*reasons = append(*reasons, domain.MatchReason{
		Kind:        domain.MatchStructured,
		Pattern:     "recipient",
		Confidence:  s.cfg.StructuredConfidence,
		Occurrences: hits,
		Position:    -1,
	})
	return s.cfg.StructuredConfidence
}

// scoreText scans the raw text with every pattern and returns the best
// confidence adjusted for mention density and position.
func (s *RelevanceScorer) scoreText(text string, target domain.Registration, reasons *[]domain.MatchReason) float64 {
	if text == "" {
		return 0
	}

	best := 0.0
	firstPos := -1

	// Distinct mentions are keyed by the position of the number
	// capture: several patterns usually fire on the same text span and
	// must not inflate the density bonus.
	mentions := map[int]struct{}{}

	for _, p := range registrationPatterns {
		patternHits := 0
		patternFirst := -1

		for _, idx := range p.re.FindAllStringSubmatchIndex(text, -1) {
			// idx holds [full0 full1 g1s g1e g2s g2e].
			g1 := text[idx[2]:idx[3]]
			g2 := text[idx[4]:idx[5]]

			number, uf := g1, g2
			numberPos := idx[2]
			if p.ufFirst {
				number, uf = g2, g1
				numberPos = idx[4]
			}

			found := domain.Registration{Number: number, UF: uf}.Normalise()
			if found != target {
				continue
			}
			if suspectContext(text, idx[0], idx[1]) {
				continue
			}

			patternHits++
			if patternFirst < 0 {
				patternFirst = idx[0]
			}
			mentions[numberPos] = struct{}{}
		}

		if patternHits == 0 {
			continue
		}

		*reasons = append(*reasons, domain.MatchReason{
			Kind:        domain.MatchText,
			Pattern:     p.name,
			Confidence:  p.confidence,
			Occurrences: patternHits,
			Position:    patternFirst,
			Excerpt:     excerpt(text, patternFirst),
		})

		if p.confidence > best {
			best = p.confidence
		}
		if firstPos < 0 || patternFirst < firstPos {
			firstPos = patternFirst
		}
	}

	if len(mentions) == 0 {
		return 0
	}

	score := best + densityBonus(len(mentions)) + positionAdjustment(firstPos, len(text))
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// densityBonus rewards repeated mentions: a registration cited several
// times is almost never incidental.
func densityBonus(occurrences int) float64 {
	switch {
	case occurrences >= 3:
		return 0.2
	case occurrences == 2:
		return 0.1
	default:
		return 0
	}
}

// positionAdjustment nudges the score by where the first mention sits.
// Gazette entries name the addressed lawyers near the top; a mention
// only in the closing boilerplate is weaker evidence.
func positionAdjustment(pos, length int) float64 {
	if pos < 0 || length == 0 {
		return 0
	}
	rel := float64(pos) / float64(length)
	switch {
	case rel < 0.2:
		return 0.05
	case rel > 0.8:
		return -0.05
	default:
		return 0
	}
}

// suspectContext reports whether the window around a match looks like a
// case number, date or document code rather than a registration.
func suspectContext(text string, start, end int) bool {
	lo := start - excerptWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + excerptWindow
	if hi > len(text) {
		hi = len(text)
	}
	window := strings.ToLower(text[lo:hi])

	if strings.Contains(window, "oab") {
		return false
	}
	for _, w := range suspectContextWords {
		if strings.Contains(window, w) {
			return true
		}
	}
	return false
}

// excerpt returns a short context window around pos for audit output.
func excerpt(text string, pos int) string {
	if pos < 0 {
		return ""
	}
	lo := pos - excerptWindow
	if lo < 0 {
		lo = 0
	}
	hi := pos + excerptWindow
	if hi > len(text) {
		hi = len(text)
	}
	out := strings.TrimSpace(text[lo:hi])
	if lo > 0 {
		out = "..." + out
	}
	if hi < len(text) {
		out += "..."
	}
	return out
}
